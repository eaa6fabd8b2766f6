package ecs

import (
	"reflect"
	"sort"
)

// EntityID 是实体的唯一标识符
type EntityID uint64

// EntityManager 管理所有实体和组件
type EntityManager struct {
	nextID uint64
	// 实体-组件映射: EntityID -> ComponentType -> Component实例
	components map[EntityID]map[reflect.Type]interface{}
	// 待删除的实体ID列表
	entitiesToDestroy []EntityID
}

// NewEntityManager 创建一个新的 EntityManager 实例
func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID:            1, // ID从1开始,0保留为无效ID
		components:        make(map[EntityID]map[reflect.Type]interface{}),
		entitiesToDestroy: make([]EntityID, 0),
	}
}

// CreateEntity 创建新实体并返回唯一ID
func (em *EntityManager) CreateEntity() EntityID {
	id := EntityID(em.nextID)
	em.nextID++
	em.components[id] = make(map[reflect.Type]interface{})
	return id
}

// DestroyEntity 标记实体待删除(不立即删除)
func (em *EntityManager) DestroyEntity(id EntityID) {
	em.entitiesToDestroy = append(em.entitiesToDestroy, id)
}

// Exists 检查实体是否存在（已标记删除但尚未清理的实体仍视为存在）
func (em *EntityManager) Exists(id EntityID) bool {
	_, ok := em.components[id]
	return ok
}

// AddComponent 为实体添加组件
func (em *EntityManager) AddComponent(id EntityID, component interface{}) {
	componentType := reflect.TypeOf(component)
	if compMap, exists := em.components[id]; exists {
		compMap[componentType] = component
	}
}

// RemoveComponent 从实体移除指定类型的组件
func (em *EntityManager) RemoveComponent(id EntityID, componentType reflect.Type) {
	if compMap, exists := em.components[id]; exists {
		delete(compMap, componentType)
	}
}

// GetComponent 获取实体的特定类型组件
func (em *EntityManager) GetComponent(id EntityID, componentType reflect.Type) (interface{}, bool) {
	if compMap, exists := em.components[id]; exists {
		if comp, found := compMap[componentType]; found {
			return comp, true
		}
	}
	return nil, false
}

// HasComponent 检查实体是否拥有特定类型组件
func (em *EntityManager) HasComponent(id EntityID, componentType reflect.Type) bool {
	if compMap, exists := em.components[id]; exists {
		_, found := compMap[componentType]
		return found
	}
	return false
}

// RemoveMarkedEntities 清理所有标记删除的实体
func (em *EntityManager) RemoveMarkedEntities() {
	for _, id := range em.entitiesToDestroy {
		delete(em.components, id)
	}
	em.entitiesToDestroy = em.entitiesToDestroy[:0] // 清空切片
}

// GetEntitiesWith 查询拥有指定组件类型组合的所有实体
// 参数: componentTypes ...reflect.Type - 需要的组件类型列表
// 返回: []EntityID - 满足条件的实体ID列表（按ID升序，保证遍历顺序稳定）
func (em *EntityManager) GetEntitiesWith(componentTypes ...reflect.Type) []EntityID {
	result := make([]EntityID, 0)

	for id, compMap := range em.components {
		hasAll := true
		for _, ct := range componentTypes {
			if _, found := compMap[ct]; !found {
				hasAll = false
				break
			}
		}
		if hasAll {
			result = append(result, id)
		}
	}

	// 物理世界的创建/碰撞顺序依赖实体顺序，map 遍历是随机的
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// ========================================
// 泛型辅助函数
// ========================================

// AddComponent 泛型版本的组件添加
func AddComponent[T any](em *EntityManager, id EntityID, component T) {
	em.AddComponent(id, component)
}

// GetComponent 泛型版本的组件查询，省去调用方的类型断言
//
// 示例:
//
//	coin, ok := ecs.GetComponent[*components.CollectibleComponent](em, id)
func GetComponent[T any](em *EntityManager, id EntityID) (T, bool) {
	var zero T
	comp, ok := em.GetComponent(id, reflect.TypeOf((*T)(nil)).Elem())
	if !ok {
		return zero, false
	}
	typed, ok := comp.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// HasComponent 泛型版本的组件存在性检查
func HasComponent[T any](em *EntityManager, id EntityID) bool {
	return em.HasComponent(id, reflect.TypeOf((*T)(nil)).Elem())
}

// GetEntitiesWith1 查询拥有 T1 组件的实体
func GetEntitiesWith1[T1 any](em *EntityManager) []EntityID {
	return em.GetEntitiesWith(reflect.TypeOf((*T1)(nil)).Elem())
}

// GetEntitiesWith2 查询同时拥有 T1、T2 组件的实体
func GetEntitiesWith2[T1, T2 any](em *EntityManager) []EntityID {
	return em.GetEntitiesWith(
		reflect.TypeOf((*T1)(nil)).Elem(),
		reflect.TypeOf((*T2)(nil)).Elem(),
	)
}
