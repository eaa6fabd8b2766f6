package entities

import (
	"fmt"
	"log"

	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/ecs"
	"github.com/decker502/jumpfocus/pkg/game"
	"github.com/decker502/jumpfocus/pkg/rig"
)

// NewAvatarEntity 为新跟踪到的玩家创建人偶实体
//
// 人偶在 GameWorld.SpawnPoint() 处构建；实体携带人偶、起跳状态和准备手势组件，
// 三者同生同灭，所以换人时状态自然归零。
//
// 参数:
//   - gw: 游戏世界
//   - topo: 人偶布局
//   - trackingID: 传感器分配的人体跟踪 ID
//
// 返回:
//   - ecs.EntityID: 人偶实体
//   - error: 布局无效
func NewAvatarEntity(gw *game.GameWorld, topo *config.RigTopology, trackingID uint64) (ecs.EntityID, error) {
	r, err := rig.New(gw.Physics, topo, gw.SpawnPoint())
	if err != nil {
		return 0, fmt.Errorf("failed to build avatar: %w", err)
	}

	em := gw.EntityManager
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.AvatarComponent{Rig: r, TrackingID: trackingID})
	ecs.AddComponent(em, id, &components.JumpComponent{State: components.JumpIdle})
	ecs.AddComponent(em, id, &components.ReadinessComponent{})

	for _, body := range r.Bodies() {
		gw.Tag(body, game.BodyTag{Kind: game.BodyAvatar, Entity: id})
	}

	log.Printf("[AvatarFactory] Avatar %d created for body %d", id, trackingID)
	return id, nil
}

// DestroyAvatarEntity 释放人偶并删除实体，重复调用无副作用
func DestroyAvatarEntity(gw *game.GameWorld, id ecs.EntityID) {
	em := gw.EntityManager
	avatar, ok := ecs.GetComponent[*components.AvatarComponent](em, id)
	if !ok {
		return
	}
	for _, body := range avatar.Rig.Bodies() {
		gw.Untag(body)
	}
	avatar.Rig.Dispose()
	em.DestroyEntity(id)
	em.RemoveMarkedEntities()
}
