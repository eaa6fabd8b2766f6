package components

import "github.com/ByteArena/box2d"

// PhysicsBodyComponent 实体对应的物理刚体
type PhysicsBodyComponent struct {
	Body *box2d.B2Body
}

// CollectibleComponent 金币
// Value 在首次被玩家碰到时计入得分并清零，之后不再绘制
type CollectibleComponent struct {
	Value  int
	Radius float64
}

// Collected 是否已被收集
func (c *CollectibleComponent) Collected() bool {
	return c.Value <= 0
}

// CloudComponent 云朵（可穿过，减缓上升）
type CloudComponent struct {
	HalfWidth  float64
	HalfHeight float64
}

// HazardComponent 漂浮障碍物（猫），会挡住玩家
type HazardComponent struct {
	HalfWidth  float64
	HalfHeight float64
}

// FloorComponent 着陆判定用的地面
type FloorComponent struct {
	HalfWidth  float64
	HalfHeight float64
}
