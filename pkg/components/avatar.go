package components

import "github.com/decker502/jumpfocus/pkg/rig"

// AvatarComponent 玩家人偶
// 每个被跟踪的玩家对应一个实体，玩家丢失时人偶被释放、实体被删除
type AvatarComponent struct {
	Rig        *rig.Rig
	TrackingID uint64 // 传感器分配的人体跟踪 ID
}
