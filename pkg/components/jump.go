package components

import "github.com/decker502/jumpfocus/pkg/sensor"

// JumpState 起跳状态
type JumpState int

const (
	// JumpIdle 初始状态，等待准备手势
	JumpIdle JumpState = iota
	// JumpReadyArmed 已准备，开始检测竖直速度
	JumpReadyArmed
	// JumpJumped 已起跳（终态，直到人偶被替换）
	JumpJumped
)

func (s JumpState) String() string {
	switch s {
	case JumpIdle:
		return "Idle"
	case JumpReadyArmed:
		return "ReadyArmed"
	case JumpJumped:
		return "Jumped"
	}
	return "Unknown"
}

// JumpComponent 起跳状态机数据
//
// 状态只能单向变化：Idle -> ReadyArmed -> Jumped。
// 新人偶创建时随实体一起新建，中途没有重置路径。
type JumpComponent struct {
	State JumpState

	// VerticalSpeedPeak 准备后观测到的最大竖直速度
	VerticalSpeedPeak float64

	// PrevPosition 上一个可信的参考关节位置，HasPrev 为 false 时尚无样本
	PrevPosition sensor.Point3
	HasPrev      bool

	// ImpulseApplied 起跳冲量已施加（只施加一次）
	ImpulseApplied bool
}

// Arm Idle -> ReadyArmed，其他状态不变
func (j *JumpComponent) Arm() {
	if j.State == JumpIdle {
		j.State = JumpReadyArmed
	}
}

// HasJumped 是否已进入 Jumped
func (j *JumpComponent) HasJumped() bool {
	return j.State == JumpJumped
}
