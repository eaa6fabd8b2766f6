package systems

import (
	"fmt"
	"log"

	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/sensor"
)

// 准备手势提示
const (
	MessageJump = "JUMP!!"
)

// ReadinessSystem 检测准备手势：双手握拳连续保持 holdSeconds 秒
//
// 任何一帧不是双手握拳都会让计时归零。完成后起跳状态机进入 ReadyArmed。
type ReadinessSystem struct {
	holdSeconds float64
}

// NewReadinessSystem 创建准备手势系统
func NewReadinessSystem(holdSeconds float64) *ReadinessSystem {
	return &ReadinessSystem{holdSeconds: holdSeconds}
}

// InstructionMessage 未握拳时的提示
func (s *ReadinessSystem) InstructionMessage() string {
	return fmt.Sprintf("Keep both hands closed for %g sec", s.holdSeconds)
}

// Update 推进准备手势计时
//
// 参数:
//   - rc: 准备手势状态
//   - jc: 起跳状态（完成手势时调用 Arm）
//   - body: 玩家骨骼
//   - dt: 距上次更新的时间（<= 0 时不计时）
//
// 返回:
//   - bool: 本次调用是否刚刚完成准备
func (s *ReadinessSystem) Update(rc *components.ReadinessComponent, jc *components.JumpComponent, body *sensor.Body, dt float64) bool {
	if rc.Armed {
		if !jc.HasJumped() {
			rc.Message = MessageJump
		} else {
			rc.Message = ""
		}
		return false
	}

	if !body.BothHandsClosed() {
		rc.HeldSeconds = 0
		rc.Message = s.InstructionMessage()
		return false
	}

	if dt > 0 {
		rc.HeldSeconds += dt
	}
	if rc.HeldSeconds > s.holdSeconds {
		rc.Armed = true
		rc.Message = MessageJump
		jc.Arm()
		log.Printf("[Readiness] Armed after %.2fs", rc.HeldSeconds)
		return true
	}

	rc.Message = fmt.Sprintf("%.2f", s.holdSeconds-rc.HeldSeconds)
	return false
}
