package systems

import (
	"log"

	"github.com/ByteArena/box2d"
	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/physics"
	"github.com/decker502/jumpfocus/pkg/rig"
	"github.com/decker502/jumpfocus/pkg/sensor"
)

// JumpSystem 起跳状态机
//
// ReadyArmed 状态下跟踪参考关节（默认 SpineMid）的竖直速度峰值：
//   - 峰值超过阈值：躯干切换为动态，施加一次向上冲量（增益 * 峰值）
//   - 峰值比当前速度大出 decelMargin：上升已开始减速，进入 Jumped
//
// Jumped 之后改为横向控制：按参考关节的横向位移施加水平冲量。
type JumpSystem struct {
	cfg config.JumpConfig
}

// NewJumpSystem 创建起跳系统
func NewJumpSystem(cfg config.JumpConfig) *JumpSystem {
	return &JumpSystem{cfg: cfg}
}

// Update 用本帧骨骼数据推进起跳状态机
//
// 参考关节不可信时保留上一个样本，不做任何计算；
// 有效步长 <= 0 时同样跳过，避免除零。
//
// 参数:
//   - r: 人偶
//   - jc: 起跳状态
//   - body: 玩家骨骼
//   - stepSeconds: 距上次更新的时间
func (s *JumpSystem) Update(r *rig.Rig, jc *components.JumpComponent, body *sensor.Body, stepSeconds float64) {
	if jc.State == components.JumpIdle {
		return
	}
	if r == nil || !r.Valid() {
		return
	}

	ref := body.Joint(s.cfg.ReferenceJoint)
	if !ref.Trusted() {
		return
	}
	cur := ref.Position

	if !jc.HasPrev {
		jc.PrevPosition = cur
		jc.HasPrev = true
		return
	}

	scaledStep := 0.0
	if s.cfg.SpeedFactor > 0 {
		scaledStep = stepSeconds / s.cfg.SpeedFactor
	}
	if scaledStep <= 0 || !physics.IsFinite(scaledStep) {
		return
	}
	prev := jc.PrevPosition

	switch jc.State {
	case components.JumpReadyArmed:
		speed := (cur.Y - prev.Y) / scaledStep
		if speed > jc.VerticalSpeedPeak {
			jc.VerticalSpeedPeak = speed
		}
		peak := jc.VerticalSpeedPeak

		if peak > s.cfg.Threshold {
			if !jc.ImpulseApplied {
				r.MakeDynamic()
				// 世界坐标 Y 向下，向上冲量为负
				r.ApplyImpulse(box2d.MakeB2Vec2(0, -s.cfg.ImpulseGain*peak))
				jc.ImpulseApplied = true
				log.Printf("[Jump] Launch: peak vertical speed %.2f", peak)
			}
			if peak > speed+s.cfg.DecelMargin {
				jc.State = components.JumpJumped
				log.Printf("[Jump] Jumped (peak %.2f, current %.2f)", peak, speed)
			}
		}

	case components.JumpJumped:
		hSpeed := s.cfg.HorizontalGain * (cur.X - prev.X) / scaledStep
		if hSpeed != 0 {
			r.ApplyImpulse(box2d.MakeB2Vec2(hSpeed, 0))
		}
	}

	jc.PrevPosition = cur
}
