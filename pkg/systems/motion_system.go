package systems

import (
	"math"

	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/physics"
	"github.com/decker502/jumpfocus/pkg/rig"
	"github.com/decker502/jumpfocus/pkg/sensor"
	"github.com/decker502/jumpfocus/pkg/types"
)

// MotionSystem 把玩家骨骼姿态映射为人偶关节马达指令
//
// 每个带 drive 的马达关节：目标角 = 两个骨骼关节连线的方位角 + 偏移，
// 马达速度 = (目标角 - 当前关节角) / 有效步长，扭矩上限固定。
// 任一端点不可信时马达速度置 0。
type MotionSystem struct {
	maxTorque   float64
	speedFactor float64

	lastTarget map[string]float64
}

// NewMotionSystem 创建动作映射系统
func NewMotionSystem(cfg config.MotionConfig) *MotionSystem {
	return &MotionSystem{
		maxTorque:   cfg.MaxMotorTorque,
		speedFactor: cfg.SpeedFactor,
		lastTarget:  make(map[string]float64),
	}
}

// Bearing 起点指向终点的方位角 atan2(Δy, Δx)
func Bearing(start, end sensor.Point3) float64 {
	return math.Atan2(end.Y-start.Y, end.X-start.X)
}

// Update 根据本帧骨骼数据更新人偶
//
// 参数:
//   - r: 人偶（已释放或头部为 NaN 时跳过本帧）
//   - body: 玩家骨骼，nil 表示本帧没有数据（所有马达置 0）
//   - stepSeconds: 距上次更新的时间
func (s *MotionSystem) Update(r *rig.Rig, body *sensor.Body, stepSeconds float64) {
	if r == nil || !r.Valid() {
		return
	}

	// 躯干角度直接由两肩连线决定（传感器 Y 向上，世界 Y 向下，取反）
	sl := body.Joint(types.JointShoulderLeft)
	sr := body.Joint(types.JointShoulderRight)
	if sl.Trusted() && sr.Trusted() {
		r.SetTorsoAngle(-Bearing(sl.Position, sr.Position))
	}

	scaledStep := 0.0
	if s.speedFactor > 0 {
		scaledStep = stepSeconds / s.speedFactor
	}

	for _, j := range r.Joints() {
		if !j.Spec.Motor {
			continue
		}
		name := j.Spec.Name
		drive := j.Drive()
		if drive == nil {
			j.Revolute.SetMotorSpeed(0)
			delete(s.lastTarget, name)
			continue
		}

		start := body.Joint(drive.Start)
		end := body.Joint(drive.End)
		if !start.Trusted() || !end.Trusted() {
			j.Revolute.SetMotorSpeed(0)
			delete(s.lastTarget, name)
			continue
		}

		target := Bearing(start.Position, end.Position) + drive.AngleOffset
		s.lastTarget[name] = target

		speed := 0.0
		if scaledStep > 0 {
			speed = (target - j.Revolute.GetJointAngle()) / scaledStep
		}
		if !physics.IsFinite(speed) {
			speed = 0
		}
		j.Revolute.SetMotorSpeed(speed)
		j.Revolute.SetMaxMotorTorque(s.maxTorque)
	}
}

// LastTarget 关节在最近一次更新中的目标角
// 本帧未计算（端点不可信、无 drive）时返回 false
func (s *MotionSystem) LastTarget(jointName string) (float64, bool) {
	t, ok := s.lastTarget[jointName]
	return t, ok
}
