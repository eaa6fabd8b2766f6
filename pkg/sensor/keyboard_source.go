package sensor

import (
	"math"

	"github.com/decker502/jumpfocus/pkg/types"
	"github.com/hajimehoshi/ebiten/v2"
)

// 合成骨架参数
const (
	kbGravity     = 9.8 // 起跳后参考点的减速度
	kbJumpSpeed   = 3.0 // 按下 Up 时身体的竖直初速度（米/秒）
	kbLeanSpeed   = 1.5 // 左右移动速度
	kbArmRaise    = math.Pi / 3
	kbTrackingID  = 1
	kbHipHeight   = 1.0
	kbShoulderGap = 0.2
)

// standingPose 直立姿态下各关节相对髋部中心的位置（Y 向上）
var standingPose = map[types.JointType]Point3{
	types.JointSpineBase:     {0, 0, 0},
	types.JointSpineMid:      {0, 0.3, 0},
	types.JointSpineShoulder: {0, 0.55, 0},
	types.JointNeck:          {0, 0.62, 0},
	types.JointHead:          {0, 0.78, 0},
	types.JointShoulderLeft:  {-kbShoulderGap, 0.52, 0},
	types.JointShoulderRight: {kbShoulderGap, 0.52, 0},
	types.JointHipLeft:       {-0.1, 0, 0},
	types.JointHipRight:      {0.1, 0, 0},
	types.JointKneeLeft:      {-0.1, -0.45, 0},
	types.JointKneeRight:     {0.1, -0.45, 0},
	types.JointAnkleLeft:     {-0.1, -0.9, 0},
	types.JointAnkleRight:    {0.1, -0.9, 0},
	types.JointFootLeft:      {-0.15, -0.95, 0},
	types.JointFootRight:     {0.15, -0.95, 0},
}

// KeyboardSource 用键盘合成一个站立的人体
//
// 按键：
//   - Space: 双手握拳（准备手势）
//   - Up: 起跳（身体获得向上初速度后减速）
//   - Left/Right: 左右移动（空中控制）
//   - W: 抬起双臂
type KeyboardSource struct {
	step    float64
	pressed func(ebiten.Key) bool

	seq      uint64
	x, y, vy float64
	wasUp    bool
}

// NewKeyboardSource 创建键盘数据源
//
// 参数:
//   - step: 每次 Latest 调用对应的时间（秒），通常为 1/TPS
func NewKeyboardSource(step float64) *KeyboardSource {
	return &KeyboardSource{step: step, pressed: ebiten.IsKeyPressed}
}

// Latest 每次调用都合成新的一帧
func (k *KeyboardSource) Latest() (*Frame, bool) {
	up := k.pressed(ebiten.KeyArrowUp)
	if up && !k.wasUp && k.y == 0 {
		k.vy = kbJumpSpeed
	}
	k.wasUp = up

	if k.y > 0 || k.vy > 0 {
		k.y += k.vy * k.step
		k.vy -= kbGravity * k.step
		if k.y <= 0 {
			k.y, k.vy = 0, 0
		}
	}

	if k.pressed(ebiten.KeyArrowLeft) {
		k.x -= kbLeanSpeed * k.step
	}
	if k.pressed(ebiten.KeyArrowRight) {
		k.x += kbLeanSpeed * k.step
	}

	hand := types.HandOpen
	if k.pressed(ebiten.KeySpace) {
		hand = types.HandClosed
	}
	raise := 0.0
	if k.pressed(ebiten.KeyW) {
		raise = kbArmRaise
	}

	k.seq++
	body := Body{
		TrackingID: kbTrackingID,
		IsTracked:  true,
		Joints:     make(map[types.JointType]Joint, len(standingPose)+6),
		HandLeft:   hand,
		HandRight:  hand,
	}
	origin := Point3{X: k.x, Y: kbHipHeight + k.y}
	for jt, p := range standingPose {
		body.Joints[jt] = trackedAt(origin, p)
	}

	// 手臂：从肩膀沿方位角伸出，右臂 0 弧度水平向右，左臂镜像
	for _, arm := range []struct {
		shoulder, elbow, wrist, hand types.JointType
		dir                          float64
	}{
		{types.JointShoulderLeft, types.JointElbowLeft, types.JointWristLeft, types.JointHandLeft, -1},
		{types.JointShoulderRight, types.JointElbowRight, types.JointWristRight, types.JointHandRight, 1},
	} {
		s := standingPose[arm.shoulder]
		dx, dy := arm.dir*math.Cos(raise), math.Sin(raise)
		body.Joints[arm.elbow] = trackedAt(origin, Point3{X: s.X + 0.25*dx, Y: s.Y + 0.25*dy})
		body.Joints[arm.wrist] = trackedAt(origin, Point3{X: s.X + 0.5*dx, Y: s.Y + 0.5*dy})
		body.Joints[arm.hand] = trackedAt(origin, Point3{X: s.X + 0.58*dx, Y: s.Y + 0.58*dy})
	}

	return &Frame{Seq: k.seq, Time: float64(k.seq) * k.step, Bodies: []Body{body}}, true
}

func (k *KeyboardSource) Close() error { return nil }

func trackedAt(origin, offset Point3) Joint {
	return Joint{
		Position: Point3{
			X: origin.X + offset.X,
			Y: origin.Y + offset.Y,
			Z: 2 + offset.Z,
		},
		TrackingState: types.Tracked,
	}
}
