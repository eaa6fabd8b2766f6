package components

import "github.com/ByteArena/box2d"

// CameraComponent 跟随人偶的摄像机
//
// 视口以模拟单位（米）表示，Left/Top 为左上角世界坐标。
type CameraComponent struct {
	// Left, Top 视口左上角（世界坐标）
	Left float64
	Top  float64

	// Width, Height 视口尺寸
	Width  float64
	Height float64

	// Target 跟随目标（人偶躯干质心），HasTarget 为 false 时保持原位
	Target    box2d.B2Vec2
	HasTarget bool
}
