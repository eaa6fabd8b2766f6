package physics

import (
	"math"

	"github.com/ByteArena/box2d"
)

// Units 显示单位（像素）与模拟单位（米）之间的换算
type Units struct {
	// PixelsPerMeter 每米对应的像素数
	PixelsPerMeter float64
}

// ToDisplay 模拟单位 -> 像素
func (u Units) ToDisplay(sim float64) float64 {
	return sim * u.PixelsPerMeter
}

// ToSim 像素 -> 模拟单位
func (u Units) ToSim(display float64) float64 {
	if u.PixelsPerMeter == 0 {
		return 0
	}
	return display / u.PixelsPerMeter
}

// IsFinite 检查标量是否为有限值（非 NaN、非 Inf）
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// IsFiniteVec 检查向量两个分量是否都为有限值
//
// 物理步进发散时位置会变成 NaN，调用方据此跳过当帧的绘制/更新。
func IsFiniteVec(v box2d.B2Vec2) bool {
	return IsFinite(v.X) && IsFinite(v.Y)
}

// Viewport 摄像机视口：把世界坐标映射到屏幕像素
type Viewport struct {
	// Left, Top 视口左上角的世界坐标（模拟单位）
	Left, Top float64
	Units     Units
}

// ToScreen 世界坐标 -> 屏幕像素
func (v Viewport) ToScreen(p box2d.B2Vec2) (float64, float64) {
	return v.Units.ToDisplay(p.X - v.Left), v.Units.ToDisplay(p.Y - v.Top)
}

// Scale 世界长度 -> 像素长度
func (v Viewport) Scale(length float64) float64 {
	return v.Units.ToDisplay(length)
}
