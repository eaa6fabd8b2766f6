package rig

import (
	"image/color"
	"strconv"

	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/physics"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	defaultSegmentColor = color.RGBA{0xc8, 0xc8, 0xc8, 0xff}
	outlineColor        = color.RGBA{0x20, 0x20, 0x20, 0xff}

	pixel *ebiten.Image
)

// whitePixel 延迟创建 1x1 白色图片，用于绘制旋转矩形
func whitePixel() *ebiten.Image {
	if pixel == nil {
		pixel = ebiten.NewImage(1, 1)
		pixel.Fill(color.White)
	}
	return pixel
}

// Draw 按当前姿态绘制全部部件
//
// 头部位置为 NaN 时（物理发散）直接跳过本帧。
func (r *Rig) Draw(screen *ebiten.Image, vp physics.Viewport) {
	if !r.Valid() {
		return
	}
	for _, s := range r.segments {
		pos := s.Body.GetPosition()
		angle := s.Body.GetAngle()
		if !physics.IsFiniteVec(pos) || !physics.IsFinite(angle) {
			continue
		}
		x, y := vp.ToScreen(pos)
		clr := SegmentColor(s.Spec)

		if s.Spec.Shape == config.ShapeCircle {
			radius := float32(vp.Scale(s.Spec.Radius))
			vector.DrawFilledCircle(screen, float32(x), float32(y), radius, clr, true)
			// 半径线显示头部朝向
			dx, dy := rotate(0, float64(radius), angle)
			vector.StrokeLine(screen, float32(x), float32(y), float32(x+dx), float32(y+dy), 1, outlineColor, true)
			continue
		}

		w := vp.Scale(s.Spec.HalfWidth * 2)
		h := vp.Scale(s.Spec.HalfHeight * 2)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-0.5, -0.5)
		op.GeoM.Scale(w, h)
		op.GeoM.Rotate(angle)
		op.GeoM.Translate(x, y)
		op.ColorScale.ScaleWithColor(clr)
		screen.DrawImage(whitePixel(), op)
	}
}

// SegmentColor 解析部件颜色，未配置时使用默认灰色
func SegmentColor(spec config.SegmentSpec) color.RGBA {
	if len(spec.Color) != 7 || spec.Color[0] != '#' {
		return defaultSegmentColor
	}
	v, err := strconv.ParseUint(spec.Color[1:], 16, 32)
	if err != nil {
		return defaultSegmentColor
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}

func rotate(x, y, angle float64) (float64, float64) {
	m := ebiten.GeoM{}
	m.Rotate(angle)
	return m.Apply(x, y)
}
