package systems

import (
	"fmt"
	"image/color"

	"github.com/ByteArena/box2d"
	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/ecs"
	"github.com/decker502/jumpfocus/pkg/game"
	"github.com/decker502/jumpfocus/pkg/physics"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	skyColor   = color.RGBA{0x87, 0xce, 0xeb, 0xff}
	floorColor = color.RGBA{0x3c, 0x8d, 0x2f, 0xff}
	cloudColor = color.RGBA{0xff, 0xff, 0xff, 0xd0}
	coinColor  = color.RGBA{0xff, 0xd7, 0x00, 0xff}
	catColor   = color.RGBA{0xf4, 0xa4, 0x60, 0xff}
)

// RenderSystem 绘制回合画面
//
// 绘制顺序：天空 -> 地面 -> 云 -> 金币 -> 猫 -> 人偶 -> 状态栏。
// 已收集（价值为 0）的金币不再绘制。
type RenderSystem struct {
	gw    *game.GameWorld
	pixel *ebiten.Image
}

// NewRenderSystem 创建渲染系统
func NewRenderSystem(gw *game.GameWorld) *RenderSystem {
	return &RenderSystem{gw: gw}
}

// Draw 绘制整个回合
//
// 参数:
//   - screen: 目标画布
//   - vp: 摄像机视口
func (s *RenderSystem) Draw(screen *ebiten.Image, vp physics.Viewport) {
	screen.Fill(skyColor)
	s.DrawWorld(screen, vp)
	s.DrawAvatars(screen, vp)
	s.DrawHUD(screen)
}

// DrawWorld 绘制地面、云、金币和猫
func (s *RenderSystem) DrawWorld(screen *ebiten.Image, vp physics.Viewport) {
	em := s.gw.EntityManager

	for _, id := range ecs.GetEntitiesWith2[*components.PhysicsBodyComponent, *components.FloorComponent](em) {
		pb, _ := ecs.GetComponent[*components.PhysicsBodyComponent](em, id)
		f, _ := ecs.GetComponent[*components.FloorComponent](em, id)
		s.drawBox(screen, vp, pb.Body, f.HalfWidth, f.HalfHeight, floorColor)
	}

	for _, id := range ecs.GetEntitiesWith2[*components.PhysicsBodyComponent, *components.CloudComponent](em) {
		pb, _ := ecs.GetComponent[*components.PhysicsBodyComponent](em, id)
		c, _ := ecs.GetComponent[*components.CloudComponent](em, id)
		s.drawBox(screen, vp, pb.Body, c.HalfWidth, c.HalfHeight, cloudColor)
	}

	for _, id := range s.gw.ActiveCollectibles() {
		pb, ok := ecs.GetComponent[*components.PhysicsBodyComponent](em, id)
		if !ok {
			continue
		}
		coin, _ := ecs.GetComponent[*components.CollectibleComponent](em, id)
		pos := pb.Body.GetPosition()
		if !physics.IsFiniteVec(pos) {
			continue
		}
		x, y := vp.ToScreen(pos)
		vector.DrawFilledCircle(screen, float32(x), float32(y), float32(vp.Scale(coin.Radius)), coinColor, true)
	}

	for _, id := range ecs.GetEntitiesWith2[*components.PhysicsBodyComponent, *components.HazardComponent](em) {
		pb, _ := ecs.GetComponent[*components.PhysicsBodyComponent](em, id)
		h, _ := ecs.GetComponent[*components.HazardComponent](em, id)
		s.drawBox(screen, vp, pb.Body, h.HalfWidth, h.HalfHeight, catColor)
	}
}

// DrawAvatars 绘制所有人偶（已释放或发散的人偶跳过）
func (s *RenderSystem) DrawAvatars(screen *ebiten.Image, vp physics.Viewport) {
	em := s.gw.EntityManager
	for _, id := range ecs.GetEntitiesWith1[*components.AvatarComponent](em) {
		avatar, _ := ecs.GetComponent[*components.AvatarComponent](em, id)
		avatar.Rig.Draw(screen, vp)
	}
}

// DrawHUD 绘制得分、最高高度和提示信息
func (s *RenderSystem) DrawHUD(screen *ebiten.Image) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Score: %d", s.gw.Score()), 10, 10)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("Max Altitude: %d", int(s.gw.Altitude())), 10, 26)

	if msg := s.gw.Message(); msg != "" {
		w, h := screen.Bounds().Dx(), screen.Bounds().Dy()
		// DebugPrint 字符宽 6px
		ebitenutil.DebugPrintAt(screen, msg, w/2-len(msg)*3, h/3)
	}
}

func (s *RenderSystem) drawBox(screen *ebiten.Image, vp physics.Viewport, body *box2d.B2Body, hw, hh float64, clr color.Color) {
	if body == nil || !s.gw.Physics.Contains(body) {
		return
	}
	pos := body.GetPosition()
	angle := body.GetAngle()
	if !physics.IsFiniteVec(pos) || !physics.IsFinite(angle) {
		return
	}
	if s.pixel == nil {
		s.pixel = ebiten.NewImage(1, 1)
		s.pixel.Fill(color.White)
	}
	x, y := vp.ToScreen(pos)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(-0.5, -0.5)
	op.GeoM.Scale(vp.Scale(hw*2), vp.Scale(hh*2))
	op.GeoM.Rotate(angle)
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	screen.DrawImage(s.pixel, op)
}
