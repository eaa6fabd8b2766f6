package systems

import (
	"math"

	"github.com/ByteArena/box2d"
	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/ecs"
	"github.com/decker502/jumpfocus/pkg/game"
	"github.com/decker502/jumpfocus/pkg/physics"
)

// CameraSystem 摄像机跟随人偶
//
// 视口中心对准跟随目标，并限制在世界范围内。
// 每次更新把视口顶边对应的高度（世界高度 - Top）记为回合高度。
type CameraSystem struct {
	gw           *game.GameWorld
	cameraEntity ecs.EntityID
}

// NewCameraSystem 创建摄像机实体，初始视口对准出生点
func NewCameraSystem(gw *game.GameWorld) *CameraSystem {
	em := gw.EntityManager
	cs := &CameraSystem{gw: gw}

	cs.cameraEntity = em.CreateEntity()
	cam := &components.CameraComponent{
		Width:  gw.Config.Camera.Width,
		Height: gw.Config.Camera.Height,
	}
	ecs.AddComponent(em, cs.cameraEntity, cam)
	cs.center(cam, gw.SpawnPoint())

	return cs
}

// Entity 摄像机实体
func (cs *CameraSystem) Entity() ecs.EntityID { return cs.cameraEntity }

// Follow 设置跟随目标
func (cs *CameraSystem) Follow(target box2d.B2Vec2) {
	cam, ok := cs.camera()
	if !ok || !physics.IsFiniteVec(target) {
		return
	}
	cam.Target = target
	cam.HasTarget = true
}

// Unfollow 取消跟随（人偶被释放时），视口停在原处
func (cs *CameraSystem) Unfollow() {
	if cam, ok := cs.camera(); ok {
		cam.HasTarget = false
	}
}

// Update 移动视口并记录高度
func (cs *CameraSystem) Update(dt float64) {
	cam, ok := cs.camera()
	if !ok {
		return
	}
	if cam.HasTarget {
		cs.center(cam, cam.Target)
	}
	cs.gw.RecordAltitude(cs.gw.Config.World.Height - cam.Top)
}

// Viewport 当前视口
func (cs *CameraSystem) Viewport() physics.Viewport {
	vp := physics.Viewport{Units: cs.gw.Units}
	if cam, ok := cs.camera(); ok {
		vp.Left = cam.Left
		vp.Top = cam.Top
	}
	return vp
}

func (cs *CameraSystem) camera() (*components.CameraComponent, bool) {
	return ecs.GetComponent[*components.CameraComponent](cs.gw.EntityManager, cs.cameraEntity)
}

// center 视口中心对准 p，限制在 [0, 世界尺寸 - 视口尺寸] 内
func (cs *CameraSystem) center(cam *components.CameraComponent, p box2d.B2Vec2) {
	w := cs.gw.Config.World
	cam.Left = clamp(p.X-cam.Width/2, 0, math.Max(0, w.Width-cam.Width))
	cam.Top = clamp(p.Y-cam.Height/2, 0, math.Max(0, w.Height-cam.Height))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
