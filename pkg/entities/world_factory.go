package entities

import (
	"fmt"
	"log"
	"math/rand"

	"github.com/ByteArena/box2d"
	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/ecs"
	"github.com/decker502/jumpfocus/pkg/game"
	"github.com/decker502/jumpfocus/pkg/physics"
)

// GenerateWorld 生成回合的全部场景物体
//
// 依次创建：世界边界、着陆地面、金币、云朵、猫。
// 每个刚体都对应一个 ECS 实体，并登记到 GameWorld 的身份侧表。
//
// 参数:
//   - gw: 游戏世界（物理世界应为空）
//   - rng: 随机源（由调用方注入，测试可固定种子）
func GenerateWorld(gw *game.GameWorld, rng *rand.Rand) error {
	if gw == nil || rng == nil {
		return fmt.Errorf("game world and random source are required")
	}
	cfg := gw.Config
	w := cfg.World

	boundary := gw.Physics.CreateBoundary(w.Width, w.Height, w.BoundaryThickness, w.BoundaryRestitution)
	gw.Tag(boundary, game.BodyTag{Kind: game.BodyBoundary})

	NewFloorEntity(gw)

	// 物体只出现在出生点上方，避免开局就压在人偶身上
	top := 0.0
	bottom := w.Height - w.SpawnOffset - 2*cfg.Camera.Height/3

	for i := 0; i < cfg.Coins.Count; i++ {
		r := cfg.Coins.Radius
		pos := randomPoint(rng, r, w.Width-r, top+r, bottom)
		value := cfg.Coins.MinValue + rng.Intn(cfg.Coins.MaxValue-cfg.Coins.MinValue)
		NewCoinEntity(gw, pos, value)
	}

	for i := 0; i < cfg.Clouds.Count; i++ {
		c := cfg.Clouds
		pos := randomPoint(rng, c.HalfWidth, w.Width-c.HalfWidth, top+c.HalfHeight, bottom)
		NewCloudEntity(gw, pos)
	}

	for i := 0; i < cfg.Cats.Count; i++ {
		c := cfg.Cats
		pos := randomPoint(rng, c.HalfWidth, w.Width-c.HalfWidth, top+c.HalfHeight, bottom)
		impulse := c.MinImpulse + rng.Float64()*(c.MaxImpulse-c.MinImpulse)
		if rng.Intn(2) == 0 {
			impulse = -impulse
		}
		NewCatEntity(gw, pos, impulse)
	}

	log.Printf("[WorldFactory] Generated world: %d coins, %d clouds, %d cats (%d bodies)",
		cfg.Coins.Count, cfg.Clouds.Count, cfg.Cats.Count, gw.Physics.BodyCount())
	return nil
}

func randomPoint(rng *rand.Rand, minX, maxX, minY, maxY float64) box2d.B2Vec2 {
	if maxY < minY {
		maxY = minY
	}
	return box2d.MakeB2Vec2(
		minX+rng.Float64()*(maxX-minX),
		minY+rng.Float64()*(maxY-minY),
	)
}

// NewFloorEntity 创建着陆地面
// 地面与世界边界是不同的刚体，碰到边界只会反弹，碰到地面才结束回合
func NewFloorEntity(gw *game.GameWorld) ecs.EntityID {
	w := gw.Config.World
	hw, hh := w.Width/2, w.FloorHeight/2
	body := gw.Physics.CreateBody(physics.BodyDef{
		Type:       physics.BodyStatic,
		Shape:      physics.ShapeBox,
		Position:   box2d.MakeB2Vec2(w.Width/2, w.Height-hh),
		HalfWidth:  hw,
		HalfHeight: hh,
		Friction:   0.8,
		Category:   physics.CategoryWorld,
	})

	em := gw.EntityManager
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.PhysicsBodyComponent{Body: body})
	ecs.AddComponent(em, id, &components.FloorComponent{HalfWidth: hw, HalfHeight: hh})
	gw.Tag(body, game.BodyTag{Kind: game.BodyFloor, Entity: id})
	return id
}

// NewCoinEntity 创建金币：静态圆形传感器，只与玩家产生接触
func NewCoinEntity(gw *game.GameWorld, pos box2d.B2Vec2, value int) ecs.EntityID {
	r := gw.Config.Coins.Radius
	body := gw.Physics.CreateBody(physics.BodyDef{
		Type:     physics.BodyStatic,
		Shape:    physics.ShapeCircle,
		Position: pos,
		Radius:   r,
		Sensor:   true,
		Category: physics.CategoryCollectible,
		Mask:     physics.CategoryPlayer,
	})

	em := gw.EntityManager
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.PhysicsBodyComponent{Body: body})
	ecs.AddComponent(em, id, &components.CollectibleComponent{Value: value, Radius: r})
	gw.Tag(body, game.BodyTag{Kind: game.BodyCollectible, Entity: id})
	return id
}

// NewCloudEntity 创建云朵：静态矩形，接触在 PreSolve 中被禁用（可穿过）
func NewCloudEntity(gw *game.GameWorld, pos box2d.B2Vec2) ecs.EntityID {
	c := gw.Config.Clouds
	body := gw.Physics.CreateBody(physics.BodyDef{
		Type:       physics.BodyStatic,
		Shape:      physics.ShapeBox,
		Position:   pos,
		HalfWidth:  c.HalfWidth,
		HalfHeight: c.HalfHeight,
		Category:   physics.CategoryScenery,
		Mask:       physics.CategoryPlayer,
	})

	em := gw.EntityManager
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.PhysicsBodyComponent{Body: body})
	ecs.AddComponent(em, id, &components.CloudComponent{HalfWidth: c.HalfWidth, HalfHeight: c.HalfHeight})
	gw.Tag(body, game.BodyTag{Kind: game.BodyCloud, Entity: id})
	return id
}

// NewCatEntity 创建猫：不受重力的动态矩形，带初始横向冲量，会挡住玩家
func NewCatEntity(gw *game.GameWorld, pos box2d.B2Vec2, impulseX float64) ecs.EntityID {
	c := gw.Config.Cats
	body := gw.Physics.CreateBody(physics.BodyDef{
		Type:          physics.BodyDynamic,
		Shape:         physics.ShapeBox,
		Position:      pos,
		HalfWidth:     c.HalfWidth,
		HalfHeight:    c.HalfHeight,
		Mass:          c.Mass,
		Restitution:   1,
		IgnoreGravity: true,
		Category:      physics.CategoryScenery,
		Mask:          physics.CategoryPlayer | physics.CategoryWorld | physics.CategoryScenery,
	})
	physics.ApplyImpulse(body, box2d.MakeB2Vec2(impulseX, 0))

	em := gw.EntityManager
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.PhysicsBodyComponent{Body: body})
	ecs.AddComponent(em, id, &components.HazardComponent{HalfWidth: c.HalfWidth, HalfHeight: c.HalfHeight})
	gw.Tag(body, game.BodyTag{Kind: game.BodyHazard, Entity: id})
	return id
}
