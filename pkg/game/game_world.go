package game

import (
	"fmt"
	"log"

	"github.com/ByteArena/box2d"
	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/ecs"
	"github.com/decker502/jumpfocus/pkg/physics"
)

// BodyKind 刚体在游戏中的身份
type BodyKind int

const (
	BodyUnknown BodyKind = iota
	BodyAvatar
	BodyCollectible
	BodyHazard
	BodyCloud
	BodyFloor
	BodyBoundary
)

func (k BodyKind) String() string {
	switch k {
	case BodyAvatar:
		return "avatar"
	case BodyCollectible:
		return "collectible"
	case BodyHazard:
		return "hazard"
	case BodyCloud:
		return "cloud"
	case BodyFloor:
		return "floor"
	case BodyBoundary:
		return "boundary"
	}
	return "unknown"
}

// BodyTag 刚体侧表条目：身份 + 对应的 ECS 实体
type BodyTag struct {
	Kind   BodyKind
	Entity ecs.EntityID
}

// GameWorld 一个回合的游戏世界
//
// 职责：
//   - 持有物理世界和实体管理器
//   - 刚体 -> 身份侧表，供碰撞分发查询
//   - 得分（金币 + 最高高度）和着陆信号
//   - 回合时钟（着陆后物理停止，但时钟继续走，用于结算等待）
type GameWorld struct {
	Config        *config.GameConfig
	Physics       *physics.World
	EntityManager *ecs.EntityManager
	Units         physics.Units

	tags map[*box2d.B2Body]BodyTag

	coins    int
	altitude float64
	clock    float64

	landingArmed bool
	hasLanded    bool
	landedAt     float64

	message string
}

// NewGameWorld 创建空的游戏世界（不含任何物体，见 entities.GenerateWorld）
func NewGameWorld(cfg *config.GameConfig, em *ecs.EntityManager) *GameWorld {
	return &GameWorld{
		Config:        cfg,
		Physics:       physics.NewWorld(box2d.MakeB2Vec2(0, cfg.World.Gravity), cfg.World.VelocityIterations, cfg.World.PositionIterations),
		EntityManager: em,
		Units:         physics.Units{PixelsPerMeter: cfg.Display.PixelsPerMeter},
		tags:          make(map[*box2d.B2Body]BodyTag),
	}
}

// Tag 登记刚体身份
func (gw *GameWorld) Tag(body *box2d.B2Body, tag BodyTag) {
	if body == nil {
		return
	}
	gw.tags[body] = tag
}

// Untag 移除刚体身份（刚体被删除时调用）
func (gw *GameWorld) Untag(body *box2d.B2Body) {
	delete(gw.tags, body)
}

// TagOf 查询刚体身份
func (gw *GameWorld) TagOf(body *box2d.B2Body) (BodyTag, bool) {
	tag, ok := gw.tags[body]
	return tag, ok
}

// SpawnPoint 人偶出生点：世界水平中央、距底部 SpawnOffset
func (gw *GameWorld) SpawnPoint() box2d.B2Vec2 {
	w := gw.Config.World
	return box2d.MakeB2Vec2(w.Width/2, w.Height-w.SpawnOffset)
}

// Step 推进回合时钟和物理世界
//
// dt <= 0 时什么都不做；着陆后只推进时钟。
func (gw *GameWorld) Step(dt float64) {
	if dt <= 0 || !physics.IsFinite(dt) {
		return
	}
	gw.clock += dt
	if gw.hasLanded {
		return
	}
	gw.Physics.Step(dt)
}

// Clock 回合时钟（秒）
func (gw *GameWorld) Clock() float64 { return gw.clock }

// AwardCoins 累加金币得分
func (gw *GameWorld) AwardCoins(value int) {
	if value <= 0 {
		return
	}
	gw.coins += value
}

// Coins 已收集的金币总值
func (gw *GameWorld) Coins() int { return gw.coins }

// RecordAltitude 记录当前高度，只保留最大值
func (gw *GameWorld) RecordAltitude(altitude float64) {
	if !physics.IsFinite(altitude) {
		return
	}
	if altitude > gw.altitude {
		gw.altitude = altitude
	}
}

// Altitude 本回合最高高度
func (gw *GameWorld) Altitude() float64 { return gw.altitude }

// Score 得分 = 金币 + 最高高度（取整）
func (gw *GameWorld) Score() int {
	return gw.coins + int(gw.altitude)
}

// ArmLanding 人偶离开出生点后才开始接受着陆
// 起跳前悬挂的肢体碰到地面不算着陆
func (gw *GameWorld) ArmLanding() {
	gw.landingArmed = true
}

// LandingArmed 是否已开始接受着陆
func (gw *GameWorld) LandingArmed() bool { return gw.landingArmed }

// Land 玩家碰到地面
//
// 只有第一次有效：设置着陆标志、记录时间戳和结算提示。
//
// 返回:
//   - bool: 本次调用是否触发了着陆
func (gw *GameWorld) Land() bool {
	if gw.hasLanded || !gw.landingArmed {
		return false
	}
	gw.hasLanded = true
	gw.landedAt = gw.clock
	gw.message = fmt.Sprintf("Your score is %d", gw.Score())
	log.Printf("[GameWorld] Landed at %.2fs: coins=%d altitude=%.1f", gw.clock, gw.coins, gw.altitude)
	return true
}

// HasLanded 是否已着陆
func (gw *GameWorld) HasLanded() bool { return gw.hasLanded }

// LandedAt 着陆时的回合时钟
func (gw *GameWorld) LandedAt() float64 { return gw.landedAt }

// ReadyToFinalize 着陆后已经等待了足够的时间，可以结算
func (gw *GameWorld) ReadyToFinalize() bool {
	return gw.hasLanded && gw.clock-gw.landedAt >= gw.Config.Round.LandingGraceSeconds
}

// Message 当前屏幕提示
func (gw *GameWorld) Message() string { return gw.message }

// SetMessage 设置屏幕提示（着陆后保持结算提示不变）
func (gw *GameWorld) SetMessage(msg string) {
	if gw.hasLanded {
		return
	}
	gw.message = msg
}

// ActiveCollectibles 仍有价值（未被收集）的金币实体
func (gw *GameWorld) ActiveCollectibles() []ecs.EntityID {
	var active []ecs.EntityID
	for _, id := range ecs.GetEntitiesWith1[*components.CollectibleComponent](gw.EntityManager) {
		c, ok := ecs.GetComponent[*components.CollectibleComponent](gw.EntityManager, id)
		if ok && !c.Collected() {
			active = append(active, id)
		}
	}
	return active
}
