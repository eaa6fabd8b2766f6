package systems

import (
	"log"

	"github.com/ByteArena/box2d"
	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/ecs"
	"github.com/decker502/jumpfocus/pkg/game"
)

// CollisionSystem 把 box2d 碰撞回调分发为游戏事件
//
// 只处理玩家参与的接触：
//   - 金币：计分一次并清零，之后不再绘制也不再计分
//   - 地面：触发着陆（GameWorld.Land 保证只触发一次）
//   - 云朵：玩家上升时施加向下的阻力冲量
//
// 金币和云朵的接触在 PreSolve 中禁用，玩家可以直接穿过。
type CollisionSystem struct {
	gw *game.GameWorld
}

// NewCollisionSystem 创建碰撞系统并注册为物理世界的碰撞回调
func NewCollisionSystem(gw *game.GameWorld) *CollisionSystem {
	s := &CollisionSystem{gw: gw}
	gw.Physics.SetContactHandler(s)
	return s
}

// classify 找出接触中的玩家刚体和对方刚体
//
// 返回:
//   - player: 玩家一侧的身份
//   - other: 对方的身份
//   - playerBody: 玩家一侧的刚体
//   - ok: 接触是否有玩家参与（双方都是玩家时也返回 false）
func (s *CollisionSystem) classify(a, b *box2d.B2Fixture) (player, other game.BodyTag, playerBody *box2d.B2Body, ok bool) {
	if a == nil || b == nil {
		return
	}
	tagA, okA := s.gw.TagOf(a.GetBody())
	tagB, okB := s.gw.TagOf(b.GetBody())
	isPlayerA := okA && tagA.Kind == game.BodyAvatar
	isPlayerB := okB && tagB.Kind == game.BodyAvatar

	switch {
	case isPlayerA && !isPlayerB:
		return tagA, tagB, a.GetBody(), true
	case isPlayerB && !isPlayerA:
		return tagB, tagA, b.GetBody(), true
	}
	return
}

// BeginContact 实现 physics.ContactHandler
func (s *CollisionSystem) BeginContact(a, b *box2d.B2Fixture) {
	player, other, playerBody, ok := s.classify(a, b)
	if !ok {
		return
	}

	switch other.Kind {
	case game.BodyCollectible:
		s.collect(other.Entity)
	case game.BodyFloor:
		s.gw.Land()
	case game.BodyCloud:
		s.drag(player.Entity, playerBody)
	}
}

// PreSolve 实现 physics.ContactHandler
func (s *CollisionSystem) PreSolve(a, b *box2d.B2Fixture) bool {
	_, other, _, ok := s.classify(a, b)
	if !ok {
		return true
	}
	switch other.Kind {
	case game.BodyCollectible, game.BodyCloud:
		return false
	}
	return true
}

func (s *CollisionSystem) collect(id ecs.EntityID) {
	coin, ok := ecs.GetComponent[*components.CollectibleComponent](s.gw.EntityManager, id)
	if !ok || coin.Collected() {
		return
	}
	value := coin.Value
	coin.Value = 0
	s.gw.AwardCoins(value)
	log.Printf("[Collision] Coin %d collected (+%d, total %d)", id, value, s.gw.Coins())
}

func (s *CollisionSystem) drag(avatarID ecs.EntityID, touched *box2d.B2Body) {
	impulse := s.gw.Config.Clouds.DragImpulse
	if impulse <= 0 {
		return
	}
	avatar, ok := ecs.GetComponent[*components.AvatarComponent](s.gw.EntityManager, avatarID)
	if !ok || avatar.Rig.Disposed() {
		return
	}
	torso := avatar.Rig.Torso().Body
	if torso.GetLinearVelocity().Y >= 0 && touched.GetLinearVelocity().Y >= 0 {
		return
	}
	avatar.Rig.ApplyImpulse(box2d.MakeB2Vec2(0, impulse))
}
