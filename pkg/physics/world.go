// Package physics 封装 box2d 刚体世界
//
// 职责：
//   - 刚体/旋转关节的创建（形状、密度、碰撞类别、阻尼）
//   - 世界成员关系跟踪：重复删除同一刚体是 box2d 的非法操作，
//     所有删除都先检查成员关系
//   - 步进期间（碰撞回调内）的删除请求延迟到步进结束后执行
//   - 碰撞回调分发给上层的 ContactHandler
package physics

import (
	"log"
	"math"

	"github.com/ByteArena/box2d"
)

// 碰撞类别位掩码
const (
	CategoryPlayer      uint16 = 0x0001 // 玩家（人偶各部件）
	CategoryCollectible uint16 = 0x0002 // 可收集物（金币）
	CategoryScenery     uint16 = 0x0004 // 场景物体（云、猫）
	CategoryWorld       uint16 = 0x0008 // 世界边界和地面
	CategoryAll         uint16 = 0xFFFF
)

// 刚体类型（box2d 使用 uint8 表示）
var (
	BodyStatic    = box2d.B2BodyType.B2_staticBody
	BodyKinematic = box2d.B2BodyType.B2_kinematicBody
	BodyDynamic   = box2d.B2BodyType.B2_dynamicBody
)

// ShapeKind 刚体形状
type ShapeKind int

const (
	ShapeBox ShapeKind = iota
	ShapeCircle
)

// BodyDef 刚体定义
type BodyDef struct {
	Type     uint8
	Shape    ShapeKind
	Position box2d.B2Vec2
	Angle    float64

	HalfWidth  float64 // ShapeBox
	HalfHeight float64 // ShapeBox
	Radius     float64 // ShapeCircle

	// Density 密度；Mass > 0 时按形状面积换算密度以得到指定质量
	Density float64
	Mass    float64

	Friction       float64
	Restitution    float64
	AngularDamping float64
	IgnoreGravity  bool
	Sensor         bool

	Category uint16
	Mask     uint16
}

// RevoluteDef 旋转关节定义
type RevoluteDef struct {
	BodyA, BodyB     *box2d.B2Body
	LocalAnchorA     box2d.B2Vec2
	LocalAnchorB     box2d.B2Vec2
	EnableMotor      bool
	MaxMotorTorque   float64
	LockAngle        bool // 锁定相对角度（如头部与躯干）
	CollideConnected bool
}

// ContactHandler 接收碰撞回调
//
// 回调在 Step 内同步执行，实现方不得直接增删刚体（使用 World.QueueDestroy）。
type ContactHandler interface {
	// BeginContact 两个夹具开始接触
	BeginContact(a, b *box2d.B2Fixture)
	// PreSolve 返回 false 时禁用本次接触的物理响应（穿透）
	PreSolve(a, b *box2d.B2Fixture) bool
}

// World box2d 世界包装
type World struct {
	b2 *box2d.B2World

	velocityIterations int
	positionIterations int

	bodies   map[*box2d.B2Body]struct{}
	pending  []*box2d.B2Body
	stepping bool

	handler ContactHandler
}

// NewWorld 创建物理世界
//
// 参数:
//   - gravity: 重力加速度（模拟单位，Y 轴向下为正）
//   - velocityIterations, positionIterations: 约束求解迭代次数
func NewWorld(gravity box2d.B2Vec2, velocityIterations, positionIterations int) *World {
	b2w := box2d.MakeB2World(gravity)
	w := &World{
		b2:                 &b2w,
		velocityIterations: velocityIterations,
		positionIterations: positionIterations,
		bodies:             make(map[*box2d.B2Body]struct{}),
	}
	w.b2.SetContactListener(&contactListener{world: w})
	return w
}

// SetContactHandler 设置碰撞回调接收者
func (w *World) SetContactHandler(h ContactHandler) {
	w.handler = h
}

// CreateBody 按定义创建刚体（单夹具）
func (w *World) CreateBody(def BodyDef) *box2d.B2Body {
	bd := box2d.MakeB2BodyDef()
	bd.Type = def.Type
	bd.Position = def.Position
	bd.Angle = def.Angle
	bd.AngularDamping = def.AngularDamping
	if def.IgnoreGravity {
		bd.GravityScale = 0
	}

	body := w.b2.CreateBody(&bd)

	fd := box2d.MakeB2FixtureDef()
	switch def.Shape {
	case ShapeCircle:
		shape := box2d.MakeB2CircleShape()
		shape.M_radius = def.Radius
		fd.Shape = &shape
	default:
		shape := box2d.MakeB2PolygonShape()
		shape.SetAsBox(def.HalfWidth, def.HalfHeight)
		fd.Shape = &shape
	}
	fd.Density = densityFor(def)
	fd.Friction = def.Friction
	fd.Restitution = def.Restitution
	fd.IsSensor = def.Sensor
	fd.Filter.CategoryBits = categoryOrDefault(def.Category)
	fd.Filter.MaskBits = maskOrDefault(def.Mask)
	body.CreateFixtureFromDef(&fd)

	w.bodies[body] = struct{}{}
	return body
}

// CreateBoundary 创建围住整个世界的静态边界（四面薄墙，单一刚体）
//
// 参数:
//   - width, height: 世界尺寸（模拟单位），左上角为原点
//   - thickness: 墙厚度
//   - restitution: 弹性系数（原版为 1，完全反弹）
func (w *World) CreateBoundary(width, height, thickness, restitution float64) *box2d.B2Body {
	bd := box2d.MakeB2BodyDef()
	bd.Type = BodyStatic
	body := w.b2.CreateBody(&bd)

	half := thickness / 2
	walls := []struct {
		hx, hy float64
		center box2d.B2Vec2
	}{
		// 顶、底、左、右
		{width / 2, half, box2d.MakeB2Vec2(width/2, -half)},
		{width / 2, half, box2d.MakeB2Vec2(width/2, height+half)},
		{half, height / 2, box2d.MakeB2Vec2(-half, height/2)},
		{half, height / 2, box2d.MakeB2Vec2(width+half, height/2)},
	}
	for _, wall := range walls {
		shape := box2d.MakeB2PolygonShape()
		shape.SetAsBoxFromCenterAndAngle(wall.hx, wall.hy, wall.center, 0)
		fd := box2d.MakeB2FixtureDef()
		fd.Shape = &shape
		fd.Restitution = restitution
		fd.Filter.CategoryBits = CategoryWorld
		fd.Filter.MaskBits = CategoryAll
		body.CreateFixtureFromDef(&fd)
	}

	w.bodies[body] = struct{}{}
	return body
}

// CreateRevolute 创建旋转关节
//
// 参考角度取两刚体当前的角度差，因此构建时的姿态即为关节零角度。
func (w *World) CreateRevolute(def RevoluteDef) *box2d.B2RevoluteJoint {
	jd := box2d.MakeB2RevoluteJointDef()
	jd.BodyA = def.BodyA
	jd.BodyB = def.BodyB
	jd.LocalAnchorA = def.LocalAnchorA
	jd.LocalAnchorB = def.LocalAnchorB
	jd.ReferenceAngle = def.BodyB.GetAngle() - def.BodyA.GetAngle()
	jd.CollideConnected = def.CollideConnected
	jd.EnableMotor = def.EnableMotor
	jd.MotorSpeed = 0
	jd.MaxMotorTorque = def.MaxMotorTorque
	if def.LockAngle {
		jd.EnableLimit = true
		jd.LowerAngle = 0
		jd.UpperAngle = 0
	}

	return w.b2.CreateJoint(&jd).(*box2d.B2RevoluteJoint)
}

// Contains 检查刚体是否仍在世界中
func (w *World) Contains(body *box2d.B2Body) bool {
	if body == nil {
		return false
	}
	_, ok := w.bodies[body]
	return ok
}

// BodyCount 返回世界中（未删除的）刚体数量
func (w *World) BodyCount() int {
	return len(w.bodies)
}

// DestroyBody 从世界删除刚体
//
// 非成员刚体（已删除或属于其他世界）直接忽略并返回 false。
// 步进期间的调用会被延迟到本次步进结束。
//
// 返回:
//   - bool: 刚体是否为世界成员（true 表示已删除或已排队删除）
func (w *World) DestroyBody(body *box2d.B2Body) bool {
	if !w.Contains(body) {
		return false
	}
	if w.stepping {
		w.QueueDestroy(body)
		return true
	}
	delete(w.bodies, body)
	w.b2.DestroyBody(body)
	return true
}

// QueueDestroy 将刚体加入延迟删除队列，在下一次 Step 结束后删除
func (w *World) QueueDestroy(body *box2d.B2Body) {
	if !w.Contains(body) {
		return
	}
	for _, p := range w.pending {
		if p == body {
			return
		}
	}
	w.pending = append(w.pending, body)
}

// Step 推进物理世界
//
// dt <= 0（如第一帧尚无经过时间）时不做任何事。
func (w *World) Step(dt float64) {
	if dt <= 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return
	}

	w.stepping = true
	w.b2.Step(dt, w.velocityIterations, w.positionIterations)
	w.stepping = false

	w.flushPending()
}

func (w *World) flushPending() {
	if len(w.pending) == 0 {
		return
	}
	pending := w.pending
	w.pending = nil
	for _, body := range pending {
		if w.DestroyBody(body) {
			log.Printf("[Physics] Deferred body removal applied")
		}
	}
}

// ApplyImpulse 在刚体质心施加线性冲量
func ApplyImpulse(body *box2d.B2Body, impulse box2d.B2Vec2) {
	body.ApplyLinearImpulse(impulse, body.GetWorldCenter(), true)
}

func densityFor(def BodyDef) float64 {
	if def.Mass <= 0 {
		return def.Density
	}
	var area float64
	switch def.Shape {
	case ShapeCircle:
		area = math.Pi * def.Radius * def.Radius
	default:
		area = 4 * def.HalfWidth * def.HalfHeight
	}
	if area <= 0 {
		return def.Density
	}
	return def.Mass / area
}

func categoryOrDefault(c uint16) uint16 {
	if c == 0 {
		return CategoryPlayer
	}
	return c
}

func maskOrDefault(m uint16) uint16 {
	if m == 0 {
		return CategoryAll
	}
	return m
}

// contactListener 适配 box2d 的回调接口
type contactListener struct {
	world *World
}

func (l *contactListener) BeginContact(contact box2d.B2ContactInterface) {
	if l.world.handler == nil {
		return
	}
	l.world.handler.BeginContact(contact.GetFixtureA(), contact.GetFixtureB())
}

func (l *contactListener) EndContact(contact box2d.B2ContactInterface) {}

func (l *contactListener) PreSolve(contact box2d.B2ContactInterface, oldManifold box2d.B2Manifold) {
	if l.world.handler == nil {
		return
	}
	if !l.world.handler.PreSolve(contact.GetFixtureA(), contact.GetFixtureB()) {
		contact.SetEnabled(false)
	}
}

func (l *contactListener) PostSolve(contact box2d.B2ContactInterface, impulse *box2d.B2ContactImpulse) {
}
