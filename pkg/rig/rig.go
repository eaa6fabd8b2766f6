// Package rig 构建并维护玩家人偶（多个刚体部件 + 旋转关节）
//
// 人偶的形状完全由 config.RigTopology 描述：部件列表 + 关节列表。
// Rig 独占它创建的刚体和关节，Dispose 时按世界成员关系逐个删除。
package rig

import (
	"fmt"
	"log"

	"github.com/ByteArena/box2d"
	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/physics"
)

// Segment 人偶部件
type Segment struct {
	Spec config.SegmentSpec
	Body *box2d.B2Body
}

// Joint 人偶关节
type Joint struct {
	Spec     config.JointSpec
	Revolute *box2d.B2RevoluteJoint
}

// Drive 马达驱动定义，非马达关节返回 nil
func (j *Joint) Drive() *config.DriveSpec {
	if !j.Spec.Motor {
		return nil
	}
	return j.Spec.Drive
}

// Rig 玩家人偶
type Rig struct {
	world *physics.World
	name  string

	segments    []*Segment
	byName      map[string]*Segment
	joints      []*Joint
	jointByName map[string]*Joint

	torso *Segment
	head  *Segment

	dynamic  bool
	disposed bool
}

// New 在出生点构建人偶
//
// 部件按拓扑中的偏移量放置；马达关节启用马达且初始速度为 0，
// 其余关节不启用马达。
//
// 参数:
//   - world: 物理世界
//   - topo: 人偶布局（会重新校验）
//   - spawn: 出生点（世界坐标）
//
// 返回:
//   - *Rig: 构建完成的人偶
//   - error: 布局无效
func New(world *physics.World, topo *config.RigTopology, spawn box2d.B2Vec2) (*Rig, error) {
	if topo == nil {
		return nil, fmt.Errorf("rig topology is nil")
	}
	if err := topo.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rig topology %q: %w", topo.Name, err)
	}

	r := &Rig{
		world:       world,
		name:        topo.Name,
		byName:      make(map[string]*Segment, len(topo.Segments)),
		jointByName: make(map[string]*Joint, len(topo.Joints)),
	}

	for _, spec := range topo.Segments {
		seg := &Segment{Spec: spec, Body: world.CreateBody(segmentBodyDef(spec, spawn))}
		r.segments = append(r.segments, seg)
		r.byName[spec.Name] = seg

		switch spec.Role {
		case config.RoleTorso:
			r.torso = seg
		case config.RoleHead:
			r.head = seg
		}
	}

	for _, spec := range topo.Joints {
		a, b := r.byName[spec.BodyA], r.byName[spec.BodyB]
		rev := world.CreateRevolute(physics.RevoluteDef{
			BodyA:            a.Body,
			BodyB:            b.Body,
			LocalAnchorA:     box2d.MakeB2Vec2(spec.AnchorA.X, spec.AnchorA.Y),
			LocalAnchorB:     box2d.MakeB2Vec2(spec.AnchorB.X, spec.AnchorB.Y),
			EnableMotor:      spec.Motor,
			LockAngle:        spec.Lock,
			CollideConnected: spec.CollideConnected,
		})
		j := &Joint{Spec: spec, Revolute: rev}
		r.joints = append(r.joints, j)
		r.jointByName[spec.Name] = j
	}

	log.Printf("[Rig] Built %q at (%.1f, %.1f): %d segments, %d joints",
		r.name, spawn.X, spawn.Y, len(r.segments), len(r.joints))
	return r, nil
}

func segmentBodyDef(spec config.SegmentSpec, spawn box2d.B2Vec2) physics.BodyDef {
	def := physics.BodyDef{
		Type:           physics.BodyDynamic,
		Position:       box2d.MakeB2Vec2(spawn.X+spec.Offset.X, spawn.Y+spec.Offset.Y),
		Angle:          spec.Rotation,
		Density:        spec.Density,
		Mass:           spec.Mass,
		AngularDamping: spec.AngularDamping,
		Friction:       0.3,
		Category:       physics.CategoryPlayer,
		Mask:           physics.CategoryAll &^ physics.CategoryPlayer,
	}
	if spec.StaticUntilJump {
		def.Type = physics.BodyStatic
	}
	if spec.Shape == config.ShapeCircle {
		def.Shape = physics.ShapeCircle
		def.Radius = spec.Radius
	} else {
		def.Shape = physics.ShapeBox
		def.HalfWidth = spec.HalfWidth
		def.HalfHeight = spec.HalfHeight
	}
	return def
}

// Name 布局名称
func (r *Rig) Name() string { return r.name }

// Torso 躯干部件
func (r *Rig) Torso() *Segment { return r.torso }

// Head 头部部件；布局没有头部时返回躯干
func (r *Rig) Head() *Segment {
	if r.head != nil {
		return r.head
	}
	return r.torso
}

// Segment 按名称查找部件
func (r *Rig) Segment(name string) (*Segment, bool) {
	s, ok := r.byName[name]
	return s, ok
}

// Segments 全部部件（构建顺序）
func (r *Rig) Segments() []*Segment { return r.segments }

// Joint 按名称查找关节
func (r *Rig) Joint(name string) (*Joint, bool) {
	j, ok := r.jointByName[name]
	return j, ok
}

// Joints 全部关节（构建顺序）
func (r *Rig) Joints() []*Joint { return r.joints }

// Bodies 人偶拥有且仍在世界中的刚体
func (r *Rig) Bodies() []*box2d.B2Body {
	bodies := make([]*box2d.B2Body, 0, len(r.segments))
	for _, s := range r.segments {
		if r.world.Contains(s.Body) {
			bodies = append(bodies, s.Body)
		}
	}
	return bodies
}

// Disposed 是否已释放
func (r *Rig) Disposed() bool { return r.disposed }

// Valid 头部位置是否为有限值（物理发散时为 NaN）
func (r *Rig) Valid() bool {
	if r.disposed {
		return false
	}
	head := r.Head()
	return physics.IsFiniteVec(head.Body.GetPosition()) && physics.IsFinite(head.Body.GetAngle())
}

// ReferencePoint 摄像机跟随点（躯干质心）
//
// 返回:
//   - box2d.B2Vec2: 躯干质心世界坐标
//   - bool: 人偶已释放或坐标非有限值时为 false
func (r *Rig) ReferencePoint() (box2d.B2Vec2, bool) {
	if r.disposed {
		return box2d.B2Vec2{}, false
	}
	c := r.torso.Body.GetWorldCenter()
	if !physics.IsFiniteVec(c) {
		return box2d.B2Vec2{}, false
	}
	return c, true
}

// SetTorsoAngle 直接设置躯干角度（不经马达）
func (r *Rig) SetTorsoAngle(angle float64) {
	if r.disposed || !physics.IsFinite(angle) {
		return
	}
	body := r.torso.Body
	body.SetTransform(body.GetPosition(), angle)
}

// IsDynamic 起跳前静态的部件是否已经切换为动态
func (r *Rig) IsDynamic() bool { return r.dynamic }

// MakeDynamic 把所有 staticUntilJump 部件切换为动态，重复调用无副作用
func (r *Rig) MakeDynamic() {
	if r.disposed || r.dynamic {
		return
	}
	for _, s := range r.segments {
		if s.Spec.StaticUntilJump {
			s.Body.SetType(physics.BodyDynamic)
			s.Body.SetAwake(true)
		}
	}
	r.dynamic = true
	log.Printf("[Rig] %q released", r.name)
}

// ApplyImpulse 在躯干质心施加线性冲量
func (r *Rig) ApplyImpulse(impulse box2d.B2Vec2) {
	if r.disposed || !physics.IsFiniteVec(impulse) {
		return
	}
	physics.ApplyImpulse(r.torso.Body, impulse)
}

// Dispose 从世界删除全部部件
//
// 每个刚体删除前检查世界成员关系，重复调用或刚体已被删除时不做任何事。
// 刚体删除时 box2d 一并删除与之相连的关节。
func (r *Rig) Dispose() {
	if r.disposed {
		return
	}
	removed := 0
	for _, s := range r.segments {
		if r.world.DestroyBody(s.Body) {
			removed++
		}
	}
	r.disposed = true
	log.Printf("[Rig] %q disposed (%d bodies removed)", r.name, removed)
}
