package rig

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/ByteArena/box2d"
	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/physics"
	"github.com/hajimehoshi/ebiten/v2"
)

func loadTopology(t *testing.T, name string) *config.RigTopology {
	t.Helper()
	topo, err := config.LoadRigTopology(filepath.Join("..", "..", config.RigDir, name+".yaml"))
	if err != nil {
		t.Fatalf("failed to load %s: %v", name, err)
	}
	return topo
}

func newWorld() *physics.World {
	return physics.NewWorld(box2d.MakeB2Vec2(0, 9.82), 8, 3)
}

func TestNewRagdoll(t *testing.T) {
	w := newWorld()
	spawn := box2d.MakeB2Vec2(75, 140)
	r, err := New(w, loadTopology(t, "ragdoll"), spawn)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if len(r.Segments()) != 10 || w.BodyCount() != 10 {
		t.Fatalf("expected 10 segments in the world, got %d/%d", len(r.Segments()), w.BodyCount())
	}
	if len(r.Joints()) != 9 {
		t.Errorf("expected 9 joints, got %d", len(r.Joints()))
	}

	// 躯干起跳前为静态
	if r.Torso().Body.GetType() != physics.BodyStatic {
		t.Error("torso should be static until the jump")
	}
	if r.Head().Spec.Name != "head" {
		t.Errorf("unexpected head segment %q", r.Head().Spec.Name)
	}

	for _, j := range r.Joints() {
		if j.Spec.Motor {
			if !j.Revolute.IsMotorEnabled() {
				t.Errorf("joint %s: motor should be enabled", j.Spec.Name)
			}
			if j.Revolute.GetMotorSpeed() != 0 {
				t.Errorf("joint %s: initial motor speed should be 0", j.Spec.Name)
			}
			if j.Drive() == nil {
				t.Errorf("joint %s: motorised joint without drive", j.Spec.Name)
			}
		} else {
			if j.Revolute.IsMotorEnabled() {
				t.Errorf("joint %s: fixed joint must not have a motor", j.Spec.Name)
			}
			if j.Drive() != nil {
				t.Errorf("joint %s: fixed joint must not expose a drive", j.Spec.Name)
			}
		}
	}

	ref, ok := r.ReferencePoint()
	if !ok {
		t.Fatal("reference point should be available")
	}
	torsoSpec, _ := r.Segment("torso")
	if math.Abs(ref.X-(spawn.X+torsoSpec.Spec.Offset.X)) > 1e-9 || math.Abs(ref.Y-(spawn.Y+torsoSpec.Spec.Offset.Y)) > 1e-9 {
		t.Errorf("reference point (%f, %f) should be the torso centre", ref.X, ref.Y)
	}
}

func TestNewBipedUsesTorsoAsHead(t *testing.T) {
	w := newWorld()
	r, err := New(w, loadTopology(t, "biped"), box2d.MakeB2Vec2(10, 10))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(r.Segments()) != 3 {
		t.Errorf("expected 3 segments, got %d", len(r.Segments()))
	}
	if r.Head() != r.Torso() {
		t.Error("rig without head should use the torso as sentinel")
	}
	if !r.Valid() {
		t.Error("fresh rig should be valid")
	}
}

func TestNewRejectsInvalidTopology(t *testing.T) {
	w := newWorld()
	if _, err := New(w, nil, box2d.MakeB2Vec2(0, 0)); err == nil {
		t.Error("expected error for nil topology")
	}

	topo := loadTopology(t, "biped")
	topo.Joints[0].BodyB = "missing"
	if _, err := New(w, topo, box2d.MakeB2Vec2(0, 0)); err == nil {
		t.Error("expected error for dangling joint reference")
	}
	if w.BodyCount() != 0 {
		t.Errorf("invalid topology must not leave bodies behind, got %d", w.BodyCount())
	}
}

// TestDisposeIdempotent 重复释放不报错，也不删除其他刚体
func TestDisposeIdempotent(t *testing.T) {
	w := newWorld()
	foreign := w.CreateBody(physics.BodyDef{
		Type:       physics.BodyStatic,
		Shape:      physics.ShapeBox,
		Position:   box2d.MakeB2Vec2(0, 50),
		HalfWidth:  10,
		HalfHeight: 1,
		Category:   physics.CategoryWorld,
	})

	r, err := New(w, loadTopology(t, "ragdoll"), box2d.MakeB2Vec2(20, 20))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r.Dispose()
	r.Dispose()

	if !r.Disposed() {
		t.Error("rig should report disposed")
	}
	if w.BodyCount() != 1 || !w.Contains(foreign) {
		t.Errorf("only the foreign body should remain, count=%d", w.BodyCount())
	}
	if _, ok := r.ReferencePoint(); ok {
		t.Error("disposed rig has no reference point")
	}
	if len(r.Bodies()) != 0 {
		t.Error("disposed rig owns no bodies")
	}
}

// TestDisposeAfterExternalRemoval 部分刚体已被删除时仍能安全释放
func TestDisposeAfterExternalRemoval(t *testing.T) {
	w := newWorld()
	r, err := New(w, loadTopology(t, "ragdoll"), box2d.MakeB2Vec2(20, 20))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	arm, _ := r.Segment("lowerLeftArm")
	if !w.DestroyBody(arm.Body) {
		t.Fatal("external removal should succeed")
	}
	if len(r.Bodies()) != 9 {
		t.Errorf("expected 9 owned bodies left, got %d", len(r.Bodies()))
	}

	r.Dispose()
	if w.BodyCount() != 0 {
		t.Errorf("expected empty world, got %d bodies", w.BodyCount())
	}
}

func TestMakeDynamicAndImpulse(t *testing.T) {
	w := physics.NewWorld(box2d.MakeB2Vec2(0, 0), 8, 3)
	r, err := New(w, loadTopology(t, "ragdoll"), box2d.MakeB2Vec2(50, 50))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// 静态躯干不响应冲量
	r.ApplyImpulse(box2d.MakeB2Vec2(0, -100))
	if v := r.Torso().Body.GetLinearVelocity(); v.Y != 0 {
		t.Errorf("static torso should not move, vy=%f", v.Y)
	}

	r.MakeDynamic()
	r.MakeDynamic()
	if !r.IsDynamic() || r.Torso().Body.GetType() != physics.BodyDynamic {
		t.Fatal("torso should be dynamic after MakeDynamic")
	}

	r.ApplyImpulse(box2d.MakeB2Vec2(0, -100))
	if v := r.Torso().Body.GetLinearVelocity(); v.Y >= 0 {
		t.Errorf("upward impulse should give negative vy (Y down), got %f", v.Y)
	}

	// 非有限冲量被忽略
	before := r.Torso().Body.GetLinearVelocity()
	r.ApplyImpulse(box2d.MakeB2Vec2(math.Inf(1), 0))
	if after := r.Torso().Body.GetLinearVelocity(); after != before {
		t.Error("non-finite impulse must be ignored")
	}
}

func TestSetTorsoAngle(t *testing.T) {
	w := newWorld()
	r, err := New(w, loadTopology(t, "ragdoll"), box2d.MakeB2Vec2(20, 20))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r.SetTorsoAngle(0.3)
	if math.Abs(r.Torso().Body.GetAngle()-0.3) > 1e-9 {
		t.Errorf("torso angle = %f, want 0.3", r.Torso().Body.GetAngle())
	}
	r.SetTorsoAngle(math.NaN())
	if math.Abs(r.Torso().Body.GetAngle()-0.3) > 1e-9 {
		t.Error("NaN angle must be ignored")
	}
}

// TestNaNHeadSkipsDraw 头部坐标为 NaN 时不再绘制
func TestNaNHeadSkipsDraw(t *testing.T) {
	w := newWorld()
	r, err := New(w, loadTopology(t, "ragdoll"), box2d.MakeB2Vec2(5, 5))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	screen := ebiten.NewImage(64, 64)
	vp := physics.Viewport{Units: physics.Units{PixelsPerMeter: 4}}
	r.Draw(screen, vp)

	r.Head().Body.M_xf.P = box2d.MakeB2Vec2(math.NaN(), math.NaN())
	if r.Valid() {
		t.Fatal("rig with NaN head must be invalid")
	}
	r.Draw(screen, vp)
}

func TestSegmentColor(t *testing.T) {
	c := SegmentColor(config.SegmentSpec{Color: "#3a7bd5"})
	if c.R != 0x3a || c.G != 0x7b || c.B != 0xd5 || c.A != 0xff {
		t.Errorf("unexpected color %+v", c)
	}
	if SegmentColor(config.SegmentSpec{}) != defaultSegmentColor {
		t.Error("missing color should fall back to default")
	}
}
