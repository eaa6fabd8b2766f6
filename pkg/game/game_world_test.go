package game

import (
	"math"
	"testing"

	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/ecs"
	"github.com/decker502/jumpfocus/pkg/physics"
)

func newTestWorld() *GameWorld {
	cfg := config.DefaultGameConfig()
	cfg.Round.LandingGraceSeconds = 1
	return NewGameWorld(cfg, ecs.NewEntityManager())
}

func TestGameWorldStepClock(t *testing.T) {
	gw := newTestWorld()

	gw.Step(0)
	gw.Step(-1)
	gw.Step(math.NaN())
	if gw.Clock() != 0 {
		t.Fatalf("invalid steps should not advance the clock, got %v", gw.Clock())
	}

	gw.Step(0.5)
	gw.Step(0.25)
	if gw.Clock() != 0.75 {
		t.Errorf("Clock: got %v, want 0.75", gw.Clock())
	}
}

// 未开始接受着陆时碰到地面不算
func TestGameWorldLandRequiresArming(t *testing.T) {
	gw := newTestWorld()

	if gw.Land() {
		t.Fatal("Land should be ignored before ArmLanding")
	}
	if gw.HasLanded() {
		t.Fatal("HasLanded should stay false")
	}

	gw.ArmLanding()
	gw.Step(2)
	if !gw.Land() {
		t.Fatal("first armed contact should land")
	}
	if gw.LandedAt() != 2 {
		t.Errorf("LandedAt: got %v, want 2", gw.LandedAt())
	}
}

// 着陆时间戳只记录一次
func TestGameWorldLandOnce(t *testing.T) {
	gw := newTestWorld()
	gw.ArmLanding()
	gw.AwardCoins(30)
	gw.RecordAltitude(12.7)

	gw.Step(1)
	gw.Land()
	msg := gw.Message()
	if msg != "Your score is 42" {
		t.Errorf("Message: got %q", msg)
	}

	for i := 0; i < 5; i++ {
		gw.Step(1)
		if gw.Land() {
			t.Fatalf("contact %d should not land again", i)
		}
	}
	if gw.LandedAt() != 1 {
		t.Errorf("LandedAt changed: got %v, want 1", gw.LandedAt())
	}

	gw.SetMessage("JUMP!!")
	if gw.Message() != msg {
		t.Errorf("message after landing should stay %q, got %q", msg, gw.Message())
	}
}

func TestGameWorldReadyToFinalize(t *testing.T) {
	gw := newTestWorld()
	gw.ArmLanding()
	if gw.ReadyToFinalize() {
		t.Fatal("not landed yet")
	}

	gw.Land()
	gw.Step(0.5)
	if gw.ReadyToFinalize() {
		t.Fatal("grace period not elapsed")
	}
	gw.Step(0.5)
	if !gw.ReadyToFinalize() {
		t.Fatal("grace period elapsed, should be ready")
	}
}

func TestGameWorldScore(t *testing.T) {
	tests := []struct {
		name      string
		coins     []int
		altitudes []float64
		want      int
	}{
		{"empty", nil, nil, 0},
		{"peak altitude only", nil, []float64{10, 30.9, 20}, 30},
		{"ignores non-positive coins", []int{10, 0, -5, 20}, nil, 30},
		{"ignores NaN altitude", []int{5}, []float64{3, math.NaN(), math.Inf(1)}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newTestWorld()
			for _, c := range tt.coins {
				gw.AwardCoins(c)
			}
			for _, a := range tt.altitudes {
				gw.RecordAltitude(a)
			}
			if got := gw.Score(); got != tt.want {
				t.Errorf("Score: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGameWorldTags(t *testing.T) {
	gw := newTestWorld()
	body := gw.Physics.CreateBody(physics.BodyDef{Shape: physics.ShapeCircle, Radius: 1})

	if _, ok := gw.TagOf(body); ok {
		t.Fatal("untagged body should have no tag")
	}
	gw.Tag(body, BodyTag{Kind: BodyCollectible, Entity: 3})
	tag, ok := gw.TagOf(body)
	if !ok || tag.Kind != BodyCollectible || tag.Entity != 3 {
		t.Errorf("TagOf: got %+v %v", tag, ok)
	}

	gw.Tag(nil, BodyTag{Kind: BodyFloor})
	gw.Untag(body)
	if _, ok := gw.TagOf(body); ok {
		t.Error("Untag should remove the tag")
	}
}

func TestGameWorldActiveCollectibles(t *testing.T) {
	gw := newTestWorld()
	em := gw.EntityManager

	kept := em.CreateEntity()
	ecs.AddComponent(em, kept, &components.CollectibleComponent{Value: 10})
	taken := em.CreateEntity()
	ecs.AddComponent(em, taken, &components.CollectibleComponent{Value: 0})

	active := gw.ActiveCollectibles()
	if len(active) != 1 || active[0] != kept {
		t.Errorf("ActiveCollectibles: got %v, want [%d]", active, kept)
	}
}

func TestGameWorldSpawnPoint(t *testing.T) {
	gw := newTestWorld()
	p := gw.SpawnPoint()
	w := gw.Config.World
	if p.X != w.Width/2 || p.Y != w.Height-w.SpawnOffset {
		t.Errorf("SpawnPoint: got (%v, %v)", p.X, p.Y)
	}
}
