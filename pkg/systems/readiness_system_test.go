package systems

import (
	"testing"

	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/sensor"
	"github.com/decker502/jumpfocus/pkg/types"
)

func closedHands() *sensor.Body {
	b := standingBody()
	b.HandLeft = types.HandClosed
	b.HandRight = types.HandClosed
	return b
}

func TestReadinessSystem_ArmsAfterHold(t *testing.T) {
	rs := NewReadinessSystem(4)
	rc := &components.ReadinessComponent{}
	jc := &components.JumpComponent{}
	body := closedHands()

	for i := 0; i < 39; i++ {
		if rs.Update(rc, jc, body, 0.1) {
			t.Fatalf("armed too early at tick %d", i+1)
		}
	}
	if rc.Armed || jc.State != components.JumpIdle {
		t.Fatal("should not be armed after 3.9s")
	}
	if rc.Message == "" || rc.Message == MessageJump {
		t.Errorf("expected a countdown message, got %q", rc.Message)
	}

	armed := false
	for i := 0; i < 2; i++ {
		if rs.Update(rc, jc, body, 0.1) {
			armed = true
		}
	}
	if !armed || !rc.Armed {
		t.Fatal("should be armed after 4.1s")
	}
	if jc.State != components.JumpReadyArmed {
		t.Errorf("jump state = %v, want ReadyArmed", jc.State)
	}
	if rc.Message != MessageJump {
		t.Errorf("message = %q, want %q", rc.Message, MessageJump)
	}
}

func TestReadinessSystem_ReleaseResets(t *testing.T) {
	rs := NewReadinessSystem(4)
	rc := &components.ReadinessComponent{}
	jc := &components.JumpComponent{}

	for i := 0; i < 30; i++ {
		rs.Update(rc, jc, closedHands(), 0.1)
	}
	open := standingBody()
	open.HandLeft = types.HandClosed
	rs.Update(rc, jc, open, 0.1)

	if rc.HeldSeconds != 0 {
		t.Errorf("held = %f, want 0 after release", rc.HeldSeconds)
	}
	if rc.Message != rs.InstructionMessage() {
		t.Errorf("message = %q, want instruction", rc.Message)
	}

	for i := 0; i < 39; i++ {
		rs.Update(rc, jc, closedHands(), 0.1)
	}
	if rc.Armed {
		t.Error("hold must restart from zero after release")
	}
}

func TestReadinessSystem_NoBody(t *testing.T) {
	rs := NewReadinessSystem(4)
	rc := &components.ReadinessComponent{HeldSeconds: 3}
	jc := &components.JumpComponent{}

	rs.Update(rc, jc, nil, 0.1)
	if rc.HeldSeconds != 0 || rc.Armed {
		t.Errorf("missing body should reset the hold, got %+v", rc)
	}
}

func TestReadinessSystem_MessageClearedAfterJump(t *testing.T) {
	rs := NewReadinessSystem(4)
	rc := &components.ReadinessComponent{Armed: true}
	jc := &components.JumpComponent{State: components.JumpJumped}

	if rs.Update(rc, jc, nil, 0.1) {
		t.Error("already armed")
	}
	if rc.Message != "" {
		t.Errorf("message = %q, want empty after jump", rc.Message)
	}
}
