package config

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decker502/jumpfocus/pkg/types"
)

const minimalRig = `
name: stick
segments:
  - name: torso
    role: torso
    shape: box
    halfWidth: 0.5
    halfHeight: 1
    mass: 5
  - name: arm
    shape: box
    halfWidth: 1
    halfHeight: 0.2
    density: 1
    offset: {x: 1.5, y: 0}
joints:
  - name: shoulder
    bodyA: arm
    bodyB: torso
    anchorA: {x: -1, y: 0}
    anchorB: {x: 0.5, y: 0}
    motor: true
    drive: {start: ShoulderRight, end: ElbowRight}
`

func TestParseRigTopology(t *testing.T) {
	topo, err := ParseRigTopology([]byte(minimalRig))
	if err != nil {
		t.Fatalf("ParseRigTopology failed: %v", err)
	}
	if topo.Name != "stick" || len(topo.Segments) != 2 || len(topo.Joints) != 1 {
		t.Fatalf("unexpected topology: %+v", topo)
	}

	j := topo.Joints[0]
	if j.Drive == nil || j.Drive.Start != types.JointShoulderRight || j.Drive.End != types.JointElbowRight {
		t.Errorf("drive not decoded: %+v", j.Drive)
	}

	arm, ok := topo.Segment("arm")
	if !ok || arm.Offset.X != 1.5 {
		t.Errorf("segment lookup failed: %+v", arm)
	}
	if _, ok := topo.Segment("leg"); ok {
		t.Error("unknown segment should not be found")
	}
}

func TestRigTopologyValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*RigTopology)
		errContains string
	}{
		{
			name:        "duplicate segment",
			mutate:      func(r *RigTopology) { r.Segments[1].Name = "torso" },
			errContains: "duplicate segment",
		},
		{
			name:        "missing torso",
			mutate:      func(r *RigTopology) { r.Segments[0].Role = "" },
			errContains: "exactly one torso",
		},
		{
			name:        "unknown shape",
			mutate:      func(r *RigTopology) { r.Segments[1].Shape = "capsule" },
			errContains: "unknown shape",
		},
		{
			name:        "unknown body reference",
			mutate:      func(r *RigTopology) { r.Joints[0].BodyA = "leg" },
			errContains: "unknown bodyA",
		},
		{
			name:        "self joint",
			mutate:      func(r *RigTopology) { r.Joints[0].BodyA = "torso" },
			errContains: "to itself",
		},
		{
			name:        "drive without motor",
			mutate:      func(r *RigTopology) { r.Joints[0].Motor = false },
			errContains: "drive requires motor",
		},
		{
			name:        "bad color",
			mutate:      func(r *RigTopology) { r.Segments[0].Color = "blue" },
			errContains: "color",
		},
		{
			name: "no mass",
			mutate: func(r *RigTopology) {
				r.Segments[1].Density = 0
				r.Segments[1].Mass = 0
			},
			errContains: "density or mass",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topo, err := ParseRigTopology([]byte(minimalRig))
			if err != nil {
				t.Fatalf("base topology invalid: %v", err)
			}
			tt.mutate(topo)
			err = topo.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
			}
		})
	}
}

// TestShippedRigs 仓库自带的两种人偶布局
func TestShippedRigs(t *testing.T) {
	tests := []struct {
		file     string
		segments int
		motors   int
		hasHead  bool
	}{
		{"ragdoll.yaml", 10, 8, true},
		{"biped.yaml", 3, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			topo, err := LoadRigTopology(filepath.Join("..", "..", RigDir, tt.file))
			if err != nil {
				t.Fatalf("load failed: %v", err)
			}
			if len(topo.Segments) != tt.segments {
				t.Errorf("expected %d segments, got %d", tt.segments, len(topo.Segments))
			}

			motors, head := 0, false
			for _, j := range topo.Joints {
				if j.Motor {
					motors++
				}
			}
			for _, s := range topo.Segments {
				if s.Role == RoleHead {
					head = true
				}
			}
			if motors != tt.motors {
				t.Errorf("expected %d motorised joints, got %d", tt.motors, motors)
			}
			if head != tt.hasHead {
				t.Errorf("head role present = %v, want %v", head, tt.hasHead)
			}
		})
	}
}

func TestRagdollLegOffsets(t *testing.T) {
	topo, err := LoadRigTopology(filepath.Join("..", "..", RigDir, "ragdoll.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	for _, j := range topo.Joints {
		if !strings.Contains(j.Name, "Hip") && !strings.Contains(j.Name, "Knee") {
			continue
		}
		if j.Drive == nil || math.Abs(j.Drive.AngleOffset+math.Pi/2) > 1e-9 {
			t.Errorf("leg joint %s should drive with a -π/2 offset", j.Name)
		}
	}
}
