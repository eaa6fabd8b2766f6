package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/decker502/jumpfocus/pkg/types"
)

func TestDefaultGameConfigValid(t *testing.T) {
	cfg := DefaultGameConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}

	w, h := cfg.ScreenSize()
	if w != 960 || h != 960 {
		t.Errorf("expected 960x960 screen, got %dx%d", w, h)
	}
	if cfg.Jump.ReferenceJoint != types.JointSpineMid {
		t.Errorf("expected SpineMid reference joint, got %v", cfg.Jump.ReferenceJoint)
	}
}

func TestParseGameConfig(t *testing.T) {
	tests := []struct {
		name        string
		yamlContent string
		wantErr     bool
		errContains string
		validate    func(*testing.T, *GameConfig)
	}{
		{
			name: "partial override keeps defaults",
			yamlContent: `
world:
  seed: 42
coins:
  count: 5
jump:
  referenceJoint: SpineBase
`,
			validate: func(t *testing.T, cfg *GameConfig) {
				if cfg.World.Seed != 42 {
					t.Errorf("expected seed 42, got %d", cfg.World.Seed)
				}
				if cfg.Coins.Count != 5 {
					t.Errorf("expected 5 coins, got %d", cfg.Coins.Count)
				}
				// 未覆盖的字段保持默认
				if cfg.World.Width != 150 || cfg.Coins.MaxValue != 50 {
					t.Errorf("defaults lost: width=%.1f maxValue=%d", cfg.World.Width, cfg.Coins.MaxValue)
				}
				if cfg.Jump.ReferenceJoint != types.JointSpineBase {
					t.Errorf("expected SpineBase, got %v", cfg.Jump.ReferenceJoint)
				}
			},
		},
		{
			name: "camera larger than world",
			yamlContent: `
camera:
  width: 500
`,
			wantErr:     true,
			errContains: "larger than world",
		},
		{
			name: "invalid coin value range",
			yamlContent: `
coins:
  minValue: 60
  maxValue: 50
`,
			wantErr:     true,
			errContains: "coin value range",
		},
		{
			name: "zero speed factor",
			yamlContent: `
motion:
  speedFactor: 0
`,
			wantErr:     true,
			errContains: "speedFactor",
		},
		{
			name: "unknown reference joint",
			yamlContent: `
jump:
  referenceJoint: Tail
`,
			wantErr:     true,
			errContains: "parse",
		},
		{
			name:        "malformed yaml",
			yamlContent: "world: [",
			wantErr:     true,
			errContains: "parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseGameConfig([]byte(tt.yamlContent))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadGameConfigFromDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")
	if err := os.WriteFile(path, []byte("round:\n  readyHoldSeconds: 4\n"), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := LoadGameConfig(path)
	if err != nil {
		t.Fatalf("LoadGameConfig failed: %v", err)
	}
	if cfg.Round.ReadyHoldSeconds != 4 {
		t.Errorf("expected 4s hold, got %.1f", cfg.Round.ReadyHoldSeconds)
	}

	if _, err := LoadGameConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// TestShippedGameConfig 仓库自带的配置文件必须能通过校验
func TestShippedGameConfig(t *testing.T) {
	cfg, err := LoadGameConfig(filepath.Join("..", "..", GameConfigPath))
	if err != nil {
		t.Fatalf("shipped game config invalid: %v", err)
	}
	if cfg.Coins.Count != 50 || cfg.Clouds.Count != 50 || cfg.Cats.Count != 10 {
		t.Errorf("unexpected object counts: coins=%d clouds=%d cats=%d",
			cfg.Coins.Count, cfg.Clouds.Count, cfg.Cats.Count)
	}
}
