package game

import (
	"os"
	"testing"

	"github.com/quasilyte/gdata/v2"
)

func openTestGdata(t *testing.T, appName string) *gdata.Manager {
	t.Helper()
	tempDir := t.TempDir()
	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tempDir)
	t.Cleanup(func() { os.Setenv("HOME", originalHome) })

	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		t.Fatalf("Failed to create gdata manager: %v", err)
	}
	return m
}

// TestDefaultSettings 测试 DefaultSettings() 返回正确的默认值
func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.PlayerName != "Player" {
		t.Errorf("PlayerName: got %q, want Player", settings.PlayerName)
	}
	if settings.Rig != "ragdoll" {
		t.Errorf("Rig: got %q, want ragdoll", settings.Rig)
	}
	if settings.SensorURL != "" {
		t.Errorf("SensorURL: got %q, want empty", settings.SensorURL)
	}
	if settings.Fullscreen {
		t.Error("Fullscreen: got true, want false")
	}
}

// TestNewSettingsManagerNilGdata 测试 gdataManager 为 nil 时的降级场景
func TestNewSettingsManagerNilGdata(t *testing.T) {
	sm, err := NewSettingsManager(nil)
	if err != nil {
		t.Fatalf("NewSettingsManager(nil) error: %v", err)
	}
	if sm.GetSettings().Rig != "ragdoll" {
		t.Errorf("Degraded mode Rig: got %q", sm.GetSettings().Rig)
	}
	if err := sm.Save(); err != nil {
		t.Errorf("Save() in degraded mode should return nil, got: %v", err)
	}

	sm.SetPlayerName("Alice")
	if err := sm.Load(); err != nil {
		t.Errorf("Load() in degraded mode should return nil, got: %v", err)
	}
	if sm.GetSettings().PlayerName != "Player" {
		t.Error("Load() in degraded mode should restore defaults")
	}
}

// TestSettingsLoadSave 测试 Load() 和 Save() 功能
func TestSettingsLoadSave(t *testing.T) {
	m := openTestGdata(t, "test_jumpfocus_settings")

	sm1, err := NewSettingsManager(m)
	if err != nil {
		t.Fatalf("NewSettingsManager() error: %v", err)
	}
	sm1.SetPlayerName("Alice")
	sm1.SetRig("biped")
	sm1.SetSensorURL("ws://127.0.0.1:8181/frames")
	sm1.SetFullscreen(true)
	if err := sm1.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	sm2, err := NewSettingsManager(m)
	if err != nil {
		t.Fatalf("NewSettingsManager() error on reload: %v", err)
	}
	got := sm2.GetSettings()
	want := GameSettings{PlayerName: "Alice", Rig: "biped", SensorURL: "ws://127.0.0.1:8181/frames", Fullscreen: true}
	if *got != want {
		t.Errorf("Loaded settings: got %+v, want %+v", *got, want)
	}
}

// 旧版本保存的设置缺少字段时使用默认值
func TestSettingsLoadPartial(t *testing.T) {
	m := openTestGdata(t, "test_jumpfocus_settings_partial")
	if err := m.SaveObjectProp(settingsObject, settingsProperty, []byte("playerName: Bob\n")); err != nil {
		t.Fatalf("SaveObjectProp: %v", err)
	}

	sm, _ := NewSettingsManager(m)
	if sm.GetSettings().PlayerName != "Bob" || sm.GetSettings().Rig != "ragdoll" {
		t.Errorf("unexpected settings %+v", *sm.GetSettings())
	}
}

func TestSettingsLoadCorrupt(t *testing.T) {
	m := openTestGdata(t, "test_jumpfocus_settings_corrupt")
	if err := m.SaveObjectProp(settingsObject, settingsProperty, []byte("playerName: [")); err != nil {
		t.Fatalf("SaveObjectProp: %v", err)
	}

	sm, _ := NewSettingsManager(m)
	if *sm.GetSettings() != *DefaultSettings() {
		t.Errorf("corrupt settings should fall back to defaults, got %+v", *sm.GetSettings())
	}
}

func TestSetPlayerName(t *testing.T) {
	sm, _ := NewSettingsManager(nil)

	tests := []struct {
		input    string
		expected string
	}{
		{"Alice", "Alice"},
		{"  Bob  ", "Bob"},
		{"", "Bob"},
		{"   ", "Bob"},
		{"abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnop"},
		{"跳跳跳跳跳跳跳跳跳跳跳跳跳跳跳跳跳跳", "跳跳跳跳跳跳跳跳跳跳跳跳跳跳跳跳"},
	}

	for _, tt := range tests {
		sm.SetPlayerName(tt.input)
		if got := sm.GetSettings().PlayerName; got != tt.expected {
			t.Errorf("SetPlayerName(%q): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSetRigAndSensor(t *testing.T) {
	sm, _ := NewSettingsManager(nil)

	sm.SetRig(" ")
	if sm.GetSettings().Rig != "ragdoll" {
		t.Error("blank rig name should be ignored")
	}
	sm.SetRig("biped")
	if sm.GetSettings().Rig != "biped" {
		t.Errorf("Rig: got %q", sm.GetSettings().Rig)
	}

	sm.SetSensorURL(" ws://host/frames ")
	if sm.GetSettings().SensorURL != "ws://host/frames" {
		t.Errorf("SensorURL: got %q", sm.GetSettings().SensorURL)
	}
	sm.SetSensorURL("")
	if sm.GetSettings().SensorURL != "" {
		t.Error("empty sensor URL selects the keyboard")
	}
}
