package game

import (
	"fmt"
	"log"
	"strings"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 玩家名最大长度（排行榜显示宽度）
const maxPlayerNameLength = 16

// GameSettings 本机游戏设置
// 命令行参数优先于这里保存的值
type GameSettings struct {
	// PlayerName 排行榜上的玩家名
	PlayerName string `yaml:"playerName"`
	// Rig 人偶布局名（data/rigs/<Rig>.yaml）
	Rig string `yaml:"rig"`
	// SensorURL 深度相机桥接服务地址，为空时使用键盘
	SensorURL string `yaml:"sensorUrl"`

	// Fullscreen 启动时是否全屏
	Fullscreen bool `yaml:"fullscreen"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() *GameSettings {
	return &GameSettings{
		PlayerName: "Player",
		Rig:        "ragdoll",
		SensorURL:  "",
		Fullscreen: false,
	}
}

// SettingsManager 设置管理器
// 负责游戏设置的加载、保存和内存管理
type SettingsManager struct {
	gdataManager *gdata.Manager // gdata 跨平台存储管理器，可为 nil（降级模式）
	settings     *GameSettings  // 当前设置
}

// 存储路径常量
const (
	settingsObject   = "settings"
	settingsProperty = "global"
)

// NewSettingsManager 创建新的设置管理器实例
//
// 参数：
//   - gdataManager: gdata 跨平台存储管理器，可为 nil（降级模式，仅内存设置）
//
// 返回：
//   - *SettingsManager: 设置管理器实例
//   - error: 保留（加载失败只记录警告，使用默认设置）
func NewSettingsManager(gdataManager *gdata.Manager) (*SettingsManager, error) {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}

	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}

	return sm, nil
}

// OpenSettingsManager 打开应用数据目录下的设置
// gdata 不可用时返回降级模式的管理器
func OpenSettingsManager(appName string) *SettingsManager {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[SettingsManager] Warning: gdata unavailable: %v (settings will not persist)", err)
		m = nil
	}
	sm, _ := NewSettingsManager(m)
	return sm
}

// Load 从 gdata 加载设置
//
// 如果 gdataManager 为 nil 或文件不存在，使用默认设置；
// 文件中缺失的字段保持默认值。
//
// 返回：
//   - error: 如果反序列化失败返回错误
func (sm *SettingsManager) Load() error {
	if sm.gdataManager == nil {
		sm.settings = DefaultSettings()
		return nil
	}

	if !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		sm.settings = DefaultSettings()
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		sm.settings = DefaultSettings()
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}

	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded successfully")
	return nil
}

// Save 保存设置到 gdata
//
// 如果 gdataManager 为 nil，返回 nil（降级模式，不报错）
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	log.Printf("[SettingsManager] Settings saved successfully")
	return nil
}

// GetSettings 获取当前设置
func (sm *SettingsManager) GetSettings() *GameSettings {
	return sm.settings
}

// SetPlayerName 设置玩家名
//
// 去掉首尾空白并截断到 16 个字符，空名字保持原值
// 注意：仅修改内存中的设置，需调用 Save() 方法持久化
func (sm *SettingsManager) SetPlayerName(name string) {
	name = sanitizePlayerName(name)
	if name == "" {
		return
	}
	sm.settings.PlayerName = name
}

// SetRig 设置人偶布局名，空字符串忽略
func (sm *SettingsManager) SetRig(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	sm.settings.Rig = name
}

// SetSensorURL 设置传感器地址，空字符串表示使用键盘
func (sm *SettingsManager) SetSensorURL(url string) {
	sm.settings.SensorURL = strings.TrimSpace(url)
}

// SetFullscreen 设置全屏模式
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

// sanitizePlayerName 去掉首尾空白并按字符截断
func sanitizePlayerName(name string) string {
	name = strings.TrimSpace(name)
	runes := []rune(name)
	if len(runes) > maxPlayerNameLength {
		runes = runes[:maxPlayerNameLength]
	}
	return string(runes)
}
