// Package app 提供游戏应用的核心包装器
//
// 该包把初始化逻辑从 main 包提取出来：加载配置和人偶布局、
// 选择骨骼数据源、打开排行榜，并在跳跃回合与排行榜之间切换场景。
package app

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log"
	"path"
	"strings"

	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/embedded"
	"github.com/decker502/jumpfocus/pkg/game"
	"github.com/decker502/jumpfocus/pkg/leaderboard"
	"github.com/decker502/jumpfocus/pkg/scenes"
	"github.com/decker502/jumpfocus/pkg/sensor"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// AppName gdata 存储目录名
const AppName = "jumpfocus"

// Config 定义应用启动配置
// 字符串字段为空时使用已保存的设置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ConfigPath 游戏配置文件，默认 data/config/game.yaml
	ConfigPath string
	// Rig 人偶布局名
	Rig string
	// SensorURL 深度相机桥接服务地址（ws://...）
	SensorURL string
	// ReplayPath 回放录制文件代替实时传感器
	ReplayPath string
	// RecordPath 把收到的帧录制到文件
	RecordPath string
	// DBPath 排行榜数据库，为空时不保存成绩
	DBPath string
	// Player 玩家名
	Player string
	// Snapshot 保存结算画面截图
	Snapshot bool
	// Fullscreen 全屏启动
	Fullscreen bool
}

// App 是游戏应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager *game.SceneManager
	settings     *game.SettingsManager
	gameConfig   *config.GameConfig
	source       sensor.Source
	store        *leaderboard.Store
	cancel       context.CancelFunc
	verbose      bool

	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// NewApp 创建并初始化游戏应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	settings := game.OpenSettingsManager(AppName)
	applyOverrides(settings, cfg)
	s := settings.GetSettings()

	configPath := cfg.ConfigPath
	if configPath == "" {
		configPath = config.GameConfigPath
	}
	gameConfig, err := config.LoadGameConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("游戏配置加载失败: %w", err)
	}

	rig, err := config.LoadRigByName(s.Rig)
	if err != nil {
		return nil, fmt.Errorf("人偶布局加载失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	source, err := openSource(ctx, cfg, s.SensorURL)
	if err != nil {
		cancel()
		return nil, err
	}

	a := &App{
		sceneManager: game.NewSceneManager(),
		settings:     settings,
		gameConfig:   gameConfig,
		source:       source,
		cancel:       cancel,
		verbose:      cfg.Verbose,
	}

	if cfg.DBPath != "" {
		store, err := leaderboard.Open(cfg.DBPath)
		if err != nil {
			// 排行榜不可用时照常游戏，只是不保存成绩
			log.Printf("[App] Warning: leaderboard unavailable: %v", err)
		} else {
			a.store = store
			if err := store.UpsertPlayer(ctx, s.PlayerName); err != nil {
				log.Printf("[App] Warning: %v", err)
			}
		}
	}

	if err := settings.Save(); err != nil {
		log.Printf("[App] Warning: failed to save settings: %v", err)
	}

	a.sceneManager.SetSceneFactory(func(name string) game.Scene {
		switch name {
		case game.SceneJump:
			return a.newJumpScene(rig, cfg.Snapshot)
		}
		log.Printf("[App] Unknown scene %q", name)
		return nil
	})
	a.sceneManager.LoadScene(game.SceneJump)
	if a.sceneManager.GetCurrentScene() == nil {
		a.Shutdown()
		return nil, fmt.Errorf("failed to start the first round")
	}

	if s.Fullscreen {
		ebiten.SetFullscreen(true)
	}
	log.Printf("[App] Ready: rig=%s player=%q", rig.Name, s.PlayerName)
	return a, nil
}

// applyOverrides 命令行参数覆盖已保存的设置（随后保存）
func applyOverrides(settings *game.SettingsManager, cfg Config) {
	if cfg.Rig != "" {
		settings.SetRig(cfg.Rig)
	}
	if cfg.SensorURL != "" {
		settings.SetSensorURL(cfg.SensorURL)
	}
	if cfg.Player != "" {
		settings.SetPlayerName(cfg.Player)
	}
	if cfg.Fullscreen {
		settings.SetFullscreen(true)
	}
}

// openSource 选择骨骼数据源：回放文件 > WebSocket > 键盘
// RecordPath 非空时在数据源外包一层录制
func openSource(ctx context.Context, cfg Config, sensorURL string) (sensor.Source, error) {
	var src sensor.Source
	switch {
	case cfg.ReplayPath != "":
		replay, err := sensor.OpenReplay(cfg.ReplayPath, true)
		if err != nil {
			return nil, err
		}
		src = replay
	case sensorURL != "":
		src = sensor.DialWebSocket(ctx, sensorURL)
		log.Printf("[App] Using sensor bridge %s", sensorURL)
	default:
		src = sensor.NewKeyboardSource(1.0 / float64(ebiten.TPS()))
		log.Printf("[App] No sensor configured, using keyboard")
	}

	if cfg.RecordPath == "" {
		return src, nil
	}
	rec, err := sensor.CreateRecording(cfg.RecordPath)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return sensor.NewRecordingSource(src, rec), nil
}

func (a *App) newJumpScene(rig *config.RigTopology, snapshot bool) game.Scene {
	jcfg := scenes.JumpSceneConfig{
		Game:       a.gameConfig,
		Rig:        rig,
		Source:     a.source,
		PlayerName: a.settings.GetSettings().PlayerName,
		Snapshot:   snapshot,
		OnFinished: a.showLeaderboard,
	}
	if a.store != nil {
		jcfg.Recorder = a.store
	}
	scene, err := scenes.NewJumpScene(jcfg)
	if err != nil {
		log.Printf("[App] Failed to create round: %v", err)
		return nil
	}
	return scene
}

// showLeaderboard 回合保存后切换到排行榜，排行榜结束后开始新回合
func (a *App) showLeaderboard(round leaderboard.Round, err error) {
	if err != nil {
		log.Printf("[App] Round not saved: %v", err)
	}
	var store scenes.TopQuerier
	if a.store != nil {
		store = a.store
	}
	r := a.gameConfig.Round
	a.sceneManager.SwitchTo(scenes.NewLeaderboardScene(store, round, r.LeaderboardSize, r.LeaderboardSeconds, func() {
		a.sceneManager.LoadScene(game.SceneJump)
	}))
}

// Update 更新游戏逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			w, h := a.gameConfig.ScreenSize()
			ebiten.SetWindowSize(w, h)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			// 退出全屏后等几帧再设置窗口大小
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	a.sceneManager.Update(1.0 / float64(ebiten.TPS()))
	return nil
}

// Draw 绘制游戏画面
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回游戏的逻辑屏幕尺寸（摄像机视野换算成像素）
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return a.gameConfig.ScreenSize()
}

// Title 窗口标题
func (a *App) Title() string {
	return a.gameConfig.Display.Title
}

// GetSceneManager 返回场景管理器
func (a *App) GetSceneManager() *game.SceneManager {
	return a.sceneManager
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}

// Shutdown 释放当前场景、关闭数据源和排行榜，重复调用无副作用
func (a *App) Shutdown() {
	a.sceneManager.Shutdown()
	if a.source != nil {
		if err := a.source.Close(); err != nil {
			log.Printf("[App] Failed to close sensor: %v", err)
		}
		a.source = nil
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Printf("[App] Failed to close leaderboard: %v", err)
		}
		a.store = nil
	}
	if a.cancel != nil {
		a.cancel()
	}
}

// AvailableRigs 列出内置的人偶布局名
func AvailableRigs() ([]string, error) {
	matches, err := embedded.Glob(path.Join(config.RigDir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(path.Base(m), ".yaml"))
	}
	return names, nil
}
