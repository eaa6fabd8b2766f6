package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/decker502/jumpfocus/pkg/embedded"
	"github.com/decker502/jumpfocus/pkg/types"
	"gopkg.in/yaml.v3"
)

// GameConfigPath 默认游戏配置文件路径
const GameConfigPath = "data/config/game.yaml"

// GameConfig 游戏全局配置
//
// 所有长度单位均为模拟单位（米），世界坐标系以左上角为原点、Y 轴向下。
//
// 配置文件位置: data/config/game.yaml
type GameConfig struct {
	Display DisplayConfig `yaml:"display"`
	World   WorldConfig   `yaml:"world"`
	Camera  CameraConfig  `yaml:"camera"`
	Coins   CoinConfig    `yaml:"coins"`
	Clouds  CloudConfig   `yaml:"clouds"`
	Cats    CatConfig     `yaml:"cats"`
	Motion  MotionConfig  `yaml:"motion"`
	Jump    JumpConfig    `yaml:"jump"`
	Round   RoundConfig   `yaml:"round"`
}

// DisplayConfig 显示配置
type DisplayConfig struct {
	// PixelsPerMeter 每米对应的像素数
	PixelsPerMeter float64 `yaml:"pixelsPerMeter"`
	// Title 窗口标题
	Title string `yaml:"title"`
}

// WorldConfig 物理世界配置
type WorldConfig struct {
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`
	Gravity float64 `yaml:"gravity"`

	// BoundaryThickness 世界边界墙厚度
	BoundaryThickness float64 `yaml:"boundaryThickness"`
	// BoundaryRestitution 边界弹性系数（1 = 完全反弹）
	BoundaryRestitution float64 `yaml:"boundaryRestitution"`
	// FloorHeight 地面条高度（着陆判定用的独立刚体）
	FloorHeight float64 `yaml:"floorHeight"`

	// SpawnOffset 人偶出生点距离世界底部的高度
	SpawnOffset float64 `yaml:"spawnOffset"`

	VelocityIterations int `yaml:"velocityIterations"`
	PositionIterations int `yaml:"positionIterations"`

	// Seed 随机种子，0 表示按当前时间
	Seed int64 `yaml:"seed"`
}

// CameraConfig 摄像机视野（模拟单位）
type CameraConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// CoinConfig 金币配置
type CoinConfig struct {
	Count    int     `yaml:"count"`
	Radius   float64 `yaml:"radius"`
	MinValue int     `yaml:"minValue"`
	MaxValue int     `yaml:"maxValue"` // 不含
}

// CloudConfig 云朵配置
type CloudConfig struct {
	Count      int     `yaml:"count"`
	HalfWidth  float64 `yaml:"halfWidth"`
	HalfHeight float64 `yaml:"halfHeight"`
	// DragImpulse 玩家向上穿过云朵时施加的向下冲量
	DragImpulse float64 `yaml:"dragImpulse"`
}

// CatConfig 猫（漂浮障碍物）配置
type CatConfig struct {
	Count      int     `yaml:"count"`
	HalfWidth  float64 `yaml:"halfWidth"`
	HalfHeight float64 `yaml:"halfHeight"`
	Mass       float64 `yaml:"mass"`
	MinImpulse float64 `yaml:"minImpulse"`
	MaxImpulse float64 `yaml:"maxImpulse"`
}

// MotionConfig 动作映射配置
type MotionConfig struct {
	// MaxMotorTorque 关节马达最大扭矩
	MaxMotorTorque float64 `yaml:"maxMotorTorque"`
	// SpeedFactor 步长缩放：有效步长 = 实际步长 / SpeedFactor
	SpeedFactor float64 `yaml:"speedFactor"`
}

// JumpConfig 起跳判定配置
type JumpConfig struct {
	// ReferenceJoint 起跳参考关节（默认 SpineMid）
	ReferenceJoint types.JointType `yaml:"referenceJoint"`
	// Threshold 峰值竖直速度超过该值才起跳
	Threshold float64 `yaml:"threshold"`
	// ImpulseGain 起跳冲量 = ImpulseGain * 峰值速度
	ImpulseGain float64 `yaml:"impulseGain"`
	// HorizontalGain 空中横向控制增益
	HorizontalGain float64 `yaml:"horizontalGain"`
	// DecelMargin 峰值超过当前速度该值即判定为减速（进入 Jumped）
	DecelMargin float64 `yaml:"decelMargin"`
	// SpeedFactor 步长缩放（与 Motion.SpeedFactor 独立）
	SpeedFactor float64 `yaml:"speedFactor"`
}

// RoundConfig 回合流程配置
type RoundConfig struct {
	// ReadyHoldSeconds 双手握拳需保持的秒数
	ReadyHoldSeconds float64 `yaml:"readyHoldSeconds"`
	// LandingGraceSeconds 着陆后等待多久再结算
	LandingGraceSeconds float64 `yaml:"landingGraceSeconds"`
	// LeaderboardSeconds 排行榜画面停留秒数
	LeaderboardSeconds float64 `yaml:"leaderboardSeconds"`
	// LeaderboardSize 排行榜显示条数
	LeaderboardSize int `yaml:"leaderboardSize"`
}

// DefaultGameConfig 返回默认配置
//
// 数值与街机版一致：150x150 米的世界、30x30 米的视野、50 枚金币、
// 50 朵云、10 只猫。
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Display: DisplayConfig{
			PixelsPerMeter: 32,
			Title:          "Jump Focus",
		},
		World: WorldConfig{
			Width:               150,
			Height:              150,
			Gravity:             9.82,
			BoundaryThickness:   1,
			BoundaryRestitution: 1,
			FloorHeight:         1,
			SpawnOffset:         10,
			VelocityIterations:  8,
			PositionIterations:  3,
		},
		Camera: CameraConfig{Width: 30, Height: 30},
		Coins:  CoinConfig{Count: 50, Radius: 2, MinValue: 10, MaxValue: 50},
		Clouds: CloudConfig{Count: 50, HalfWidth: 3, HalfHeight: 1, DragImpulse: 1},
		Cats: CatConfig{
			Count:      10,
			HalfWidth:  1.5,
			HalfHeight: 1,
			Mass:       10,
			MinImpulse: 20,
			MaxImpulse: 60,
		},
		Motion: MotionConfig{MaxMotorTorque: 400, SpeedFactor: 2},
		Jump: JumpConfig{
			ReferenceJoint: types.JointSpineMid,
			Threshold:      4,
			ImpulseGain:    100,
			HorizontalGain: 50,
			DecelMargin:    1,
			SpeedFactor:    2,
		},
		Round: RoundConfig{
			ReadyHoldSeconds:    5,
			LandingGraceSeconds: 3,
			LeaderboardSeconds:  15,
			LeaderboardSize:     10,
		},
	}
}

// LoadGameConfig 加载游戏配置
//
// 文件中未出现的字段保留默认值。
//
// 参数:
//   - path: 配置文件路径（如 "data/config/game.yaml"）
//
// 返回:
//   - *GameConfig: 加载并校验后的配置
//   - error: 读取、解析或校验失败
func LoadGameConfig(path string) (*GameConfig, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read game config: %w", err)
	}
	return ParseGameConfig(data)
}

// ParseGameConfig 从 YAML 内容解析游戏配置
func ParseGameConfig(data []byte) (*GameConfig, error) {
	cfg := DefaultGameConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse game config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid game config: %w", err)
	}
	return cfg, nil
}

// Validate 验证配置有效性
func (c *GameConfig) Validate() error {
	if c.Display.PixelsPerMeter <= 0 {
		return fmt.Errorf("display.pixelsPerMeter must be > 0, got %.2f", c.Display.PixelsPerMeter)
	}

	w := c.World
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("world size must be positive, got %.1fx%.1f", w.Width, w.Height)
	}
	if w.Gravity < 0 {
		return fmt.Errorf("world.gravity must be >= 0, got %.2f", w.Gravity)
	}
	if w.BoundaryThickness <= 0 || w.FloorHeight <= 0 {
		return fmt.Errorf("world.boundaryThickness and world.floorHeight must be > 0")
	}
	if w.SpawnOffset <= w.FloorHeight || w.SpawnOffset >= w.Height {
		return fmt.Errorf("world.spawnOffset %.1f must lie between floor height and world height", w.SpawnOffset)
	}
	if w.VelocityIterations <= 0 || w.PositionIterations <= 0 {
		return fmt.Errorf("physics iterations must be > 0")
	}

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size must be positive")
	}
	if c.Camera.Width > w.Width || c.Camera.Height > w.Height {
		return fmt.Errorf("camera (%.1fx%.1f) larger than world (%.1fx%.1f)",
			c.Camera.Width, c.Camera.Height, w.Width, w.Height)
	}

	if c.Coins.Count < 0 || c.Clouds.Count < 0 || c.Cats.Count < 0 {
		return fmt.Errorf("object counts must be >= 0")
	}
	if c.Coins.Count > 0 {
		if c.Coins.Radius <= 0 {
			return fmt.Errorf("coins.radius must be > 0")
		}
		if c.Coins.MinValue <= 0 || c.Coins.MinValue >= c.Coins.MaxValue {
			return fmt.Errorf("coin value range invalid: min(%d) max(%d)", c.Coins.MinValue, c.Coins.MaxValue)
		}
	}
	if c.Clouds.Count > 0 && (c.Clouds.HalfWidth <= 0 || c.Clouds.HalfHeight <= 0) {
		return fmt.Errorf("cloud size must be positive")
	}
	if c.Cats.Count > 0 {
		if c.Cats.HalfWidth <= 0 || c.Cats.HalfHeight <= 0 || c.Cats.Mass <= 0 {
			return fmt.Errorf("cat size and mass must be positive")
		}
		if c.Cats.MinImpulse > c.Cats.MaxImpulse {
			return fmt.Errorf("cat impulse range invalid: min(%.1f) > max(%.1f)", c.Cats.MinImpulse, c.Cats.MaxImpulse)
		}
	}

	if c.Motion.MaxMotorTorque <= 0 {
		return fmt.Errorf("motion.maxMotorTorque must be > 0")
	}
	if c.Motion.SpeedFactor <= 0 || c.Jump.SpeedFactor <= 0 {
		return fmt.Errorf("speedFactor must be > 0")
	}
	if c.Jump.ReferenceJoint < 0 || c.Jump.ReferenceJoint >= types.JointCount {
		return fmt.Errorf("jump.referenceJoint %v is not a skeleton joint", c.Jump.ReferenceJoint)
	}
	if c.Jump.Threshold <= 0 {
		return fmt.Errorf("jump.threshold must be > 0, got %.2f", c.Jump.Threshold)
	}
	if c.Jump.DecelMargin < 0 {
		return fmt.Errorf("jump.decelMargin must be >= 0")
	}

	if c.Round.ReadyHoldSeconds < 0 || c.Round.LandingGraceSeconds < 0 {
		return fmt.Errorf("round durations must be >= 0")
	}
	if c.Round.LeaderboardSize <= 0 {
		return fmt.Errorf("round.leaderboardSize must be > 0")
	}
	return nil
}

// ScreenSize 返回逻辑屏幕尺寸（像素），即摄像机视野换算成像素
func (c *GameConfig) ScreenSize() (int, int) {
	return int(c.Camera.Width * c.Display.PixelsPerMeter), int(c.Camera.Height * c.Display.PixelsPerMeter)
}

// readConfigFile 读取配置文件
// "data/" 开头的路径走嵌入资源，其他路径（测试、自定义配置）直接读磁盘
func readConfigFile(path string) ([]byte, error) {
	if strings.HasPrefix(strings.TrimPrefix(path, "./"), "data/") {
		return embedded.ReadFile(path)
	}
	return os.ReadFile(path)
}
