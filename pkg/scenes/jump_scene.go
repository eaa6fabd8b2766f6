package scenes

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log"
	"math/rand"
	"time"

	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/ecs"
	"github.com/decker502/jumpfocus/pkg/entities"
	"github.com/decker502/jumpfocus/pkg/game"
	"github.com/decker502/jumpfocus/pkg/leaderboard"
	"github.com/decker502/jumpfocus/pkg/sensor"
	"github.com/decker502/jumpfocus/pkg/systems"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
)

// MessageNoPlayer 没有玩家时的提示
const MessageNoPlayer = "Step in front of the sensor"

// RoundRecorder 保存完成的回合（leaderboard.Store 实现）
type RoundRecorder interface {
	RecordRound(ctx context.Context, r leaderboard.Round) (leaderboard.Round, error)
}

// JumpSceneConfig 跳跃场景依赖
type JumpSceneConfig struct {
	Game   *config.GameConfig
	Rig    *config.RigTopology
	Source sensor.Source

	// Recorder 为 nil 时回合结果不落盘
	Recorder   RoundRecorder
	PlayerName string

	// Rand 世界生成随机源，为 nil 时按 World.Seed（0 表示当前时间）创建
	Rand *rand.Rand

	// Snapshot 着陆后截取一帧 PNG 随回合保存
	Snapshot bool

	// OnFinished 回合保存结束后（在 Update 中）调用一次
	OnFinished func(leaderboard.Round, error)
}

// finishResult 后台保存的结果
type finishResult struct {
	round leaderboard.Round
	err   error
}

// JumpScene 一个跳跃回合（回合控制器）
//
// 每个 tick 的顺序：
//  1. 推进物理（着陆后只推进时钟）
//  2. 轮询传感器；没有玩家时接纳第一个被跟踪的人体并创建人偶，玩家丢失时释放人偶
//  3. 有新帧时：动作映射 -> 准备手势 -> 起跳状态机
//     （步长取相邻帧的采集时刻差，帧没有时刻时取距上一帧的累计时间）
//  4. 摄像机跟随
//  5. 着陆并等待结算延迟后，把回合交给后台协程保存
type JumpScene struct {
	cfg JumpSceneConfig
	gw  *game.GameWorld

	motion    *systems.MotionSystem
	readiness *systems.ReadinessSystem
	jump      *systems.JumpSystem
	collision *systems.CollisionSystem
	camera    *systems.CameraSystem
	render    *systems.RenderSystem

	frame      *sensor.Frame
	sinceFrame float64
	// lastFrameTime 上一次驱动人偶的帧的采集时刻，hasFrameTime 为 false 时无效
	lastFrameTime float64
	hasFrameTime  bool

	avatar     ecs.EntityID
	hasAvatar  bool
	trackingID uint64

	snapshot     []byte
	wantSnapshot bool

	ctx        context.Context
	cancel     context.CancelFunc
	finalizing bool
	results    chan finishResult
	finished   bool
	result     leaderboard.Round

	disposed bool
}

// NewJumpScene 生成世界并创建跳跃场景
//
// 返回:
//   - *JumpScene: 场景实例（尚无玩家）
//   - error: 配置缺失或世界生成失败
func NewJumpScene(cfg JumpSceneConfig) (*JumpScene, error) {
	if cfg.Game == nil || cfg.Rig == nil || cfg.Source == nil {
		return nil, fmt.Errorf("jump scene requires game config, rig and sensor source")
	}
	if cfg.Rand == nil {
		seed := cfg.Game.World.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		cfg.Rand = rand.New(rand.NewSource(seed))
	}

	gw := game.NewGameWorld(cfg.Game, ecs.NewEntityManager())
	if err := entities.GenerateWorld(gw, cfg.Rand); err != nil {
		return nil, fmt.Errorf("failed to generate world: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &JumpScene{
		cfg:          cfg,
		gw:           gw,
		motion:       systems.NewMotionSystem(cfg.Game.Motion),
		readiness:    systems.NewReadinessSystem(cfg.Game.Round.ReadyHoldSeconds),
		jump:         systems.NewJumpSystem(cfg.Game.Jump),
		collision:    systems.NewCollisionSystem(gw),
		camera:       systems.NewCameraSystem(gw),
		render:       systems.NewRenderSystem(gw),
		wantSnapshot: cfg.Snapshot,
		ctx:          ctx,
		cancel:       cancel,
		results:      make(chan finishResult, 1),
	}
	gw.SetMessage(MessageNoPlayer)

	log.Printf("[JumpScene] Round started with rig %q", cfg.Rig.Name)
	return s, nil
}

// World 回合的游戏世界
func (s *JumpScene) World() *game.GameWorld { return s.gw }

// Avatar 当前玩家的人偶实体
func (s *JumpScene) Avatar() (ecs.EntityID, bool) { return s.avatar, s.hasAvatar }

// JumpState 当前玩家的起跳状态，没有玩家时为 Idle
func (s *JumpScene) JumpState() components.JumpState {
	if !s.hasAvatar {
		return components.JumpIdle
	}
	jc, ok := ecs.GetComponent[*components.JumpComponent](s.gw.EntityManager, s.avatar)
	if !ok {
		return components.JumpIdle
	}
	return jc.State
}

// HasJumped 当前玩家是否已经起跳
func (s *JumpScene) HasJumped() bool {
	return s.JumpState() == components.JumpJumped
}

// Finished 回合是否已保存完毕
func (s *JumpScene) Finished() bool { return s.finished }

// Result 保存后的回合记录（Finished 之后有效）
func (s *JumpScene) Result() leaderboard.Round { return s.result }

// Update 推进一个 tick
func (s *JumpScene) Update(deltaTime float64) {
	if s.disposed {
		return
	}

	s.gw.Step(deltaTime)
	s.sinceFrame += deltaTime

	if c, ok := s.cfg.Source.(sensor.Clocked); ok {
		c.Advance(deltaTime)
	}
	fresh := s.poll()
	s.trackPlayer()

	if fresh && s.hasAvatar {
		s.drive(s.frameStep())
		s.sinceFrame = 0
	}

	s.followAvatar()
	s.camera.Update(deltaTime)

	s.finalize()
}

// poll 读取最新帧，没有新帧时保留上一帧
func (s *JumpScene) poll() bool {
	f, ok := s.cfg.Source.Latest()
	if !ok || f == nil {
		return false
	}
	s.frame = f
	return true
}

// trackPlayer 接纳新玩家或释放丢失的玩家
func (s *JumpScene) trackPlayer() {
	if s.frame == nil {
		return
	}

	if s.hasAvatar {
		if _, ok := s.frame.Find(s.trackingID); ok {
			return
		}
		log.Printf("[JumpScene] Player %d lost", s.trackingID)
		s.releaseAvatar()
	}

	if s.gw.HasLanded() {
		return
	}
	body, ok := s.frame.FirstTracked()
	if !ok {
		s.gw.SetMessage(MessageNoPlayer)
		return
	}

	id, err := entities.NewAvatarEntity(s.gw, s.cfg.Rig, body.TrackingID)
	if err != nil {
		log.Printf("[JumpScene] Failed to create avatar: %v", err)
		return
	}
	s.avatar = id
	s.hasAvatar = true
	s.trackingID = body.TrackingID
	// 新人偶从新帧开始计算速度
	s.sinceFrame = 0
	s.hasFrameTime = false
	log.Printf("[JumpScene] Player %d adopted", body.TrackingID)
}

func (s *JumpScene) releaseAvatar() {
	if !s.hasAvatar {
		return
	}
	entities.DestroyAvatarEntity(s.gw, s.avatar)
	s.hasAvatar = false
	s.avatar = 0
	s.camera.Unfollow()
}

// frameStep 本帧与上一次驱动帧之间的时间（秒）
//
// 两帧都带采集时刻且时刻递增时取时刻差，回放与现场因此得到相同的速度；
// 否则取游戏时钟上的累计时间。
func (s *JumpScene) frameStep() float64 {
	step := s.sinceFrame
	if s.frame.Time > 0 && s.hasFrameTime && s.frame.Time > s.lastFrameTime {
		step = s.frame.Time - s.lastFrameTime
	}
	s.lastFrameTime = s.frame.Time
	s.hasFrameTime = s.frame.Time > 0
	return step
}

// drive 用当前帧驱动人偶：动作映射、准备手势、起跳
func (s *JumpScene) drive(step float64) {
	em := s.gw.EntityManager
	avatar, ok := ecs.GetComponent[*components.AvatarComponent](em, s.avatar)
	if !ok {
		return
	}
	jc, ok := ecs.GetComponent[*components.JumpComponent](em, s.avatar)
	if !ok {
		return
	}
	rc, ok := ecs.GetComponent[*components.ReadinessComponent](em, s.avatar)
	if !ok {
		return
	}

	body, _ := s.frame.Find(s.trackingID)

	s.motion.Update(avatar.Rig, body, step)
	s.readiness.Update(rc, jc, body, step)
	s.jump.Update(avatar.Rig, jc, body, step)

	if avatar.Rig.IsDynamic() && !s.gw.LandingArmed() {
		s.gw.ArmLanding()
	}
	s.gw.SetMessage(rc.Message)
}

func (s *JumpScene) followAvatar() {
	if !s.hasAvatar {
		return
	}
	avatar, ok := ecs.GetComponent[*components.AvatarComponent](s.gw.EntityManager, s.avatar)
	if !ok {
		return
	}
	if ref, ok := avatar.Rig.ReferencePoint(); ok {
		s.camera.Follow(ref)
	}
}

// finalize 结算：交给后台保存，完成后通知一次
func (s *JumpScene) finalize() {
	if s.finished {
		return
	}

	if !s.finalizing && s.gw.ReadyToFinalize() {
		// 截图要等着陆后的下一次 Draw
		if s.wantSnapshot && s.snapshot == nil {
			return
		}
		s.finalizing = true
		round := leaderboard.Round{
			ID:         uuid.New(),
			Played:     time.Now(),
			Altitude:   s.gw.Altitude(),
			Coins:      s.gw.Coins(),
			PlayerName: s.cfg.PlayerName,
			Snapshot:   s.snapshot,
		}
		log.Printf("[JumpScene] Finalizing round: score=%d", round.Score())
		go s.persist(round)
	}

	if !s.finalizing {
		return
	}
	select {
	case res := <-s.results:
		s.finished = true
		s.result = res.round
		if res.err != nil {
			log.Printf("[JumpScene] Failed to save round: %v", res.err)
		}
		if s.cfg.OnFinished != nil {
			s.cfg.OnFinished(res.round, res.err)
		}
	default:
	}
}

func (s *JumpScene) persist(round leaderboard.Round) {
	if s.cfg.Recorder == nil {
		s.results <- finishResult{round: round}
		return
	}
	saved, err := s.cfg.Recorder.RecordRound(s.ctx, round)
	s.results <- finishResult{round: saved, err: err}
}

// Draw 绘制回合；着陆后需要截图时截取一次
func (s *JumpScene) Draw(screen *ebiten.Image) {
	s.render.Draw(screen, s.camera.Viewport())

	if s.wantSnapshot && s.snapshot == nil && s.gw.HasLanded() {
		data, err := encodeSnapshot(screen)
		if err != nil {
			log.Printf("[JumpScene] Snapshot failed: %v", err)
			s.wantSnapshot = false
			return
		}
		s.snapshot = data
	}
}

// Dispose 释放人偶、停止后台保存
func (s *JumpScene) Dispose() {
	if s.disposed {
		return
	}
	s.disposed = true
	s.releaseAvatar()
	s.cancel()
	log.Printf("[JumpScene] Disposed")
}

func encodeSnapshot(screen *ebiten.Image) ([]byte, error) {
	b := screen.Bounds()
	img := image.NewRGBA(b)
	screen.ReadPixels(img.Pix)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
