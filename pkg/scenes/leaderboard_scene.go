package scenes

import (
	"context"
	"fmt"
	"image/color"
	"log"

	"github.com/decker502/jumpfocus/pkg/leaderboard"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

var (
	leaderboardBackground = color.RGBA{0x1b, 0x26, 0x3b, 0xff}
)

// TopQuerier 排行榜查询（leaderboard.Store 实现）
type TopQuerier interface {
	Top(ctx context.Context, n int) ([]leaderboard.Round, error)
}

// LeaderboardScene 回合结束后显示排行榜
//
// 排行榜在后台协程中查询；停留 timeout 秒或按下空格/回车后调用 onDone。
type LeaderboardScene struct {
	latest  leaderboard.Round
	timeout float64
	onDone  func()

	// skipPressed 是否按下了跳过键，测试中可替换
	skipPressed func() bool

	elapsed float64
	done    bool

	loaded  chan []leaderboard.Round
	entries []leaderboard.Round
	ready   bool

	cancel context.CancelFunc
}

// NewLeaderboardScene 创建排行榜场景
//
// 参数:
//   - store: 排行榜查询，可为 nil（只显示本回合）
//   - latest: 刚完成的回合（高亮显示）
//   - size: 显示条数
//   - timeout: 自动返回的时间（秒）
//   - onDone: 离开场景时调用一次
func NewLeaderboardScene(store TopQuerier, latest leaderboard.Round, size int, timeout float64, onDone func()) *LeaderboardScene {
	ctx, cancel := context.WithCancel(context.Background())
	s := &LeaderboardScene{
		latest:      latest,
		timeout:     timeout,
		onDone:      onDone,
		skipPressed: skipKeyPressed,
		loaded:      make(chan []leaderboard.Round, 1),
		cancel:      cancel,
	}

	go func() {
		if store == nil {
			s.loaded <- []leaderboard.Round{latest}
			return
		}
		top, err := store.Top(ctx, size)
		if err != nil {
			log.Printf("[LeaderboardScene] Failed to load leaderboard: %v", err)
			top = []leaderboard.Round{latest}
		}
		s.loaded <- top
	}()

	return s
}

func skipKeyPressed() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyEnter)
}

// Entries 已加载的排行榜（加载完成前为 nil）
func (s *LeaderboardScene) Entries() []leaderboard.Round { return s.entries }

// Update 等待排行榜加载并计时
func (s *LeaderboardScene) Update(deltaTime float64) {
	if s.done {
		return
	}
	if !s.ready {
		select {
		case top := <-s.loaded:
			s.entries = top
			s.ready = true
		default:
		}
	}

	s.elapsed += deltaTime
	if s.elapsed >= s.timeout || s.skipPressed() {
		s.done = true
		if s.onDone != nil {
			s.onDone()
		}
	}
}

// Draw 绘制排行榜
func (s *LeaderboardScene) Draw(screen *ebiten.Image) {
	screen.Fill(leaderboardBackground)

	ebitenutil.DebugPrintAt(screen, "LEADERBOARD", 40, 40)
	ebitenutil.DebugPrintAt(screen,
		fmt.Sprintf("Your score: %d  (altitude %d, coins %d)", s.latest.Score(), int(s.latest.Altitude), s.latest.Coins),
		40, 64)

	if !s.ready {
		ebitenutil.DebugPrintAt(screen, "Loading...", 40, 100)
		return
	}
	for i, r := range s.entries {
		marker := "  "
		if r.ID == s.latest.ID && r.ID != uuid.Nil {
			marker = "> "
		}
		line := fmt.Sprintf("%s%2d. %-16s %6d", marker, i+1, r.PlayerName, r.Score())
		ebitenutil.DebugPrintAt(screen, line, 40, 100+i*20)
	}
	ebitenutil.DebugPrintAt(screen, "Press SPACE to play again", 40, 100+len(s.entries)*20+30)
}

// Dispose 停止后台查询
func (s *LeaderboardScene) Dispose() {
	s.cancel()
}
