package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene represents a game screen (jump round, leaderboard).
// Each scene has its own update and rendering logic.
type Scene interface {
	// Update updates the scene logic based on the elapsed time.
	// deltaTime is the time elapsed since the last update in seconds.
	Update(deltaTime float64)

	// Draw renders the scene to the provided screen.
	// screen is the target image where the scene should be drawn.
	Draw(screen *ebiten.Image)
}

// Disposable 是一个可选接口，场景被切换掉或程序退出时调用 Dispose()
//
// 跳跃场景借此释放人偶刚体并关闭传感器订阅，
// 释放必须由场景的拥有者显式触发，不依赖垃圾回收。
type Disposable interface {
	Dispose()
}
