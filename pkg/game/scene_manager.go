package game

import (
	"log"

	"github.com/hajimehoshi/ebiten/v2"
)

// 场景名称
const (
	SceneJump        = "jump"
	SceneLeaderboard = "leaderboard"
)

// SceneFactory 场景工厂函数类型
// 用于按名称创建场景，避免 game 包依赖 scenes 包
type SceneFactory func(name string) Scene

// SceneManager manages the game's high-level state by controlling which scene is active.
// It ensures only one scene's Update and Draw methods are called at any given time.
type SceneManager struct {
	currentScene Scene
	sceneFactory SceneFactory // 场景工厂函数，用于创建新场景
}

// NewSceneManager creates and returns a new SceneManager instance.
// The manager starts with no active scene; use SwitchTo to set the initial scene.
func NewSceneManager() *SceneManager {
	return &SceneManager{}
}

// SetSceneFactory 设置场景工厂函数
func (sm *SceneManager) SetSceneFactory(factory SceneFactory) {
	sm.sceneFactory = factory
}

// SwitchTo changes the active scene to the provided scene.
// The previous scene is disposed when it implements Disposable.
func (sm *SceneManager) SwitchTo(scene Scene) {
	if sm.currentScene == scene {
		return
	}
	if d, ok := sm.currentScene.(Disposable); ok {
		d.Dispose()
	}
	sm.currentScene = scene
}

// GetCurrentScene 返回当前活动的场景
//
// 返回：
//   - Scene: 当前场景，如果没有活动场景则返回 nil
func (sm *SceneManager) GetCurrentScene() Scene {
	return sm.currentScene
}

// LoadScene 按名称创建并切换场景
// name: 场景名称，如 SceneJump, SceneLeaderboard
func (sm *SceneManager) LoadScene(name string) {
	log.Printf("[SceneManager] Loading scene: %s", name)

	if sm.sceneFactory == nil {
		log.Printf("[SceneManager] SceneFactory not set")
		return
	}

	newScene := sm.sceneFactory(name)
	if newScene == nil {
		log.Printf("[SceneManager] Unable to create scene: %s", name)
		return
	}
	sm.SwitchTo(newScene)
}

// Shutdown 释放当前场景（程序退出时调用）
func (sm *SceneManager) Shutdown() {
	if d, ok := sm.currentScene.(Disposable); ok {
		d.Dispose()
	}
	sm.currentScene = nil
}

// Update updates the currently active scene.
// If no scene is active, this method does nothing.
// deltaTime is the time elapsed since the last update in seconds.
func (sm *SceneManager) Update(deltaTime float64) {
	if sm.currentScene != nil {
		sm.currentScene.Update(deltaTime)
	}
}

// Draw renders the currently active scene to the provided screen.
// If no scene is active, this method does nothing.
func (sm *SceneManager) Draw(screen *ebiten.Image) {
	if sm.currentScene != nil {
		sm.currentScene.Draw(screen)
	}
}
