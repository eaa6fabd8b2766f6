package scenes

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/decker502/jumpfocus/pkg/leaderboard"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTop struct {
	rounds []leaderboard.Round
	err    error
	n      int
}

func (f *fakeTop) Top(ctx context.Context, n int) ([]leaderboard.Round, error) {
	f.n = n
	return f.rounds, f.err
}

// waitLoaded 推进场景直到排行榜加载完成
func waitLoaded(t *testing.T, s *LeaderboardScene) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Entries() == nil && time.Now().Before(deadline) {
		s.Update(0)
		time.Sleep(time.Millisecond)
	}
	require.NotNil(t, s.Entries())
}

func TestLeaderboardSceneLoadsTop(t *testing.T) {
	latest := leaderboard.Round{ID: uuid.New(), PlayerName: "me", Altitude: 40, Coins: 10}
	store := &fakeTop{rounds: []leaderboard.Round{
		{ID: uuid.New(), PlayerName: "best", Altitude: 90},
		latest,
	}}

	s := NewLeaderboardScene(store, latest, 10, 15, nil)
	s.skipPressed = func() bool { return false }
	t.Cleanup(s.Dispose)

	waitLoaded(t, s)
	assert.Len(t, s.Entries(), 2)
	assert.Equal(t, 10, store.n)

	screen := ebiten.NewImage(960, 960)
	s.Draw(screen)
}

func TestLeaderboardSceneQueryFailureShowsLatest(t *testing.T) {
	latest := leaderboard.Round{PlayerName: "me", Coins: 10}
	s := NewLeaderboardScene(&fakeTop{err: errors.New("disk on fire")}, latest, 10, 15, nil)
	s.skipPressed = func() bool { return false }
	t.Cleanup(s.Dispose)

	waitLoaded(t, s)
	require.Len(t, s.Entries(), 1)
	assert.Equal(t, "me", s.Entries()[0].PlayerName)
}

func TestLeaderboardSceneTimeout(t *testing.T) {
	calls := 0
	s := NewLeaderboardScene(nil, leaderboard.Round{}, 10, 1, func() { calls++ })
	s.skipPressed = func() bool { return false }
	t.Cleanup(s.Dispose)

	for i := 0; i < 59; i++ {
		s.Update(1.0 / 60)
	}
	assert.Equal(t, 0, calls)

	for i := 0; i < 10; i++ {
		s.Update(1.0 / 60)
	}
	assert.Equal(t, 1, calls, "onDone should fire exactly once")
}

func TestLeaderboardSceneSkip(t *testing.T) {
	calls := 0
	s := NewLeaderboardScene(nil, leaderboard.Round{}, 10, 15, func() { calls++ })
	t.Cleanup(s.Dispose)

	pressed := false
	s.skipPressed = func() bool { return pressed }
	s.Update(1.0 / 60)
	assert.Equal(t, 0, calls)

	pressed = true
	s.Update(1.0 / 60)
	s.Update(1.0 / 60)
	assert.Equal(t, 1, calls)
}
