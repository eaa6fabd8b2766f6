package leaderboard

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "db", "leaderboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRoundScore(t *testing.T) {
	assert.Equal(t, 42, Round{Altitude: 12.9, Coins: 30}.Score())
	assert.Equal(t, 0, Round{}.Score())
}

func TestRecordRoundFillsDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	before := time.Now()
	r, err := s.RecordRound(ctx, Round{Altitude: 31.5, Coins: 20, PlayerName: "  "})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, r.ID)
	assert.False(t, r.Played.Before(before))
	assert.Equal(t, "Anonymous", r.PlayerName)

	p, ok, err := s.Player(ctx, "Anonymous")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, p.Rounds)
}

func TestTopOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rounds := []Round{
		{PlayerName: "a", Altitude: 30, Coins: 0, Played: base},
		{PlayerName: "b", Altitude: 80.7, Coins: 40, Played: base.Add(time.Minute)},
		{PlayerName: "c", Altitude: 50, Coins: 10, Played: base.Add(2 * time.Minute)},
		// 与 c 同分但更晚
		{PlayerName: "d", Altitude: 40, Coins: 20, Played: base.Add(3 * time.Minute)},
	}
	for _, r := range rounds {
		_, err := s.RecordRound(ctx, r)
		require.NoError(t, err)
	}

	top, err := s.Top(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)

	names := []string{top[0].PlayerName, top[1].PlayerName, top[2].PlayerName}
	assert.Equal(t, []string{"b", "c", "d"}, names)
	assert.Equal(t, 120, top[0].Score())
	assert.True(t, top[0].Played.Equal(base.Add(time.Minute)))
	assert.Nil(t, top[0].Snapshot)

	all, err := s.Top(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	png := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}
	withShot, err := s.RecordRound(ctx, Round{PlayerName: "a", Coins: 10, Snapshot: png})
	require.NoError(t, err)
	without, err := s.RecordRound(ctx, Round{PlayerName: "a", Coins: 5})
	require.NoError(t, err)

	got, err := s.Snapshot(ctx, withShot.ID)
	require.NoError(t, err)
	assert.Equal(t, png, got)

	got, err = s.Snapshot(ctx, without.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.Snapshot(ctx, uuid.New())
	assert.Error(t, err)

	p, ok, err := s.Player(ctx, "a")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, p.Rounds)
}

func TestUpsertPlayer(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPlayer(ctx, "alice"))
	require.NoError(t, s.UpsertPlayer(ctx, "alice"))

	p, ok, err := s.Player(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, p.Rounds)

	_, ok, err = s.Player(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReopenKeepsRounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leaderboard.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.RecordRound(ctx, Round{PlayerName: "a", Altitude: 33})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Top(ctx, 10)
	assert.ErrorIs(t, err, ErrClosed)

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
	top, err := s2.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 33.0, top[0].Altitude)
}

func TestOpenEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

// 同分按时间先后：整秒与带小数秒的时刻也要按时间排序
func TestTopTieBreakIsChronological(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 5, 0, time.UTC)

	tests := []struct {
		name   string
		played time.Time
	}{
		{"later", base.Add(500 * time.Millisecond)},
		{"earlier", base},
		{"latest", base.Add(time.Second)},
	}
	for _, tt := range tests {
		_, err := s.RecordRound(ctx, Round{PlayerName: tt.name, Coins: 10, Played: tt.played})
		require.NoError(t, err)
	}

	top, err := s.Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"earlier", "later", "latest"},
		[]string{top[0].PlayerName, top[1].PlayerName, top[2].PlayerName})
	assert.True(t, top[1].Played.Equal(base.Add(500*time.Millisecond)))
}

func TestPlayerAccumulatesCoins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPlayer(ctx, "alice"))
	for _, coins := range []int{20, 0, 35} {
		_, err := s.RecordRound(ctx, Round{PlayerName: "alice", Coins: coins, Altitude: 40})
		require.NoError(t, err)
	}

	p, ok, err := s.Player(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, p.Rounds)
	assert.Equal(t, 55, p.Coins)
}

// 关闭与后台保存同时发生：保存要么完成要么返回 ErrClosed
func TestCloseWhileRecording(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "leaderboard.db"))
	require.NoError(t, err)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.RecordRound(ctx, Round{PlayerName: "racer", Coins: 1})
			errs <- err
		}()
	}
	require.NoError(t, s.Close())
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrClosed)
		}
	}
	_, err = s.RecordRound(ctx, Round{PlayerName: "late"})
	assert.ErrorIs(t, err, ErrClosed)
}
