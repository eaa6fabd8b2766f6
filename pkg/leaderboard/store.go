// Package leaderboard 保存回合成绩并提供排行榜查询
//
// 存储使用纯 Go 的 SQLite 驱动（modernc.org/sqlite），无需 cgo。
// 两张表：
//   - players: 玩家名、累计回合数与累计金币
//   - histories: 每个完成的回合（高度、金币、得分、可选截图）
//
// 时间以 Unix 纳秒整数保存，排序即时间先后。
package leaderboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultTopN 排行榜显示的条数
const DefaultTopN = 10

// ErrClosed 存储已关闭
var ErrClosed = errors.New("leaderboard store is closed")

// Round 一个完成的回合
type Round struct {
	ID         uuid.UUID
	Played     time.Time
	Altitude   float64
	Coins      int
	PlayerName string
	// Snapshot 结算画面 PNG，可为空；Top 查询不加载
	Snapshot []byte
}

// Score 回合得分 = 金币 + 最高高度（取整）
func (r Round) Score() int {
	return r.Coins + int(r.Altitude)
}

// Player 玩家记录
type Player struct {
	Name    string
	Created time.Time
	Rounds  int
	// Coins 所有回合收集的金币总和
	Coins int
}

// Store 排行榜存储
//
// 可在多个协程中使用；Close 会等待进行中的读写结束。
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Open 打开（不存在时创建）排行榜数据库
//
// 参数:
//   - path: 数据库文件路径；":memory:" 使用内存数据库
//
// 返回:
//   - *Store: 存储实例
//   - error: 打开或建表失败
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("empty leaderboard path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create leaderboard directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open leaderboard: %w", err)
	}
	// 单连接：内存库每个连接是独立的数据库，写入也需要串行
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Printf("[Leaderboard] Opened %s", path)
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS players (
			name TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			rounds INTEGER NOT NULL DEFAULT 0,
			coins INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS histories (
			id TEXT PRIMARY KEY,
			player TEXT NOT NULL REFERENCES players(name),
			played_at INTEGER NOT NULL,
			altitude REAL NOT NULL,
			coins INTEGER NOT NULL,
			score INTEGER NOT NULL,
			snapshot BLOB
		);`,
		`CREATE INDEX IF NOT EXISTS histories_score ON histories(score DESC, played_at ASC);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("failed to initialise leaderboard schema: %w", err)
		}
	}
	return nil
}

// Close 关闭数据库，重复调用无副作用
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// UpsertPlayer 登记玩家（已存在时不做修改）
func (s *Store) UpsertPlayer(ctx context.Context, name string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	name = normalizeName(name)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO players(name, created_at, rounds) VALUES(?, ?, 0)
		 ON CONFLICT(name) DO NOTHING`,
		name, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to upsert player %q: %w", name, err)
	}
	return nil
}

// RecordRound 保存一个完成的回合
//
// ID 为空时生成新的 UUID，Played 为零值时取当前时间。
// 玩家不存在时自动登记，并累加其回合数和金币。
//
// 返回:
//   - Round: 实际写入的回合（补全了 ID/时间/玩家名）
//   - error: 写入失败（事务回滚）
func (s *Store) RecordRound(ctx context.Context, r Round) (Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return r, ErrClosed
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Played.IsZero() {
		r.Played = time.Now()
	}
	r.PlayerName = normalizeName(r.PlayerName)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return r, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO players(name, created_at, rounds, coins) VALUES(?, ?, 1, ?)
		 ON CONFLICT(name) DO UPDATE SET rounds = rounds + 1, coins = coins + excluded.coins`,
		r.PlayerName, formatTime(r.Played), r.Coins); err != nil {
		return r, fmt.Errorf("failed to update player %q: %w", r.PlayerName, err)
	}

	var snapshot any
	if len(r.Snapshot) > 0 {
		snapshot = r.Snapshot
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO histories(id, player, played_at, altitude, coins, score, snapshot)
		 VALUES(?, ?, ?, ?, ?, ?, ?)`,
		r.ID.String(), r.PlayerName, formatTime(r.Played), r.Altitude, r.Coins, r.Score(), snapshot); err != nil {
		return r, fmt.Errorf("failed to insert round %s: %w", r.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return r, fmt.Errorf("failed to commit round %s: %w", r.ID, err)
	}
	log.Printf("[Leaderboard] Recorded round %s: %s score=%d", r.ID, r.PlayerName, r.Score())
	return r, nil
}

// Top 得分最高的 n 个回合（同分按时间先后），不含截图
func (s *Store) Top(ctx context.Context, n int) ([]Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	if n <= 0 {
		n = DefaultTopN
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player, played_at, altitude, coins FROM histories
		 ORDER BY score DESC, played_at ASC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []Round
	for rows.Next() {
		var (
			r        Round
			id       string
			playedAt int64
		)
		if err := rows.Scan(&id, &r.PlayerName, &playedAt, &r.Altitude, &r.Coins); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid round id %q: %w", id, err)
		}
		r.Played = parseTime(playedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Snapshot 读取回合截图，没有截图时返回 nil
func (s *Store) Snapshot(ctx context.Context, id uuid.UUID) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT snapshot FROM histories WHERE id = ?`, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("round %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", id, err)
	}
	return data, nil
}

// Player 查询玩家记录
func (s *Store) Player(ctx context.Context, name string) (Player, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return Player{}, false, ErrClosed
	}
	p := Player{Name: normalizeName(name)}
	var created int64
	err := s.db.QueryRowContext(ctx, `SELECT created_at, rounds, coins FROM players WHERE name = ?`, p.Name).Scan(&created, &p.Rounds, &p.Coins)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, false, nil
	}
	if err != nil {
		return Player{}, false, fmt.Errorf("failed to query player %q: %w", p.Name, err)
	}
	p.Created = parseTime(created)
	return p, true, nil
}

// normalizeName 空白玩家名记为 Anonymous
func normalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Anonymous"
	}
	return name
}

func formatTime(t time.Time) int64 {
	return t.UnixNano()
}

func parseTime(ns int64) time.Time {
	return time.Unix(0, ns).UTC()
}
