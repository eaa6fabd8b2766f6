package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsHandshakeTimeout = 5 * time.Second
	wsReadTimeout      = 10 * time.Second
	wsMinBackoff       = 200 * time.Millisecond
	wsMaxBackoff       = 5 * time.Second
)

// WebSocketSource 从深度相机桥接服务读取骨骼帧
//
// 桥接服务每帧推送一条 JSON 文本消息（Frame 结构）。后台协程负责读取和
// 断线重连，游戏主循环只通过 Latest 读取最新一帧，永不阻塞。
type WebSocketSource struct {
	url   string
	start time.Time

	mu        sync.Mutex
	latest    *Frame
	fresh     bool
	seq       uint64
	connected bool
	lastErr   error

	cancel context.CancelFunc
	done   chan struct{}
}

// DialWebSocket 启动连接协程
//
// 连接失败不会返回错误：协程按指数退避重试，直到 ctx 取消或 Close。
//
// 参数:
//   - ctx: 生命周期上下文
//   - url: 桥接服务地址（如 "ws://localhost:8181/frames"）
func DialWebSocket(ctx context.Context, url string) *WebSocketSource {
	ctx, cancel := context.WithCancel(ctx)
	s := &WebSocketSource{
		url:    url,
		start:  time.Now(),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

// Latest 返回自上次调用以来收到的最新帧
func (s *WebSocketSource) Latest() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fresh {
		return nil, false
	}
	s.fresh = false
	return s.latest, true
}

// Connected 当前是否已连接
func (s *WebSocketSource) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// LastError 最近一次连接或读取错误
func (s *WebSocketSource) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close 停止后台协程并等待其退出
func (s *WebSocketSource) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *WebSocketSource) run(ctx context.Context) {
	defer close(s.done)

	backoff := wsMinBackoff
	for {
		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		wasConnected := s.connected
		s.connected = false
		s.lastErr = err
		s.mu.Unlock()

		// 连上过说明服务可用，重新从最短间隔开始
		if wasConnected {
			backoff = wsMinBackoff
		}
		log.Printf("[Sensor] Connection to %s lost: %v (retry in %v)", s.url, err, backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff)
	}
}

// nextBackoff 重试间隔翻倍，不超过 wsMaxBackoff
func nextBackoff(cur time.Duration) time.Duration {
	if cur < wsMinBackoff {
		return wsMinBackoff
	}
	cur *= 2
	if cur > wsMaxBackoff {
		return wsMaxBackoff
	}
	return cur
}

func (s *WebSocketSource) connectAndRead(ctx context.Context) error {
	d := websocket.Dialer{HandshakeTimeout: wsHandshakeTimeout}
	conn, resp, err := d.DialContext(ctx, s.url, http.Header{})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	// ctx 取消时关闭连接以打断阻塞的 ReadMessage
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s.mu.Lock()
	s.connected = true
	s.lastErr = nil
	s.mu.Unlock()
	log.Printf("[Sensor] Connected to %s", s.url)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil {
			log.Printf("[Sensor] Dropping malformed frame: %v", err)
			continue
		}
		s.publish(&f)
	}
}

func (s *WebSocketSource) publish(f *Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if f.Seq == 0 {
		f.Seq = s.seq
	}
	// 桥接服务没有标注采集时刻时按收到的时刻补上
	if f.Time <= 0 {
		f.Time = time.Since(s.start).Seconds()
	}
	s.latest = f
	s.fresh = true
}
