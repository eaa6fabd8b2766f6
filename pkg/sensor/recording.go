package sensor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// RecordingExt 录制文件扩展名
const RecordingExt = ".jsonl.zst"

// Recorder 将帧写入 zstd 压缩的 JSONL 流（每行一帧）
type Recorder struct {
	mu     sync.Mutex
	closer io.Closer
	enc    *zstd.Encoder
	w      *bufio.Writer
	frames int
}

// NewRecorder 在任意 Writer 上创建录制器
func NewRecorder(w io.Writer) (*Recorder, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &Recorder{
		enc: enc,
		w:   bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// CreateRecording 创建录制文件
func CreateRecording(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording %s: %w", path, err)
	}
	r, err := NewRecorder(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// Write 追加一帧
func (r *Recorder) Write(frame *Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.w == nil {
		return fmt.Errorf("recorder closed")
	}
	b, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", frame.Seq, err)
	}
	if _, err := r.w.Write(b); err != nil {
		return err
	}
	if err := r.w.WriteByte('\n'); err != nil {
		return err
	}
	r.frames++
	return nil
}

// Frames 已写入的帧数
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Close 刷新并关闭录制器，重复调用无副作用
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.w == nil {
		return nil
	}
	var firstErr error
	if err := r.w.Flush(); err != nil {
		firstErr = err
	}
	if err := r.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if r.closer != nil {
		if err := r.closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.w = nil
	r.enc = nil
	r.closer = nil
	return firstErr
}

// replayEpsilon 回放时钟与帧时刻比较的容差（秒）
const replayEpsilon = 1e-6

// ReplaySource 按顺序回放帧
//
// 帧带有采集时刻（Time）时按回放时钟放出：Advance 推进时钟，
// Latest 返回时刻已到的最新一帧，和现场数据源一样只给最新帧。
// 帧没有时刻时（内存脚本）每次 Latest 前进一帧。
type ReplaySource struct {
	mu     sync.Mutex
	frames []Frame
	next   int
	loop   bool

	timed bool
	base  float64
	clock float64
}

func newReplaySource(frames []Frame, loop bool) *ReplaySource {
	s := &ReplaySource{frames: frames, loop: loop}
	for _, f := range frames {
		if f.Time > 0 {
			s.timed = true
			break
		}
	}
	if s.timed {
		s.base = frames[0].Time
	}
	return s
}

// NewScriptedSource 用内存中的帧序列创建数据源（测试、无头验证）
func NewScriptedSource(frames []Frame) *ReplaySource {
	return newReplaySource(frames, false)
}

// ReadRecording 从 zstd JSONL 流读取全部帧
func ReadRecording(r io.Reader) ([]Frame, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var frames []Frame
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var f Frame
		if err := json.Unmarshal(sc.Bytes(), &f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, f)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	return frames, nil
}

// OpenReplay 打开录制文件
//
// 参数:
//   - path: .jsonl.zst 文件路径
//   - loop: 播放完后是否从头循环
func OpenReplay(path string, loop bool) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording %s: %w", path, err)
	}
	defer f.Close()

	frames, err := ReadRecording(f)
	if err != nil {
		return nil, fmt.Errorf("recording %s: %w", path, err)
	}
	log.Printf("[Sensor] Loaded %d frames from %s", len(frames), path)
	return newReplaySource(frames, loop), nil
}

// Advance 推进回放时钟（秒）
func (s *ReplaySource) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	s.mu.Lock()
	s.clock += dt
	s.mu.Unlock()
}

// Latest 返回下一帧；播放完且不循环时返回 false
func (s *ReplaySource) Latest() (*Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return nil, false
	}
	if s.next >= len(s.frames) {
		if !s.loop {
			return nil, false
		}
		s.next = 0
		s.clock = 0
	}
	if !s.timed {
		f := s.frames[s.next]
		s.next++
		return &f, true
	}

	due := -1
	for s.next < len(s.frames) && s.frames[s.next].Time-s.base <= s.clock+replayEpsilon {
		due = s.next
		s.next++
	}
	if due < 0 {
		return nil, false
	}
	f := s.frames[due]
	return &f, true
}

// Done 是否已经播放完（循环模式永远为 false）
func (s *ReplaySource) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.loop && s.next >= len(s.frames)
}

// Len 帧总数
func (s *ReplaySource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func (s *ReplaySource) Close() error { return nil }

// RecordingSource 包装另一个数据源，把取到的每一帧同时写入录制器
type RecordingSource struct {
	src Source
	rec *Recorder
}

// NewRecordingSource 创建录制包装
func NewRecordingSource(src Source, rec *Recorder) *RecordingSource {
	return &RecordingSource{src: src, rec: rec}
}

// Advance 转发给可按时钟回放的底层数据源
func (s *RecordingSource) Advance(dt float64) {
	if c, ok := s.src.(Clocked); ok {
		c.Advance(dt)
	}
}

func (s *RecordingSource) Latest() (*Frame, bool) {
	f, ok := s.src.Latest()
	if ok {
		if err := s.rec.Write(f); err != nil {
			log.Printf("[Sensor] Recording write failed: %v", err)
		}
	}
	return f, ok
}

// Close 关闭录制器和底层数据源
func (s *RecordingSource) Close() error {
	recErr := s.rec.Close()
	if err := s.src.Close(); err != nil {
		return err
	}
	return recErr
}
