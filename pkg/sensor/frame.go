// Package sensor 提供骨骼关节数据源
//
// 数据源每帧产出一个 Frame：若干被跟踪的人体（Body），每个人体包含
// 25 个关节的相机空间坐标（米，Y 轴向上）和跟踪置信度，以及双手状态。
//
// 实现：
//   - WebSocketSource: 连接深度相机桥接服务，后台协程读取 JSON 帧
//   - ReplaySource: 回放 zstd 压缩的 JSONL 录制文件或内存脚本
//   - KeyboardSource: 用键盘合成站立骨架，无深度相机时也能游玩
package sensor

import (
	"github.com/decker502/jumpfocus/pkg/types"
)

// Point3 相机空间坐标（米，Y 轴向上）
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Joint 单个关节采样
type Joint struct {
	Position      Point3              `json:"position"`
	TrackingState types.TrackingState `json:"state"`
}

// Trusted 关节位置是否可信
// 只有 Tracked 可信，Inferred 与 NotTracked 同样视为不可用
func (j Joint) Trusted() bool {
	return j.TrackingState == types.Tracked
}

// Body 一个被跟踪的人体
type Body struct {
	TrackingID uint64                    `json:"trackingId"`
	IsTracked  bool                      `json:"tracked"`
	Joints     map[types.JointType]Joint `json:"joints"`
	HandLeft   types.HandState           `json:"handLeft"`
	HandRight  types.HandState           `json:"handRight"`
}

// Joint 返回指定关节；缺失的关节视为 NotTracked
func (b *Body) Joint(t types.JointType) Joint {
	if b == nil || b.Joints == nil {
		return Joint{TrackingState: types.NotTracked}
	}
	j, ok := b.Joints[t]
	if !ok {
		return Joint{TrackingState: types.NotTracked}
	}
	return j
}

// BothHandsClosed 双手是否同时握拳（准备手势）
func (b *Body) BothHandsClosed() bool {
	return b != nil && b.HandLeft == types.HandClosed && b.HandRight == types.HandClosed
}

// Frame 一帧传感器数据
//
// Time 是采集时刻（秒，起点任意，只有相邻帧的差值有意义），0 表示未标注。
// 回放按 Time 放出帧，跳跃速度也按相邻帧的 Time 差计算，
// 所以 30 Hz 录制的数据在 60 TPS 下回放时速度与现场一致。
type Frame struct {
	Seq    uint64  `json:"seq"`
	Time   float64 `json:"time,omitempty"`
	Bodies []Body  `json:"bodies"`
}

// Find 按跟踪 ID 查找人体，只返回仍在跟踪中的人体
func (f *Frame) Find(trackingID uint64) (*Body, bool) {
	if f == nil {
		return nil, false
	}
	for i := range f.Bodies {
		if f.Bodies[i].IsTracked && f.Bodies[i].TrackingID == trackingID {
			return &f.Bodies[i], true
		}
	}
	return nil, false
}

// FirstTracked 返回第一个被跟踪的人体
func (f *Frame) FirstTracked() (*Body, bool) {
	if f == nil {
		return nil, false
	}
	for i := range f.Bodies {
		if f.Bodies[i].IsTracked {
			return &f.Bodies[i], true
		}
	}
	return nil, false
}

// Source 骨骼数据源
//
// Latest 是非阻塞轮询，在游戏主循环的每个 tick 内调用：
// 自上次调用以来有新帧时返回 (frame, true)，否则返回 (nil, false)。
type Source interface {
	Latest() (*Frame, bool)
	Close() error
}

// Clocked 按游戏时钟放出帧的数据源（回放）
//
// 主循环每个 tick 在 Latest 之前调用 Advance 推进回放时钟。
type Clocked interface {
	Advance(dt float64)
}
