// record_sensor 连接深度相机桥接服务，把骨骼帧录制为 zstd 压缩的 JSONL
//
// 用法：
//
//	go run ./cmd/record_sensor -url ws://127.0.0.1:8181/frames -out jump.jsonl.zst -seconds 30
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/decker502/jumpfocus/pkg/sensor"
)

var (
	url     = flag.String("url", "ws://127.0.0.1:8181/frames", "桥接服务地址")
	out     = flag.String("out", "", "输出文件（默认 recording-<时间>"+sensor.RecordingExt+"）")
	seconds = flag.Float64("seconds", 0, "录制时长（秒），0 表示直到 Ctrl+C")
	poll    = flag.Duration("poll", 5*time.Millisecond, "轮询间隔")
)

func main() {
	flag.Parse()

	path := *out
	if path == "" {
		path = "recording-" + time.Now().Format("20060102-150405") + sensor.RecordingExt
	}
	if !strings.HasSuffix(path, sensor.RecordingExt) {
		log.Printf("Warning: %s does not end with %s", path, sensor.RecordingExt)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *seconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*seconds*float64(time.Second)))
		defer cancel()
	}

	if err := record(ctx, *url, path); err != nil {
		fmt.Fprintf(os.Stderr, "record_sensor: %v\n", err)
		os.Exit(1)
	}
}

func record(ctx context.Context, url, path string) error {
	rec, err := sensor.CreateRecording(path)
	if err != nil {
		return err
	}
	src := sensor.NewRecordingSource(sensor.DialWebSocket(ctx, url), rec)
	defer src.Close()

	log.Printf("Recording %s -> %s", url, path)
	ticker := time.NewTicker(*poll)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Printf("Stopped: %d frames written", rec.Frames())
			return nil
		case <-ticker.C:
			if _, ok := src.Latest(); ok && time.Since(last) > time.Second {
				last = time.Now()
				log.Printf("%d frames", rec.Frames())
			}
		}
	}
}
