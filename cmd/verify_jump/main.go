// verify_jump 无窗口运行一个完整回合，打印状态变化
//
// 用法（在项目根目录）：
//
//	go run ./cmd/verify_jump                       # 内置脚本：准备手势 -> 起跳
//	go run ./cmd/verify_jump -replay rec.jsonl.zst # 回放录制文件
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"

	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/leaderboard"
	"github.com/decker502/jumpfocus/pkg/scenes"
	"github.com/decker502/jumpfocus/pkg/sensor"
	"github.com/decker502/jumpfocus/pkg/types"
)

var (
	verbose    = flag.Bool("verbose", false, "显示详细调试信息")
	rigName    = flag.String("rig", "ragdoll", "人偶布局名")
	replayPath = flag.String("replay", "", "回放录制文件，为空时使用内置脚本")
	seconds    = flag.Float64("seconds", 60, "最长模拟时间（秒）")
	seed       = flag.Int64("seed", 1, "世界生成随机种子")
	dbPath     = flag.String("db", "", "保存回合的排行榜数据库（可选）")
)

const tps = 60

func main() {
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "verify_jump: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadGameConfig(config.GameConfigPath)
	if err != nil {
		return err
	}
	rig, err := config.LoadRigByName(*rigName)
	if err != nil {
		return err
	}

	var src sensor.Source
	if *replayPath != "" {
		replay, err := sensor.OpenReplay(*replayPath, false)
		if err != nil {
			return err
		}
		src = replay
	} else {
		src = sensor.NewScriptedSource(scriptedJump(cfg))
	}
	defer src.Close()

	var recorder scenes.RoundRecorder
	if *dbPath != "" {
		store, err := leaderboard.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	finished := false
	scene, err := scenes.NewJumpScene(scenes.JumpSceneConfig{
		Game:       cfg,
		Rig:        rig,
		Source:     src,
		Recorder:   recorder,
		PlayerName: "verify_jump",
		Rand:       rand.New(rand.NewSource(*seed)),
		OnFinished: func(r leaderboard.Round, err error) {
			finished = true
			if err != nil {
				fmt.Printf("round not saved: %v\n", err)
			}
			fmt.Printf("round %s: altitude=%.1f coins=%d score=%d\n", r.ID, r.Altitude, r.Coins, r.Score())
		},
	})
	if err != nil {
		return err
	}
	defer scene.Dispose()

	dt := 1.0 / tps
	state := components.JumpIdle
	landed := false
	hadAvatar := false
	for tick := 0; tick < int(*seconds*tps) && !finished; tick++ {
		scene.Update(dt)
		gw := scene.World()

		if _, ok := scene.Avatar(); ok != hadAvatar {
			hadAvatar = ok
			fmt.Printf("[%7.3fs] avatar present: %v\n", gw.Clock(), ok)
		}
		if s := scene.JumpState(); s != state {
			fmt.Printf("[%7.3fs] jump state %v -> %v\n", gw.Clock(), state, s)
			state = s
		}
		if gw.HasLanded() && !landed {
			landed = true
			fmt.Printf("[%7.3fs] landed: %s\n", gw.Clock(), gw.Message())
		}
	}

	if !finished {
		return fmt.Errorf("round did not finish within %.0fs (state %v, landed %v)", *seconds, state, landed)
	}
	return nil
}

// scriptedJump 准备手势保持足够时间，随后脊柱快速上升再减速
func scriptedJump(cfg *config.GameConfig) []sensor.Frame {
	holdFrames := int(cfg.Round.ReadyHoldSeconds*tps) + 5

	var frames []sensor.Frame
	for i := 0; i < holdFrames; i++ {
		frames = append(frames, standing(1.0, true))
	}
	for _, dy := range []float64{0, 0.06, 0.15, 0.27, 0.33, 0.3} {
		frames = append(frames, standing(1.0+dy, false))
	}
	for i := 0; i < tps; i++ {
		frames = append(frames, standing(1.3, false))
	}
	for i := range frames {
		frames[i].Seq = uint64(i + 1)
		frames[i].Time = float64(i+1) / tps
	}
	return frames
}

func standing(spineY float64, handsClosed bool) sensor.Frame {
	hand := types.HandOpen
	if handsClosed {
		hand = types.HandClosed
	}
	offsets := map[types.JointType]sensor.Point3{
		types.JointSpineBase:     {Y: -0.3},
		types.JointSpineMid:      {},
		types.JointSpineShoulder: {Y: 0.3},
		types.JointNeck:          {Y: 0.35},
		types.JointHead:          {Y: 0.5},
		types.JointShoulderLeft:  {X: -0.2, Y: 0.25},
		types.JointElbowLeft:     {X: -0.25, Y: 0},
		types.JointWristLeft:     {X: -0.27, Y: -0.25},
		types.JointShoulderRight: {X: 0.2, Y: 0.25},
		types.JointElbowRight:    {X: 0.25, Y: 0},
		types.JointWristRight:    {X: 0.27, Y: -0.25},
		types.JointHipLeft:       {X: -0.1, Y: -0.35},
		types.JointKneeLeft:      {X: -0.1, Y: -0.75},
		types.JointAnkleLeft:     {X: -0.1, Y: -1.15},
		types.JointHipRight:      {X: 0.1, Y: -0.35},
		types.JointKneeRight:     {X: 0.1, Y: -0.75},
		types.JointAnkleRight:    {X: 0.1, Y: -1.15},
	}

	joints := make(map[types.JointType]sensor.Joint, len(offsets))
	for j, o := range offsets {
		joints[j] = sensor.Joint{
			Position:      sensor.Point3{X: o.X, Y: spineY + o.Y, Z: 2.5},
			TrackingState: types.Tracked,
		}
	}
	return sensor.Frame{Bodies: []sensor.Body{{
		TrackingID: 1,
		IsTracked:  true,
		Joints:     joints,
		HandLeft:   hand,
		HandRight:  hand,
	}}}
}
