package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/decker502/jumpfocus/pkg/app"
	"github.com/decker502/jumpfocus/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	verbose    = flag.Bool("verbose", false, "显示详细日志")
	configPath = flag.String("config", "", "游戏配置文件（默认使用内置 data/config/game.yaml）")
	rigName    = flag.String("rig", "", "人偶布局名（ragdoll、biped）")
	sensorURL  = flag.String("sensor", "", "深度相机桥接服务地址，如 ws://127.0.0.1:8181/frames")
	replayPath = flag.String("replay", "", "回放录制文件（.jsonl.zst）代替实时传感器")
	recordPath = flag.String("record", "", "把收到的骨骼帧录制到文件")
	dbPath     = flag.String("db", "jumpfocus.db", "排行榜数据库路径，为空时不保存成绩")
	player     = flag.String("player", "", "玩家名")
	snapshot   = flag.Bool("snapshot", false, "保存结算画面截图")
	fullscreen = flag.Bool("fullscreen", false, "全屏启动")
	listRigs   = flag.Bool("list-rigs", false, "列出内置人偶布局后退出")
)

func main() {
	flag.Parse()

	embedded.Init(dataFS)

	if *listRigs {
		names, err := app.AvailableRigs()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return
	}

	a, err := app.NewApp(app.Config{
		Verbose:    *verbose,
		ConfigPath: *configPath,
		Rig:        *rigName,
		SensorURL:  *sensorURL,
		ReplayPath: *replayPath,
		RecordPath: *recordPath,
		DBPath:     *dbPath,
		Player:     *player,
		Snapshot:   *snapshot,
		Fullscreen: *fullscreen,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "启动失败: %v\n", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	w, h := a.Layout(0, 0)
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle(a.Title())
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(a); err != nil {
		a.Shutdown()
		log.Fatal(err)
	}
}
