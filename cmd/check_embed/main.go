// check_embed 检查随游戏打包的配置和人偶布局能否被加载
//
// 在项目根目录运行，逐个解析 data/config/game.yaml 和 data/rigs/*.yaml，
// 并打印文件摘要，便于和安装包中的内容比对。
package main

import (
	"crypto/md5"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/embedded"
)

func main() {
	failed := 0

	data, err := embedded.ReadFile(config.GameConfigPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.ParseGameConfig(data)
	if err != nil {
		fmt.Printf("FAIL %s: %v\n", config.GameConfigPath, err)
		failed++
	} else {
		w, h := cfg.ScreenSize()
		fmt.Printf("ok   %s md5=%x screen=%dx%d\n", config.GameConfigPath, md5.Sum(data), w, h)
	}

	rigs, err := embedded.Glob(path.Join(config.RigDir, "*.yaml"))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if len(rigs) == 0 {
		fmt.Printf("FAIL no rigs under %s\n", config.RigDir)
		failed++
	}
	for _, p := range rigs {
		data, err := embedded.ReadFile(p)
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", p, err)
			failed++
			continue
		}
		topo, err := config.ParseRigTopology(data)
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", p, err)
			failed++
			continue
		}
		name := strings.TrimSuffix(path.Base(p), ".yaml")
		fmt.Printf("ok   %s md5=%x rig=%s segments=%d joints=%d\n",
			p, md5.Sum(data), name, len(topo.Segments), len(topo.Joints))
	}

	if failed > 0 {
		os.Exit(1)
	}
}
