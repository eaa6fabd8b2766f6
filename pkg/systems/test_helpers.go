package systems

import (
	"path/filepath"
	"testing"

	"github.com/decker502/jumpfocus/pkg/components"
	"github.com/decker502/jumpfocus/pkg/config"
	"github.com/decker502/jumpfocus/pkg/ecs"
	"github.com/decker502/jumpfocus/pkg/entities"
	"github.com/decker502/jumpfocus/pkg/game"
	"github.com/decker502/jumpfocus/pkg/sensor"
	"github.com/decker502/jumpfocus/pkg/types"
)

// newTestGameWorld 创建空的游戏世界（无重力，避免测试中人偶下落）
func newTestGameWorld(t *testing.T) *game.GameWorld {
	t.Helper()
	cfg := config.DefaultGameConfig()
	cfg.World.Gravity = 0
	return game.NewGameWorld(cfg, ecs.NewEntityManager())
}

// loadTestRig 加载 data/rigs 下的人偶布局
func loadTestRig(t *testing.T, name string) *config.RigTopology {
	t.Helper()
	topo, err := config.LoadRigTopology(filepath.Join("..", "..", config.RigDir, name+".yaml"))
	if err != nil {
		t.Fatalf("failed to load rig %s: %v", name, err)
	}
	return topo
}

// newTestAvatar 在测试世界中创建人偶实体
func newTestAvatar(t *testing.T, gw *game.GameWorld, rigName string) (ecs.EntityID, *components.AvatarComponent) {
	t.Helper()
	id, err := entities.NewAvatarEntity(gw, loadTestRig(t, rigName), 7)
	if err != nil {
		t.Fatalf("failed to create avatar: %v", err)
	}
	avatar, ok := ecs.GetComponent[*components.AvatarComponent](gw.EntityManager, id)
	if !ok {
		t.Fatal("avatar component missing")
	}
	return id, avatar
}

// standingPose 站立姿势的关节坐标（米，Y 向上）
var standingPose = map[types.JointType]sensor.Point3{
	types.JointSpineBase:     {X: 0, Y: 0.9, Z: 2},
	types.JointSpineMid:      {X: 0, Y: 1.2, Z: 2},
	types.JointNeck:          {X: 0, Y: 1.5, Z: 2},
	types.JointHead:          {X: 0, Y: 1.7, Z: 2},
	types.JointShoulderLeft:  {X: -0.2, Y: 1.45, Z: 2},
	types.JointElbowLeft:     {X: -0.25, Y: 1.2, Z: 2},
	types.JointWristLeft:     {X: -0.27, Y: 0.95, Z: 2},
	types.JointShoulderRight: {X: 0.2, Y: 1.45, Z: 2},
	types.JointElbowRight:    {X: 0.25, Y: 1.2, Z: 2},
	types.JointWristRight:    {X: 0.27, Y: 0.95, Z: 2},
	types.JointHipLeft:       {X: -0.1, Y: 0.85, Z: 2},
	types.JointKneeLeft:      {X: -0.1, Y: 0.45, Z: 2},
	types.JointAnkleLeft:     {X: -0.1, Y: 0.05, Z: 2},
	types.JointHipRight:      {X: 0.1, Y: 0.85, Z: 2},
	types.JointKneeRight:     {X: 0.1, Y: 0.45, Z: 2},
	types.JointAnkleRight:    {X: 0.1, Y: 0.05, Z: 2},
}

// standingBody 全部关节可信的站立人体
func standingBody() *sensor.Body {
	b := &sensor.Body{
		TrackingID: 7,
		IsTracked:  true,
		Joints:     make(map[types.JointType]sensor.Joint, types.JointCount),
		HandLeft:   types.HandOpen,
		HandRight:  types.HandOpen,
	}
	for j := types.JointType(0); j < types.JointCount; j++ {
		b.Joints[j] = sensor.Joint{Position: standingPose[j], TrackingState: types.Tracked}
	}
	return b
}

// setJoint 修改单个关节
func setJoint(b *sensor.Body, j types.JointType, p sensor.Point3, state types.TrackingState) {
	b.Joints[j] = sensor.Joint{Position: p, TrackingState: state}
}
