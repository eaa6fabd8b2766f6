package config

import (
	"fmt"
	"path"
	"regexp"

	"github.com/decker502/jumpfocus/pkg/types"
	"gopkg.in/yaml.v3"
)

// RigDir 人偶布局文件目录
const RigDir = "data/rigs"

// 人偶部件角色
const (
	RoleTorso = "torso" // 躯干：摄像机跟随点、起跳冲量作用点
	RoleHead  = "head"  // 头部：NaN 哨兵
)

// 部件形状
const (
	ShapeBox    = "box"
	ShapeCircle = "circle"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Vec2 二维向量（模拟单位）
type Vec2 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// RigTopology 人偶布局
//
// 用部件列表 + 关节列表描述一个人偶，新增布局只需要新增一个 YAML 文件。
// 偏移量相对于出生点，Y 轴向下。
//
// 配置文件位置: data/rigs/<name>.yaml
type RigTopology struct {
	Name     string        `yaml:"name"`
	Segments []SegmentSpec `yaml:"segments"`
	Joints   []JointSpec   `yaml:"joints"`
}

// SegmentSpec 部件定义
type SegmentSpec struct {
	Name string `yaml:"name"`
	// Role 可选角色：torso / head
	Role  string `yaml:"role"`
	Shape string `yaml:"shape"`

	HalfWidth  float64 `yaml:"halfWidth"`
	HalfHeight float64 `yaml:"halfHeight"`
	Radius     float64 `yaml:"radius"`

	Density float64 `yaml:"density"`
	// Mass 大于 0 时覆盖密度
	Mass           float64 `yaml:"mass"`
	AngularDamping float64 `yaml:"angularDamping"`

	Offset   Vec2    `yaml:"offset"`
	Rotation float64 `yaml:"rotation"`

	// StaticUntilJump 起跳前保持静态（悬挂在出生点）
	StaticUntilJump bool `yaml:"staticUntilJump"`

	// Color 绘制颜色 "#rrggbb"
	Color string `yaml:"color"`
}

// JointSpec 关节定义
type JointSpec struct {
	Name  string `yaml:"name"`
	BodyA string `yaml:"bodyA"`
	BodyB string `yaml:"bodyB"`

	// AnchorA / AnchorB 两个部件上的局部锚点，构建后不再改变
	AnchorA Vec2 `yaml:"anchorA"`
	AnchorB Vec2 `yaml:"anchorB"`

	// Motor 是否启用马达
	Motor bool `yaml:"motor"`
	// Lock 锁定相对角度（如头颈）
	Lock bool `yaml:"lock"`

	CollideConnected bool `yaml:"collideConnected"`

	// Drive 马达目标角度来源，为空表示只保持零速
	Drive *DriveSpec `yaml:"drive,omitempty"`
}

// DriveSpec 马达驱动：由两个骨骼关节的连线方位角决定目标角度
type DriveSpec struct {
	Start types.JointType `yaml:"start"`
	End   types.JointType `yaml:"end"`
	// AngleOffset 目标角度偏移（腿部静止姿态竖直，取 -π/2）
	AngleOffset float64 `yaml:"angleOffset"`
}

// LoadRigTopology 加载人偶布局
//
// 参数:
//   - path: 布局文件路径（如 "data/rigs/ragdoll.yaml"）
//
// 返回:
//   - *RigTopology: 加载并校验后的布局
//   - error: 读取、解析或校验失败
func LoadRigTopology(path string) (*RigTopology, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rig topology: %w", err)
	}
	return ParseRigTopology(data)
}

// LoadRigByName 按名称加载 data/rigs 下的人偶布局
func LoadRigByName(name string) (*RigTopology, error) {
	return LoadRigTopology(path.Join(RigDir, name+".yaml"))
}

// ParseRigTopology 从 YAML 内容解析人偶布局
func ParseRigTopology(data []byte) (*RigTopology, error) {
	var topo RigTopology
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("failed to parse rig topology: %w", err)
	}
	if err := topo.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rig topology %q: %w", topo.Name, err)
	}
	return &topo, nil
}

// Validate 验证布局有效性
//
// 检查：
//   - 部件名唯一、形状合法、尺寸为正
//   - 恰好一个 torso，最多一个 head
//   - 关节引用的部件存在且不是同一个部件
//   - drive 只能出现在启用马达的关节上
func (t *RigTopology) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(t.Segments) == 0 {
		return fmt.Errorf("at least one segment is required")
	}

	names := make(map[string]bool, len(t.Segments))
	torsos, heads := 0, 0
	for i, s := range t.Segments {
		if s.Name == "" {
			return fmt.Errorf("segment #%d has no name", i)
		}
		if names[s.Name] {
			return fmt.Errorf("duplicate segment name %q", s.Name)
		}
		names[s.Name] = true

		switch s.Role {
		case RoleTorso:
			torsos++
		case RoleHead:
			heads++
		case "":
		default:
			return fmt.Errorf("segment %q: unknown role %q", s.Name, s.Role)
		}

		switch s.Shape {
		case ShapeBox:
			if s.HalfWidth <= 0 || s.HalfHeight <= 0 {
				return fmt.Errorf("segment %q: box half extents must be > 0", s.Name)
			}
		case ShapeCircle:
			if s.Radius <= 0 {
				return fmt.Errorf("segment %q: circle radius must be > 0", s.Name)
			}
		default:
			return fmt.Errorf("segment %q: unknown shape %q", s.Name, s.Shape)
		}

		if s.Density <= 0 && s.Mass <= 0 {
			return fmt.Errorf("segment %q: density or mass must be > 0", s.Name)
		}
		if s.AngularDamping < 0 {
			return fmt.Errorf("segment %q: angularDamping must be >= 0", s.Name)
		}
		if s.Color != "" && !colorPattern.MatchString(s.Color) {
			return fmt.Errorf("segment %q: color %q must be #rrggbb", s.Name, s.Color)
		}
	}
	if torsos != 1 {
		return fmt.Errorf("exactly one torso segment required, got %d", torsos)
	}
	if heads > 1 {
		return fmt.Errorf("at most one head segment allowed, got %d", heads)
	}

	jointNames := make(map[string]bool, len(t.Joints))
	for i, j := range t.Joints {
		if j.Name == "" {
			return fmt.Errorf("joint #%d has no name", i)
		}
		if jointNames[j.Name] {
			return fmt.Errorf("duplicate joint name %q", j.Name)
		}
		jointNames[j.Name] = true

		if !names[j.BodyA] {
			return fmt.Errorf("joint %q: unknown bodyA %q", j.Name, j.BodyA)
		}
		if !names[j.BodyB] {
			return fmt.Errorf("joint %q: unknown bodyB %q", j.Name, j.BodyB)
		}
		if j.BodyA == j.BodyB {
			return fmt.Errorf("joint %q connects %q to itself", j.Name, j.BodyA)
		}
		if j.Motor && j.Lock {
			return fmt.Errorf("joint %q: a locked joint cannot be motorised", j.Name)
		}
		if j.Drive != nil {
			if !j.Motor {
				return fmt.Errorf("joint %q: drive requires motor: true", j.Name)
			}
			if j.Drive.Start == j.Drive.End {
				return fmt.Errorf("joint %q: drive start and end are the same joint", j.Name)
			}
			if !validJoint(j.Drive.Start) || !validJoint(j.Drive.End) {
				return fmt.Errorf("joint %q: drive references unknown skeleton joint", j.Name)
			}
		}
	}
	return nil
}

// Segment 按名称查找部件定义
func (t *RigTopology) Segment(name string) (SegmentSpec, bool) {
	for _, s := range t.Segments {
		if s.Name == name {
			return s, true
		}
	}
	return SegmentSpec{}, false
}

func validJoint(j types.JointType) bool {
	return j >= 0 && j < types.JointCount
}
