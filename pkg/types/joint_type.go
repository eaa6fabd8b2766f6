// Package types 定义共享的基础类型
package types

import "fmt"

// JointType 骨骼关节标识（与深度相机 SDK 的 25 个关节一一对应）
type JointType int

const (
	JointSpineBase JointType = iota
	JointSpineMid
	JointNeck
	JointHead
	JointShoulderLeft
	JointElbowLeft
	JointWristLeft
	JointHandLeft
	JointShoulderRight
	JointElbowRight
	JointWristRight
	JointHandRight
	JointHipLeft
	JointKneeLeft
	JointAnkleLeft
	JointFootLeft
	JointHipRight
	JointKneeRight
	JointAnkleRight
	JointFootRight
	JointSpineShoulder
	JointHandTipLeft
	JointThumbLeft
	JointHandTipRight
	JointThumbRight

	// JointCount 关节总数
	JointCount
)

var jointNames = [...]string{
	JointSpineBase:     "SpineBase",
	JointSpineMid:      "SpineMid",
	JointNeck:          "Neck",
	JointHead:          "Head",
	JointShoulderLeft:  "ShoulderLeft",
	JointElbowLeft:     "ElbowLeft",
	JointWristLeft:     "WristLeft",
	JointHandLeft:      "HandLeft",
	JointShoulderRight: "ShoulderRight",
	JointElbowRight:    "ElbowRight",
	JointWristRight:    "WristRight",
	JointHandRight:     "HandRight",
	JointHipLeft:       "HipLeft",
	JointKneeLeft:      "KneeLeft",
	JointAnkleLeft:     "AnkleLeft",
	JointFootLeft:      "FootLeft",
	JointHipRight:      "HipRight",
	JointKneeRight:     "KneeRight",
	JointAnkleRight:    "AnkleRight",
	JointFootRight:     "FootRight",
	JointSpineShoulder: "SpineShoulder",
	JointHandTipLeft:   "HandTipLeft",
	JointThumbLeft:     "ThumbLeft",
	JointHandTipRight:  "HandTipRight",
	JointThumbRight:    "ThumbRight",
}

// String 返回关节名称
func (j JointType) String() string {
	if j >= 0 && j < JointCount {
		return jointNames[j]
	}
	return fmt.Sprintf("JointType(%d)", int(j))
}

// ParseJointType 将关节名称解析为 JointType
//
// 参数:
//   - name: 关节名称（如 "SpineMid"）
//
// 返回:
//   - JointType: 解析结果
//   - error: 未知名称时返回错误
func ParseJointType(name string) (JointType, error) {
	for i, n := range jointNames {
		if n == name {
			return JointType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint type %q", name)
}

// MarshalText 以名称形式序列化（YAML 配置和 JSON 录制文件共用）
func (j JointType) MarshalText() ([]byte, error) {
	if j < 0 || j >= JointCount {
		return nil, fmt.Errorf("invalid joint type %d", int(j))
	}
	return []byte(jointNames[j]), nil
}

// UnmarshalText 从名称反序列化
func (j *JointType) UnmarshalText(text []byte) error {
	parsed, err := ParseJointType(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}
