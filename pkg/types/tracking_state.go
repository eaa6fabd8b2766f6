package types

import "fmt"

// TrackingState 传感器对关节位置的置信度
type TrackingState int

const (
	NotTracked TrackingState = iota
	Inferred
	Tracked
)

func (s TrackingState) String() string {
	switch s {
	case NotTracked:
		return "NotTracked"
	case Inferred:
		return "Inferred"
	case Tracked:
		return "Tracked"
	}
	return fmt.Sprintf("TrackingState(%d)", int(s))
}

func (s TrackingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *TrackingState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "NotTracked", "":
		*s = NotTracked
	case "Inferred":
		*s = Inferred
	case "Tracked":
		*s = Tracked
	default:
		return fmt.Errorf("unknown tracking state %q", text)
	}
	return nil
}

// HandState 手部状态，用于准备手势（双手握拳）
type HandState int

const (
	HandUnknown HandState = iota
	HandNotTracked
	HandOpen
	HandClosed
	HandLasso
)

func (h HandState) String() string {
	switch h {
	case HandUnknown:
		return "Unknown"
	case HandNotTracked:
		return "NotTracked"
	case HandOpen:
		return "Open"
	case HandClosed:
		return "Closed"
	case HandLasso:
		return "Lasso"
	}
	return fmt.Sprintf("HandState(%d)", int(h))
}

func (h HandState) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HandState) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Unknown", "":
		*h = HandUnknown
	case "NotTracked":
		*h = HandNotTracked
	case "Open":
		*h = HandOpen
	case "Closed":
		*h = HandClosed
	case "Lasso":
		*h = HandLasso
	default:
		return fmt.Errorf("unknown hand state %q", text)
	}
	return nil
}
