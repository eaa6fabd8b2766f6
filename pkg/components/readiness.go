package components

// ReadinessComponent 准备手势（双手握拳保持一段时间）
type ReadinessComponent struct {
	HeldSeconds float64 // 双手连续握拳的时间
	Armed       bool    // 已完成准备手势
	Message     string  // 屏幕提示
}
