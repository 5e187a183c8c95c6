// Package motion 页面进入动画的共享参数，无状态。
package motion

import "time"

// FadeIn 淡入并上移
type FadeIn struct {
	Delay    time.Duration
	Duration time.Duration
	Offset   float64 // 初始向下偏移，像素
}

// DefaultFadeIn 默认淡入参数
func DefaultFadeIn() FadeIn {
	return FadeIn{Delay: 0, Duration: 600 * time.Millisecond, Offset: 20}
}

// Stagger 子元素依次进入
type Stagger struct {
	DelayChildren   time.Duration
	StaggerChildren time.Duration
}

// DefaultStagger 默认错峰参数
func DefaultStagger() Stagger {
	return Stagger{DelayChildren: 100 * time.Millisecond, StaggerChildren: 60 * time.Millisecond}
}

// Delays 返回 n 个子元素各自的开始延迟
func (s Stagger) Delays(n int) []time.Duration {
	if n <= 0 {
		return nil
	}
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = s.DelayChildren + time.Duration(i)*s.StaggerChildren
	}
	return out
}

// Cue 前端可直接使用的动画描述，单位毫秒
type Cue struct {
	DelayMs    int64   `json:"delayMs"`
	DurationMs int64   `json:"durationMs"`
	OffsetY    float64 `json:"offsetY"`
}

// Cue 把额外延迟叠加到淡入参数上
func (f FadeIn) Cue(extra time.Duration) Cue {
	return Cue{
		DelayMs:    (f.Delay + extra).Milliseconds(),
		DurationMs: f.Duration.Milliseconds(),
		OffsetY:    f.Offset,
	}
}

// Sequence 为 n 个列表项生成错峰淡入
func Sequence(f FadeIn, s Stagger, n int) []Cue {
	delays := s.Delays(n)
	out := make([]Cue, len(delays))
	for i, d := range delays {
		out[i] = f.Cue(d)
	}
	return out
}
