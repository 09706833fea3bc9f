package carousel

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultInterval 自动轮播的默认间隔
const DefaultInterval = 4000 * time.Millisecond

// Options 轮播行为参数。
// 零值不可直接用（AutoPlay 等默认为 true），请从 DefaultOptions() 开始修改。
type Options struct {
	// Interval 自动前进的间隔；<=0 表示关闭自动轮播（手动导航仍可用）
	Interval time.Duration
	// AutoPlay 挂载时是否开始播放
	AutoPlay bool
	// PauseOnInteract 指针悬停或键盘焦点在组件内时暂停自动前进
	PauseOnInteract bool
	// Loop 首尾是否循环；false 时在末尾停止（并禁用前进按钮）
	Loop bool
}

// DefaultOptions 默认参数：4s / 自动播放 / 交互暂停 / 循环
func DefaultOptions() Options {
	return Options{
		Interval:        DefaultInterval,
		AutoPlay:        true,
		PauseOnInteract: true,
		Loop:            true,
	}
}

// Option 构造选项
type Option func(*Carousel)

// WithClock 注入时钟（测试里用 clock.NewMock()）
func WithClock(clk clock.Clock) Option {
	return func(c *Carousel) {
		if clk != nil {
			c.clock = clk
		}
	}
}
