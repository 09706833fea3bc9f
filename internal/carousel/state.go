package carousel

import (
	"time"

	"github.com/betbot/metricdeck/internal/domain"
)

// State 轮播状态快照（渲染用，只读）
type State struct {
	// Items 挂载时的指标列表；与轮播共享底层数组，不要修改
	Items       []domain.Metric
	ActiveIndex int
	Direction   Direction

	// Playing 定时器视角的播放状态（交互暂停期间为 false）
	Playing bool
	// Intended 用户视角的播放意图（交互暂停期间保留交互前的状态）
	Intended bool
	// Suspended 因悬停/焦点而暂停
	Suspended bool

	Armed    bool
	Deadline time.Time
	Interval time.Duration
	Loop     bool
	Mounted  bool

	CanPrev   bool
	CanNext   bool
	CanToggle bool

	// Version 每次状态变化递增
	Version uint64
}

// Empty 没有任何指标
func (s State) Empty() bool {
	return len(s.Items) == 0
}

// Active 当前展示的指标
func (s State) Active() (domain.Metric, bool) {
	if len(s.Items) == 0 {
		return domain.Metric{}, false
	}
	return s.Items[s.ActiveIndex], true
}

// State 返回当前快照
func (c *Carousel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.items)
	suspended := c.suspendedLocked()
	intended := c.playing
	if suspended {
		intended = c.wasPlayingBeforeInteraction
	}
	return State{
		Items:       c.items,
		ActiveIndex: c.active,
		Direction:   c.direction,
		Playing:     c.playing,
		Intended:    intended,
		Suspended:   suspended,
		Armed:       c.armed,
		Deadline:    c.deadline,
		Interval:    c.opts.Interval,
		Loop:        c.opts.Loop,
		Mounted:     c.mounted,
		CanPrev:     n > 1 && (c.opts.Loop || c.active > 0),
		CanNext:     n > 1 && (c.opts.Loop || c.active < n-1),
		CanToggle:   c.timedLocked(),
		Version:     c.version,
	}
}
