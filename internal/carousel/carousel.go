package carousel

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/betbot/metricdeck/internal/domain"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "carousel")

// Direction 最近一次切换的方向（仅用于过渡提示）
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Carousel 指标轮播状态机。
//
// 每个实例拥有自己的一个逻辑定时器（用 generation 标识），生命周期严格绑定
// Mount/Unmount。所有状态转换都在实例锁内完成，保证单写者。
//
// 定时器本身不在这里跑：宿主（bubbletea 的 tick、或 Run 循环）读取 Timer()
// 拿到 generation 和 deadline，到点后调用 Fire(gen)。任何重新布防都会递增
// generation，旧的 tick 到达时会被丢弃，因此不会出现重复定时器。
type Carousel struct {
	mu    sync.Mutex
	clock clock.Clock
	opts  Options
	items []domain.Metric

	active    int
	direction Direction

	playing                     bool
	wasPlayingBeforeInteraction bool
	pointerInside               bool
	focusInside                 bool

	mounted   bool
	unmounted bool

	armed    bool
	gen      uint64
	deadline time.Time

	version uint64
	wake    chan struct{}
}

// New 创建轮播（未挂载）。items 会被拷贝，调用方之后修改原切片不影响轮播。
func New(items []domain.Metric, opts Options, options ...Option) *Carousel {
	c := &Carousel{
		clock: clock.New(),
		opts:  opts,
		items: append([]domain.Metric(nil), items...),
		wake:  make(chan struct{}, 1),
	}
	for _, o := range options {
		o(c)
	}
	c.playing = opts.AutoPlay && c.timedLocked()
	return c
}

// Len 指标数量
func (c *Carousel) Len() int {
	return len(c.items)
}

// Mount 挂载：满足条件（自动播放、多于一项、间隔为正）时布防定时器
func (c *Carousel) Mount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mounted || c.unmounted {
		return
	}
	c.mounted = true
	if c.playing {
		c.armLocked()
	}
	log.Debugf("mounted: items=%d playing=%v interval=%s", len(c.items), c.playing, c.opts.Interval)
	c.changedLocked()
}

// Unmount 卸载：无条件释放定时器，之后所有操作都是 no-op
func (c *Carousel) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return
	}
	c.unmounted = true
	c.mounted = false
	c.disarmLocked()
	log.Debug("unmounted")
	c.changedLocked()
}

// Advance 前进一项。Loop=false 且已在末尾时不移动，并停止播放。
func (c *Carousel) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted || len(c.items) <= 1 {
		return
	}
	if c.stepForwardLocked() {
		c.restartCountdownLocked()
	}
	c.changedLocked()
}

// Retreat 后退一项。Loop=false 且已在开头时不移动。
func (c *Carousel) Retreat() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	if c.unmounted || n <= 1 {
		return
	}
	if !c.opts.Loop && c.active == 0 {
		return
	}
	c.active = (c.active - 1 + n) % n
	c.direction = Backward
	c.restartCountdownLocked()
	c.changedLocked()
}

// GoTo 跳到指定位置；越界时夹到最近的合法边界，不返回错误
func (c *Carousel) GoTo(index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	if c.unmounted || n <= 1 {
		return
	}
	if index < 0 {
		index = 0
	}
	if index > n-1 {
		index = n - 1
	}
	if index != c.active {
		if index > c.active {
			c.direction = Forward
		} else {
			c.direction = Backward
		}
		c.active = index
	}
	c.restartCountdownLocked()
	c.changedLocked()
}

// TogglePlay 切换播放状态。
// 交互暂停期间切换的是“交互前的播放意图”，离开时按新的意图决定是否恢复。
func (c *Carousel) TogglePlay() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted || !c.timedLocked() {
		return
	}
	if c.suspendedLocked() {
		c.wasPlayingBeforeInteraction = !c.wasPlayingBeforeInteraction
	} else if c.playing {
		c.pauseLocked()
	} else {
		c.resumeLocked()
	}
	c.changedLocked()
}

// Pause 停止自动前进（幂等）。交互暂停期间调用时，离开后也不会恢复。
func (c *Carousel) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return
	}
	if c.suspendedLocked() {
		c.wasPlayingBeforeInteraction = false
	}
	c.pauseLocked()
	c.changedLocked()
}

// Resume 恢复自动前进并重新计时（幂等）。
// 交互暂停期间只记录意图，指针和焦点都离开后才开始计时。
func (c *Carousel) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return
	}
	if c.suspendedLocked() {
		if c.timedLocked() {
			c.wasPlayingBeforeInteraction = true
		}
		c.changedLocked()
		return
	}
	c.resumeLocked()
	c.changedLocked()
}

// PointerEnter 指针进入组件区域
func (c *Carousel) PointerEnter() { c.interact(func() { c.pointerInside = true }) }

// PointerLeave 指针离开组件区域
func (c *Carousel) PointerLeave() { c.interact(func() { c.pointerInside = false }) }

// FocusIn 键盘焦点进入组件
func (c *Carousel) FocusIn() { c.interact(func() { c.focusInside = true }) }

// FocusOut 键盘焦点离开组件
func (c *Carousel) FocusOut() { c.interact(func() { c.focusInside = false }) }

// interact 指针/焦点任意一个在组件内即视为交互中；
// 交互开始时记住播放状态并暂停，两者都离开时按记住的状态恢复。
func (c *Carousel) interact(update func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return
	}
	before := c.pointerInside || c.focusInside
	update()
	after := c.pointerInside || c.focusInside
	if before == after || !c.opts.PauseOnInteract {
		c.changedLocked()
		return
	}
	if after {
		c.wasPlayingBeforeInteraction = c.playing
		c.pauseLocked()
	} else {
		if c.wasPlayingBeforeInteraction {
			c.resumeLocked()
		}
		c.wasPlayingBeforeInteraction = false
	}
	c.changedLocked()
}

// SetInterval 修改自动前进间隔：播放中会重新计时；<=0 停止自动轮播
func (c *Carousel) SetInterval(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unmounted {
		return
	}
	c.opts.Interval = d
	if d <= 0 {
		c.playing = false
		c.wasPlayingBeforeInteraction = false
		c.disarmLocked()
	} else if c.playing {
		c.armLocked()
	}
	c.changedLocked()
}

// Timer 当前定时器：generation、到期时间、是否已布防
func (c *Carousel) Timer() (gen uint64, deadline time.Time, armed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, c.deadline, c.armed
}

// Fire 定时器到期回调。gen 不是当前 generation 时直接丢弃。
// 按已经过去的完整间隔数前进，下一次到期时间从上一次到期时间推算（不漂移）。
// 返回本次自动前进的次数。
func (c *Carousel) Fire(gen uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.armed || gen != c.gen {
		return 0
	}
	now := c.clock.Now()
	fired := 0
	for c.armed && !now.Before(c.deadline) {
		if !c.stepForwardLocked() {
			break
		}
		fired++
		c.deadline = c.deadline.Add(c.opts.Interval)
	}
	if fired > 0 || !c.armed {
		c.changedLocked()
	}
	return fired
}

// Run 没有事件循环的宿主用：挂载、按定时器自动前进，ctx 结束时卸载并释放定时器。
// 每次状态变化（包括其他 goroutine 调用的导航）都会回调 onChange。
func (c *Carousel) Run(ctx context.Context, onChange func(State)) error {
	c.Mount()
	defer c.Unmount()

	var timer *clock.Timer
	stop := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}
	defer stop()

	var reported uint64
	report := func() {
		s := c.State()
		if onChange != nil && (reported == 0 || s.Version != reported) {
			onChange(s)
		}
		reported = s.Version
	}

	for {
		report()

		gen, deadline, armed := c.Timer()
		stop()
		var fire <-chan time.Time
		if armed {
			d := deadline.Sub(c.clock.Now())
			if d < 0 {
				d = 0
			}
			timer = c.clock.Timer(d)
			fire = timer.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-fire:
			c.Fire(gen)
		case <-c.wake:
		}
	}
}

// stepForwardLocked 前进一步；Loop=false 且在末尾时停止播放并返回 false
func (c *Carousel) stepForwardLocked() bool {
	n := len(c.items)
	if n <= 1 {
		return false
	}
	if !c.opts.Loop && c.active == n-1 {
		if c.playing || c.wasPlayingBeforeInteraction {
			log.Debug("reached last item without loop, stop playing")
		}
		c.playing = false
		c.wasPlayingBeforeInteraction = false
		c.disarmLocked()
		return false
	}
	c.active = (c.active + 1) % n
	c.direction = Forward
	return true
}

func (c *Carousel) pauseLocked() {
	if !c.playing {
		return
	}
	c.playing = false
	c.disarmLocked()
}

func (c *Carousel) resumeLocked() {
	if c.playing || !c.timedLocked() {
		return
	}
	c.playing = true
	c.armLocked()
}

// restartCountdownLocked 手动导航后从零开始计时
func (c *Carousel) restartCountdownLocked() {
	if c.playing {
		c.armLocked()
	}
}

// armLocked 重新布防：旧定时器作废（generation+1）
func (c *Carousel) armLocked() {
	if !c.mounted || !c.playing || !c.timedLocked() {
		c.disarmLocked()
		return
	}
	c.gen++
	c.armed = true
	c.deadline = c.clock.Now().Add(c.opts.Interval)
	c.signalLocked()
}

func (c *Carousel) disarmLocked() {
	if !c.armed {
		return
	}
	c.gen++
	c.armed = false
	c.deadline = time.Time{}
	c.signalLocked()
}

func (c *Carousel) timedLocked() bool {
	return len(c.items) > 1 && c.opts.Interval > 0
}

func (c *Carousel) suspendedLocked() bool {
	return c.opts.PauseOnInteract && (c.pointerInside || c.focusInside)
}

func (c *Carousel) changedLocked() {
	c.version++
	c.signalLocked()
}

func (c *Carousel) signalLocked() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}
