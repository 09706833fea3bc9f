package dashboard

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/betbot/metricdeck/internal/carousel"
	"github.com/betbot/metricdeck/internal/domain"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "dashboard")

const (
	intervalStep = 500 * time.Millisecond
	minInterval  = 500 * time.Millisecond
	maxInterval  = time.Minute
)

// ReloadMsg 用新的指标列表重新挂载轮播（列表在一次挂载内固定）
type ReloadMsg struct {
	Title   string
	Metrics []domain.Metric
	Options carousel.Options
}

// tickMsg 定时器到期；instance 区分不同挂载，gen 区分同一挂载内的重新布防
type tickMsg struct {
	instance int
	gen      uint64
}

// Model 承载一个轮播组件的 bubbletea 模型
type Model struct {
	title    string
	opts     carousel.Options
	metrics  []domain.Metric
	clock    clock.Clock
	carousel *carousel.Carousel
	instance int

	pending    uint64
	hasPending bool

	keys keyMap
	help help.Model

	width    int
	height   int
	hovering bool
	focused  bool
	closed   bool
}

// Option Model 构造选项
type Option func(*Model)

// WithClock 注入时钟（测试用）
func WithClock(clk clock.Clock) Option {
	return func(m *Model) { m.clock = clk }
}

// New 创建模型；轮播在 Init 时挂载
func New(title string, metrics []domain.Metric, opts carousel.Options, options ...Option) *Model {
	m := &Model{
		title:   title,
		opts:    opts,
		metrics: metrics,
		clock:   clock.New(),
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
	for _, o := range options {
		o(m)
	}
	return m
}

// Init 挂载轮播并调度第一次 tick
func (m *Model) Init() tea.Cmd {
	m.mount()
	return m.schedule()
}

// Close 卸载轮播并释放定时器（程序退出后调用，可重复调用）
func (m *Model) Close() {
	if m.closed {
		return
	}
	m.closed = true
	if m.carousel != nil {
		m.carousel.Unmount()
	}
}

// State 当前轮播快照
func (m *Model) State() carousel.State {
	if m.carousel == nil {
		return carousel.State{}
	}
	return m.carousel.State()
}

func (m *Model) mount() {
	if m.carousel != nil {
		m.carousel.Unmount()
	}
	m.instance++
	m.hasPending = false
	m.carousel = carousel.New(m.metrics, m.opts, carousel.WithClock(m.clock))
	m.carousel.Mount()
	// 重新挂载时指针/焦点可能仍在组件内
	if m.hovering {
		m.carousel.PointerEnter()
	}
	if m.focused {
		m.carousel.FocusIn()
	}
	m.syncKeys()
	log.Infof("carousel mounted: instance=%d metrics=%d", m.instance, len(m.metrics))
}

// Update 处理消息
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.closed {
		return m, nil
	}
	if m.carousel == nil {
		m.mount()
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.Close()
			return m, tea.Quit
		}
		m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.BlurMsg:
		// 终端失去焦点：指针和键盘焦点都不可能还在组件内
		m.setHover(false)
		m.setFocus(false)

	case tickMsg:
		if msg.instance != m.instance {
			return m, nil
		}
		if m.hasPending && msg.gen == m.pending {
			m.hasPending = false
		}
		if n := m.carousel.Fire(msg.gen); n > 0 {
			log.Debugf("auto advance x%d -> index %d", n, m.carousel.State().ActiveIndex)
		}

	case ReloadMsg:
		m.title = msg.Title
		m.metrics = msg.Metrics
		m.opts = msg.Options
		m.mount()
	}

	m.syncKeys()
	return m, m.schedule()
}

func (m *Model) handleKey(msg tea.KeyMsg) {
	c := m.carousel
	switch {
	case key.Matches(msg, m.keys.Prev):
		c.Retreat()
	case key.Matches(msg, m.keys.Next):
		c.Advance()
	case key.Matches(msg, m.keys.Toggle):
		c.TogglePlay()
	case key.Matches(msg, m.keys.First):
		c.GoTo(0)
	case key.Matches(msg, m.keys.Last):
		c.GoTo(c.Len() - 1)
	case key.Matches(msg, m.keys.Jump):
		if s := msg.String(); len(s) == 1 {
			c.GoTo(int(s[0] - '1'))
		}
	case key.Matches(msg, m.keys.Faster):
		m.stepInterval(-intervalStep)
	case key.Matches(msg, m.keys.Slower):
		m.stepInterval(intervalStep)
	case key.Matches(msg, m.keys.Focus):
		m.setFocus(!m.focused)
	case key.Matches(msg, m.keys.Blur):
		m.setFocus(false)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	l := m.layout()
	m.setHover(l.widget.contains(msg.X, msg.Y))

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return
	}
	z, ok := l.zoneAt(msg.X, msg.Y)
	if !ok || !z.enabled {
		return
	}
	switch z.kind {
	case zonePrev:
		m.carousel.Retreat()
	case zoneNext:
		m.carousel.Advance()
	case zoneToggle:
		m.carousel.TogglePlay()
	case zoneIndicator:
		m.carousel.GoTo(z.index)
	}
}

func (m *Model) setHover(inside bool) {
	if inside == m.hovering {
		return
	}
	m.hovering = inside
	if inside {
		m.carousel.PointerEnter()
	} else {
		m.carousel.PointerLeave()
	}
}

func (m *Model) setFocus(inside bool) {
	if inside == m.focused {
		return
	}
	m.focused = inside
	if inside {
		m.carousel.FocusIn()
	} else {
		m.carousel.FocusOut()
	}
}

// stepInterval 调整自动轮播间隔；配置里关闭了自动轮播时不处理
func (m *Model) stepInterval(delta time.Duration) {
	cur := m.carousel.State().Interval
	if cur <= 0 {
		return
	}
	next := cur + delta
	if next < minInterval {
		next = minInterval
	}
	if next > maxInterval {
		next = maxInterval
	}
	if next == cur {
		return
	}
	m.opts.Interval = next
	m.carousel.SetInterval(next)
	log.Infof("interval changed: %s -> %s", cur, next)
}

// syncKeys 边界处的导航键随控件一起禁用
func (m *Model) syncKeys() {
	st := m.carousel.State()
	m.keys.Prev.SetEnabled(st.CanPrev)
	m.keys.Next.SetEnabled(st.CanNext)
	m.keys.First.SetEnabled(len(st.Items) > 1)
	m.keys.Last.SetEnabled(len(st.Items) > 1)
	m.keys.Jump.SetEnabled(len(st.Items) > 1)
	m.keys.Toggle.SetEnabled(st.CanToggle)
	m.keys.Faster.SetEnabled(st.Interval > 0 && len(st.Items) > 1)
	m.keys.Slower.SetEnabled(st.Interval > 0 && len(st.Items) > 1)
}

// schedule 为当前 generation 调度 tick；同一 generation 只会有一个在途 tick
func (m *Model) schedule() tea.Cmd {
	gen, deadline, armed := m.carousel.Timer()
	if !armed || (m.hasPending && m.pending == gen) {
		return nil
	}
	m.pending = gen
	m.hasPending = true

	d := deadline.Sub(m.clock.Now())
	if d < 0 {
		d = 0
	}
	instance := m.instance
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tickMsg{instance: instance, gen: gen}
	})
}
