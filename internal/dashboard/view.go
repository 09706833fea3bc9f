package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/betbot/metricdeck/internal/carousel"
	"github.com/betbot/metricdeck/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	// cardWidth 卡片内容宽度（不含边框和内边距）
	cardWidth = 46
	// 内容在卡片内的偏移：边框 1 + 左右内边距 2
	contentOffsetX = 3
	contentOffsetY = 1

	prevLabel = "‹ prev"
	nextLabel = "next ›"
	pauseIcon = "❚❚"
	playIcon  = "▶"
	activeDot = "●"
	idleDot   = "○"

	moreMark  = "…"

	placeholderText = "No automation metrics to display"

	// maxIndicators 控件行最多显示的指示点；更多时按当前项开窗，两端用 … 标记
	maxIndicators = 11
)

type zoneKind int

const (
	zonePrev zoneKind = iota
	zoneNext
	zoneToggle
	zoneIndicator
)

// zone 控件行里可点击的区域（绝对坐标，x1 不包含）
type zone struct {
	kind    zoneKind
	index   int
	enabled bool
	x0, x1  int
	y       int
}

type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

type layout struct {
	view   string
	widget rect
	zones  []zone
}

func (l layout) zoneAt(x, y int) (zone, bool) {
	for _, z := range l.zones {
		if y == z.y && x >= z.x0 && x < z.x1 {
			return z, true
		}
	}
	return zone{}, false
}

// View 渲染
func (m *Model) View() string {
	if m.carousel == nil {
		return ""
	}
	return m.layout().view
}

// layout 渲染并记录组件区域和控件位置（鼠标命中测试与 View 共用）
func (m *Model) layout() layout {
	st := m.carousel.State()

	var lines []string
	var controls []segment
	controlsRow := -1

	lines = append(lines, m.renderHeader(st))
	lines = append(lines, "")
	if metric, ok := st.Active(); ok {
		lines = append(lines, labelStyle.Render(truncate(metric.Label, cardWidth)))
		lines = append(lines, renderValue(metric))
		lines = append(lines, "")
		controls = controlSegments(st)
		controlsRow = lipgloss.Height(strings.Join(lines, "\n"))
		lines = append(lines, renderSegments(controls))
		lines = append(lines, statusStyle.Render(statusText(st)))
	} else {
		lines = append(lines, placeholderStyle.Render(placeholderText))
		lines = append(lines, "")
	}

	border := borderIdle
	switch {
	case m.focused:
		border = borderFocused
	case m.hovering:
		border = borderHover
	}
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 2).
		Width(cardWidth + 4).
		Render(strings.Join(lines, "\n"))

	m.help.Width = lipgloss.Width(card)
	block := lipgloss.JoinVertical(lipgloss.Left, card, "", m.help.View(m.keys))

	// 居中：和宿主页面一样，组件在可用区域的正中
	offX, offY := 0, 0
	if w := lipgloss.Width(block); m.width > w {
		offX = (m.width - w) / 2
	}
	if h := lipgloss.Height(block); m.height > h {
		offY = (m.height - h) / 2
	}
	view := lipgloss.NewStyle().MarginLeft(offX).MarginTop(offY).Render(block)

	l := layout{
		view:   view,
		widget: rect{x: offX, y: offY, w: lipgloss.Width(card), h: lipgloss.Height(card)},
	}
	x := offX + contentOffsetX
	for _, seg := range controls {
		w := lipgloss.Width(seg.text)
		if seg.clickable {
			l.zones = append(l.zones, zone{
				kind:    seg.kind,
				index:   seg.index,
				enabled: seg.enabled,
				x0:      x,
				x1:      x + w,
				y:       offY + contentOffsetY + controlsRow,
			})
		}
		x += w
	}
	return l
}

func (m *Model) renderHeader(st carousel.State) string {
	title := m.title
	if strings.TrimSpace(title) == "" {
		title = "Automation Metrics"
	}
	if st.Empty() {
		return titleStyle.Render(truncate(title, cardWidth))
	}
	pos := fmt.Sprintf("%d/%d", st.ActiveIndex+1, len(st.Items))
	if len(st.Items) > 1 {
		if st.Direction == carousel.Backward {
			pos = "← " + pos
		} else {
			pos = pos + " →"
		}
	}
	title = truncate(title, cardWidth-lipgloss.Width(pos)-1)
	gap := cardWidth - lipgloss.Width(title) - lipgloss.Width(pos)
	if gap < 1 {
		gap = 1
	}
	return titleStyle.Render(title) + strings.Repeat(" ", gap) + positionStyle.Render(pos)
}

// renderValue 值、单位、趋势放在一行；超出卡片宽度时截断值（单位和趋势保持完整）
func renderValue(metric domain.Metric) string {
	var tail []string
	if metric.Unit != "" {
		tail = append(tail, unitStyle.Render(truncate(metric.Unit, cardWidth/4)))
	}
	if arrow := metric.Trend.Arrow(); arrow != "" {
		style := trendFlatStyle
		switch metric.Trend {
		case domain.TrendUp:
			style = trendUpStyle
		case domain.TrendDown:
			style = trendDownStyle
		}
		tail = append(tail, style.Render(arrow+" "+string(metric.Trend)))
	}
	room := cardWidth
	for _, p := range tail {
		room -= lipgloss.Width(p) + 1
	}
	parts := append([]string{valueStyle.Render(truncate(metric.Value.String(), room))}, tail...)
	return strings.Join(parts, " ")
}

// segment 控件行的一个片段
type segment struct {
	text      string
	style     lipgloss.Style
	clickable bool
	enabled   bool
	kind      zoneKind
	index     int
}

func controlSegments(st carousel.State) []segment {
	enabledOr := func(ok bool) lipgloss.Style {
		if ok {
			return controlStyle
		}
		return disabledStyle
	}
	spacer := func(n int) segment { return segment{text: strings.Repeat(" ", n)} }

	segs := []segment{
		{text: prevLabel, style: enabledOr(st.CanPrev), clickable: true, enabled: st.CanPrev, kind: zonePrev},
		spacer(2),
	}
	first, last := indicatorWindow(len(st.Items), st.ActiveIndex)
	if first > 0 {
		segs = append(segs, segment{text: moreMark, style: dotStyle}, spacer(1))
	}
	for i := first; i < last; i++ {
		if i > first {
			segs = append(segs, spacer(1))
		}
		dot, style := idleDot, dotStyle
		if i == st.ActiveIndex {
			dot, style = activeDot, activeDotStyle
		}
		segs = append(segs, segment{
			text: dot, style: style, clickable: true, enabled: len(st.Items) > 1,
			kind: zoneIndicator, index: i,
		})
	}
	if last < len(st.Items) {
		segs = append(segs, spacer(1), segment{text: moreMark, style: dotStyle})
	}
	icon := playIcon
	if st.Intended {
		icon = pauseIcon
	}
	segs = append(segs,
		spacer(2),
		segment{text: icon, style: enabledOr(st.CanToggle), clickable: true, enabled: st.CanToggle, kind: zoneToggle},
		spacer(2),
		segment{text: nextLabel, style: enabledOr(st.CanNext), clickable: true, enabled: st.CanNext, kind: zoneNext},
	)
	return segs
}

// indicatorWindow 要显示的指示点范围 [first, last)，尽量让当前项居中
func indicatorWindow(n, active int) (first, last int) {
	if n <= maxIndicators {
		return 0, n
	}
	first = active - maxIndicators/2
	if first < 0 {
		first = 0
	}
	if first > n-maxIndicators {
		first = n - maxIndicators
	}
	return first, first + maxIndicators
}

func renderSegments(segs []segment) string {
	var b strings.Builder
	for _, s := range segs {
		if !s.clickable && s.text != moreMark {
			b.WriteString(s.text)
			continue
		}
		b.WriteString(s.style.Render(s.text))
	}
	return b.String()
}

func statusText(st carousel.State) string {
	switch {
	case len(st.Items) <= 1:
		return "single metric"
	case !st.CanToggle:
		return "auto-rotation off"
	case st.Suspended && st.Intended:
		return pauseIcon + " paused while you interact"
	case st.Playing:
		return fmt.Sprintf("%s rotating every %s", playIcon, formatInterval(st.Interval))
	}
	return pauseIcon + " paused"
}

func formatInterval(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// truncate 按显示宽度截断（CJK 等宽字符按 2 列计）
func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return ansi.Truncate(s, maxLen, "")
	}
	return ansi.Truncate(s, maxLen, "...")
}
