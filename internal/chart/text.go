package chart

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nconklindev/stockboard/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8C42"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB84D"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// maxLabelWidth caps the label column so long project names don't eat the bars.
const maxLabelWidth = 18

// TextRenderer draws charts as terminal text and keeps the latest drawing
// per target id. It is safe for concurrent use: the dashboard resizes it
// while an analysis may be rendering.
type TextRenderer struct {
	mu    sync.Mutex
	width int
	views map[string]string
}

func NewTextRenderer(width int) *TextRenderer {
	return &TextRenderer{width: width, views: make(map[string]string)}
}

// SetWidth changes the width used by subsequent renders.
func (r *TextRenderer) SetWidth(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = width
}

func (r *TextRenderer) Render(targetID string, kind types.ChartKind, s types.Series) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var body string
	switch {
	case s.Empty():
		body = mutedStyle.Render(EmptyMessage)
	case kind == types.ChartBar:
		body = r.bars(s, false)
	case kind == types.ChartPie:
		body = r.bars(s, true)
	case kind == types.ChartLine:
		body = r.sparkline(s)
	default:
		return fmt.Errorf("unknown chart kind %q", kind)
	}
	r.views[targetID] = titleStyle.Render(targetID) + "\n" + body
	return nil
}

// View returns the last drawing for a target, or "" if none.
func (r *TextRenderer) View(targetID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views[targetID]
}

// Reset forgets every drawing.
func (r *TextRenderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = make(map[string]string)
}

func (r *TextRenderer) bars(s types.Series, share bool) string {
	labelWidth := 0
	for _, l := range s.Labels {
		labelWidth = max(labelWidth, lipgloss.Width(l))
	}
	labelWidth = min(labelWidth, maxLabelWidth)

	var total, peak float64
	for _, v := range s.Values {
		total += math.Max(v, 0)
		peak = math.Max(peak, v)
	}

	barWidth := max(r.width-labelWidth-16, 10)

	var b strings.Builder
	for i, label := range s.Labels {
		v := s.Values[i]
		frac := 0.0
		if share && total > 0 {
			frac = math.Max(v, 0) / total
		} else if !share && peak > 0 {
			frac = math.Max(v, 0) / peak
		}
		n := int(math.Round(frac * float64(barWidth)))

		value := humanize.CommafWithDigits(v, 2)
		if share {
			value = fmt.Sprintf("%5.1f%%", frac*100)
		}

		fmt.Fprintf(&b, "%s %s %s\n",
			labelStyle.Render(fit(label, labelWidth)),
			barStyle.Render(strings.Repeat("█", n)),
			value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *TextRenderer) sparkline(s types.Series) string {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range s.Values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	var line strings.Builder
	for _, v := range s.Values {
		idx := len(sparkRunes) - 1
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		}
		line.WriteRune(sparkRunes[idx])
	}

	first, last := s.Labels[0], s.Labels[s.Len()-1]
	return fmt.Sprintf("%s\n%s → %s  (min %s, max %s)",
		barStyle.Render(line.String()),
		first, last,
		humanize.CommafWithDigits(lo, 2), humanize.CommafWithDigits(hi, 2))
}

// fit pads or truncates s to exactly width cells.
func fit(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s + strings.Repeat(" ", width-lipgloss.Width(s))
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	out := string(runes) + "…"
	return out + strings.Repeat(" ", max(0, width-lipgloss.Width(out)))
}
