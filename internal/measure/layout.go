package measure

import (
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

// probeCounter tracks probes that have been handed out but not released.
type probeCounter struct {
	live atomic.Int64
}

// Live reports the number of outstanding probes. It is zero whenever no
// measurement is in progress.
func (c *probeCounter) Live() int { return int(c.live.Load()) }

func (c *probeCounter) acquire() { c.live.Add(1) }

func (c *probeCounter) release() { c.live.Add(-1) }

// LipglossLayout lays labels out with a lipgloss style, the same way rows are
// rendered. The probe renders into a private string and never writes to the
// terminal.
type LipglossLayout struct {
	probeCounter
	renderer *lipgloss.Renderer
}

// NewLipglossLayout creates a layout bound to renderer. A nil renderer uses
// the lipgloss default renderer.
func NewLipglossLayout(renderer *lipgloss.Renderer) *LipglossLayout {
	if renderer == nil {
		renderer = lipgloss.DefaultRenderer()
	}
	return &LipglossLayout{renderer: renderer}
}

// NewProbe implements Layout.
func (l *LipglossLayout) NewProbe() Probe {
	l.acquire()
	return &lipglossProbe{layout: l, style: l.renderer.NewStyle()}
}

type lipglossProbe struct {
	layout   *LipglossLayout
	style    lipgloss.Style
	released bool
}

func (p *lipglossProbe) Lines(label string, width, padding int) int {
	if p.released {
		return 0
	}
	padding = clampPadding(width, padding)
	box := p.style.
		Width(width).
		PaddingLeft(padding).
		PaddingRight(padding)
	return lipgloss.Height(box.Render(label))
}

func (p *lipglossProbe) Release() {
	if p.released {
		return
	}
	p.released = true
	p.style = lipgloss.Style{}
	p.layout.release()
}

// WrapLayout is a headless shaper: it word-wraps labels to the content width
// and hard-wraps words that are wider than a line. Widths are display cells,
// so wide runes count double.
type WrapLayout struct {
	probeCounter
}

// NewWrapLayout creates a WrapLayout.
func NewWrapLayout() *WrapLayout {
	return &WrapLayout{}
}

// NewProbe implements Layout.
func (l *WrapLayout) NewProbe() Probe {
	l.acquire()
	return &wrapProbe{layout: l}
}

type wrapProbe struct {
	layout   *WrapLayout
	buf      strings.Builder
	released bool
}

func (p *wrapProbe) Lines(label string, width, padding int) int {
	if p.released {
		return 0
	}
	content := width - 2*clampPadding(width, padding)
	p.buf.Reset()
	p.buf.WriteString(wrap.String(wordwrap.String(label, content), content))
	return strings.Count(p.buf.String(), "\n") + 1
}

func (p *wrapProbe) Release() {
	if p.released {
		return
	}
	p.released = true
	p.buf.Reset()
	p.layout.release()
}

// clampPadding keeps at least one content column inside the box.
func clampPadding(width, padding int) int {
	if padding < 0 {
		return 0
	}
	if width-2*padding < 1 {
		return max((width-1)/2, 0)
	}
	return padding
}

// NewLayout returns the layout registered under name: "lipgloss" (default) or
// "wrap".
func NewLayout(name string) Layout {
	switch name {
	case "wrap":
		return NewWrapLayout()
	default:
		return NewLipglossLayout(nil)
	}
}
