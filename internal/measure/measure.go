// Package measure estimates the rendered height of option labels before they
// are laid out.
//
// The estimate is a close prediction, not a guarantee: consumers must tolerate
// rows that end up a line or so taller or shorter once they are rendered with
// their full interactive styling.
package measure

import (
	"errors"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// ErrMeasurementUnavailable is reported by a Container that cannot determine
// its rendered width yet (for example before the first resize event).
var ErrMeasurementUnavailable = errors.New("container width unavailable")

// Style mirrors the box rules a rendered row uses.
type Style struct {
	PaddingVertical   int // Rows above and below the label
	PaddingHorizontal int // Columns left and right of the label
	LineHeight        int // Height of one wrapped line
	RowGap            int // Extra spacing added after the box is measured
}

// Params holds the estimator thresholds and fallbacks.
type Params struct {
	DefaultHeight       int // Height of a short, non-wrapping row
	ShortLabelThreshold int // Labels with fewer runes skip the layout probe
	FallbackWidth       int // Assumed container width when it cannot be measured
	ScrollbarWidth      int // Width reserved for the scrollbar
}

// DefaultStyle returns the row style used in a terminal.
func DefaultStyle() Style {
	return Style{
		PaddingVertical:   0,
		PaddingHorizontal: 1,
		LineHeight:        1,
		RowGap:            0,
	}
}

// DefaultParams returns terminal defaults. The short-label threshold matches
// the length at which a label stops fitting a typical dropdown row.
func DefaultParams() Params {
	return Params{
		DefaultHeight:       1,
		ShortLabelThreshold: 36,
		FallbackWidth:       80,
		ScrollbarWidth:      1,
	}
}

// Probe is a scoped measurement resource. A probe belongs to exactly one
// measurement and must be released before that measurement returns.
type Probe interface {
	// Lines reports how many lines label occupies when laid out in a
	// border-box of width columns with padding columns on each side.
	Lines(label string, width, padding int) int
	// Release returns the probe to its Layout. Released probes must not be used.
	Release()
}

// Layout is the text measurement provider supplied by the host environment.
type Layout interface {
	NewProbe() Probe
}

// Container reports the actual rendered width of the list container.
type Container interface {
	Width() (int, error)
}

// ContainerFunc adapts a function into a Container.
type ContainerFunc func() (int, error)

// Width implements Container.
func (f ContainerFunc) Width() (int, error) { return f() }

// FixedWidth is a Container with a known width. Non-positive widths are
// reported as unavailable.
type FixedWidth int

// Width implements Container.
func (w FixedWidth) Width() (int, error) {
	if w <= 0 {
		return 0, ErrMeasurementUnavailable
	}
	return int(w), nil
}

// EstimateHeight predicts the height of label laid out in a container of
// containerWidth columns.
//
// Labels shorter than params.ShortLabelThreshold runes return
// params.DefaultHeight without touching layout. Longer labels are measured
// with a probe that is acquired and released inside this call.
func EstimateHeight(layout Layout, label string, containerWidth int, style Style, params Params) int {
	if utf8.RuneCountInString(label) < params.ShortLabelThreshold || layout == nil {
		return params.DefaultHeight
	}
	if containerWidth < 1 {
		containerWidth = 1
	}

	lines := probeLines(layout, label, containerWidth, style.PaddingHorizontal)

	lineHeight := style.LineHeight
	if lineHeight < 1 {
		lineHeight = 1
	}
	height := lines*lineHeight + 2*style.PaddingVertical + style.RowGap
	return max(height, params.DefaultHeight)
}

// probeLines owns the probe for the duration of one measurement. The deferred
// release also runs when the provider panics.
func probeLines(layout Layout, label string, width, padding int) int {
	probe := layout.NewProbe()
	defer probe.Release()
	return max(probe.Lines(label, width, padding), 1)
}

// Estimator resolves the container width and estimates label heights.
type Estimator struct {
	layout    Layout
	container Container
	style     Style
	params    Params
	logger    zerolog.Logger
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithStyle sets the row style.
func WithStyle(s Style) Option {
	return func(e *Estimator) { e.style = s }
}

// WithParams sets the estimator thresholds.
func WithParams(p Params) Option {
	return func(e *Estimator) { e.params = p }
}

// WithContainer sets the container whose width constrains the probe.
func WithContainer(c Container) Option {
	return func(e *Estimator) { e.container = c }
}

// WithLogger sets the logger used for absorbed measurement failures.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Estimator) { e.logger = l }
}

// NewEstimator creates an Estimator over layout.
func NewEstimator(layout Layout, opts ...Option) *Estimator {
	e := &Estimator{
		layout: layout,
		style:  DefaultStyle(),
		params: DefaultParams(),
		logger: zerolog.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Style returns the estimator's row style.
func (e *Estimator) Style() Style { return e.style }

// Params returns the estimator's thresholds.
func (e *Estimator) Params() Params { return e.params }

// DefaultHeight returns the height of a short row.
func (e *Estimator) DefaultHeight() int { return e.params.DefaultHeight }

// ProbeWidth returns the width labels are laid out in: the container width
// minus the scrollbar allowance, or the fallback width when the container
// cannot be measured.
func (e *Estimator) ProbeWidth() int {
	width := e.params.FallbackWidth
	if e.container != nil {
		w, err := e.container.Width()
		if err == nil {
			width = w
		} else {
			e.logger.Debug().Err(err).Int("fallback_width", width).Msg("using fallback container width")
		}
	}
	return max(width-e.params.ScrollbarWidth, 1)
}

// Estimate returns the estimated height of label at the current probe width.
func (e *Estimator) Estimate(label string) int {
	return e.EstimateAt(label, e.ProbeWidth())
}

// EstimateAt returns the estimated height of label in a container that is
// width columns wide after the scrollbar allowance.
func (e *Estimator) EstimateAt(label string, width int) int {
	return EstimateHeight(e.layout, label, width, e.style, e.params)
}
