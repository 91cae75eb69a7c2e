// Package vlist binds the window computation to a host that renders option
// rows. It owns the scroll offset of the list surface and mounts only the rows
// that the current window covers.
package vlist

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/runger/vselect/internal/measure"
	"github.com/runger/vselect/internal/option"
	"github.com/runger/vselect/internal/window"
)

// RowRenderer renders item at index into a block of at most height lines and
// width columns.
type RowRenderer func(item option.Item, index, height, width int) string

// List is the render adapter over one item sequence at a time.
// The zero value is not usable; construct with New.
type List struct {
	estimator *measure.Estimator
	items     option.Sequence
	cache     *window.Cache

	width  int // Container width; 0 until the host reports one
	scroll int

	// opened is set once the initial scroll position has been applied.
	opened bool

	logger zerolog.Logger
}

// Option configures a List.
type Option func(*List)

// WithLogger sets the list logger.
func WithLogger(l zerolog.Logger) Option {
	return func(v *List) { v.logger = l }
}

// WithWidth sets the initial container width.
func WithWidth(w int) Option {
	return func(v *List) { v.width = max(w, 0) }
}

// New creates a List that estimates row heights with estimator.
func New(estimator *measure.Estimator, opts ...Option) *List {
	l := &List{
		estimator: estimator,
		cache:     window.NewCache(),
		logger:    zerolog.Nop(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// SetItems replaces the item sequence. Heights are re-estimated on the next
// window computation if the content token differs.
func (l *List) SetItems(items option.Sequence) {
	l.items = items
}

// Items returns the current sequence.
func (l *List) Items() option.Sequence { return l.items }

// SetWidth updates the container width. Row heights are re-estimated when the
// width changes.
func (l *List) SetWidth(w int) {
	l.width = max(w, 0)
}

// Width returns the container width, or 0 when it is not known yet.
func (l *List) Width() int { return l.width }

// Style returns the row box style heights are estimated with. Hosts render
// rows with the same padding so estimates match what is drawn.
func (l *List) Style() measure.Style { return l.estimator.Style() }

// RowWidth returns the width rows are laid out in, after the scrollbar
// allowance. Without a container width it falls back to the estimator.
func (l *List) RowWidth() int {
	if l.width > 0 {
		return max(l.width-l.estimator.Params().ScrollbarWidth, 1)
	}
	return l.estimator.ProbeWidth()
}

// offsets returns the prefix sum for the current sequence and width.
func (l *List) offsets() *window.Offsets {
	width := l.RowWidth()
	items := l.items
	key := window.Key{Token: items.Token(), Width: width}

	o, rebuilt := l.cache.Offsets(key, items.Len(), func(i int) int {
		return l.estimator.EstimateAt(items.At(i).Label, width)
	})
	if rebuilt {
		l.logger.Debug().
			Int("items", items.Len()).
			Int("width", width).
			Uint64("token", items.Token()).
			Int("total_height", o.Total()).
			Msg("rebuilt row offsets")
	}
	return o
}

// Open applies the initial scroll position that places selected at the top of
// the viewport. It runs once; later calls do nothing until Close, so user
// scrolling is never overridden. Out of range selections open at the top.
func (l *List) Open(selected int) {
	if l.opened {
		return
	}
	l.opened = true
	if selected >= l.items.Len() {
		l.logger.Debug().Int("selected", selected).Int("items", l.items.Len()).
			Msg("selection out of range, opening at top")
	}
	l.scroll = l.offsets().InitialOffset(selected)
}

// Close marks the list closed so the next Open re-applies the initial offset.
func (l *List) Close() {
	l.opened = false
}

// IsOpen reports whether Open has been applied.
func (l *List) IsOpen() bool { return l.opened }

// OnScroll records a new scroll offset reported by the surface.
func (l *List) OnScroll(offset int) {
	l.scroll = max(offset, 0)
}

// ScrollBy moves the scroll offset by delta.
func (l *List) ScrollBy(delta int) {
	l.OnScroll(l.scroll + delta)
}

// ScrollOffset returns the current scroll offset.
func (l *List) ScrollOffset() int { return l.scroll }

// TotalContentHeight returns the sum of every row height.
func (l *List) TotalContentHeight() int {
	return l.offsets().Total()
}

// PanelHeight returns the height of the scroll panel: the content height
// capped at maxHeight.
func (l *List) PanelHeight(maxHeight int) int {
	return max(min(maxHeight, l.TotalContentHeight()), 0)
}

// ScrollIntoView adjusts the scroll offset so row i is fully visible.
func (l *List) ScrollIntoView(i, viewportHeight int) {
	l.scroll = l.offsets().ScrollIntoView(i, l.scroll, viewportHeight)
}

// IndexAt returns the index of the row under viewport line y, or -1 when the
// line is outside the content.
func (l *List) IndexAt(y int) int {
	o := l.offsets()
	abs := l.scroll + y
	if y < 0 || abs >= o.Total() {
		return -1
	}
	return o.IndexAt(abs)
}

// ClampScroll keeps the offset inside the scrollable range of a viewport of the
// given height, as a surface does when its content shrinks.
func (l *List) ClampScroll(viewportHeight int) {
	l.clampScroll(l.offsets(), viewportHeight)
}

func (l *List) clampScroll(o *window.Offsets, viewportHeight int) {
	l.scroll = min(max(l.scroll, 0), o.MaxScroll(viewportHeight))
}

// Window returns the window for the current scroll offset.
func (l *List) Window(viewportHeight, overscan int) window.Result {
	o := l.offsets()
	l.clampScroll(o, viewportHeight)
	return o.Window(window.Viewport{
		ScrollOffset: l.scroll,
		Height:       viewportHeight,
		Overscan:     overscan,
	})
}

// Render returns the rows to mount, each with its absolute top offset.
func (l *List) Render(viewportHeight, overscan int) []window.Row {
	return l.Window(viewportHeight, overscan).Rows
}

// View composes the mounted rows into viewportHeight lines. Each row is placed
// at its top offset relative to the scroll offset and clipped to the
// viewport. Rendered blocks are padded or cut to their estimated height.
func (l *List) View(viewportHeight, overscan int, render RowRenderer) string {
	if viewportHeight <= 0 {
		return ""
	}
	canvas := make([]string, viewportHeight)
	width := l.RowWidth()

	for _, row := range l.Render(viewportHeight, overscan) {
		if row.Top+row.Height <= l.scroll || row.Top >= l.scroll+viewportHeight {
			continue // overscan row, mounted but off screen
		}
		lines := strings.Split(render(l.items.At(row.Index), row.Index, row.Height, width), "\n")
		for k := 0; k < row.Height; k++ {
			y := row.Top + k - l.scroll
			if y < 0 || y >= viewportHeight {
				continue
			}
			if k < len(lines) {
				canvas[y] = lines[k]
			}
		}
	}
	return strings.Join(canvas, "\n")
}

// Thumb returns the scrollbar thumb start and size for a track of
// viewportHeight cells. The thumb fills the track when nothing scrolls.
func (l *List) Thumb(viewportHeight int) (start, size int) {
	total := l.TotalContentHeight()
	if viewportHeight <= 0 {
		return 0, 0
	}
	if total <= viewportHeight {
		return 0, viewportHeight
	}
	size = max(viewportHeight*viewportHeight/total, 1)
	maxScroll := total - viewportHeight
	start = min(l.scroll, maxScroll) * (viewportHeight - size) / maxScroll
	return start, size
}
