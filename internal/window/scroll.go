package window

// NoSelection marks the absence of a selected row.
const NoSelection = -1

// InitialOffset returns the scroll offset that places the selected row at the
// top edge of the viewport when the list opens. It returns 0 when nothing is
// selected or when selected is outside [0, n). A nil heightOf means every row
// is defaultRowHeight tall.
//
// The value is meant to be applied once; callers must not re-apply it on later
// scroll events.
func InitialOffset(selected, n int, heightOf HeightFunc, defaultRowHeight int) int {
	if selected < 0 || selected >= n {
		return 0
	}
	if heightOf == nil {
		heightOf = Uniform(defaultRowHeight)
	}
	return Build(selected, heightOf).Total()
}

// InitialOffset is InitialOffset over an already built prefix sum.
func (o *Offsets) InitialOffset(selected int) int {
	if selected < 0 || selected >= o.Len() {
		return 0
	}
	return o.Offset(selected)
}

// MaxScroll returns the largest scroll offset that still fills a viewport of
// the given height.
func (o *Offsets) MaxScroll(viewportHeight int) int {
	return max(o.Total()-max(viewportHeight, 0), 0)
}

// ScrollIntoView returns the smallest change to current that makes row i fully
// visible in a viewport of the given height. A row taller than the viewport is
// aligned to the top. Out of range indices return current unchanged.
func (o *Offsets) ScrollIntoView(i, current, viewportHeight int) int {
	if i < 0 || i >= o.Len() {
		return current
	}
	top := o.Offset(i)
	bottom := top + o.Height(i)
	switch {
	case top < current:
		return top
	case bottom > current+viewportHeight:
		if o.Height(i) >= viewportHeight {
			return top
		}
		return bottom - viewportHeight
	default:
		return current
	}
}
