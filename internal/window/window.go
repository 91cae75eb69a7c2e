package window

// Viewport is the visible slice of the scroll surface.
type Viewport struct {
	ScrollOffset int // Distance scrolled from the top of the content
	Height       int // Visible height
	Overscan     int // Extra rows rendered on each side
}

func (v Viewport) normalized() Viewport {
	v.ScrollOffset = max(v.ScrollOffset, 0)
	v.Height = max(v.Height, 0)
	v.Overscan = max(v.Overscan, 0)
	return v
}

// Range is an inclusive span of row indices.
type Range struct {
	First int
	Last  int
}

// EmptyRange is the range returned for a list without rows.
var EmptyRange = Range{First: 0, Last: -1}

// Empty reports whether the range covers no rows.
func (r Range) Empty() bool { return r.First > r.Last }

// Len returns the number of rows in the range.
func (r Range) Len() int {
	if r.Empty() {
		return 0
	}
	return r.Last - r.First + 1
}

// Contains reports whether index i is in the range.
func (r Range) Contains(i int) bool { return i >= r.First && i <= r.Last }

// Row is one materialized row: where it starts and how tall it is.
type Row struct {
	Index  int
	Top    int
	Height int
}

// Result is the window for one set of inputs. It is derived data and holds no
// reference to the heights it was computed from.
type Result struct {
	Range       Range
	Rows        []Row
	TotalHeight int
}

// Offset returns the top offset of row i within the window.
func (r Result) Offset(i int) (int, bool) {
	if !r.Range.Contains(i) {
		return 0, false
	}
	return r.Rows[i-r.Range.First].Top, true
}

// Compute builds the prefix sum for n rows and returns the window for vp.
func Compute(n int, heightOf HeightFunc, vp Viewport) Result {
	return Build(n, heightOf).Window(vp)
}

// Window returns the rows that intersect vp, widened by vp.Overscan on each
// side and clamped to the list.
func (o *Offsets) Window(vp Viewport) Result {
	n := o.Len()
	if n == 0 {
		return Result{Range: EmptyRange}
	}
	vp = vp.normalized()

	first := o.IndexAt(vp.ScrollOffset)
	last := first
	if vp.Height > 0 {
		last = max(o.lastBefore(vp.ScrollOffset+vp.Height), first)
	}

	r := Range{
		First: max(first-vp.Overscan, 0),
		Last:  min(last+vp.Overscan, n-1),
	}

	rows := make([]Row, 0, r.Len())
	for i := r.First; i <= r.Last; i++ {
		rows = append(rows, Row{Index: i, Top: o.cum[i], Height: o.cum[i+1] - o.cum[i]})
	}

	return Result{Range: r, Rows: rows, TotalHeight: o.Total()}
}
