// Package window computes which rows of a variable-height list intersect the
// viewport and where each of them sits.
//
// Heights and offsets are plain integers in whatever unit the host lays rows
// out in (terminal rows, pixels). Nothing here measures text; heights come
// from a HeightFunc.
package window

import "sort"

// HeightFunc returns the height of the row at index.
type HeightFunc func(index int) int

// Uniform returns a HeightFunc where every row is height tall.
func Uniform(height int) HeightFunc {
	return func(int) int { return height }
}

// Offsets is a prefix sum over row heights. cum[i] is the offset of row i and
// cum[len] is the total content height. An Offsets value is never mutated
// after Build returns.
type Offsets struct {
	cum []int
}

// Build resolves the height of every row in [0, n) and accumulates them.
// Negative heights count as zero.
func Build(n int, heightOf HeightFunc) *Offsets {
	if n < 0 {
		n = 0
	}
	cum := make([]int, n+1)
	for i := 0; i < n; i++ {
		h := 0
		if heightOf != nil {
			h = max(heightOf(i), 0)
		}
		cum[i+1] = cum[i] + h
	}
	return &Offsets{cum: cum}
}

// Len returns the number of rows.
func (o *Offsets) Len() int {
	if o == nil {
		return 0
	}
	return len(o.cum) - 1
}

// Total returns the sum of all row heights.
func (o *Offsets) Total() int {
	if o == nil {
		return 0
	}
	return o.cum[len(o.cum)-1]
}

// Offset returns the distance from the top of the content to row i. Indices
// past the end return Total; negative indices return 0.
func (o *Offsets) Offset(i int) int {
	switch {
	case o == nil || i <= 0:
		return 0
	case i >= o.Len():
		return o.Total()
	default:
		return o.cum[i]
	}
}

// Height returns the height of row i, or 0 when i is out of range.
func (o *Offsets) Height(i int) int {
	if i < 0 || i >= o.Len() {
		return 0
	}
	return o.cum[i+1] - o.cum[i]
}

// IndexAt returns the largest index whose offset is <= y, clamped to
// [0, Len()-1]. It returns -1 for an empty list.
func (o *Offsets) IndexAt(y int) int {
	n := o.Len()
	if n == 0 {
		return -1
	}
	// First row whose offset is > y, minus one.
	i := sort.Search(n, func(i int) bool { return o.cum[i] > y }) - 1
	return min(max(i, 0), n-1)
}

// lastBefore returns the largest index whose offset is < y, clamped like
// IndexAt.
func (o *Offsets) lastBefore(y int) int {
	n := o.Len()
	if n == 0 {
		return -1
	}
	i := sort.Search(n, func(i int) bool { return o.cum[i] >= y }) - 1
	return min(max(i, 0), n-1)
}
