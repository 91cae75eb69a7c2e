package window

// Key identifies the inputs heights depend on: the content of the item
// sequence and the width rows are laid out in.
type Key struct {
	Token uint64
	Width int
}

// HeightTable lazily caches per-row heights for one Key. Entries are dropped
// as soon as the key changes; heights for different content or widths are
// never mixed.
type HeightTable struct {
	key      Key
	heights  map[int]int
	estimate HeightFunc
}

// NewHeightTable creates a table that fills misses with estimate.
func NewHeightTable(estimate HeightFunc) *HeightTable {
	return &HeightTable{
		heights:  make(map[int]int),
		estimate: estimate,
	}
}

// Sync sets the active key. It reports true when the key changed and the
// cached heights were discarded.
func (t *HeightTable) Sync(key Key, estimate HeightFunc) bool {
	if key == t.key && t.estimate != nil {
		return false
	}
	t.key = key
	t.estimate = estimate
	t.heights = make(map[int]int)
	return true
}

// Key returns the active key.
func (t *HeightTable) Key() Key { return t.key }

// Len returns the number of heights resolved so far.
func (t *HeightTable) Len() int { return len(t.heights) }

// Height returns the height of row i, estimating it on first use.
func (t *HeightTable) Height(i int) int {
	if h, ok := t.heights[i]; ok {
		return h
	}
	h := 0
	if t.estimate != nil {
		h = t.estimate(i)
	}
	t.heights[i] = h
	return h
}

// Cache keeps the prefix sum for the active Key so that scroll events reuse it
// and content or width changes rebuild it.
type Cache struct {
	table   *HeightTable
	offsets *Offsets
	n       int
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{table: NewHeightTable(nil)}
}

// Offsets returns the prefix sum for n rows under key, rebuilding it when key
// or n differ from the cached one. All n heights are resolved before it
// returns.
func (c *Cache) Offsets(key Key, n int, estimate HeightFunc) (*Offsets, bool) {
	changed := c.table.Sync(key, estimate)
	if !changed && c.offsets != nil && c.n == n {
		return c.offsets, false
	}
	c.n = n
	c.offsets = Build(n, c.table.Height)
	return c.offsets, true
}

// Invalidate forgets the cached prefix sum and heights.
func (c *Cache) Invalidate() {
	c.table = NewHeightTable(nil)
	c.offsets = nil
	c.n = 0
}
