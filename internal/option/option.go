// Package option holds the ordered, already filtered items a picker shows and
// the content token that identifies them.
package option

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/cases"
)

// Item is one selectable option.
type Item struct {
	Key   string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Sequence is an immutable ordered list of items. Its Token changes exactly
// when the content changes, so caches keyed on it are invalidated by content
// and not by slice identity.
type Sequence struct {
	items []Item
	token uint64
}

// NewSequence copies items and computes their content token.
func NewSequence(items []Item) Sequence {
	own := make([]Item, len(items))
	copy(own, items)
	return Sequence{items: own, token: contentToken(own)}
}

// contentToken hashes every key and label, each prefixed with its length so
// that ["ab","c"] and ["a","bc"] differ.
func contentToken(items []Item) uint64 {
	d := xxhash.New()
	var n [8]byte
	writeField := func(s string) {
		binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
		_, _ = d.Write(n[:])
		_, _ = d.WriteString(s)
	}
	for _, it := range items {
		writeField(it.Key)
		writeField(it.Label)
	}
	return d.Sum64()
}

// Token returns the content token.
func (s Sequence) Token() uint64 { return s.token }

// Len returns the number of items.
func (s Sequence) Len() int { return len(s.items) }

// At returns the item at index i. It panics when i is out of range, like a
// slice index.
func (s Sequence) At(i int) Item { return s.items[i] }

// Items returns a copy of the items.
func (s Sequence) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// IndexOf returns the index of the first item with key, or -1.
func (s Sequence) IndexOf(key string) int {
	for i, it := range s.items {
		if it.Key == key {
			return i
		}
	}
	return -1
}

// Filter returns the items whose label or key contains query. Matching trims
// the query and ignores case; accents are significant. An empty query returns
// s unchanged.
func (s Sequence) Filter(query string) Sequence {
	query = strings.TrimSpace(query)
	if query == "" {
		return s
	}
	fold := cases.Fold()
	needle := fold.String(query)

	var out []Item
	for _, it := range s.items {
		haystack := fold.String(strings.TrimSpace(it.Label + " " + it.Key))
		if strings.Contains(haystack, needle) {
			out = append(out, it)
		}
	}
	return NewSequence(out)
}

// Truncate clips label to maxWidth display cells and appends "...". A
// non-positive maxWidth disables clipping.
func Truncate(label string, maxWidth int) string {
	if maxWidth <= 0 || runewidth.StringWidth(label) <= maxWidth {
		return label
	}
	return runewidth.Truncate(label, maxWidth, "") + "..."
}

// TruncateLabels applies Truncate to every label.
func (s Sequence) TruncateLabels(maxWidth int) Sequence {
	if maxWidth <= 0 {
		return s
	}
	out := make([]Item, len(s.items))
	for i, it := range s.items {
		out[i] = Item{Key: it.Key, Label: Truncate(it.Label, maxWidth)}
	}
	return NewSequence(out)
}
