package picker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/runger/vselect/internal/option"
)

// ansiRE matches the escape sequences that can show up in option labels read
// from files or command output:
//   - CSI sequences: ESC [ params final  (colours, cursor movement)
//   - OSC sequences: ESC ] ... terminated by ST or BEL  (titles, hyperlinks)
//   - Two-byte escapes: ESC followed by one intermediate and one final byte
var ansiRE = regexp.MustCompile(`\x1b(?:` +
	`\[[0-9;?]*[ -/]*[@-~]` +
	`|` +
	`\].*?(?:\x1b\\|\x07)` +
	`|` +
	`[ -/][0-~]` +
	`)`)

// StripANSI removes ANSI escape sequences from s.
func StripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

// ValidateUTF8 replaces invalid UTF-8 bytes with U+FFFD.
func ValidateUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// SanitizeLabel makes a label safe to lay out and render: escapes are removed,
// invalid bytes replaced, and tabs and line breaks collapsed to spaces so the
// label wraps only where the layout wraps it.
func SanitizeLabel(s string) string {
	s = StripANSI(ValidateUTF8(s))
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\r', '\v', '\f':
			return ' '
		case 0x1b:
			return -1
		}
		return r
	}, s)
}

// SanitizeItems returns a copy of items with sanitized labels. Keys are left
// untouched; they are handed back to the caller verbatim.
func SanitizeItems(items []option.Item) []option.Item {
	out := make([]option.Item, len(items))
	for i, it := range items {
		out[i] = option.Item{Key: it.Key, Label: SanitizeLabel(it.Label)}
	}
	return out
}
