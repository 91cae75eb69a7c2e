package picker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runger/vselect/internal/option"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text", "hello world", "hello world"},
		{"bold", "\x1b[1mhello\x1b[0m", "hello"},
		{"multiple SGR", "\x1b[1;31;42mfancy\x1b[0m", "fancy"},
		{"cursor private mode", "\x1b[?25lhidden", "hidden"},
		{"OSC with BEL", "\x1b]0;title\x07text", "text"},
		{"OSC with ST", "\x1b]0;title\x1b\\text", "text"},
		{"OSC hyperlink", "\x1b]8;;https://example.com\x07link\x1b]8;;\x07", "link"},
		{"charset", "\x1b(Bhello", "hello"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripANSI(tt.input))
		})
	}
}

func TestValidateUTF8(t *testing.T) {
	assert.Equal(t, "héllo", ValidateUTF8("héllo"))
	assert.Equal(t, "a�b", ValidateUTF8("a\xffb"))
	assert.Equal(t, "a�b", ValidateUTF8("a\xff\xfeb"), "a run of invalid bytes collapses to one replacement")
}

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"tabs", "CID\t1", "CID 1"},
		{"newlines", "line one\nline two\r\n", "line one line two  "},
		{"stray escape", "a\x1bb", "ab"},
		{"colour and newline", "\x1b[32mok\x1b[0m\n", "ok "},
		{"wide runes kept", "日本語", "日本語"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeLabel(tt.input))
		})
	}
}

func TestSanitizeItems_LeavesKeysAlone(t *testing.T) {
	in := []option.Item{{Key: "\x1b[1mk", Label: "\x1b[1mlabel\x1b[0m"}}

	out := SanitizeItems(in)

	assert.Equal(t, []option.Item{{Key: "\x1b[1mk", Label: "label"}}, out)
	assert.Equal(t, "\x1b[1mlabel\x1b[0m", in[0].Label, "input is not modified")
}
