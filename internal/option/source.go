package option

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format names an item source encoding.
type Format string

// Supported formats.
const (
	FormatLines Format = "lines" // One label per line, or key<TAB>label
	FormatYAML  Format = "yaml"  // A list of {value, label} mappings or strings
	FormatJSON  Format = "json"  // Same shape as YAML
)

// maxLineBytes bounds a single line of line-format input.
const maxLineBytes = 1 << 20

// ErrEmptyCommand is returned by FromCommand for a blank command line.
var ErrEmptyCommand = errors.New("empty command")

// FormatForPath picks a format from a file extension.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	default:
		return FormatLines
	}
}

// LoadFile reads items from path in the format implied by its extension.
func LoadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open items file: %w", err)
	}
	defer f.Close()

	items, err := Read(f, FormatForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Read decodes items from r.
func Read(r io.Reader, format Format) ([]Item, error) {
	switch format {
	case FormatYAML, FormatJSON:
		return readStructured(r)
	case FormatLines, "":
		return readLines(r)
	default:
		return nil, fmt.Errorf("unknown item format %q", format)
	}
}

// FromCommand runs cmdline and reads its standard output in line format.
// The command line is split with shell quoting rules but not run by a shell.
func FromCommand(ctx context.Context, cmdline string) ([]Item, error) {
	args, err := shlex.Split(cmdline)
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("command %q failed: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("command %q failed: %w", args[0], err)
	}
	return readLines(bytes.NewReader(out))
}

func readLines(r io.Reader) ([]Item, error) {
	var items []Item
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if key, label, ok := strings.Cut(line, "\t"); ok {
			items = append(items, Item{Key: key, Label: label})
			continue
		}
		items = append(items, Item{Key: line, Label: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return items, nil
}

// rawItem accepts either a bare string or a {value, label} mapping.
type rawItem struct {
	Item
}

func (r *rawItem) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.Key = node.Value
		r.Label = node.Value
		return nil
	}
	var it Item
	if err := node.Decode(&it); err != nil {
		return err
	}
	// Structured records without a value still need a stable identity.
	if it.Key == "" {
		it.Key = uuid.NewString()
	}
	if it.Label == "" {
		it.Label = it.Key
	}
	r.Item = it
	return nil
}

// readStructured decodes YAML, which also covers JSON documents.
func readStructured(r io.Reader) ([]Item, error) {
	var raw []rawItem
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}
	items := make([]Item, len(raw))
	for i, ri := range raw {
		items[i] = ri.Item
	}
	return items, nil
}
