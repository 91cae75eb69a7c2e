// Package termsize reports the size of the controlling terminal. It is the
// container width source for row measurement when rows are drawn in a
// terminal.
package termsize

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/runger/vselect/internal/measure"
)

// TTYPath is the controlling terminal device.
const TTYPath = "/dev/tty"

// Container reports the column count of File as the container width. It
// implements measure.Container.
type Container struct {
	File *os.File
}

// Compile-time check that Container implements measure.Container.
var _ measure.Container = Container{}

// Width implements measure.Container. Files that are not terminals, and
// terminals that report zero columns, yield measure.ErrMeasurementUnavailable.
func (c Container) Width() (int, error) {
	cols, _, err := Size(c.File)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", measure.ErrMeasurementUnavailable, err)
	}
	if cols <= 0 {
		return 0, measure.ErrMeasurementUnavailable
	}
	return cols, nil
}

// Size returns the columns and rows of the terminal behind f.
func Size(f *os.File) (cols, rows int, err error) {
	if f == nil {
		return 0, 0, fmt.Errorf("no terminal")
	}
	return size(f)
}

// IsTerminal reports whether f is a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// OpenTTY opens the controlling terminal for reading and writing.
func OpenTTY() (*os.File, error) {
	f, err := os.OpenFile(TTYPath, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("no TTY available: %w", err)
	}
	return f, nil
}
