//go:build windows

package termsize

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

func size(f *os.File) (cols, rows int, err error) {
	cols, rows, err = term.GetSize(int(f.Fd()))
	if err != nil {
		return 0, 0, fmt.Errorf("cannot get terminal size: %w", err)
	}
	return cols, rows, nil
}
