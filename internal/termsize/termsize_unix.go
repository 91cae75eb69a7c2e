//go:build !windows

package termsize

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func size(f *os.File) (cols, rows int, err error) {
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot get terminal size: %w", err)
	}
	return int(ws.Col), int(ws.Row), nil
}
