package main

import (
	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// getWinsize queries the controlling terminal's size directly via ioctl
// rather than through creack/pty's os.File-based helper, so SIGWINCH
// handling doesn't depend on fd being wrapped in an *os.File.
func getWinsize(fd uintptr) (*pty.Winsize, error) {
	ws, err := unix.IoctlGetWinsize(int(fd), unix.TIOCGWINSZ)
	if err != nil {
		return nil, err
	}
	return &pty.Winsize{
		Rows: ws.Row,
		Cols: ws.Col,
		X:    ws.Xpixel,
		Y:    ws.Ypixel,
	}, nil
}
