package core

import (
	"io"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

const pollInterval = 50 * time.Millisecond

// gatedStdin only consumes input from fd while it is open. The line editor
// keeps a read pending between prompts; without the gate that read would
// swallow input meant for foreground jobs.
type gatedStdin struct {
	fd     int
	open   atomic.Bool
	closed atomic.Bool
}

func newGatedStdin(fd int) *gatedStdin {
	return &gatedStdin{fd: fd}
}

// Open lets reads through.
func (g *gatedStdin) Open() { g.open.Store(true) }

// Shut holds reads until the next Open.
func (g *gatedStdin) Shut() { g.open.Store(false) }

func (g *gatedStdin) Read(p []byte) (int, error) {
	fds := []unix.PollFd{{Fd: int32(g.fd), Events: unix.POLLIN}}
	for {
		if g.closed.Load() {
			return 0, io.EOF
		}
		if !g.open.Load() {
			time.Sleep(pollInterval)
			continue
		}

		ready, err := unix.Poll(fds, int(pollInterval/time.Millisecond))
		switch {
		case err == unix.EINTR:
			continue
		case err != nil:
			return 0, err
		case ready == 0, !g.open.Load():
			continue
		}

		n, err := unix.Read(g.fd, p)
		switch {
		case err == unix.EINTR, err == unix.EAGAIN:
			continue
		case err != nil:
			return 0, err
		case n == 0:
			return 0, io.EOF
		}
		return n, nil
	}
}

// Close ends every pending and future read with io.EOF.
func (g *gatedStdin) Close() error {
	g.closed.Store(true)
	return nil
}
