package jobs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// savedFdFloor keeps saved copies out of the way of low descriptors handed
// to children.
const savedFdFloor = 10

type savedFd struct {
	std  int
	copy int
}

// stdioGuard points standard descriptors at other files while a builtin runs
// in the shell process. release puts the originals back.
type stdioGuard struct {
	saved []savedFd
}

// redirect points std at fd. Nothing happens if fd already is std.
func (g *stdioGuard) redirect(std, fd int) error {
	if fd < 0 || fd == std {
		return nil
	}

	copyFd, err := unix.FcntlInt(uintptr(std), unix.F_DUPFD_CLOEXEC, savedFdFloor)
	if err != nil {
		return fmt.Errorf("saving fd %d: %w", std, err)
	}
	if err := unix.Dup3(fd, std, 0); err != nil {
		unix.Close(copyFd)
		return fmt.Errorf("redirecting fd %d: %w", std, err)
	}

	g.saved = append(g.saved, savedFd{std: std, copy: copyFd})
	return nil
}

// release restores every redirected descriptor in reverse order.
func (g *stdioGuard) release() error {
	var firstErr error
	for i := len(g.saved) - 1; i >= 0; i-- {
		s := g.saved[i]
		if err := unix.Dup3(s.copy, s.std, 0); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("restoring fd %d: %w", s.std, err)
		}
		unix.Close(s.copy)
	}
	g.saved = nil
	return firstErr
}
