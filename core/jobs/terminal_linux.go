package jobs

import (
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// jobControlSignals are caught rather than ignored so that children start
// with default dispositions after exec.
var jobControlSignals = []os.Signal{unix.SIGINT, unix.SIGTSTP, unix.SIGTTIN, unix.SIGTTOU}

// Terminal hands the controlling terminal between the shell and its
// foreground jobs. A Terminal for a non-tty does nothing.
type Terminal struct {
	fd        int
	shellPgid int
	sigs      chan os.Signal

	// setpgrp makes pgid the foreground group of fd, tcsetpgrp when nil.
	setpgrp func(fd, pgid int) error
}

func tcsetpgrp(fd, pgid int) error {
	return unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid)
}

func (t *Terminal) foreground(pgid int) error {
	if t.setpgrp != nil {
		return t.setpgrp(t.fd, pgid)
	}
	return tcsetpgrp(t.fd, pgid)
}

// NoTerminal returns a Terminal that never changes the foreground group.
func NoTerminal() *Terminal {
	return &Terminal{fd: -1, shellPgid: unix.Getpgrp()}
}

// OpenTerminal prepares f for job control. If f is not a terminal the
// returned Terminal is inert.
func OpenTerminal(f *os.File) *Terminal {
	fd := int(f.Fd())
	if _, err := unix.IoctlGetTermios(fd, unix.TCGETS); err != nil {
		return NoTerminal()
	}
	return &Terminal{fd: fd, shellPgid: unix.Getpgrp()}
}

// Interactive reports whether the terminal is real.
func (t *Terminal) Interactive() bool {
	return t != nil && t.fd >= 0
}

// ShellPgid is the process group the shell reclaims the terminal for.
func (t *Terminal) ShellPgid() int {
	return t.shellPgid
}

// Claim puts the shell in its own process group, makes that group the
// foreground group and starts catching job control signals.
func (t *Terminal) Claim() error {
	if !t.Interactive() {
		return nil
	}

	t.sigs = make(chan os.Signal, 8)
	signal.Notify(t.sigs, jobControlSignals...)
	go func(c <-chan os.Signal) {
		for range c {
		}
	}(t.sigs)

	pid := unix.Getpid()
	if unix.Getpgrp() != pid {
		// Session leaders cannot move, that is fine.
		if err := unix.Setpgid(0, 0); err != nil && err != unix.EPERM {
			return fmt.Errorf("setpgid: %w", err)
		}
	}
	t.shellPgid = unix.Getpgrp()
	return t.Reclaim()
}

// Release stops catching job control signals.
func (t *Terminal) Release() {
	if t.sigs == nil {
		return
	}
	signal.Stop(t.sigs)
	close(t.sigs)
	t.sigs = nil
}

// Give makes pgid the foreground process group.
func (t *Terminal) Give(pgid int) error {
	if !t.Interactive() || pgid <= 0 {
		return nil
	}
	if err := t.foreground(pgid); err != nil {
		return fmt.Errorf("giving terminal to %d: %w", pgid, err)
	}
	return nil
}

// Reclaim makes the shell's group the foreground group again. SIGTTOU is
// ignored around the call so a background shell is not stopped by it.
func (t *Terminal) Reclaim() error {
	if !t.Interactive() {
		return nil
	}

	signal.Ignore(unix.SIGTTOU)
	defer func() {
		if t.sigs != nil {
			signal.Notify(t.sigs, unix.SIGTTOU)
		}
	}()

	if err := t.foreground(t.shellPgid); err != nil {
		return fmt.Errorf("reclaiming terminal: %w", err)
	}
	return nil
}
