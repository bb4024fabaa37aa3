package jobs

import (
	"golang.org/x/sys/unix"
)

// event is a status change reported by wait4.
type event int

const (
	evExited event = iota
	evSignaled
	evStopped
	evContinued
)

func eventOf(ws unix.WaitStatus) (event, bool) {
	switch {
	case ws.Exited():
		return evExited, true
	case ws.Signaled():
		return evSignaled, true
	case ws.Stopped():
		return evStopped, true
	case ws.Continued():
		return evContinued, true
	default:
		return 0, false
	}
}

// transition applies ev to cur. Done and Terminated absorb every event.
func transition(cur Status, ev event) Status {
	if cur.Finished() {
		return cur
	}

	switch ev {
	case evExited:
		return Done
	case evSignaled:
		return Terminated
	case evStopped:
		return Suspended
	case evContinued:
		return Continued
	}
	return cur
}

// observe records a wait status on the process.
func (p *Process) observe(ws unix.WaitStatus) {
	ev, ok := eventOf(ws)
	if !ok {
		return
	}

	prev := p.Status
	p.Status = transition(prev, ev)
	if prev.Finished() {
		return
	}

	switch ev {
	case evExited:
		p.ExitCode = ws.ExitStatus()
	case evSignaled:
		p.ExitCode = 128 + int(ws.Signal())
	}
}
