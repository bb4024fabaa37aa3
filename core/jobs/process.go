// Package jobs runs parsed command lines as jobs of one or more processes and
// tracks them until they are reaped.
package jobs

import (
	"strings"

	"github.com/fatih/color"
)

// Exit statuses with special meaning to callers of Execute and WaitForeground.
const (
	// StatusSuspended is returned when a foreground job was stopped rather
	// than exiting.
	StatusSuspended = -1

	// StatusNotFound is returned when a command is neither a builtin nor an
	// executable on the search path.
	StatusNotFound = -255

	// StatusCannotExec is the status of a process that was found but failed
	// to start.
	StatusCannotExec = 126
)

// Kind says how a process is dispatched.
type Kind int

const (
	Builtin Kind = iota
	External
)

func (k Kind) String() string {
	if k == Builtin {
		return "builtin"
	}
	return "external"
}

// Status is the lifecycle state of a single process.
type Status int

const (
	Running Status = iota
	Done
	Suspended
	Continued
	Terminated
)

var statusWords = [...]string{
	Running:    "running",
	Done:       "done",
	Suspended:  "suspended",
	Continued:  "continued",
	Terminated: "terminated",
}

var statusColors = [...]color.Attribute{
	Running:    color.FgCyan,
	Done:       color.FgGreen,
	Suspended:  color.FgYellow,
	Continued:  color.FgCyan,
	Terminated: color.FgRed,
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusWords) {
		return "unknown"
	}
	return statusWords[s]
}

// Finished reports whether the process will never be waited on again.
func (s Status) Finished() bool {
	return s == Done || s == Terminated
}

func (s Status) colored() string {
	if s < 0 || int(s) >= len(statusColors) {
		return s.String()
	}
	c := color.New(statusColors[s])
	c.EnableColor()
	return c.Sprint(s.String())
}

// Mode controls how the engine schedules a stage.
type Mode int

const (
	Background Mode = iota
	Foreground
	// PipeStage is used internally for every stage except the last.
	PipeStage
)

func (m Mode) String() string {
	switch m {
	case Background:
		return "background"
	case Foreground:
		return "foreground"
	case PipeStage:
		return "pipe"
	default:
		return "unknown"
	}
}

// Process is one stage of a pipeline.
type Process struct {
	// Command is the segment text the process was parsed from.
	Command string
	// Args holds the argument vector, including the command name as Args[0].
	Args []string
	// InPath and OutPath are redirection targets, empty to inherit.
	InPath  string
	OutPath string
	// Append opens OutPath for appending instead of truncating it.
	Append bool

	Pid    int
	Kind   Kind
	Status Status
	// ExitCode is valid once Status is Done or Terminated.
	ExitCode int
}

// NewProcess creates a process that has not been spawned yet.
func NewProcess(command string, args []string, kind Kind) *Process {
	return &Process{
		Command: strings.TrimSpace(command),
		Args:    args,
		Pid:     -1,
		Kind:    kind,
		Status:  Running,
	}
}

// Name returns Args[0] or the empty string.
func (p *Process) Name() string {
	if len(p.Args) == 0 {
		return ""
	}
	return p.Args[0]
}

// finish marks a process that never got a pid as done.
func (p *Process) finish(code int) {
	p.Status = Done
	p.ExitCode = code
}
