package jobs

import (
	"fmt"
	"io"
	"strings"
)

// ProcFilter selects processes for ProcCount.
type ProcFilter int

const (
	FilterAll ProcFilter = iota
	FilterDone
	// FilterRemaining counts spawned processes that can still be waited on.
	FilterRemaining
)

// Job is one command line: a pipeline of processes sharing a process group.
type Job struct {
	// ID is the slot in the job table, -1 while unregistered.
	ID        int
	Processes []*Process
	// Command is the line the job was built from.
	Command string
	// Pgid is -1 until the first external process is spawned.
	Pgid int
	Mode Mode
}

// NewJob creates an unregistered job.
func NewJob(command string, mode Mode, procs ...*Process) *Job {
	return &Job{
		ID:        -1,
		Processes: procs,
		Command:   strings.TrimSpace(command),
		Pgid:      -1,
		Mode:      mode,
	}
}

// Root returns the first process or nil for an empty job.
func (j *Job) Root() *Process {
	if len(j.Processes) == 0 {
		return nil
	}
	return j.Processes[0]
}

// Last returns the final stage or nil for an empty job.
func (j *Job) Last() *Process {
	if len(j.Processes) == 0 {
		return nil
	}
	return j.Processes[len(j.Processes)-1]
}

// HasExternal reports whether any stage spawns a child.
func (j *Job) HasExternal() bool {
	for _, p := range j.Processes {
		if p.Kind == External {
			return true
		}
	}
	return false
}

// IsCompleted reports whether every process has finished.
func (j *Job) IsCompleted() bool {
	for _, p := range j.Processes {
		if !p.Status.Finished() {
			return false
		}
	}
	return true
}

// IsSuspended reports whether any process is stopped.
func (j *Job) IsSuspended() bool {
	for _, p := range j.Processes {
		if p.Status == Suspended {
			return true
		}
	}
	return false
}

// ProcCount counts the processes matching filter.
func (j *Job) ProcCount(filter ProcFilter) int {
	count := 0
	for _, p := range j.Processes {
		switch filter {
		case FilterAll:
			count++
		case FilterDone:
			if p.Status == Done {
				count++
			}
		case FilterRemaining:
			if p.Pid > 0 && !p.Status.Finished() {
				count++
			}
		}
	}
	return count
}

// ExitCode is the exit code of the last stage.
func (j *Job) ExitCode() int {
	if last := j.Last(); last != nil {
		return last.ExitCode
	}
	return 0
}

// Pids returns the pids of spawned processes in pipeline order.
func (j *Job) Pids() []int {
	var out []int
	for _, p := range j.Processes {
		if p.Pid > 0 {
			out = append(out, p.Pid)
		}
	}
	return out
}

func (j *Job) process(pid int) *Process {
	for _, p := range j.Processes {
		if p.Pid == pid {
			return p
		}
	}
	return nil
}

// WriteStatus writes the job's status line: "[id]" followed by one
// tab-separated "pid status command" line per process, non-final lines
// ending in "|".
func (j *Job) WriteStatus(w io.Writer, colored bool) {
	fmt.Fprintf(w, "[%d]", j.ID)
	for i, p := range j.Processes {
		word := p.Status.String()
		if colored {
			word = p.Status.colored()
		}
		fmt.Fprintf(w, "\t%d\t%s\t%s", p.Pid, word, p.Command)
		if i < len(j.Processes)-1 {
			fmt.Fprintln(w, "|")
		} else {
			fmt.Fprintln(w)
		}
	}
}

// WritePids writes "[id] pid pid ..." as printed when a background job starts.
func (j *Job) WritePids(w io.Writer) {
	fmt.Fprintf(w, "[%d]", j.ID)
	for _, p := range j.Processes {
		fmt.Fprintf(w, " %d", p.Pid)
	}
	fmt.Fprintln(w)
}

func (j *Job) String() string {
	return fmt.Sprintf("[%d] %s (%s)", j.ID, j.Command, j.Mode)
}
