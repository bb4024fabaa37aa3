package jobs

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// DefaultMaxJobs is the highest job id handed out by default.
const DefaultMaxJobs = 64

var (
	// ErrTableFull is returned by Insert when every id is taken.
	ErrTableFull = errors.New("job table full")
	// ErrNoSuchJob is returned for ids that are out of range or unused.
	ErrNoSuchJob = errors.New("no such job")
)

type waitFunc func(pid, options int) (int, unix.WaitStatus, error)

func wait4(pid, options int) (int, unix.WaitStatus, error) {
	var ws unix.WaitStatus
	wpid, err := unix.Wait4(pid, &ws, options, nil)
	return wpid, ws, err
}

// Table tracks running jobs by small integer ids. It must only be used from
// one goroutine; the order of reaping, inserting and waiting matters.
type Table struct {
	// Out receives completion and suspension notices.
	Out io.Writer
	// Color enables colored status words.
	Color  bool
	Diag   Diagnostics
	Events EventSink

	slots []*Job
	wait  waitFunc
}

// NewTable creates a table handing out ids 0 through maxJobs.
func NewTable(maxJobs int, out io.Writer) *Table {
	if maxJobs < 0 {
		maxJobs = 0
	}
	if out == nil {
		out = io.Discard
	}
	return &Table{
		Out:   out,
		slots: make([]*Job, maxJobs+1),
		wait:  wait4,
	}
}

// MaxJobs returns the highest id the table hands out.
func (t *Table) MaxJobs() int {
	return len(t.slots) - 1
}

func (t *Table) diag() Diagnostics {
	if t.Diag == nil {
		return nopDiagnostics{}
	}
	return t.Diag
}

func (t *Table) events() EventSink {
	if t.Events == nil {
		return nopEvents{}
	}
	return t.Events
}

func (t *Table) get(id int) *Job {
	if id < 0 || id >= len(t.slots) {
		return nil
	}
	return t.slots[id]
}

// Get returns the job registered under id.
func (t *Table) Get(id int) (*Job, bool) {
	job := t.get(id)
	return job, job != nil
}

// Insert registers job under the lowest free id.
func (t *Table) Insert(job *Job) (int, error) {
	if job.ID >= 0 && t.get(job.ID) == job {
		return job.ID, nil
	}

	for id, slot := range t.slots {
		if slot == nil {
			job.ID = id
			t.slots[id] = job
			return id, nil
		}
	}
	return -1, ErrTableFull
}

// Remove drops the job registered under id, freeing the id for reuse.
func (t *Table) Remove(id int) error {
	job := t.get(id)
	if job == nil {
		return ErrNoSuchJob
	}
	t.slots[id] = nil
	job.ID = -1
	return nil
}

// Len returns the number of registered jobs.
func (t *Table) Len() int {
	n := 0
	for _, slot := range t.slots {
		if slot != nil {
			n++
		}
	}
	return n
}

// Jobs returns the registered jobs in id order.
func (t *Table) Jobs() []*Job {
	var out []*Job
	for _, slot := range t.slots {
		if slot != nil {
			out = append(out, slot)
		}
	}
	return out
}

// PidToID returns the id of the job owning pid, or -1.
func (t *Table) PidToID(pid int) int {
	if pid <= 0 {
		return -1
	}
	for id, job := range t.slots {
		if job != nil && job.process(pid) != nil {
			return id
		}
	}
	return -1
}

// Pgid returns the process group of job id, or -1.
func (t *Table) Pgid(id int) int {
	job := t.get(id)
	if job == nil {
		return -1
	}
	return job.Pgid
}

// ProcCount counts the processes of job id matching filter, or -1.
func (t *Table) ProcCount(id int, filter ProcFilter) int {
	job := t.get(id)
	if job == nil {
		return -1
	}
	return job.ProcCount(filter)
}

// IsCompleted reports whether job id exists and has finished.
func (t *Table) IsCompleted(id int) bool {
	job := t.get(id)
	return job != nil && job.IsCompleted()
}

// PrintStatus writes the status line of job id to Out.
func (t *Table) PrintStatus(id int) error {
	job := t.get(id)
	if job == nil {
		return ErrNoSuchJob
	}
	job.WriteStatus(t.Out, t.Color)
	return nil
}

// PrintPids writes the pids of job id to Out.
func (t *Table) PrintPids(id int) error {
	job := t.get(id)
	if job == nil {
		return ErrNoSuchJob
	}
	job.WritePids(t.Out)
	return nil
}

// PrintJobs writes the status of every registered job to w.
func (t *Table) PrintJobs(w io.Writer) {
	for _, job := range t.Jobs() {
		job.WriteStatus(w, t.Color)
	}
}

// ReapAvailable collects every child that has exited, stopped or continued
// without blocking. Jobs that finish are announced and removed. It returns
// the number of status changes observed.
func (t *Table) ReapAvailable() int {
	observed := 0
	for {
		pid, ws, err := t.wait(-1, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			return observed
		}
		observed++

		id := t.PidToID(pid)
		job := t.get(id)
		if job == nil {
			t.diag().Debugln("reaped untracked pid", pid)
			continue
		}

		proc := job.process(pid)
		proc.observe(ws)
		t.diag().Debugln("job", id, "pid", pid, "is", proc.Status)

		if job.IsCompleted() {
			job.WriteStatus(t.Out, t.Color)
			t.events().JobFinished(job, job.ExitCode())
			t.Remove(id)
		}
	}
}

// WaitForeground blocks until every remaining process of job id has changed
// state at least once. A job that ends up stopped is announced, moved to the
// background and StatusSuspended is returned; otherwise the exit code of the
// last stage is returned. The job is never removed here.
func (t *Table) WaitForeground(id int) (int, error) {
	job := t.get(id)
	if job == nil {
		return 0, ErrNoSuchJob
	}
	return t.waitJob(job), nil
}

func (t *Table) waitJob(job *Job) int {
	if job.Pgid <= 0 {
		return job.ExitCode()
	}

	remaining := job.ProcCount(FilterRemaining)
	seen := make(map[int]bool, remaining)
	for len(seen) < remaining {
		pid, ws, err := t.wait(-job.Pgid, unix.WUNTRACED)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			t.diag().Warn("waiting for process group ", job.Pgid, ": ", err)
			break
		}

		proc := job.process(pid)
		if proc == nil {
			t.diag().Debugln("pid", pid, "is not part of job", job.ID)
			continue
		}
		if !proc.Status.Finished() {
			seen[pid] = true
		}
		proc.observe(ws)
		t.diag().Debugln("pid", pid, "is", proc.Status)
	}

	if job.IsSuspended() {
		job.Mode = Background
		if job.ID >= 0 {
			job.WriteStatus(t.Out, t.Color)
		}
		return StatusSuspended
	}
	return job.ExitCode()
}
