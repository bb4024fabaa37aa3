package jobs

// Diagnostics receives debug output from the table and engine. It is
// satisfied by *logger.Logger from gologger.
type Diagnostics interface {
	Debugln(v ...interface{})
	Warn(v ...interface{})
}

type nopDiagnostics struct{}

func (nopDiagnostics) Debugln(...interface{}) {}
func (nopDiagnostics) Warn(...interface{})    {}

// EventSink is notified about job lifecycle changes.
type EventSink interface {
	JobStarted(job *Job)
	JobFinished(job *Job, status int)
	JobSuspended(job *Job)
	CommandNotFound(job *Job, proc *Process)
}

type nopEvents struct{}

func (nopEvents) JobStarted(*Job)                {}
func (nopEvents) JobFinished(*Job, int)          {}
func (nopEvents) JobSuspended(*Job)              {}
func (nopEvents) CommandNotFound(*Job, *Process) {}
