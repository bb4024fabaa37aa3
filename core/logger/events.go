package logger

// LogEntry is a single line of the event log. Exactly one of the event fields
// is set.
type LogEntry struct {
	TimestampMicros int64  `json:"timestamp_micros"`
	SessionID       string `json:"session_id,omitempty"`

	SessionStarted *SessionStarted `json:"session_started,omitempty"`
	JobStarted     *JobStarted     `json:"job_started,omitempty"`
	JobFinished    *JobFinished    `json:"job_finished,omitempty"`
	JobSuspended   *JobSuspended   `json:"job_suspended,omitempty"`
	UnknownCommand *UnknownCommand `json:"unknown_command,omitempty"`
	ParseError     *ParseError     `json:"parse_error,omitempty"`
}

// LogType is implemented by every event that can be stored in a LogEntry.
type LogType interface {
	setOn(le *LogEntry)
}

// GetLogType returns the event held by the entry or nil.
func (le *LogEntry) GetLogType() LogType {
	switch {
	case le.SessionStarted != nil:
		return le.SessionStarted
	case le.JobStarted != nil:
		return le.JobStarted
	case le.JobFinished != nil:
		return le.JobFinished
	case le.JobSuspended != nil:
		return le.JobSuspended
	case le.UnknownCommand != nil:
		return le.UnknownCommand
	case le.ParseError != nil:
		return le.ParseError
	default:
		return nil
	}
}

// SessionStarted is logged once when the shell starts.
type SessionStarted struct {
	Pid         int  `json:"pid"`
	Interactive bool `json:"interactive"`
}

// JobStarted is logged before a job's first stage is spawned.
type JobStarted struct {
	JobID    int        `json:"job_id"`
	Command  string     `json:"command"`
	Mode     string     `json:"mode"`
	Commands [][]string `json:"commands"`
}

// JobFinished is logged once every stage of a job is done.
type JobFinished struct {
	JobID   int    `json:"job_id"`
	Command string `json:"command"`
	Status  int    `json:"status"`
	Pids    []int  `json:"pids,omitempty"`
}

// JobSuspended is logged when a foreground job is stopped.
type JobSuspended struct {
	JobID   int    `json:"job_id"`
	Command string `json:"command"`
	Pids    []int  `json:"pids,omitempty"`
}

// UnknownCommand is logged for a stage that is neither builtin nor found on
// the search path.
type UnknownCommand struct {
	Command []string `json:"command"`
	Status  int      `json:"status"`
}

// ParseError is logged for lines that could not be turned into a job.
type ParseError struct {
	Line  string `json:"line"`
	Error string `json:"error"`
}

func (e *SessionStarted) setOn(le *LogEntry) { le.SessionStarted = e }
func (e *JobStarted) setOn(le *LogEntry)     { le.JobStarted = e }
func (e *JobFinished) setOn(le *LogEntry)    { le.JobFinished = e }
func (e *JobSuspended) setOn(le *LogEntry)   { le.JobSuspended = e }
func (e *UnknownCommand) setOn(le *LogEntry) { le.UnknownCommand = e }
func (e *ParseError) setOn(le *LogEntry)     { le.ParseError = e }
