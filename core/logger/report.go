package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ReadJSONLinesLog parses a newline delimited JSON log.
func ReadJSONLinesLog(r io.Reader, handler func(le *LogEntry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var logEntry LogEntry
		if err := decoder.Decode(&logEntry); err != nil {
			return err
		}

		handler(&logEntry)
	}
	return nil
}

// Report holds statistics about the logged events.
type Report struct {
	LogEntries     int        `json:"log_entries"`
	InvalidEntries StrCounter `json:"unknown_log_entries,omitempty"`
	Sessions       int        `json:"sessions"`

	JobStarted     JobStartedReport     `json:"job_started_report"`
	JobFinished    JobFinishedReport    `json:"job_finished_report"`
	JobSuspended   JobSuspendedReport   `json:"job_suspended_report"`
	UnknownCommand UnknownCommandReport `json:"unknown_command_report"`
	ParseError     ParseErrorReport     `json:"parse_error_report"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{
		UnknownCommand: UnknownCommandReport{
			Invocations: NewPathCounter("command", "status"),
		},
	}
}

func (r *Report) Update(le *LogEntry) {
	r.LogEntries++

	switch event := le.GetLogType().(type) {
	case *SessionStarted:
		r.Sessions++
	case *JobStarted:
		r.JobStarted.update(event)
	case *JobFinished:
		r.JobFinished.update(event)
	case *JobSuspended:
		r.JobSuspended.update(event)
	case *UnknownCommand:
		r.UnknownCommand.update(event)
	case *ParseError:
		r.ParseError.update(event)
	default:
		r.InvalidEntries.Increment(fmt.Sprintf("%T", event))
	}
}

type JobStartedReport struct {
	Count int `json:"count"`
	// Name of the first command in each job.
	CommandNames StrCounter `json:"command_names"`
	Modes        StrCounter `json:"modes"`
	// Number of stages in each pipeline.
	PipelineLengths StrCounter `json:"pipeline_lengths"`
}

func (r *JobStartedReport) update(js *JobStarted) {
	r.Count++
	if len(js.Commands) > 0 && len(js.Commands[0]) > 0 {
		r.CommandNames.Increment(js.Commands[0][0])
	}
	r.Modes.Increment(js.Mode)
	r.PipelineLengths.Increment(fmt.Sprint(len(js.Commands)))
}

type JobFinishedReport struct {
	Count    int        `json:"count"`
	Statuses StrCounter `json:"statuses"`
	Failed   StrCounter `json:"failed_commands"`
}

func (r *JobFinishedReport) update(jf *JobFinished) {
	r.Count++
	r.Statuses.Increment(fmt.Sprint(jf.Status))
	if jf.Status != 0 {
		r.Failed.Increment(jf.Command)
	}
}

type JobSuspendedReport struct {
	Commands StrCounter `json:"commands"`
}

func (r *JobSuspendedReport) update(js *JobSuspended) {
	r.Commands.Increment(js.Command)
}

type UnknownCommandReport struct {
	Invocations *PathCounter `json:"invocations"`
}

func (r *UnknownCommandReport) update(logEntry *UnknownCommand) {
	if r.Invocations == nil {
		r.Invocations = NewPathCounter("command", "status")
	}
	name := ""
	if len(logEntry.Command) > 0 {
		name = logEntry.Command[0]
	}
	r.Invocations.Increment(name, fmt.Sprint(logEntry.Status))
}

type ParseErrorReport struct {
	Errors StrCounter `json:"errors"`
}

func (r *ParseErrorReport) update(pe *ParseError) {
	r.Errors.Increment(pe.Error)
}

// SessionReport groups the commands run in each session.
type SessionReport struct {
	// Map of sessionID -> session
	sessions map[string]*Session
}

type Session struct {
	Pid         int      `json:"pid"`
	Interactive bool     `json:"interactive"`
	LogEntries  int      `json:"log_entries"`
	Commands    []string `json:"commands"`
	Suspended   []string `json:"suspended,omitempty"`
	Unknown     []string `json:"unknown,omitempty"`
}

func (s *Session) Update(le *LogEntry) {
	s.LogEntries++

	switch event := le.GetLogType().(type) {
	case *SessionStarted:
		s.Pid = event.Pid
		s.Interactive = event.Interactive
	case *JobStarted:
		s.Commands = append(s.Commands, event.Command)
	case *JobSuspended:
		s.Suspended = append(s.Suspended, event.Command)
	case *UnknownCommand:
		s.Unknown = append(s.Unknown, strings.Join(event.Command, " "))
	}
}

func (s *SessionReport) init() {
	if s.sessions == nil {
		s.sessions = make(map[string]*Session)
	}
}

// MarshalJSON implemnts custom JSON marshaler.
func (s *SessionReport) MarshalJSON() ([]byte, error) {
	s.init()

	return json.Marshal(s.sessions)
}

func (s *SessionReport) Update(le *LogEntry) {
	s.init()

	if le.SessionID == "" {
		return
	}
	session, ok := s.sessions[le.SessionID]
	if !ok {
		session = &Session{}
		s.sessions[le.SessionID] = session
	}

	session.Update(le)
}

// StrCounter counts the number of strings seen.
type StrCounter struct {
	internal map[string]int
}

// Increment adds one to the given key.
func (s *StrCounter) Increment(toAdd string) {
	if s.internal == nil {
		s.internal = make(map[string]int)
	}

	s.internal[toAdd]++
}

// Get returns the count for key.
func (s *StrCounter) Get(key string) int {
	return s.internal[key]
}

// MarshalJSON implemnts custom JSON marshaler.
func (s StrCounter) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.internal)
}

func NewPathCounter(cols ...string) *PathCounter {
	return &PathCounter{
		cols:     cols,
		internal: make(map[string]int),
	}
}

// PathCounter counts tuples of strings.
type PathCounter struct {
	cols     []string
	internal map[string]int
}

// Increment adds one to the given key.
func (ctr *PathCounter) Increment(toAdd ...string) {
	if len(toAdd) != len(ctr.cols) {
		panic("wrong number of columns to add")
	}

	ctr.internal[toKey(toAdd...)]++
}

// Get returns the count for the tuple.
func (ctr *PathCounter) Get(vals ...string) int {
	return ctr.internal[toKey(vals...)]
}

// MarshalJSON implemnts custom JSON marshaler.
func (ctr *PathCounter) MarshalJSON() ([]byte, error) {
	type Count struct {
		Count  int               `json:"count"`
		Fields map[string]string `json:"event"`
		Path   string            `json:"-"`
	}

	out := []Count{}
	for k, v := range ctr.internal {
		count := Count{
			Count:  v,
			Path:   k,
			Fields: make(map[string]string),
		}

		splitPath := fromKey(k)
		for colNum, colVal := range ctr.cols {
			count.Fields[colVal] = splitPath[colNum]
		}

		out = append(out, count)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Path < out[j].Path
		}
		return out[i].Count > out[j].Count
	})

	return json.Marshal(out)
}

func toKey(vals ...string) string {
	key, _ := json.Marshal(vals)
	return string(key)
}

func fromKey(key string) (out []string) {
	json.Unmarshal([]byte(key), &out)
	return
}
