package core

import (
	"github.com/josephlewis42/psh/core/jobs"
	"github.com/josephlewis42/psh/core/logger"
)

// eventRecorder writes job lifecycle changes to the session's event log.
type eventRecorder struct {
	log  *logger.SessionLogger
	diag jobs.Diagnostics
}

var _ jobs.EventSink = (*eventRecorder)(nil)

func (r *eventRecorder) record(event logger.LogType) {
	if err := r.log.Record(event); err != nil {
		r.diag.Warn("recording event:", err)
	}
}

func (r *eventRecorder) JobStarted(job *jobs.Job) {
	commands := make([][]string, 0, len(job.Processes))
	for _, proc := range job.Processes {
		commands = append(commands, proc.Args)
	}

	r.record(&logger.JobStarted{
		JobID:    job.ID,
		Command:  job.Command,
		Mode:     job.Mode.String(),
		Commands: commands,
	})
}

func (r *eventRecorder) JobFinished(job *jobs.Job, status int) {
	r.record(&logger.JobFinished{
		JobID:   job.ID,
		Command: job.Command,
		Status:  status,
		Pids:    job.Pids(),
	})
}

func (r *eventRecorder) JobSuspended(job *jobs.Job) {
	r.record(&logger.JobSuspended{
		JobID:   job.ID,
		Command: job.Command,
		Pids:    job.Pids(),
	})
}

func (r *eventRecorder) CommandNotFound(_ *jobs.Job, proc *jobs.Process) {
	r.record(&logger.UnknownCommand{
		Command: proc.Args,
		Status:  jobs.StatusNotFound,
	})
}
