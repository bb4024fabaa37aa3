package jobs

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/josephlewis42/psh/core/builtins"
	"golang.org/x/sys/unix"
)

// Engine wires the stages of a job together and runs them.
type Engine struct {
	Registry *builtins.Registry
	Table    *Table
	Terminal *Terminal

	// Stdin, Stdout and Stderr are the shell's own descriptors. They are
	// inherited by stages that are not redirected and are never closed.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// NewContext returns the base context for a builtin invocation. The
	// engine fills in the arguments and stdio.
	NewContext func() *builtins.Context

	// Env returns the environment for external commands.
	Env func() []string

	pipe     func() (r, w int, err error)
	lookPath func(file string) (string, error)
}

var catchSigpipe sync.Once

// NewEngine creates an engine using the process's standard files.
//
// SIGPIPE is caught for the whole process so a builtin writing to a pipe
// whose reader has exited gets EPIPE instead of killing the shell.
func NewEngine(registry *builtins.Registry, table *Table) *Engine {
	catchSigpipe.Do(func() {
		signal.Notify(make(chan os.Signal, 1), unix.SIGPIPE)
	})

	return &Engine{
		Registry: registry,
		Table:    table,
		Terminal: NoTerminal(),
		Stdin:    os.Stdin,
		Stdout:   os.Stdout,
		Stderr:   os.Stderr,
		Env:      os.Environ,
		pipe:     pipe2,
		lookPath: exec.LookPath,
	}
}

func pipe2() (int, int, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		return -1, -1, err
	}
	return p[0], p[1], nil
}

func (e *Engine) stderr() io.Writer {
	if e.Stderr == nil {
		return io.Discard
	}
	return e.Stderr
}

// Execute runs job and returns its exit status. A job without stages is a
// no-op that returns 0.
//
// Finished background jobs are reaped before anything is started. Jobs whose
// first stage is external are registered in the table; a foreground job is
// removed again once it finishes, a suspended one stays behind and
// StatusSuspended is returned. Background jobs return 0 without waiting
// unless none of their stages could be started.
func (e *Engine) Execute(job *Job) (int, error) {
	if job == nil || len(job.Processes) == 0 {
		return 0, nil
	}

	e.Table.ReapAvailable()

	if job.Root().Kind == External {
		if _, err := e.Table.Insert(job); err != nil {
			return 1, fmt.Errorf("%s: %w", job.Command, err)
		}
	}
	e.Table.events().JobStarted(job)

	err := e.launch(job)
	return e.settle(job), err
}

// launch spawns every stage left to right. Stages that could not be started
// are marked done so the job can still complete.
func (e *Engine) launch(job *Job) error {
	stdin, stdout := int(e.Stdin.Fd()), int(e.Stdout.Fd())
	root, last := job.Root(), job.Last()

	in, out := stdin, stdout
	if root.InPath != "" {
		fd, err := unix.Open(root.InPath, unix.O_RDONLY|unix.O_CLOEXEC, 0)
		if err != nil {
			return e.abort(job, 0, root.InPath, err)
		}
		in = fd
	}
	if last.OutPath != "" {
		flags := unix.O_WRONLY | unix.O_CREAT | unix.O_CLOEXEC
		if last.Append {
			flags |= unix.O_APPEND
		} else {
			flags |= unix.O_TRUNC
		}
		fd, err := unix.Open(last.OutPath, flags, 0644)
		if err != nil {
			closeUnless(in, stdin)
			return e.abort(job, 0, last.OutPath, err)
		}
		out = fd
	}
	defer closeUnless(out, stdout)

	// Builtins that feed a pipe run after every other stage has started.
	var held []heldStage
	for i, proc := range job.Processes {
		stageOut, next, mode := out, -1, job.Mode

		if i < len(job.Processes)-1 {
			r, w, err := e.pipe()
			if err != nil {
				closeUnless(in, stdin)
				e.dropHeld(held, out, stdin)
				return e.abort(job, i, "pipe", err)
			}
			stageOut, next, mode = w, r, PipeStage
		}

		if proc.Kind == Builtin && mode == PipeStage {
			held = append(held, heldStage{proc: proc, in: in, out: stageOut})
			in = next
			continue
		}

		e.Table.diag().Debugln("starting", proc.Name(), "as", proc.Kind, "in", mode, "mode")
		e.spawn(job, proc, in, stageOut)

		if stageOut != out {
			unix.Close(stageOut)
		}
		closeUnless(in, stdin)
		in = next
	}

	for _, h := range held {
		e.Table.diag().Debugln("starting", h.proc.Name(), "as", h.proc.Kind, "in", PipeStage, "mode")
		e.runBuiltin(h.proc, h.in, h.out)
		h.close(out, stdin)
	}
	return nil
}

// heldStage is a builtin pipe stage waiting for the stages after it.
type heldStage struct {
	proc    *Process
	in, out int
}

func (h heldStage) close(out, stdin int) {
	closeUnless(h.out, out)
	closeUnless(h.in, stdin)
}

// dropHeld releases the descriptors of builtin stages that will never run.
func (e *Engine) dropHeld(held []heldStage, out, stdin int) {
	for _, h := range held {
		h.close(out, stdin)
		h.proc.finish(1)
	}
}

func closeUnless(fd, keep int) {
	if fd >= 0 && fd != keep {
		unix.Close(fd)
	}
}

// abort reports err and marks the stages from index on as failed.
func (e *Engine) abort(job *Job, from int, what string, err error) error {
	fmt.Fprintf(e.stderr(), "psh: %s: %v\n", what, err)
	for _, proc := range job.Processes[from:] {
		proc.finish(1)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func (e *Engine) spawn(job *Job, proc *Process, in, out int) {
	if proc.Kind == Builtin {
		e.runBuiltin(proc, in, out)
		return
	}
	e.forkExec(job, proc, in, out)
}

func (e *Engine) runBuiltin(proc *Process, in, out int) {
	fn, ok := e.Registry.Lookup(proc.Name())
	if !ok {
		proc.finish(StatusNotFound)
		return
	}

	guard := &stdioGuard{}
	defer func() {
		if err := guard.release(); err != nil {
			e.Table.diag().Warn(err)
		}
	}()

	if err := guard.redirect(int(e.Stdin.Fd()), in); err != nil {
		fmt.Fprintf(e.stderr(), "psh: %s: %v\n", proc.Name(), err)
		proc.finish(1)
		return
	}
	if err := guard.redirect(int(e.Stdout.Fd()), out); err != nil {
		fmt.Fprintf(e.stderr(), "psh: %s: %v\n", proc.Name(), err)
		proc.finish(1)
		return
	}

	ctx := &builtins.Context{}
	if e.NewContext != nil {
		ctx = e.NewContext()
	}
	ctx.Args = proc.Args
	ctx.Stdin = e.Stdin
	ctx.Stdout = e.Stdout
	ctx.Stderr = e.stderr()
	if ctx.Registry == nil {
		ctx.Registry = e.Registry
	}

	proc.finish(fn.Main(ctx))
}

func (e *Engine) forkExec(job *Job, proc *Process, in, out int) {
	path, err := e.lookPath(proc.Name())
	if err != nil {
		fmt.Fprintf(e.stderr(), "psh: %s: command not found\n", proc.Name())
		proc.Pid = -1
		proc.finish(StatusNotFound)
		e.Table.events().CommandNotFound(job, proc)
		return
	}

	pgid := job.Pgid
	if pgid < 0 {
		pgid = 0
	}

	var env []string
	if e.Env != nil {
		env = e.Env()
	}
	attr := &syscall.ProcAttr{
		Env:   env,
		Files: []uintptr{uintptr(in), uintptr(out), e.stderrFd()},
		Sys: &syscall.SysProcAttr{
			Setpgid: true,
			Pgid:    pgid,
		},
	}

	pid, err := syscall.ForkExec(path, proc.Args, attr)
	if err != nil {
		fmt.Fprintf(e.stderr(), "psh: %s: %v\n", proc.Name(), err)
		proc.finish(StatusCannotExec)
		return
	}

	proc.Pid = pid
	leader := job.Pgid < 0
	if leader {
		job.Pgid = pid
	}

	// The child may already have exec'd or exited.
	if err := unix.Setpgid(pid, job.Pgid); err != nil && err != unix.EACCES && err != unix.ESRCH {
		e.Table.diag().Warn("setpgid ", pid, ": ", err)
	}

	// Hand over the terminal before later stages start so the leader can
	// read from it right away.
	if leader && job.Mode == Foreground {
		if err := e.Terminal.Give(job.Pgid); err != nil {
			e.Table.diag().Warn(err)
		}
	}
}

func (e *Engine) stderrFd() uintptr {
	if e.Stderr == nil {
		return 2
	}
	return e.Stderr.Fd()
}

// settle waits for foreground jobs and announces background ones.
func (e *Engine) settle(job *Job) int {
	events := e.Table.events()

	if job.Mode == Background {
		if job.IsCompleted() {
			status := job.ExitCode()
			events.JobFinished(job, status)
			if job.ID >= 0 {
				e.Table.Remove(job.ID)
			}
			return status
		}
		if job.ID >= 0 {
			job.WritePids(e.Table.Out)
		}
		return 0
	}

	if err := e.Terminal.Give(job.Pgid); err != nil {
		e.Table.diag().Warn(err)
	}
	status := e.Table.waitJob(job)
	if job.Pgid > 0 {
		if err := e.Terminal.Reclaim(); err != nil {
			e.Table.diag().Warn(err)
		}
	}

	if status == StatusSuspended {
		events.JobSuspended(job)
		return status
	}

	events.JobFinished(job, status)
	if job.ID >= 0 {
		e.Table.Remove(job.ID)
	}
	return status
}
