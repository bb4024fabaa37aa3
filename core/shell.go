package core

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/user"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/psh/commands"
	"github.com/josephlewis42/psh/core/builtins"
	"github.com/josephlewis42/psh/core/config"
	"github.com/josephlewis42/psh/core/jobs"
	"github.com/josephlewis42/psh/core/logger"
	"github.com/josephlewis42/psh/core/shell"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

const (
	EnvHome   = "HOME"
	EnvUser   = "USER"
	EnvPrompt = "PS1"

	DefaultPrompt = `\u@\h:\w\$ `
)

// Options configures a Shell. Zero values fall back to the process's
// standard files, the built in configuration and no event log.
type Options struct {
	Config *config.Configuration

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Diagnostics receives debug output from the job table and engine.
	Diagnostics jobs.Diagnostics
	// Events receives job lifecycle events.
	Events *logger.Logger
}

// Shell holds everything that lives as long as the interpreter.
type Shell struct {
	Config   *config.Configuration
	Registry *builtins.Registry
	Parser   *shell.Parser
	Table    *jobs.Table
	Engine   *jobs.Engine
	Terminal *jobs.Terminal
	Events   *logger.SessionLogger

	stdin  *os.File
	stdout *os.File
	stderr *os.File
	diag   jobs.Diagnostics
	fs     afero.Fs

	exitRequested bool
	exitCode      int
	lastStatus    int
}

// NewShell wires a registry of every builtin, a parser, a job table and an
// engine together.
func NewShell(opts Options) (*Shell, error) {
	s := &Shell{
		Config: opts.Config,
		stdin:  opts.Stdin,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		diag:   opts.Diagnostics,
		fs:     afero.NewOsFs(),
	}
	if s.Config == nil {
		s.Config = config.Default()
	}
	if s.stdin == nil {
		s.stdin = os.Stdin
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.stderr == nil {
		s.stderr = os.Stderr
	}
	if s.diag == nil {
		s.diag = nopDiagnostics{}
	}

	events := opts.Events
	if events == nil {
		events = logger.NewNopLogger()
	}
	s.Events = events.NewSession()

	registry, err := commands.NewRegistry()
	if err != nil {
		return nil, err
	}
	s.Registry = registry

	s.Parser = shell.NewParser(registry, s.fs)
	s.Parser.KeepUnmatchedGlobs = s.Config.KeepUnmatchedGlobs()

	s.Terminal = jobs.OpenTerminal(s.stdin)

	s.Table = jobs.NewTable(s.Config.MaxJobs, s.stderr)
	s.Table.Color = s.Config.UseColor(s.Terminal.Interactive())
	s.Table.Diag = s.diag
	s.Table.Events = &eventRecorder{log: s.Events, diag: s.diag}

	s.Engine = jobs.NewEngine(registry, s.Table)
	s.Engine.Terminal = s.Terminal
	s.Engine.Stdin = s.stdin
	s.Engine.Stdout = s.stdout
	s.Engine.Stderr = s.stderr
	s.Engine.NewContext = s.newContext

	return s, nil
}

type nopDiagnostics struct{}

func (nopDiagnostics) Debugln(...interface{}) {}
func (nopDiagnostics) Warn(...interface{})    {}

func (s *Shell) newContext() *builtins.Context {
	return &builtins.Context{
		Fs:       s.fs,
		Registry: s.Registry,
		Jobs:     s.Table,
		Exit:     s.requestExit,
	}
}

func (s *Shell) requestExit(code int) {
	s.exitRequested = true
	s.exitCode = code
}

// Exited reports whether the exit builtin ran and the status it asked for.
func (s *Shell) Exited() (bool, int) {
	return s.exitRequested, s.exitCode
}

// LastStatus is the status of the most recent line.
func (s *Shell) LastStatus() int {
	return s.lastStatus
}

// RunLine parses and executes a single line, returning its status. Lines that
// fail to parse print an error and have status 1.
func (s *Shell) RunLine(line string) int {
	job, err := s.Parser.Build(line)
	if err != nil {
		fmt.Fprintf(s.stderr, "psh: %v\n", err)
		if err := s.Events.Record(&logger.ParseError{Line: line, Error: err.Error()}); err != nil {
			s.diag.Warn("recording event:", err)
		}
		s.lastStatus = 1
		return s.lastStatus
	}

	status, err := s.Engine.Execute(job)
	if err != nil {
		s.diag.Debugln("executing", job.Command, "failed:", err)
	}
	s.lastStatus = status
	return status
}

// ExitStatus converts a job status to a process exit code.
func ExitStatus(status int) int {
	switch {
	case status == jobs.StatusNotFound:
		return 127
	case status == jobs.StatusSuspended:
		return 128 + int(unix.SIGTSTP)
	case status < 0:
		return 1
	default:
		return status & 0xff
	}
}

// Run reads and executes lines until input ends or exit is called. It returns
// the shell's exit code.
func (s *Shell) Run() int {
	s.recordSessionStart()
	if !s.Terminal.Interactive() {
		return s.runLines(&lineReader{r: s.stdin})
	}

	if err := s.Terminal.Claim(); err != nil {
		fmt.Fprintf(s.stderr, "psh: %v\n", err)
		return 1
	}
	defer s.Terminal.Release()

	stdin := newGatedStdin(int(s.stdin.Fd()))
	rl, err := readline.NewEx(&readline.Config{
		Stdin:          stdin,
		Stdout:         s.stdout,
		Stderr:         s.stderr,
		HistoryFile:    s.Config.HistoryPath(),
		FuncIsTerminal: s.Terminal.Interactive,
	})
	if err != nil {
		fmt.Fprintf(s.stderr, "psh: %v\n", err)
		return 1
	}
	defer rl.Close()

	for {
		s.Table.ReapAvailable()

		rl.SetPrompt(s.Prompt())
		stdin.Open()
		line, err := rl.Readline()
		stdin.Shut()

		switch {
		case errors.Is(err, io.EOF):
			return ExitStatus(s.lastStatus)

		case errors.Is(err, readline.ErrInterrupt):
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			return 1
		}

		s.RunLine(line)
		if s.exitRequested {
			return s.exitCode
		}
	}
}

// RunCommand executes line non-interactively and returns the exit code.
func (s *Shell) RunCommand(line string) int {
	s.recordSessionStart()

	status := s.RunLine(line)
	if s.exitRequested {
		return s.exitCode
	}
	return ExitStatus(status)
}

func (s *Shell) runLines(r *lineReader) int {
	for {
		line, err := r.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fmt.Fprintf(s.stderr, "psh: %v\n", err)
			}
			return ExitStatus(s.lastStatus)
		}

		s.RunLine(line)
		if s.exitRequested {
			return s.exitCode
		}
	}
}

func (s *Shell) recordSessionStart() {
	err := s.Events.Record(&logger.SessionStarted{
		Pid:         os.Getpid(),
		Interactive: s.Terminal.Interactive(),
	})
	if err != nil {
		s.diag.Warn("recording event:", err)
	}
}

// Prompt expands the configured prompt. PS1 in the environment overrides it.
//
//	\u  user name
//	\h  host name up to the first '.'
//	\w  working directory with $HOME shown as ~
//	\$  '#' for root, '$' otherwise
func (s *Shell) Prompt() string {
	prompt := os.Getenv(EnvPrompt)
	if prompt == "" {
		prompt = s.Config.Prompt
	}
	if prompt == "" {
		prompt = DefaultPrompt
	}

	prompt = strings.ReplaceAll(prompt, `\u`, username())

	host, _ := os.Hostname()
	host, _, _ = strings.Cut(host, ".")
	prompt = strings.ReplaceAll(prompt, `\h`, host)

	pwd, _ := os.Getwd()
	if home := os.Getenv(EnvHome); home != "" && strings.HasPrefix(pwd, home) {
		pwd = "~" + strings.TrimPrefix(pwd, home)
	}
	prompt = strings.ReplaceAll(prompt, `\w`, pwd)

	if os.Geteuid() == 0 {
		prompt = strings.ReplaceAll(prompt, `\$`, "#")
	} else {
		prompt = strings.ReplaceAll(prompt, `\$`, "$")
	}

	return prompt
}

func username() string {
	if name := os.Getenv(EnvUser); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}
