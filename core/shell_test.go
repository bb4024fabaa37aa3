package core

import (
	"bytes"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/josephlewis42/psh/core/config"
	"github.com/josephlewis42/psh/core/jobs"
	"github.com/josephlewis42/psh/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type shellFixture struct {
	shell  *Shell
	dir    string
	stdout *os.File
	stderr *os.File
	events *bytes.Buffer
}

func newShellFixture(t *testing.T, input string) *shellFixture {
	t.Helper()
	dir := t.TempDir()

	inPath := filepath.Join(dir, "stdin")
	require.NoError(t, os.WriteFile(inPath, []byte(input), 0644))
	stdin, err := os.Open(inPath)
	require.NoError(t, err)
	stdout, err := os.Create(filepath.Join(dir, "stdout"))
	require.NoError(t, err)
	stderr, err := os.Create(filepath.Join(dir, "stderr"))
	require.NoError(t, err)
	t.Cleanup(func() {
		stdin.Close()
		stdout.Close()
		stderr.Close()
	})

	events := &bytes.Buffer{}
	sh, err := NewShell(Options{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		Events: logger.NewJsonLinesLogRecorder(events),
	})
	require.NoError(t, err)

	return &shellFixture{shell: sh, dir: dir, stdout: stdout, stderr: stderr, events: events}
}

func readFile(t *testing.T, f *os.File) string {
	t.Helper()
	out, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return string(out)
}

func (fx *shellFixture) entries(t *testing.T) []*logger.LogEntry {
	t.Helper()
	var out []*logger.LogEntry
	require.NoError(t, logger.ReadJSONLinesLog(fx.events, func(le *logger.LogEntry) {
		out = append(out, le)
	}))
	return out
}

func TestNewShell_Defaults(t *testing.T) {
	sh, err := NewShell(Options{})
	require.NoError(t, err)

	assert.Equal(t, config.Default().MaxJobs, sh.Table.MaxJobs())
	assert.False(t, sh.Parser.KeepUnmatchedGlobs)
	assert.Equal(t, os.Stdout, sh.Engine.Stdout)
	assert.NotEmpty(t, sh.Events.SessionID())

	for _, name := range []string{"echo", "cd", "exit", "jobs"} {
		_, ok := sh.Registry.Lookup(name)
		assert.True(t, ok, name)
	}
}

func TestNewShell_Config(t *testing.T) {
	cfg := config.Default()
	cfg.MaxJobs = 3
	cfg.GlobNoMatch = config.GlobLiteral

	sh, err := NewShell(Options{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t, 3, sh.Table.MaxJobs())
	assert.True(t, sh.Parser.KeepUnmatchedGlobs)
}

func TestShell_RunLineRedirect(t *testing.T) {
	fx := newShellFixture(t, "")
	out := filepath.Join(fx.dir, "out.txt")

	assert.Equal(t, 0, fx.shell.RunLine("echo hello > "+out))
	assert.Equal(t, 0, fx.shell.RunLine("echo again >>"+out))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello\nagain\n", string(got))
	assert.Empty(t, readFile(t, fx.stdout))
}

func TestShell_RunLineParseError(t *testing.T) {
	fx := newShellFixture(t, "")

	assert.Equal(t, 1, fx.shell.RunLine("echo hi |"))
	assert.Equal(t, 1, fx.shell.LastStatus())
	assert.Contains(t, readFile(t, fx.stderr), "psh: ")

	entries := fx.entries(t)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].ParseError)
	assert.Equal(t, "echo hi |", entries[0].ParseError.Line)
	assert.Equal(t, fx.shell.Events.SessionID(), entries[0].SessionID)
}

func TestShell_RunLineEmpty(t *testing.T) {
	fx := newShellFixture(t, "")

	assert.Equal(t, 0, fx.shell.RunLine("   "))
	assert.Empty(t, fx.entries(t))
}

func TestShell_Exit(t *testing.T) {
	fx := newShellFixture(t, "")

	exited, _ := fx.shell.Exited()
	assert.False(t, exited)

	assert.Equal(t, 3, fx.shell.RunLine("exit 3"))
	exited, code := fx.shell.Exited()
	assert.True(t, exited)
	assert.Equal(t, 3, code)
}

func TestShell_RunCommandNotFound(t *testing.T) {
	fx := newShellFixture(t, "")

	assert.Equal(t, 127, fx.shell.RunCommand("psh-no-such-command --flag"))
	assert.Contains(t, readFile(t, fx.stderr), "psh: psh-no-such-command: command not found")

	var unknown *logger.UnknownCommand
	for _, le := range fx.entries(t) {
		if le.UnknownCommand != nil {
			unknown = le.UnknownCommand
		}
	}
	require.NotNil(t, unknown)
	assert.Equal(t, []string{"psh-no-such-command", "--flag"}, unknown.Command)
}

func TestShell_RunCommandExternal(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	fx := newShellFixture(t, "")

	assert.Equal(t, 0, fx.shell.RunCommand("echo piped | /bin/sh -c cat"))
	assert.Equal(t, "piped\n", readFile(t, fx.stdout))

	var started, finished int
	for _, le := range fx.entries(t) {
		switch {
		case le.SessionStarted != nil:
			assert.False(t, le.SessionStarted.Interactive)
		case le.JobStarted != nil:
			started++
			assert.Equal(t, [][]string{{"echo", "piped"}, {"/bin/sh", "-c", "cat"}}, le.JobStarted.Commands)
		case le.JobFinished != nil:
			finished++
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, finished)
}

func TestShell_RunScript(t *testing.T) {
	fx := newShellFixture(t, "echo a\n\necho b | cat\nexit 5\necho never\n")

	assert.Equal(t, 5, fx.shell.Run())
	assert.Equal(t, "a\nb\n", readFile(t, fx.stdout))
}

func TestShell_RunScriptStatus(t *testing.T) {
	fx := newShellFixture(t, "echo a\npsh-no-such-command")

	assert.Equal(t, 127, fx.shell.Run())
	assert.Equal(t, "a\n", readFile(t, fx.stdout))
}

func TestExitStatus(t *testing.T) {
	cases := map[int]int{
		0:                     0,
		3:                     3,
		256:                   0,
		jobs.StatusNotFound:   127,
		jobs.StatusSuspended:  128 + int(unix.SIGTSTP),
		-7:                    1,
		jobs.StatusCannotExec: 126,
	}

	for status, want := range cases {
		assert.Equal(t, want, ExitStatus(status), status)
	}
}

func TestShell_Prompt(t *testing.T) {
	home, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	sub := filepath.Join(home, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(sub))
	t.Cleanup(func() { os.Chdir(prev) })

	t.Setenv(EnvHome, home)
	t.Setenv(EnvUser, "alice")
	t.Setenv(EnvPrompt, "")

	cfg := config.Default()
	cfg.Prompt = `\u [\w] \$ `
	sh, err := NewShell(Options{Config: cfg})
	require.NoError(t, err)

	sign := "$"
	if os.Geteuid() == 0 {
		sign = "#"
	}
	assert.Equal(t, "alice [~/sub] "+sign+" ", sh.Prompt())

	t.Setenv(EnvPrompt, `\u> `)
	assert.Equal(t, "alice> ", sh.Prompt())
}

func TestShell_PromptHost(t *testing.T) {
	t.Setenv(EnvPrompt, `\h`)
	host, err := os.Hostname()
	require.NoError(t, err)

	sh, err := NewShell(Options{})
	require.NoError(t, err)

	assert.Equal(t, strings.Split(host, ".")[0], sh.Prompt())
}

func TestLineReader(t *testing.T) {
	r := &lineReader{r: strings.NewReader("first\n\nlast")}

	for _, want := range []string{"first", "", "last"} {
		line, err := r.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, line)
	}

	_, err := r.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineReader_LeavesRest(t *testing.T) {
	src := strings.NewReader("one\ntwo\n")
	r := &lineReader{r: src}

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "one", line)

	rest, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "two\n", string(rest))
}

func TestShell_BuiltinCatIntoPipe(t *testing.T) {
	if _, err := exec.LookPath("wc"); err != nil {
		t.Skip("wc not available")
	}
	fx := newShellFixture(t, "")

	big := filepath.Join(fx.dir, "big.txt")
	require.NoError(t, os.WriteFile(big, bytes.Repeat([]byte("0123456789\n"), 20000), 0644))

	done := make(chan int, 1)
	go func() { done <- fx.shell.RunLine("cat " + big + " | wc -c") }()

	select {
	case status := <-done:
		assert.Equal(t, 0, status)
	case <-time.After(10 * time.Second):
		t.Fatal("cat into a pipe did not finish")
	}
	assert.Equal(t, "220000", strings.TrimSpace(readFile(t, fx.stdout)))
}
