package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/psh/core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestBuiltinsCommand(t *testing.T) {
	out, err := runRoot(t, "builtins")
	require.NoError(t, err)

	assert.Contains(t, out, "echo    Display a line of text.\n")
	assert.Contains(t, out, "jobs    Display status of jobs.\n")
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "psh")

	out, err := runRoot(t, "init", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+filepath.Join(dir, config.ConfigurationName))

	out, err = runRoot(t, "init", "--config", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
}

func TestLogsReport(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "events.log")
	log := `{"timestamp_micros":1,"session_id":"a","job_started":{"job_id":0,"command":"sleep 5","mode":"background","commands":[["sleep","5"]]}}
{"timestamp_micros":2,"session_id":"a","unknown_command":{"command":["sl"],"status":-255}}
`
	require.NoError(t, os.WriteFile(logPath, []byte(log), 0600))

	out, err := runRoot(t, "logs", "report", logPath)
	require.NoError(t, err)
	assert.Contains(t, out, "log_entries: 2")
	assert.Contains(t, out, "sleep: 1")
	assert.Contains(t, out, "background: 1")

	out, err = runRoot(t, "logs", "sessions", logPath)
	require.NoError(t, err)
	assert.Contains(t, out, "a:")
	assert.Contains(t, out, "log_entries: 2")
}

func TestLogsReport_Missing(t *testing.T) {
	_, err := runRoot(t, "logs", "report", filepath.Join(t.TempDir(), "nope.log"))
	assert.Error(t, err)
}
