package commands

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephlewis42/psh/core/builtins"
	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllCommands(t *testing.T) {
	for _, cmdEntry := range ListBuiltinCommands() {
		t.Run(strings.Join(cmdEntry.Names, ","), func(t *testing.T) {
			if cmdEntry.Proc == nil {
				t.Fatal("nil command", cmdEntry.Names)
			}
			if cmdEntry.Short == "" {
				t.Fatal("missing description", cmdEntry.Names)
			}
		})
	}
}

func TestListBuiltinCommands_Sorted(t *testing.T) {
	var names []string
	for _, cmd := range ListBuiltinCommands() {
		names = append(names, cmd.Names[0])
	}

	assert.IsIncreasing(t, names)
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	assert.Equal(t, len(allBuiltins), reg.Len())
	for _, name := range []string{"cd", "exit", "echo", "jobs"} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, name)
	}

	_, ok := reg.Lookup("ls")
	assert.False(t, ok)
}

func TestRegister_Twice(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)

	require.NoError(t, Register(reg))
	assert.Equal(t, len(allBuiltins), reg.Len())
}

func TestDescribe(t *testing.T) {
	short, ok := Describe("echo")
	assert.True(t, ok)
	assert.Equal(t, "Display a line of text.", short)

	_, ok = Describe("not-a-builtin")
	assert.False(t, ok)
}

type fakeJobs string

func (f fakeJobs) PrintJobs(w io.Writer) {
	fmt.Fprint(w, string(f))
}

// testContext builds a context writing stdout and stderr to the same buffer.
func testContext(t *testing.T, stdin string, args ...string) (*builtins.Context, *bytes.Buffer) {
	t.Helper()

	reg, err := NewRegistry()
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/motd", []byte("welcome\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "/tmp/a.txt", []byte("a\n"), 0644))

	var out bytes.Buffer
	return &builtins.Context{
		Args:     args,
		Stdin:    strings.NewReader(stdin),
		Stdout:   &out,
		Stderr:   &out,
		Fs:       fs,
		Registry: reg,
		Jobs:     fakeJobs("[0]\t4242\trunning\tsleep 10\n"),
	}, &out
}

type goldenTestSuite map[string]goldenTest

type goldenTest struct {
	Args  []string
	Stdin string
}

func (gts goldenTestSuite) Run(t *testing.T, cmd builtins.BuiltinFunc) {
	t.Helper()

	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	for tn, tc := range gts {
		t.Run(tn, func(t *testing.T) {
			ctx, out := testContext(t, tc.Stdin, tc.Args...)
			status := cmd(ctx)
			fmt.Fprintf(out, "[status: %d]\n", status)

			g.Assert(t, tn, out.Bytes())
		})
	}
}
