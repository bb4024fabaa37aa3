package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()

	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
}

func TestCat(t *testing.T) {
	cases := goldenTestSuite{
		"file":       {Args: []string{"cat", "/etc/motd"}},
		"many":       {Args: []string{"cat", "/etc/motd", "/tmp/a.txt"}},
		"stdin":      {Args: []string{"cat"}, Stdin: "from stdin\n"},
		"stdin-dash": {Args: []string{"cat", "/tmp/a.txt", "-"}, Stdin: "b\n"},
	}

	cases.Run(t, Cat)
}

func TestCat_Missing(t *testing.T) {
	ctx, out := testContext(t, "", "cat", "/nope", "/etc/motd")

	assert.Equal(t, 1, Cat(ctx))
	assert.Contains(t, out.String(), "cat: open /nope")
	assert.Contains(t, out.String(), "welcome\n")
}

func TestCat_BadFlag(t *testing.T) {
	ctx, out := testContext(t, "", "cat", "--bogus")

	assert.Equal(t, 1, Cat(ctx))
	assert.Contains(t, out.String(), "error: ")
	assert.Contains(t, out.String(), "usage: cat [OPTION]... [FILE]...")
}

func TestHelp(t *testing.T) {
	cases := goldenTestSuite{
		"all":     {Args: []string{"help"}},
		"one":     {Args: []string{"help", "cd"}},
		"unknown": {Args: []string{"help", "ls"}},
	}

	cases.Run(t, Help)
}

func TestJobs(t *testing.T) {
	ctx, out := testContext(t, "", "jobs")

	assert.Equal(t, 0, Jobs(ctx))
	assert.Equal(t, "[0]\t4242\trunning\tsleep 10\n", out.String())

	ctx, out = testContext(t, "", "jobs")
	ctx.Jobs = nil
	assert.Equal(t, 0, Jobs(ctx))
	assert.Empty(t, out.String())
}

func TestExit(t *testing.T) {
	cases := map[string]struct {
		args   []string
		status int
		called bool
	}{
		"default":     {args: []string{"exit"}, status: 0, called: true},
		"code":        {args: []string{"exit", "3"}, status: 3, called: true},
		"wraps":       {args: []string{"exit", "257"}, status: 1, called: true},
		"non-numeric": {args: []string{"exit", "abc"}, status: 2, called: true},
		"too-many":    {args: []string{"exit", "1", "2"}, status: 1, called: false},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ctx, _ := testContext(t, "", tc.args...)
			exitCode := -1
			ctx.Exit = func(code int) { exitCode = code }

			assert.Equal(t, tc.status, Exit(ctx))
			if tc.called {
				assert.Equal(t, tc.status, exitCode)
			} else {
				assert.Equal(t, -1, exitCode)
			}
		})
	}
}

func TestExit_NoHandler(t *testing.T) {
	ctx, _ := testContext(t, "", "exit", "4")

	assert.Equal(t, 4, Exit(ctx))
}

func TestExport(t *testing.T) {
	t.Setenv("PSH_EXPORT_A", "")
	os.Unsetenv("PSH_EXPORT_A")
	t.Setenv("PSH_EXPORT_B", "kept")

	ctx, out := testContext(t, "", "export", "PSH_EXPORT_A=1", "PSH_EXPORT_B", "1BAD=x")
	assert.Equal(t, 1, Export(ctx))
	assert.Contains(t, out.String(), "`1BAD=x': not a valid identifier")

	assert.Equal(t, "1", os.Getenv("PSH_EXPORT_A"))
	assert.Equal(t, "kept", os.Getenv("PSH_EXPORT_B"))
}

func TestExport_List(t *testing.T) {
	t.Setenv("PSH_EXPORT_LIST", "a b")

	ctx, out := testContext(t, "", "export")
	assert.Equal(t, 0, Export(ctx))
	assert.Contains(t, out.String(), "export PSH_EXPORT_LIST=\"a b\"\n")
}

func TestUnset(t *testing.T) {
	t.Setenv("PSH_UNSET_ME", "x")

	ctx, out := testContext(t, "", "unset", "-v", "PSH_UNSET_ME")
	assert.Equal(t, 0, Unset(ctx))
	assert.Empty(t, out.String())

	_, ok := os.LookupEnv("PSH_UNSET_ME")
	assert.False(t, ok)

	ctx, out = testContext(t, "", "unset", "bad-name")
	assert.Equal(t, 1, Unset(ctx))
	assert.Contains(t, out.String(), "unset: `bad-name': not a valid identifier")
}

func TestValidName(t *testing.T) {
	for _, name := range []string{"A", "_", "a1", "PATH", "_x_Y_2"} {
		assert.True(t, validName(name), name)
	}
	for _, name := range []string{"", "1a", "a-b", "a=b", "a b"} {
		assert.False(t, validName(name), name)
	}
}

func TestCd(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	sub := filepath.Join(base, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	chdir(t, base)
	t.Setenv(EnvHome, base)
	t.Setenv(EnvPWD, base)
	t.Setenv(EnvOldPWD, "")

	ctx, out := testContext(t, "", "cd", "sub")
	require.Equal(t, 0, Cd(ctx), out.String())
	wd, _ := os.Getwd()
	assert.Equal(t, sub, wd)
	assert.Equal(t, sub, os.Getenv(EnvPWD))
	assert.Equal(t, base, os.Getenv(EnvOldPWD))

	ctx, out = testContext(t, "", "cd", "-")
	require.Equal(t, 0, Cd(ctx))
	assert.Equal(t, base+"\n", out.String())
	wd, _ = os.Getwd()
	assert.Equal(t, base, wd)

	chdir(t, sub)
	ctx, _ = testContext(t, "", "cd")
	require.Equal(t, 0, Cd(ctx))
	wd, _ = os.Getwd()
	assert.Equal(t, base, wd)
}

func TestCd_Errors(t *testing.T) {
	t.Setenv(EnvHome, "")
	t.Setenv(EnvOldPWD, "")

	cases := map[string][]string{
		"HOME not set":       {"cd"},
		"OLDPWD not set":     {"cd", "-"},
		"too many arguments": {"cd", "a", "b"},
		"no such file":       {"cd", "/definitely/not/a/dir"},
	}

	for want, args := range cases {
		t.Run(want, func(t *testing.T) {
			ctx, out := testContext(t, "", args...)
			assert.Equal(t, 1, Cd(ctx))
			assert.Contains(t, out.String(), want)
		})
	}
}

func TestPwd(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	chdir(t, dir)

	ctx, out := testContext(t, "", "pwd")
	assert.Equal(t, 0, Pwd(ctx))
	assert.Equal(t, dir+"\n", out.String())
}

func TestType(t *testing.T) {
	ctx, out := testContext(t, "", "type", "echo", "cd")
	assert.Equal(t, 0, Type(ctx))
	assert.Equal(t, "echo is a shell builtin\ncd is a shell builtin\n", out.String())

	ctx, out = testContext(t, "", "type", "psh-no-such-command")
	assert.Equal(t, 1, Type(ctx))
	assert.Equal(t, "type: psh-no-such-command: not found\n", out.String())
}

func TestType_External(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "psh-tool")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0755))
	t.Setenv("PATH", dir)

	ctx, out := testContext(t, "", "type", "psh-tool")
	assert.Equal(t, 0, Type(ctx))
	assert.Equal(t, "psh-tool is "+tool+"\n", out.String())
}
