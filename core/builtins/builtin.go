// Package builtins holds the contract for commands that run inside the shell
// process and the table used to find them by name.
package builtins

import (
	"io"

	"github.com/spf13/afero"
)

// JobLister prints the shell's tracked jobs.
type JobLister interface {
	PrintJobs(w io.Writer)
}

// Context is handed to a builtin for a single invocation.
type Context struct {
	// Args holds the argument vector, including the command name as Args[0].
	Args []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Fs is the filesystem builtins that touch files should use.
	Fs afero.Fs

	// Registry is the table the builtin was dispatched from.
	Registry *Registry

	// Jobs is nil when no job table is attached.
	Jobs JobLister

	// Exit asks the shell to quit after the current line.
	Exit func(code int)
}

// Builtin is a command implemented inside the shell.
type Builtin interface {
	Main(ctx *Context) int
}

// BuiltinFunc adapts a function to the Builtin interface.
type BuiltinFunc func(ctx *Context) int

// Main implements Builtin.Main.
func (f BuiltinFunc) Main(ctx *Context) int {
	return f(ctx)
}

var _ Builtin = (BuiltinFunc)(nil)

// isNil reports whether fn holds no callable function.
func isNil(fn Builtin) bool {
	if fn == nil {
		return true
	}
	if f, ok := fn.(BuiltinFunc); ok && f == nil {
		return true
	}
	return false
}
