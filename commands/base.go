package commands

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/josephlewis42/psh/core/builtins"
	"github.com/mattn/go-isatty"
	getopt "github.com/pborman/getopt/v2"
)

// BuiltinCommand describes a builtin and the names it is installed under.
type BuiltinCommand struct {
	Names []string
	Short string
	Proc  builtins.Builtin
}

var allBuiltins []BuiltinCommand

// addBuiltin registers fn to be installed by Register.
func addBuiltin(short string, fn builtins.BuiltinFunc, names ...string) {
	allBuiltins = append(allBuiltins, BuiltinCommand{
		Names: names,
		Short: short,
		Proc:  fn,
	})
}

// ListBuiltinCommands returns every builtin sorted by its first name.
func ListBuiltinCommands() []BuiltinCommand {
	out := make([]BuiltinCommand, len(allBuiltins))
	copy(out, allBuiltins)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Names[0] < out[j].Names[0]
	})
	return out
}

// Describe returns the one line description of the builtin called name.
func Describe(name string) (string, bool) {
	for _, cmd := range allBuiltins {
		for _, n := range cmd.Names {
			if n == name {
				return cmd.Short, true
			}
		}
	}
	return "", false
}

// Register installs every builtin into reg.
func Register(reg *builtins.Registry) error {
	for _, cmd := range allBuiltins {
		for _, name := range cmd.Names {
			if err := reg.Insert(name, cmd.Proc); err != nil {
				return fmt.Errorf("registering %q: %w", name, err)
			}
		}
	}
	return nil
}

// NewRegistry creates a registry holding every builtin.
func NewRegistry() (*builtins.Registry, error) {
	reg := builtins.NewRegistry()
	if err := Register(reg); err != nil {
		return nil, err
	}
	return reg, nil
}

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a sone line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail skips interacting with stdout/stderr on failure and
	// always runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was succcessful call the callback.
func (s *SimpleCommand) Run(ctx *builtins.Context, callback func() int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(ctx.Args, nil)
	if err != nil && !s.NeverBail {
		fmt.Fprintf(ctx.Stderr, "error: %s\n\n", err)

		s.PrintHelp(ctx.Stdout)
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(ctx.Stdout)
		return 0
	}

	return callback()
}

// RunEachArg runs the callback for every positional argument. Errors are
// reported and turn the status to 1 but do not stop later arguments.
func (s *SimpleCommand) RunEachArg(ctx *builtins.Context, callback func(string) error) int {
	return s.Run(ctx, func() int {
		anyFailed := false
		for _, arg := range s.Flags().Args() {
			if err := callback(arg); err != nil {
				fmt.Fprintf(ctx.Stderr, "%s: %v\n", ctx.Args[0], err)
				anyFailed = true
			}
		}

		if anyFailed {
			return 1
		}
		return 0
	})
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

type ColorPrinter struct {
	value *string
	out   io.Writer
}

// Init sets up the flag and output to determine the color output.
func (c *ColorPrinter) Init(flags *getopt.Set, ctx *builtins.Context) {
	c.out = ctx.Stdout
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	default:
		f, ok := c.out.(*os.File)
		return ok && isatty.IsTerminal(f.Fd())
	}
}

func (c *ColorPrinter) Sprintf(color *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		color.EnableColor()
		return color.Sprintf(format, a...)
	}
	return fmt.Sprintf(format, a...)
}
