package commands

import (
	"fmt"
	"os/exec"

	"github.com/josephlewis42/psh/core/builtins"
)

// Type reports how each name would be run.
func Type(ctx *builtins.Context) int {
	cmd := &SimpleCommand{
		Use:   "type [--color] NAME...",
		Short: "Display information about command type.",
	}
	var colors ColorPrinter
	colors.Init(cmd.Flags(), ctx)

	return cmd.RunEachArg(ctx, func(name string) error {
		if ctx.Registry != nil {
			if _, ok := ctx.Registry.Lookup(name); ok {
				fmt.Fprintf(ctx.Stdout, "%s is a shell builtin\n", name)
				return nil
			}
		}

		path, err := exec.LookPath(name)
		if err != nil {
			return fmt.Errorf("%s: %s", name, colors.Sprintf(ColorBoldRed, "not found"))
		}
		fmt.Fprintf(ctx.Stdout, "%s is %s\n", name, colors.Sprintf(ColorBoldBlue, "%s", path))
		return nil
	})
}

func init() {
	addBuiltin("Display information about command type.", Type, "type")
}
