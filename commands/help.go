package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/josephlewis42/psh/core/builtins"
)

// Help lists the builtins installed in the shell.
func Help(ctx *builtins.Context) int {
	cmd := &SimpleCommand{
		Use:   "help [--color] [NAME...]",
		Short: "Display information about builtin commands.",
	}
	var colors ColorPrinter
	colors.Init(cmd.Flags(), ctx)

	return cmd.Run(ctx, func() int {
		names := cmd.Flags().Args()
		if len(names) == 0 && ctx.Registry != nil {
			names = ctx.Registry.Names()
		}

		tw := tabwriter.NewWriter(ctx.Stdout, 0, 8, 2, ' ', 0)
		defer tw.Flush()

		status := 0
		for _, name := range names {
			short, ok := Describe(name)
			if ctx.Registry != nil {
				if _, found := ctx.Registry.Lookup(name); !found {
					ok = false
				}
			}
			if !ok {
				fmt.Fprintf(ctx.Stderr, "help: no help topics match `%s'\n", name)
				status = 1
				continue
			}
			fmt.Fprintf(tw, "%s\t%s\n", colors.Sprintf(ColorBoldGreen, "%s", name), short)
		}
		return status
	})
}

func init() {
	addBuiltin("Display information about builtin commands.", Help, "help")
}
