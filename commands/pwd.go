package commands

import (
	"fmt"
	"os"

	"github.com/josephlewis42/psh/core/builtins"
)

// Pwd implements the pwd builtin.
func Pwd(ctx *builtins.Context) int {
	cmd := &SimpleCommand{
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
	}

	return cmd.Run(ctx, func() int {
		pwd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(ctx.Stderr, "pwd: %v\n", err)
			return 1
		}
		fmt.Fprintln(ctx.Stdout, pwd)

		return 0
	})
}

func init() {
	addBuiltin("Print the name of the current working directory.", Pwd, "pwd")
}
