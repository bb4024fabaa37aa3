package commands

import (
	"fmt"
	"strconv"

	"github.com/josephlewis42/psh/core/builtins"
)

// Exit quits the shell once the current line finishes.
func Exit(ctx *builtins.Context) int {
	cmd := &SimpleCommand{
		Use:   "exit [N]",
		Short: "Exit the shell with a status of N.",
	}

	return cmd.Run(ctx, func() int {
		code := 0
		switch args := cmd.Flags().Args(); len(args) {
		case 0:
		case 1:
			n, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(ctx.Stderr, "exit: %s: numeric argument required\n", args[0])
				code = 2
				break
			}
			code = n & 0xff
		default:
			fmt.Fprintln(ctx.Stderr, "exit: too many arguments")
			return 1
		}

		if ctx.Exit != nil {
			ctx.Exit(code)
		}
		return code
	})
}

func init() {
	addBuiltin("Exit the shell.", Exit, "exit")
}
