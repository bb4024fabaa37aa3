package commands

import (
	"github.com/josephlewis42/psh/core/builtins"
)

// Jobs lists the jobs tracked by the shell.
func Jobs(ctx *builtins.Context) int {
	cmd := &SimpleCommand{
		Use:   "jobs",
		Short: "Display status of jobs.",
	}

	return cmd.Run(ctx, func() int {
		if ctx.Jobs != nil {
			ctx.Jobs.PrintJobs(ctx.Stdout)
		}
		return 0
	})
}

func init() {
	addBuiltin("Display status of jobs.", Jobs, "jobs")
}
