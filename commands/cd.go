package commands

import (
	"fmt"
	"os"

	"github.com/josephlewis42/psh/core/builtins"
)

const (
	EnvHome   = "HOME"
	EnvPWD    = "PWD"
	EnvOldPWD = "OLDPWD"
)

// Cd is the cd shell builtin.
func Cd(ctx *builtins.Context) int {
	cmd := &SimpleCommand{
		Use:   "cd [DIR]",
		Short: "Change the shell working directory.",
	}

	return cmd.Run(ctx, func() int {
		args := cmd.Flags().Args()

		var dir string
		switch len(args) {
		case 0:
			dir = os.Getenv(EnvHome)
			if dir == "" {
				fmt.Fprintln(ctx.Stderr, "cd: HOME not set")
				return 1
			}
		case 1:
			dir = args[0]
			if dir == "-" {
				dir = os.Getenv(EnvOldPWD)
				if dir == "" {
					fmt.Fprintln(ctx.Stderr, "cd: OLDPWD not set")
					return 1
				}
				fmt.Fprintln(ctx.Stdout, dir)
			}
		default:
			fmt.Fprintln(ctx.Stderr, "cd: too many arguments")
			return 1
		}

		prev, _ := os.Getwd()
		if err := os.Chdir(dir); err != nil {
			fmt.Fprintf(ctx.Stderr, "cd: %v\n", err)
			return 1
		}

		if wd, err := os.Getwd(); err == nil {
			os.Setenv(EnvPWD, wd)
		}
		os.Setenv(EnvOldPWD, prev)
		return 0
	})
}

func init() {
	addBuiltin("Change the shell working directory.", Cd, "cd")
}
