package commands

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/josephlewis42/psh/core/builtins"
)

// Export sets environment variables inherited by external commands.
func Export(ctx *builtins.Context) int {
	cmd := &SimpleCommand{
		Use:   "export [NAME[=VALUE] ...]",
		Short: "Set export attribute for shell variables.",
	}

	return cmd.Run(ctx, func() int {
		args := cmd.Flags().Args()
		if len(args) == 0 {
			env := os.Environ()
			sort.Strings(env)
			for _, envDef := range env {
				name, value, _ := strings.Cut(envDef, "=")
				fmt.Fprintf(ctx.Stdout, "export %s=%q\n", name, value)
			}
			return 0
		}

		status := 0
		for _, arg := range args {
			name, value, hasValue := strings.Cut(arg, "=")
			if !validName(name) {
				fmt.Fprintf(ctx.Stderr, "export: `%s': not a valid identifier\n", arg)
				status = 1
				continue
			}
			if !hasValue {
				// Exporting an unset name has nothing to pass on.
				value = os.Getenv(name)
			}
			os.Setenv(name, value)
		}
		return status
	})
}

// Unset removes environment variables.
func Unset(ctx *builtins.Context) int {
	cmd := &SimpleCommand{
		Use:   "unset [-fvn] [NAME...]",
		Short: "Unset shell values and functions.",
	}

	opts := cmd.Flags()
	opts.Bool('f', "treat NAME as a function")
	opts.Bool('v', "treat NAME as a variable")
	opts.Bool('n', "treat NAME as a reference")

	return cmd.RunEachArg(ctx, func(name string) error {
		if !validName(name) {
			return fmt.Errorf("`%s': not a valid identifier", name)
		}
		return os.Unsetenv(name)
	})
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

func init() {
	addBuiltin("Set export attribute for shell variables.", Export, "export")
	addBuiltin("Unset shell values and functions.", Unset, "unset")
}
