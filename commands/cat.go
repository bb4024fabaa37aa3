package commands

import (
	"io"

	"github.com/josephlewis42/psh/core/builtins"
	"github.com/spf13/afero"
)

// Cat implements the UNIX cat command.
func Cat(ctx *builtins.Context) int {
	cmd := &SimpleCommand{
		Use:   "cat [OPTION]... [FILE]...",
		Short: "Concatenate FILE(s) to standard output.",
	}

	fs := ctx.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	if len(ctx.Args) <= 1 {
		ctx.Args = append(ctx.Args, "-")
	}

	return cmd.RunEachArg(ctx, func(arg string) error {
		if arg == "-" {
			_, err := io.Copy(ctx.Stdout, ctx.Stdin)
			return err
		}

		fd, err := fs.Open(arg)
		if err != nil {
			return err
		}
		defer fd.Close()

		_, err = io.Copy(ctx.Stdout, fd)
		return err
	})
}

func init() {
	addBuiltin("Concatenate files to standard output.", Cat, "cat")
}
