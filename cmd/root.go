package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/Moonlight-Companies/gologger/coloransi"
	gologger "github.com/Moonlight-Companies/gologger/logger"
	"github.com/josephlewis42/psh/core"
	"github.com/josephlewis42/psh/core/config"
	"github.com/josephlewis42/psh/core/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	command  string
	debug    bool
	exitCode int
)

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".psh"
	}
	return filepath.Join(home, ".psh")
}

func newStderrLog(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "psh: ", 0)
}

// loadConfig reads the configuration, falling back to the built in one if
// init was never run.
func loadConfig(logger *log.Logger) (*config.Configuration, error) {
	configuration, err := config.Load(afero.NewOsFs(), cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Printf("no configuration in %s, using defaults (run init to create one)", cfgPath)
		return config.Default(), nil
	}
	return configuration, err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "psh",
	Short: "A small job control shell",
	Long: `A small interactive shell with pipelines, redirection and job control.

Without -c, lines are read from standard input. If standard input is a
terminal the shell is interactive and manages foreground and background jobs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		stderrLog := newStderrLog(cmd)
		configuration, err := loadConfig(stderrLog)
		if err != nil {
			return err
		}

		opts := core.Options{Config: configuration}
		if debug {
			opts.Diagnostics = gologger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "psh"))
		}

		eventLog, err := configuration.OpenEventLog()
		switch {
		case err == nil:
			defer eventLog.Close()
			opts.Events = logger.NewJsonLinesLogRecorder(eventLog)
		case errors.Is(err, config.ErrNotConfigured):
		default:
			stderrLog.Printf("not recording events: %v", err)
		}

		shell, err := core.NewShell(opts)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("command") {
			exitCode = shell.RunCommand(command)
		} else {
			exitCode = shell.Run()
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
	os.Exit(exitCode)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "config path")
	rootCmd.Flags().StringVarP(&command, "command", "c", "", "run a single line and exit with its status")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log job control decisions to stderr")
}
