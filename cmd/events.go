package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/josephlewis42/psh/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"events"},
	Short:   "Explore the job event log.",
}

var reportCommand = &cobra.Command{
	Use:   "report [FILE]",
	Short: "Show a report of events.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		report := logger.NewReport()
		if err := readEventLog(cmd, args, report.Update); err != nil {
			return err
		}

		return printYAML(cmd.OutOrStdout(), report)
	},
}

var sessionsCommand = &cobra.Command{
	Use:   "sessions [FILE]",
	Short: "Show a report of events grouped by shell session.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var report logger.SessionReport
		if err := readEventLog(cmd, args, report.Update); err != nil {
			return err
		}

		return printYAML(cmd.OutOrStdout(), &report)
	},
}

// readEventLog feeds every entry of the named file, or the configured event
// log if no file is given, to handler.
func readEventLog(cmd *cobra.Command, args []string, handler func(*logger.LogEntry)) error {
	var fd io.ReadCloser
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		fd = f
	} else {
		configuration, err := loadConfig(newStderrLog(cmd))
		if err != nil {
			return err
		}
		f, err := configuration.ReadEventLog()
		if err != nil {
			return fmt.Errorf("opening event log: %w", err)
		}
		fd = f
	}
	defer fd.Close()

	return logger.ReadJSONLinesLog(fd, handler)
}

func printYAML(w io.Writer, v interface{}) error {
	out, err := yaml.Marshal(v)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, string(out))
	return nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(sessionsCommand)
}
