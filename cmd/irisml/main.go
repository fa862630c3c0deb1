// Command irisml trains and applies softmax classifiers on delimited tables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/irisml/config"
	"github.com/YuminosukeSato/irisml/pkg/errors"
	"github.com/YuminosukeSato/irisml/pkg/log"
)

func main() {
	if err := run(newRootCommand()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// run executes root and turns a panic anywhere in the command tree into a PanicError.
func run(root *cobra.Command) error {
	return errors.SafeExecute("irisml", root.Execute)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "irisml",
		Short:         "Softmax classification pipeline for tabular data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "configuration file path (yaml, toml or json)")
	root.PersistentFlags().String("log-level", config.GetDefaultConfig().Log.Level, "log level: debug, info, warn or error")
	root.PersistentFlags().String("log-path", "", "also write logs to this rotated file")

	root.AddCommand(newTrainCommand(), newPredictCommand(), newVersionCommand())
	return root
}

// loadConfig resolves the configuration of cmd and installs the logger.
// Logs go to stderr so that tables on stdout stay readable.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := log.SetupLogger(log.Options{
		Level:  cfg.Log.Level,
		Path:   cfg.Log.Path,
		Stdout: cmd.ErrOrStderr(),
		Stderr: cmd.ErrOrStderr(),
	}); err != nil {
		return nil, err
	}
	if path != "" {
		log.GetLoggerWithName("cli").Debug("Config loaded", log.PathKey, path)
	}
	return cfg, nil
}

// addDataFlags registers the flags describing the input table.
func addDataFlags(cmd *cobra.Command) {
	d := config.GetDefaultConfig().Data
	cmd.Flags().String("data", d.Path, "input CSV file")
	cmd.Flags().String("label-column", d.LabelColumn, "label column (default: last column)")
	cmd.Flags().StringSlice("drop-columns", d.DropColumns, "columns to ignore, e.g. a row id")
	cmd.Flags().String("delimiter", d.Delimiter.String(), `field separator, a single character or "tab"`)
}
