// Package commands implements the trouped CLI: small workloads that
// exercise the troupe actor runtime end to end, with the same logging
// bring-up a real host program would use.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btclog"
	btclogv2 "github.com/btcsuite/btclog/v2"
	"github.com/spf13/cobra"

	"github.com/roasbeef/troupe"
	"github.com/roasbeef/troupe/config"
	"github.com/roasbeef/troupe/internal/build"
)

// logFilename is the file the daemon logs to under the configured log
// directory.
const logFilename = "trouped.log"

var (
	// configPath points at an optional YAML config file.
	configPath string

	// logLevel overrides the configured log level when non-empty.
	logLevel string

	// logDir overrides the configured log directory when non-empty.
	logDir string

	// cfg is the loaded configuration, populated before any workload
	// runs.
	cfg *config.Config

	// logRotator is non-nil when file logging is active; closed after
	// the workload finishes.
	logRotator *build.RotatingWriter
)

// rootCmd is the base command for the demo daemon.
var rootCmd = &cobra.Command{
	Use:   "trouped",
	Short: "Demo workloads for the troupe actor runtime",
	Long: `trouped runs self-contained workloads on the troupe actor system:
a generational spawn chain and a message echo loop. It exists to exercise
the runtime under realistic logging and configuration.`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		if logDir != "" {
			cfg.Log.Dir = logDir
		}

		return setupLogging()
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logRotator != nil {
			_ = logRotator.Close()
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// setupLogging points the runtime's logger at the console and, when a
// log directory is configured, at a rotating file as well.
func setupLogging() error {
	out := io.Writer(os.Stderr)

	if cfg.Log.Dir != "" {
		rw, err := build.NewRotatingWriter(
			cfg.Log.Dir, logFilename,
			cfg.Log.MaxFiles, cfg.Log.MaxFileSize,
		)
		if err != nil {
			return fmt.Errorf("init log rotator: %w", err)
		}

		logRotator = rw
		out = io.MultiWriter(os.Stderr, rw)
	}

	handler := btclogv2.NewDefaultHandler(out)

	level, ok := btclog.LevelFromString(cfg.Log.Level)
	if !ok {
		return fmt.Errorf("unknown log level %q", cfg.Log.Level)
	}
	handler.SetLevel(level)

	troupe.UseLogger(btclogv2.NewSLogger(handler))

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "",
		"Path to a YAML config file (optional)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "",
		"Override the configured log level",
	)
	rootCmd.PersistentFlags().StringVar(
		&logDir, "log-dir", "",
		"Override the configured log directory",
	)

	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(echoCmd)
	rootCmd.AddCommand(versionCmd)
}
