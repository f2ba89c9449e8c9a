// Package cmd provides the root command and CLI setup for panomirror.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

// logger is configured by the root command before any subcommand runs.
var logger *slog.Logger

var logLevelFlag string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panomirror",
		Short: "Make a captured panorama viewer servable offline",
		Long: `panomirror post-processes a directory tree captured from the kujiale
panorama viewer. It rewrites CDN references in text files to root-relative
paths, downloads the render tiles those files point at (including every cube
face and resized or cropped variant) and writes an entry page redirecting to
the captured design.

The finished tree can be served with "panomirror serve".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnvFiles(); err != nil {
				return err
			}

			level := envOr(envLogLevel, logLevelFlag)
			if cmd.Flags().Changed("log-level") {
				level = logLevelFlag
			}
			lvl, err := parseLogLevel(level)
			if err != nil {
				return err
			}

			logger = newLogger(cmd.ErrOrStderr(), lvl)
			slog.SetDefault(logger)
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "log level (debug, info, warn, error)")

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    !isTTY(w),
	}))
}

func currentLogger() *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// isTTY reports whether w is an interactive terminal.
func isTTY(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}

	fileInfo, err := file.Stat()
	if err != nil {
		return false
	}

	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
