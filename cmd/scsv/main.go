// Package main is the entry point for the scsv command line tool.
//
// scsv inspects, edits and serves SuperCSV documents: CSV files that carry
// their column types in a header block above the grid. Every cell is decoded
// through its column's type, so a document round-trips between its text form
// and typed values without guessing.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	ll       = &slog.LevelVar{}

	rootCmd = &cobra.Command{
		Use:           "scsv",
		Short:         "Inspect, edit and serve SuperCSV documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch logLevel {
			case "debug":
				ll.Set(slog.LevelDebug)
			case "info":
			case "warn":
				ll.Set(slog.LevelWarn)
			case "error":
				ll.Set(slog.LevelError)
			default:
				return fmt.Errorf("unknown log level: %q", logLevel)
			}
			return nil
		},
	}
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "scsv: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()
	initLogger()
	return rootCmd.ExecuteContext(ctx)
}

func initLogger() {
	ll.Set(slog.LevelInfo)
	// Skip timestamps when running under systemd (it adds its own).
	underSystemd := os.Getenv("JOURNAL_STREAM") != ""
	logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
		Level:      ll,
		TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Drop time when running under systemd.
			if underSystemd && a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			val := a.Value.Any()
			skip := false
			switch t := val.(type) {
			case string:
				skip = t == ""
			case bool:
				skip = !t
			case uint64:
				skip = t == 0
			case int64:
				skip = t == 0
			case float64:
				skip = t == 0
			case time.Time:
				skip = t.IsZero()
			case time.Duration:
				skip = t == 0
			case nil:
				skip = true
			}
			if skip {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(schemaCmd)

	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(appendCmd)
	rootCmd.AddCommand(rmCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)

	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(catCmd)
}
