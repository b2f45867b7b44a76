package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	scsv "github.com/7hebel/SuperCSV"
	"github.com/7hebel/SuperCSV/internal/history"
	"github.com/7hebel/SuperCSV/internal/server"
	"github.com/7hebel/SuperCSV/internal/watch"
	"github.com/spf13/cobra"
)

var (
	serveHTTP    string
	serveHistory bool
	serveWatch   bool
	watchEvery   time.Duration

	serveCmd = &cobra.Command{
		Use:   "serve <file>",
		Short: "Serve the document over HTTP with a JSON API and a web viewer",
		Args:  cobra.ExactArgs(1),
		RunE:  runServe,
	}

	watchCmd = &cobra.Command{
		Use:   "watch <file>",
		Short: "Print the document whenever it changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scsv.Open(args[0])
			if err != nil {
				return err
			}
			if err := printTable(os.Stdout, doc); err != nil {
				return err
			}
			return watch.Watch(cmd.Context(), args[0], watchEvery, func() {
				d, err := scsv.Open(args[0])
				if err != nil {
					slog.Warn("Failed to reload document", "err", err)
					return
				}
				if err := printTable(os.Stdout, d); err != nil {
					slog.Warn("Failed to print document", "err", err)
				}
			})
		},
	}
)

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	doc, err := scsv.Open(args[0])
	if err != nil {
		return err
	}
	var hist *history.Store
	if serveHistory {
		hist, err = history.Open(filepath.Dir(doc.Path()))
		if err != nil {
			return err
		}
	}
	srv := server.New(doc, hist)

	if serveWatch {
		go func() {
			err := watch.Watch(ctx, args[0], watchEvery, func() {
				if err := srv.Reload(); err != nil {
					slog.WarnContext(ctx, "Failed to reload document", "err", err)
					return
				}
				slog.InfoContext(ctx, "Document reloaded")
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.WarnContext(ctx, "Document watcher stopped", "err", err)
			}
		}()
	}

	httpServer := &http.Server{
		Addr:        serveHTTP,
		Handler:     srv.Router(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", serveHTTP, "doc", doc.Path())
		serverErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		slog.Info("Server stopped")
	}
	return nil
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTP, "http", "localhost:8080", "Address to listen on")
	serveCmd.Flags().BoolVar(&serveHistory, "history", false, "Record API edits in the document's revision history")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "Reload the document when it changes on disk")
	for _, cmd := range []*cobra.Command{serveCmd, watchCmd} {
		cmd.Flags().DurationVar(&watchEvery, "every", 500*time.Millisecond, "Minimum delay between change reactions")
	}
}
