package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spektr-org/tabula/api"
	"github.com/spektr-org/tabula/assistant"
	"github.com/spektr-org/tabula/helpers"
)

// newAskCmd creates the ask subcommand.
func newAskCmd() *cobra.Command {
	var (
		file   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question about a file",
		Example: `  tabula ask --file jobs.csv "how many jobs in June?"
  tabula ask --file jobs.xlsx "what was the last action at the depot" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			a, err := loadFile(ctx, file)
			if err != nil {
				return err
			}

			out := a.Ask(ctx, strings.Join(args, " "))
			if asJSON {
				return printJSON(cmd.OutOrStdout(), out)
			}
			printOutcome(cmd.OutOrStdout(), out)
			if !out.OK() {
				return out.Err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV, TSV or XLSX file (required)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full outcome as JSON")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// newChatCmd creates the interactive chat subcommand.
func newChatCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions interactively",
		Long: `Chat loads a file and reads questions from standard input until EOF
or "exit". Use ":load <path>" to switch files and ":clear" to unload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a := newAssistant(ctx)
			if file != "" {
				if err := loadInto(ctx, a, file); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Loaded %s (%d records)", file, a.Snapshot().Len())
			}
			return chatLoop(ctx, a, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "file to load before the first question")
	return cmd
}

func chatLoop(ctx context.Context, a *assistant.Assistant, in io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		prompt(w)
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case line == ":clear":
			a.Clear()
			info(w, "Dataset cleared")
		case strings.HasPrefix(line, ":load "):
			path := strings.TrimSpace(strings.TrimPrefix(line, ":load "))
			if err := loadInto(ctx, a, path); err != nil {
				failure(w, "%v", err)
				continue
			}
			success(w, "Loaded %s (%d records)", path, a.Snapshot().Len())
		default:
			printOutcome(w, a.Ask(ctx, line))
		}
	}
}

func loadInto(ctx context.Context, a *assistant.Assistant, path string) error {
	table, err := helpers.ReadFile(path)
	if err != nil {
		return err
	}
	return a.LoadTable(ctx, table)
}

// newInspectCmd creates the inspect subcommand.
func newInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the detected columns of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			snap := a.Snapshot()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), snap.Schema)
			}
			printSchema(cmd.OutOrStdout(), snap.Schema, snap.Index.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the column metadata as JSON")
	return cmd
}

// newServeCmd creates the serve subcommand.
func newServeCmd() *cobra.Command {
	var (
		addr  string
		file  string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve starts the HTTP API. With --file the dataset is loaded at startup;
with --watch it is reloaded whenever the file changes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			if watch && file == "" {
				return errors.New("--watch requires --file")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a := newAssistant(ctx)
			if file != "" {
				if err := loadInto(ctx, a, file); err != nil {
					return err
				}
			}

			watchDone := make(chan error, 1)
			if watch {
				go func() {
					watchDone <- helpers.Watch(ctx, file, func(t helpers.Table, err error) {
						if err != nil {
							logger.Warn().Err(err).Str("path", file).Msg("reload failed; keeping previous dataset")
							return
						}
						if err := a.LoadTable(ctx, t); err != nil {
							logger.Warn().Err(err).Str("path", file).Msg("reload failed; keeping previous dataset")
						}
					}, helpers.WithWatchLogger(logger))
				}()
			} else {
				watchDone <- nil
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.NewRouter(a, cfg.HTTP(), logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				logger.Info().Str("addr", addr).Msg("HTTP server listening")
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				stop()
				<-watchDone
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				logger.Info().Msg("shutdown signal received")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("graceful shutdown failed")
				_ = srv.Close()
			}
			if err := <-watchDone; err != nil {
				logger.Warn().Err(err).Msg("watcher stopped with error")
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "file to load at startup")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the file when it changes")
	return cmd
}
