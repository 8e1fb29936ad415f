// Package main provides the resume formatter command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"resume-formatter/internal/bootstrap"
	"resume-formatter/internal/shared/config"
)

type rootOptions struct {
	taxonomyPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "formatter",
		Short:         "Resume formatter",
		Long:          "Formatter reads resumes in PDF, DOCX or plain text and writes them into a DOCX template, keeping the template's styling.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.taxonomyPath, "taxonomy", "", "Path to a section taxonomy JSON file (default: embedded)")

	cmd.AddCommand(
		newFormatCmd(opts),
		newBatchCmd(opts),
		newEnqueueCmd(opts),
		newReportsCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildApp loads configuration, including .env files, and wires the app.
func buildApp(ctx context.Context, opts *rootOptions, skipDB bool) (*bootstrap.App, error) {
	cfg := config.Load()
	app, err := bootstrap.Build(ctx, cfg, bootstrap.BuildOptions{TaxonomyPath: opts.taxonomyPath, SkipDB: skipDB})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return app, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
