package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resume-formatter/internal/shared/util"
	"resume-formatter/resume/service"
)

type batchOptions struct {
	template    string
	templateKey string
	prefix      string
	out         string
	runID       string
	concurrency int
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch [resume...]",
		Short: "Format many resumes against one template",
		Long: "Formats local files against --template, or every object under --prefix in the " +
			"configured object store against --template-key. Prints the run's status reports as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "Path to the DOCX template for local files")
	cmd.Flags().StringVar(&opts.templateKey, "template-key", "", "Object store key of the DOCX template")
	cmd.Flags().StringVar(&opts.prefix, "prefix", "", "Object store prefix holding the resumes")
	cmd.Flags().StringVarP(&opts.out, "out", "o", ".", "Output directory for local files")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "Run identifier (default: generated)")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 0, "Files formatted in parallel (default: BATCH_CONCURRENCY)")
	return cmd
}

func runBatch(cmd *cobra.Command, root *rootOptions, opts *batchOptions, args []string) error {
	remote := opts.prefix != "" || opts.templateKey != ""
	switch {
	case remote && len(args) > 0:
		return errors.New("pass either local files or --prefix, not both")
	case remote && (opts.prefix == "" || opts.templateKey == ""):
		return errors.New("--prefix and --template-key are required together")
	case !remote && len(args) == 0:
		return errors.New("no resumes given")
	case !remote && opts.template == "":
		return errors.New("--template is required for local files")
	}

	ctx := cmd.Context()
	app, err := buildApp(ctx, root, !remote)
	if err != nil {
		return err
	}
	defer app.Close()

	batchOpts := service.BatchOptions{Concurrency: opts.concurrency, RunID: opts.runID}
	if batchOpts.Concurrency <= 0 {
		batchOpts.Concurrency = app.BatchConcurrency()
	}

	var result service.BatchResult
	if remote {
		result, err = app.Jobs.RunPrefix(ctx, opts.templateKey, opts.prefix, batchOpts)
		if err != nil {
			return err
		}
	} else {
		result, err = runLocalBatch(cmd, app.Pipeline, opts, args, batchOpts)
		if err != nil {
			return err
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), result.Reports()); err != nil {
		return err
	}
	if failed := len(result.Results) - result.Succeeded(); failed > 0 {
		return fmt.Errorf("%d of %d resumes failed", failed, len(result.Results))
	}
	return nil
}

func runLocalBatch(cmd *cobra.Command, pipeline *service.Pipeline, opts *batchOptions, paths []string, batchOpts service.BatchOptions) (service.BatchResult, error) {
	templateData, err := os.ReadFile(opts.template)
	if err != nil {
		return service.BatchResult{}, fmt.Errorf("failed to read template: %w", err)
	}

	inputs := make([]service.Input, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return service.BatchResult{}, fmt.Errorf("failed to read resume: %w", err)
		}
		inputs = append(inputs, service.Input{Name: filepath.Base(path), Data: data})
	}

	result, err := pipeline.RunBatch(cmd.Context(), templateData, inputs, batchOpts)
	if err != nil {
		return result, err
	}
	for _, res := range result.Results {
		if !res.Report.Success {
			continue
		}
		name, err := util.OutputName(res.Report.File)
		if err != nil {
			return result, err
		}
		if err := writeBytes(filepath.Join(opts.out, name), res.Output); err != nil {
			return result, err
		}
	}
	return result, nil
}
