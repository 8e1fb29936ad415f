package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"resume-formatter/internal/queue"
	"resume-formatter/resume/service"
)

type enqueueOptions struct {
	templateKey string
	outputKey   string
	runID       string
	mimeType    string
}

func newEnqueueCmd(root *rootOptions) *cobra.Command {
	opts := &enqueueOptions{}
	cmd := &cobra.Command{
		Use:   "enqueue <input-key>...",
		Short: "Queue stored resumes for the worker",
		Long:  "Sends one format job per input key to FORMAT_QUEUE_URL. Jobs in one call share a run ID.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnqueue(cmd, root, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.templateKey, "template-key", "", "Object store key of the DOCX template (required)")
	cmd.Flags().StringVar(&opts.outputKey, "output-key", "", "Output key, only valid with a single input")
	cmd.Flags().StringVar(&opts.runID, "run-id", "", "Run identifier (default: generated)")
	cmd.Flags().StringVar(&opts.mimeType, "mime", "", "Input MIME type (default: from key extension)")
	if err := cmd.MarkFlagRequired("template-key"); err != nil {
		panic(fmt.Sprintf("failed to mark template-key flag as required: %v", err))
	}
	return cmd
}

func runEnqueue(cmd *cobra.Command, root *rootOptions, opts *enqueueOptions, inputKeys []string) error {
	if opts.outputKey != "" && len(inputKeys) > 1 {
		return errors.New("--output-key needs exactly one input key")
	}

	app, err := buildApp(cmd.Context(), root, true)
	if err != nil {
		return err
	}
	defer app.Close()
	if app.Queue == nil {
		return errors.New("FORMAT_QUEUE_URL is not configured")
	}

	runID := opts.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	msgs, err := buildJobs(runID, opts, inputKeys, time.Now().UTC())
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if err := app.Queue.Send(cmd.Context(), msg); err != nil {
			return fmt.Errorf("enqueue %s: %w", msg.InputKey, err)
		}
	}
	return writeJSON(cmd.OutOrStdout(), msgs)
}

func buildJobs(runID string, opts *enqueueOptions, inputKeys []string, now time.Time) ([]queue.Message, error) {
	msgs := make([]queue.Message, 0, len(inputKeys))
	for _, key := range inputKeys {
		outputKey := opts.outputKey
		if outputKey == "" {
			var err error
			outputKey, err = service.DefaultOutputKey(runID, key)
			if err != nil {
				return nil, err
			}
		}
		msg := queue.Message{
			JobID:       uuid.NewString(),
			RunID:       runID,
			InputKey:    key,
			TemplateKey: opts.templateKey,
			OutputKey:   outputKey,
			MimeType:    opts.mimeType,
			RequestID:   uuid.NewString(),
			EnqueuedAt:  now.Format(time.RFC3339),
			Version:     queue.CurrentVersion,
		}
		if err := msg.Validate(); err != nil {
			return nil, fmt.Errorf("job for %q: %w", key, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
