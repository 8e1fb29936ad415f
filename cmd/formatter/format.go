package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"resume-formatter/internal/shared/util"
	"resume-formatter/resume/render"
	"resume-formatter/resume/service"
)

type formatOptions struct {
	template  string
	out       string
	mimeType  string
	dumpModel string
}

func newFormatCmd(root *rootOptions) *cobra.Command {
	opts := &formatOptions{}
	cmd := &cobra.Command{
		Use:   "format <resume>",
		Short: "Format one resume into a template",
		Long:  "Extracts and classifies the resume, fills the template's sections and prints the status report as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFormat(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "Path to the DOCX template (required)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output DOCX path (default: <resume>.formatted.docx next to the input)")
	cmd.Flags().StringVar(&opts.mimeType, "mime", "", "Input MIME type (default: from file extension)")
	cmd.Flags().StringVar(&opts.dumpModel, "dump-model", "", "Write the structured resume JSON to this path")
	if err := cmd.MarkFlagRequired("template"); err != nil {
		panic(fmt.Sprintf("failed to mark template flag as required: %v", err))
	}
	return cmd
}

func runFormat(cmd *cobra.Command, root *rootOptions, opts *formatOptions, inputPath string) error {
	templateData, err := os.ReadFile(opts.template)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	template, err := render.LoadDocument(templateData)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	app, err := buildApp(cmd.Context(), root, true)
	if err != nil {
		return err
	}
	defer app.Close()

	res := app.Pipeline.Process(cmd.Context(), template, service.Input{
		Name:     filepath.Base(inputPath),
		Data:     data,
		MimeType: opts.mimeType,
	})

	if opts.dumpModel != "" {
		if err := writeFile(opts.dumpModel, res.Resume); err != nil {
			return err
		}
	}
	if res.Report.Success {
		outPath := opts.out
		if outPath == "" {
			name, err := util.OutputName(filepath.Base(inputPath))
			if err != nil {
				return err
			}
			outPath = filepath.Join(filepath.Dir(inputPath), name)
		}
		if err := writeBytes(outPath, res.Output); err != nil {
			return err
		}
	}

	if err := writeJSON(cmd.OutOrStdout(), res.Report); err != nil {
		return err
	}
	if !res.Report.Success {
		return fmt.Errorf("format %s: %s", inputPath, res.Report.FailureReason)
	}
	return nil
}

func writeBytes(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func writeFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return writeJSON(f, v)
}
