package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"resume-analyzer/internal/analyses"
	"resume-analyzer/internal/bootstrap"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/shared/config"
)

// newLLMClient is replaced in tests.
var newLLMClient = func(ctx context.Context, cfg config.Config) (llm.Client, error) {
	return bootstrap.BuildLLM(ctx, cfg)
}

type analyzeOptions struct {
	resumePath string
	jobPath    string
	outPath    string
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a resume against a job description",
		Long:  "Extracts the resume text, sends it with the job description to the configured LLM once, and prints the analysis.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.resumePath, "resume", "r", "", "Path to the resume (PDF or DOCX)")
	cmd.Flags().StringVarP(&opts.jobPath, "job", "j", "", "Path to the job description text, or - for stdin")
	cmd.Flags().StringVarP(&opts.outPath, "out", "o", "", "Write the analysis to this file, e.g. "+analyses.DownloadFileName)
	_ = cmd.MarkFlagRequired("resume")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	resume, err := os.ReadFile(opts.resumePath)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}
	jobDescription, err := readJob(cmd.InOrStdin(), opts.jobPath)
	if err != nil {
		return err
	}

	cfg := config.Load()
	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		return err
	}
	svc := &analyses.Service{
		Repo:     analyses.NewMemoryRepo(),
		LLM:      client,
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
	}

	doc, err := svc.ExtractResume(ctx, analyses.Upload{FileName: filepath.Base(opts.resumePath), Data: resume})
	if err != nil {
		return err
	}
	analysis, err := svc.Analyze(ctx, analyses.Input{ResumeText: doc.Text, JobDescription: jobDescription})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analysis.MatchScore != nil {
		fmt.Fprintf(out, "Match Score: %d%%\n\n", *analysis.MatchScore)
	}
	fmt.Fprintln(out, analysis.Result)

	if opts.outPath != "" {
		if err := os.WriteFile(opts.outPath, []byte(analysis.Result), 0o644); err != nil {
			return fmt.Errorf("failed to write analysis: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "analysis written to %s\n", opts.outPath)
	}
	return nil
}

func readJob(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if strings.TrimSpace(path) == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read job description: %w", err)
	}
	return string(data), nil
}
