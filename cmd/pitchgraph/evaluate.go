package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aescanero/pitchgraph/internal/application/orchestrator"
	"github.com/aescanero/pitchgraph/internal/config"
	"github.com/aescanero/pitchgraph/internal/domain"
	"github.com/aescanero/pitchgraph/pkg/adapters/metrics/prometheus"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type evaluateOptions struct {
	transcript string
	media      string
	deck       string
	target     string
	context    string
	output     string
}

func newEvaluateCommand() *cobra.Command {
	opts := &evaluateOptions{}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one pitch locally and print the report as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return evaluate(cmd.Context(), cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.transcript, "transcript", "", "transcript text file, or - for stdin")
	flags.StringVar(&opts.media, "media", "", "audio or video file to transcribe")
	flags.StringVar(&opts.deck, "deck", "", "PDF deck")
	flags.StringVar(&opts.target, "target", "", "who the pitch is aimed at")
	flags.StringVar(&opts.context, "context", "", "free-text context for the agents")
	flags.StringVarP(&opts.output, "output", "o", "", "write the report to this file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("transcript", "media")

	return cmd
}

func evaluate(ctx context.Context, cfg *config.Config, opts *evaluateOptions, stdin io.Reader, stdout io.Writer) error {
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	payload, err := opts.payload(stdin)
	if err != nil {
		return err
	}
	if err := orchestrator.NewValidator(0).Validate(payload); err != nil {
		return err
	}

	// Metrics are recorded but not exposed for a one-shot run.
	metricsCollector := prometheus.NewCollector(promclient.NewRegistry())

	wf, err := buildWorkflow(cfg, metricsCollector, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeoutCause(ctx, cfg.Timeouts.JobTimeout, domain.ErrJobTimeout)
	defer cancel()

	report, err := wf.Execute(ctx, payload)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	logger.Info("evaluation complete",
		zap.Int("overall_score", report.Combine.Summary.OverallScore),
		zap.Int("warnings", len(report.Warnings)))

	out := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// payload builds the job payload from the command flags.
func (o *evaluateOptions) payload(stdin io.Reader) (*domain.Payload, error) {
	p := &domain.Payload{
		Context:  o.context,
		Target:   o.target,
		Metadata: map[string]any{"source": "cli"},
	}

	switch o.transcript {
	case "":
	case "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript from stdin: %w", err)
		}
		p.Transcript = string(data)
	default:
		data, err := os.ReadFile(o.transcript)
		if err != nil {
			return nil, fmt.Errorf("failed to read transcript: %w", err)
		}
		p.Transcript = string(data)
	}

	if o.media != "" {
		p.Media = &domain.Upload{Path: o.media, Filename: filepath.Base(o.media)}
	}
	if o.deck != "" {
		p.Deck = &domain.Upload{Path: o.deck, Filename: filepath.Base(o.deck), ContentType: "application/pdf"}
	}
	return p, nil
}
