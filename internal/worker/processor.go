package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fennwick/empath/internal/analyzer"
	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/generator"
	"github.com/fennwick/empath/internal/repository"
)

// Processor turns one job into a persisted voice report.
type Processor struct {
	blobs   datalayer.BlobStorage
	reports repository.VoiceReportStore
	ids     generator.Generator[string]
}

func NewProcessor(
	blobs datalayer.BlobStorage,
	reports repository.VoiceReportStore,
	ids generator.Generator[string],
) *Processor {
	return &Processor{
		blobs:   blobs,
		reports: reports,
		ids:     ids,
	}
}

// Process fetches the archived clip, analyzes it, and persists the
// report. Permanently bad inputs (missing blob, undecodable audio,
// deleted user) are logged and swallowed so the message gets acked;
// a poison clip must not wedge the stream.
func (p *Processor) Process(ctx context.Context, job VoiceAnalysisJob) error {
	data, err := p.blobs.Get(ctx, job.ObjectKey)
	if errors.Is(err, datalayer.ErrBlobNotFound) {
		slog.Warn(
			"voice clip is gone, skipping job",
			slog.String("jobID", job.ID),
			slog.String("objectKey", job.ObjectKey),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to fetch clip %s: %w", job.ObjectKey, err)
	}

	report, err := analyzer.AnalyzeWAV(data)
	if err != nil {
		slog.Warn(
			"voice clip does not decode, skipping job",
			slog.String("jobID", job.ID),
			slog.String("objectKey", job.ObjectKey),
			slog.Any("error", err),
		)
		return nil
	}

	id, err := p.ids.Next()
	if err != nil {
		return fmt.Errorf("failed to generate report id: %w", err)
	}

	err = p.reports.Save(ctx, job.Username, repository.VoiceReport{
		ID:        id,
		ObjectKey: job.ObjectKey,
		PitchHz:   report.PitchHz,
		TempoBPM:  report.TempoBPM,
		Energy:    report.Energy,
		Jitter:    report.Jitter,
		Tremble:   report.Tremble,
	})
	if errors.Is(err, repository.ErrUserNotFound) {
		slog.Warn(
			"user is gone, dropping report",
			slog.String("jobID", job.ID),
			slog.String("username", job.Username),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to persist voice report: %w", err)
	}

	slog.Info(
		"voice report persisted",
		slog.String("jobID", job.ID),
		slog.String("username", job.Username),
		slog.Any("report", report),
	)
	return nil
}
