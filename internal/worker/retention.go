package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fennwick/empath/internal/datalayer"
	"github.com/fennwick/empath/internal/repository"
	"github.com/fennwick/empath/internal/schedule"
)

// RetentionSweep builds a sweep that deletes voice reports older than
// the retention window and removes their archived clips.
func RetentionSweep(reports repository.VoiceReportStore, blobs datalayer.BlobStorage, retention time.Duration) schedule.Sweep {
	return func(ctx context.Context) error {
		cutoff := time.Now().Add(-retention)

		keys, err := reports.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to delete old voice reports: %w", err)
		}

		// A failed removal leaves an orphaned clip, never a dangling row.
		for _, key := range keys {
			if err := blobs.Remove(ctx, key); err != nil {
				slog.Warn(
					"failed to remove archived clip",
					slog.String("objectKey", key),
					slog.Any("error", err),
				)
			}
		}

		if len(keys) > 0 {
			slog.Info("retention sweep removed reports", slog.Int("count", len(keys)))
		}
		return nil
	}
}
