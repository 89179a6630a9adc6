package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobEnqueuer hands analysis jobs to the worker fleet.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, jobs ...VoiceAnalysisJob) error
}

// RedisJobEnqueuer appends jobs to a Redis stream.
type RedisJobEnqueuer struct {
	client *redis.Client
	stream string
}

var _ JobEnqueuer = (*RedisJobEnqueuer)(nil)

func NewRedisJobEnqueuer(client *redis.Client, stream string) *RedisJobEnqueuer {
	return &RedisJobEnqueuer{client: client, stream: stream}
}

func (e *RedisJobEnqueuer) Enqueue(ctx context.Context, jobs ...VoiceAnalysisJob) error {
	_, err := e.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, job := range jobs {
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: e.stream,
				Values: jobValues(job),
			})
		}
		return nil
	})
	return err
}

// PrintingJobEnqueuer logs jobs instead of queueing them (dry runs).
type PrintingJobEnqueuer struct{}

var _ JobEnqueuer = (*PrintingJobEnqueuer)(nil)

func (e *PrintingJobEnqueuer) Enqueue(ctx context.Context, jobs ...VoiceAnalysisJob) error {
	for _, job := range jobs {
		slog.InfoContext(
			ctx,
			"Enqueueing voice analysis job",
			slog.String("jobID", job.ID),
			slog.String("username", job.Username),
			slog.String("objectKey", job.ObjectKey),
			slog.String("requestedAt", job.RequestedAt.Format(time.RFC3339)),
		)
	}
	return nil
}

// MemoryJobEnqueuer collects jobs for tests.
type MemoryJobEnqueuer struct {
	Jobs []VoiceAnalysisJob
}

var _ JobEnqueuer = (*MemoryJobEnqueuer)(nil)

func NewMemoryJobEnqueuer() *MemoryJobEnqueuer {
	return &MemoryJobEnqueuer{}
}

func (e *MemoryJobEnqueuer) Enqueue(_ context.Context, jobs ...VoiceAnalysisJob) error {
	e.Jobs = append(e.Jobs, jobs...)
	return nil
}
