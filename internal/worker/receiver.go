package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	receiveBlock = 5 * time.Second
	receiveCount = 10
)

// RedisJobReceiver consumes analysis jobs from a Redis stream through a
// consumer group, so multiple workers can share one stream.
type RedisJobReceiver struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
}

func NewRedisJobReceiver(client *redis.Client, stream, group, consumer string) (*RedisJobReceiver, error) {
	err := client.XGroupCreateMkStream(context.Background(), stream, group, "$").Err()
	if err != nil && err != redis.Nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return nil, err
	}

	return &RedisJobReceiver{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: consumer,
	}, nil
}

// Receive reads one batch of jobs and hands each to handle. Handled and
// malformed messages are acked; failed ones are left pending for
// redelivery. A quiet stream is not an error.
func (r *RedisJobReceiver) Receive(ctx context.Context, handle func(ctx context.Context, job VoiceAnalysisJob) error) error {
	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, ">"},
		Count:    receiveCount,
		Block:    receiveBlock,
	}).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read job stream: %w", err)
	}

	for _, stream := range streams {
		for _, message := range stream.Messages {
			job, err := jobFromValues(message.Values)
			if err != nil {
				slog.Warn(
					"dropping malformed job message",
					slog.String("messageID", message.ID),
					slog.Any("error", err),
				)
			} else if err := handle(ctx, job); err != nil {
				slog.Error(
					"failed to handle job",
					slog.String("jobID", job.ID),
					slog.Any("error", err),
				)
				continue
			}

			if err := r.client.XAck(ctx, r.stream, r.group, message.ID).Err(); err != nil {
				return fmt.Errorf("failed to ack message %s: %w", message.ID, err)
			}
		}
	}
	return nil
}
