// Package worker moves archived voice clips through the analysis
// pipeline: the server enqueues jobs onto a Redis stream and the worker
// consumes them, analyzes the clip, and persists the report.
package worker

import (
	"fmt"
	"time"
)

// VoiceAnalysisJob asks the worker to analyze one archived clip.
type VoiceAnalysisJob struct {
	ID          string
	Username    string
	ObjectKey   string
	RequestedAt time.Time
}

func jobValues(job VoiceAnalysisJob) map[string]any {
	return map[string]any{
		"id":          job.ID,
		"username":    job.Username,
		"objectKey":   job.ObjectKey,
		"requestedAt": job.RequestedAt.Format(time.RFC3339),
	}
}

func jobFromValues(values map[string]any) (VoiceAnalysisJob, error) {
	var job VoiceAnalysisJob

	for key, dst := range map[string]*string{
		"id":        &job.ID,
		"username":  &job.Username,
		"objectKey": &job.ObjectKey,
	} {
		s, ok := values[key].(string)
		if !ok || s == "" {
			return VoiceAnalysisJob{}, fmt.Errorf("job message is missing %s", key)
		}
		*dst = s
	}

	raw, ok := values["requestedAt"].(string)
	if !ok {
		return VoiceAnalysisJob{}, fmt.Errorf("job message is missing requestedAt")
	}
	requestedAt, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return VoiceAnalysisJob{}, fmt.Errorf("failed to parse requestedAt: %w", err)
	}
	job.RequestedAt = requestedAt

	return job, nil
}
