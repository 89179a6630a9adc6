package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// VoiceReport is a persisted prosody report. Feature fields are nil when
// the feature could not be measured from the clip.
type VoiceReport struct {
	ID        string
	ObjectKey string
	PitchHz   *float64
	TempoBPM  *float64
	Energy    *float64
	Jitter    *float64
	Tremble   string
	CreatedAt time.Time
}

// VoiceReportStore persists worker-produced voice reports.
type VoiceReportStore interface {
	Save(ctx context.Context, username string, report VoiceReport) error
	ListByUsername(ctx context.Context, username string) ([]VoiceReport, error)
	// DeleteOlderThan removes reports created before the cutoff and
	// returns the object keys of their archived clips.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

type PostgresVoiceReportRepository struct {
	db *pgxpool.Pool
}

var _ VoiceReportStore = (*PostgresVoiceReportRepository)(nil)

func NewPostgresVoiceReportRepository(db *pgxpool.Pool) *PostgresVoiceReportRepository {
	return &PostgresVoiceReportRepository{db: db}
}

func (r *PostgresVoiceReportRepository) Save(ctx context.Context, username string, report VoiceReport) error {
	const query = `
	INSERT INTO voice_reports (id, user_id, object_key, pitch_hz, tempo_bpm, energy, jitter, tremble)
	SELECT $1, u.id, $2, $3, $4, $5, $6, $7
	FROM users u
	WHERE u.username = $8
	`

	tag, err := r.db.Exec(
		ctx,
		query,
		report.ID,
		report.ObjectKey,
		report.PitchHz,
		report.TempoBPM,
		report.Energy,
		report.Jitter,
		report.Tremble,
		username,
	)
	if err != nil {
		return fmt.Errorf("failed to insert voice report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresVoiceReportRepository) ListByUsername(ctx context.Context, username string) ([]VoiceReport, error) {
	const query = `
	SELECT v.id, v.object_key, v.pitch_hz, v.tempo_bpm, v.energy, v.jitter, v.tremble, v.created_at
	FROM voice_reports v
	JOIN users u ON u.id = v.user_id
	WHERE u.username = $1
	ORDER BY v.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query voice reports: %w", err)
	}
	defer rows.Close()

	var reports []VoiceReport
	for rows.Next() {
		var report VoiceReport
		err := rows.Scan(
			&report.ID,
			&report.ObjectKey,
			&report.PitchHz,
			&report.TempoBPM,
			&report.Energy,
			&report.Jitter,
			&report.Tremble,
			&report.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan voice report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read voice reports: %w", err)
	}
	return reports, nil
}

func (r *PostgresVoiceReportRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	const query = `
	DELETE FROM voice_reports
	WHERE created_at < $1
	RETURNING object_key
	`

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to delete voice reports: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan object key: %w", err)
		}
		if key != "" {
			keys = append(keys, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read object keys: %w", err)
	}
	return keys, nil
}
