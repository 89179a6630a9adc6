package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EmailAnalysis is a persisted LLM tone analysis of one email body.
type EmailAnalysis struct {
	ID        string
	EmailBody string
	Analysis  string
	CreatedAt time.Time
}

// EmailAnalysisStore persists email analyses.
type EmailAnalysisStore interface {
	Save(ctx context.Context, username string, analysis EmailAnalysis) error
	ListByUsername(ctx context.Context, username string) ([]EmailAnalysis, error)
}

type PostgresEmailAnalysisRepository struct {
	db *pgxpool.Pool
}

var _ EmailAnalysisStore = (*PostgresEmailAnalysisRepository)(nil)

func NewPostgresEmailAnalysisRepository(db *pgxpool.Pool) *PostgresEmailAnalysisRepository {
	return &PostgresEmailAnalysisRepository{db: db}
}

func (r *PostgresEmailAnalysisRepository) Save(ctx context.Context, username string, analysis EmailAnalysis) error {
	const query = `
	INSERT INTO email_analyses (id, user_id, email_body, analysis)
	SELECT $1, u.id, $2, $3
	FROM users u
	WHERE u.username = $4
	`

	tag, err := r.db.Exec(ctx, query, analysis.ID, analysis.EmailBody, analysis.Analysis, username)
	if err != nil {
		return fmt.Errorf("failed to insert email analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresEmailAnalysisRepository) ListByUsername(ctx context.Context, username string) ([]EmailAnalysis, error) {
	const query = `
	SELECT a.id, a.email_body, a.analysis, a.created_at
	FROM email_analyses a
	JOIN users u ON u.id = a.user_id
	WHERE u.username = $1
	ORDER BY a.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query email analyses: %w", err)
	}
	defer rows.Close()

	var analyses []EmailAnalysis
	for rows.Next() {
		var analysis EmailAnalysis
		if err := rows.Scan(&analysis.ID, &analysis.EmailBody, &analysis.Analysis, &analysis.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email analysis: %w", err)
		}
		analyses = append(analyses, analysis)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read email analyses: %w", err)
	}
	return analyses, nil
}
