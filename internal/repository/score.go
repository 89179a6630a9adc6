package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmpathyScore is one scored piece of text.
type EmpathyScore struct {
	ID        string
	Body      string
	Score     float64
	Label     string
	CreatedAt time.Time
}

// UserScore pairs a score with its owner for cross-user listings.
type UserScore struct {
	EmpathyScore
	Username string
}

// ScoreStore persists empathy scores.
type ScoreStore interface {
	Save(ctx context.Context, username string, score EmpathyScore) error
	ListByUsername(ctx context.Context, username string) ([]EmpathyScore, error)
	ListAll(ctx context.Context) ([]UserScore, error)
}

type PostgresScoreRepository struct {
	db *pgxpool.Pool
}

var _ ScoreStore = (*PostgresScoreRepository)(nil)

func NewPostgresScoreRepository(db *pgxpool.Pool) *PostgresScoreRepository {
	return &PostgresScoreRepository{db: db}
}

func (r *PostgresScoreRepository) Save(ctx context.Context, username string, score EmpathyScore) error {
	const userQuery = `
	SELECT id
	FROM users
	WHERE username = $1
	`

	const insertQuery = `
	INSERT INTO empathy_scores (id, user_id, body, score, label)
	VALUES ($1, $2, $3, $4, $5)
	`

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Warn("failed to rollback transaction", slog.Any("error", err))
		}
	}()

	var userID string
	err = tx.QueryRow(ctx, userQuery, username).Scan(&userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}

	_, err = tx.Exec(ctx, insertQuery, score.ID, userID, score.Body, score.Score, score.Label)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *PostgresScoreRepository) ListByUsername(ctx context.Context, username string) ([]EmpathyScore, error) {
	const query = `
	SELECT s.id, s.body, s.score, s.label, s.created_at
	FROM empathy_scores s
	JOIN users u ON u.id = s.user_id
	WHERE u.username = $1
	ORDER BY s.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var scores []EmpathyScore
	for rows.Next() {
		var score EmpathyScore
		if err := rows.Scan(&score.ID, &score.Body, &score.Score, &score.Label, &score.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}
	return scores, nil
}

func (r *PostgresScoreRepository) ListAll(ctx context.Context) ([]UserScore, error) {
	const query = `
	SELECT s.id, u.username, s.body, s.score, s.label, s.created_at
	FROM empathy_scores s
	JOIN users u ON u.id = s.user_id
	ORDER BY s.created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var scores []UserScore
	for rows.Next() {
		var score UserScore
		err := rows.Scan(
			&score.ID,
			&score.Username,
			&score.Body,
			&score.Score,
			&score.Label,
			&score.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scores: %w", err)
	}
	return scores, nil
}
