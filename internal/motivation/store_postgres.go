package motivation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore keeps both message slots in one row per student.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var (
		overrideText, generatedText           *string
		overrideUpdatedAt, generatedUpdatedAt *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT override_text, override_updated_at, generated_text, generated_updated_at
		 FROM motivation_messages
		 WHERE user_id = $1`,
		userID,
	).Scan(&overrideText, &overrideUpdatedAt, &generatedText, &generatedUpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get motivation record: %w", err)
	}

	rec := &Record{}
	if overrideText != nil {
		rec.Override = &Message{Text: *overrideText, Source: SourceCustom}
		if overrideUpdatedAt != nil {
			rec.Override.UpdatedAt = *overrideUpdatedAt
		}
	}
	if generatedText != nil {
		rec.Generated = &Message{Text: *generatedText, Source: SourceAI}
		if generatedUpdatedAt != nil {
			rec.Generated.UpdatedAt = *generatedUpdatedAt
		}
	}
	return rec, nil
}

func (s *PostgresStore) SetOverride(ctx context.Context, userID, text string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO motivation_messages (user_id, override_text, override_updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id)
		 DO UPDATE SET override_text = $2, override_updated_at = now()`,
		userID, text,
	)
	if err != nil {
		return fmt.Errorf("set override: %w", err)
	}
	return nil
}

func (s *PostgresStore) ClearOverride(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`UPDATE motivation_messages
		 SET override_text = NULL, override_updated_at = NULL
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("clear override: %w", err)
	}
	return nil
}

func (s *PostgresStore) SetGenerated(ctx context.Context, userID, text string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO motivation_messages (user_id, generated_text, generated_updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id)
		 DO UPDATE SET generated_text = $2, generated_updated_at = now()`,
		userID, text,
	)
	if err != nil {
		return fmt.Errorf("set generated: %w", err)
	}
	return nil
}
