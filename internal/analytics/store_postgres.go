package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cognify-app/cognify-backend/internal/bloom"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed activity store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Record(ctx context.Context, a Activity) (string, error) {
	if a.UserID == "" {
		return "", fmt.Errorf("user_id is required")
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO activities (id, user_id, subject_id, topic, bloom_level, score, duration_sec, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.UserID, a.SubjectID, a.Topic, a.Bloom.String(), a.Score, a.DurationSec, a.Timestamp,
	)
	if err != nil {
		return "", fmt.Errorf("insert activity: %w", err)
	}
	return a.ID, nil
}

func (s *PostgresStore) ByUser(ctx context.Context, userID string) ([]Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, subject_id, topic, bloom_level, score, duration_sec, created_at
		 FROM activities
		 WHERE user_id = $1
		 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var (
			a        Activity
			levelStr string
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.SubjectID, &a.Topic, &levelStr,
			&a.Score, &a.DurationSec, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		// Unknown levels are kept but will not contribute to per-bloom means.
		if level, err := bloom.Parse(levelStr); err == nil {
			a.Bloom = level
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
