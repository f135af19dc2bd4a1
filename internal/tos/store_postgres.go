package tos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store. Topics are stored as a JSONB
// document; the single-active invariant is enforced inside a transaction.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed TOS store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, t TOS) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if t.SubjectID == "" {
		return "", fmt.Errorf("subject_id is required")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	topics, err := json.Marshal(t.Topics)
	if err != nil {
		return "", fmt.Errorf("marshal topics: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if t.Active {
		if _, err := tx.Exec(ctx,
			`UPDATE tos SET active = FALSE WHERE subject_id = $1`,
			t.SubjectID,
		); err != nil {
			return "", fmt.Errorf("deactivate existing tos: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO tos (id, subject_id, subject_name, topics, active, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5, NOW())`,
		t.ID, t.SubjectID, t.SubjectName, string(topics), t.Active,
	); err != nil {
		return "", fmt.Errorf("insert tos: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return t.ID, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*TOS, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT id, subject_id, subject_name, topics, active, created_at
		 FROM tos WHERE id = $1`,
		id,
	)
	t, err := scanTOS(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tos not found: %s", id)
		}
		return nil, err
	}
	return t, nil
}

func (s *PostgresStore) ActiveTOS(ctx context.Context, subjectID string) (*TOS, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT id, subject_id, subject_name, topics, active, created_at
		 FROM tos WHERE subject_id = $1 AND active LIMIT 1`,
		subjectID,
	)
	t, err := scanTOS(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

func (s *PostgresStore) Activate(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var subjectID string
	if err := tx.QueryRow(ctx,
		`SELECT subject_id FROM tos WHERE id = $1 FOR UPDATE`,
		id,
	).Scan(&subjectID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("tos not found: %s", id)
		}
		return fmt.Errorf("lookup tos: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE tos SET active = (id = $1) WHERE subject_id = $2`,
		id, subjectID,
	); err != nil {
		return fmt.Errorf("activate tos: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) BySubject(ctx context.Context, subjectID string) ([]TOS, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, subject_id, subject_name, topics, active, created_at
		 FROM tos WHERE subject_id = $1 ORDER BY created_at ASC`,
		subjectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tos: %w", err)
	}
	defer rows.Close()

	var out []TOS
	for rows.Next() {
		t, err := scanTOS(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tos: %w", err)
	}
	return out, nil
}

func scanTOS(row pgx.Row) (*TOS, error) {
	var t TOS
	var topics []byte
	if err := row.Scan(&t.ID, &t.SubjectID, &t.SubjectName, &topics, &t.Active, &t.CreatedAt); err != nil {
		return nil, err
	}
	if len(topics) > 0 {
		if err := json.Unmarshal(topics, &t.Topics); err != nil {
			return nil, fmt.Errorf("unmarshal topics: %w", err)
		}
	}
	return &t, nil
}
