package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresModuleStore reads module records from PostgreSQL.
type PostgresModuleStore struct {
	pool *pgxpool.Pool
}

// NewPostgresModuleStore creates a PostgreSQL-backed module store.
func NewPostgresModuleStore(pool *pgxpool.Pool) (*PostgresModuleStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresModuleStore{pool: pool}, nil
}

func (s *PostgresModuleStore) Get(ctx context.Context, id string) (*Module, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var m Module
	err := s.pool.QueryRow(ctx,
		`SELECT id, subject_id, title, material_url, deleted, created_at, updated_at
		 FROM modules WHERE id = $1 AND NOT deleted`,
		id,
	).Scan(&m.ID, &m.SubjectID, &m.Title, &m.MaterialURL, &m.Deleted, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, id)
		}
		return nil, fmt.Errorf("get module: %w", err)
	}
	return &m, nil
}

func (s *PostgresModuleStore) Put(ctx context.Context, m Module) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if m.ID == "" {
		return fmt.Errorf("module id is required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO modules (id, subject_id, title, material_url, deleted, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 ON CONFLICT (id) DO UPDATE
		 SET subject_id = $2, title = $3, material_url = $4, deleted = $5, updated_at = NOW()`,
		m.ID, m.SubjectID, m.Title, m.MaterialURL, m.Deleted,
	)
	if err != nil {
		return fmt.Errorf("upsert module: %w", err)
	}
	return nil
}

// PostgresStore persists artifacts in PostgreSQL. Each artifact table carries
// a bigserial seq column as the strictly-ordered pagination key; the exposed
// cursor stays the document id.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed artifact store.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) SaveSummary(ctx context.Context, sum *Summary) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if sum.ModuleID == "" {
		return fmt.Errorf("module_id is required")
	}
	stampID(&sum.ID)
	if sum.GeneratedAt.IsZero() {
		sum.GeneratedAt = time.Now()
	}
	tag, err := json.Marshal(sum.Tag)
	if err != nil {
		return fmt.Errorf("marshal tag: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO generated_summaries (id, module_id, tos_id, run_id, text, tag, truncated, generated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)`,
		sum.ID, sum.ModuleID, sum.TOSID, sum.RunID, sum.Text, string(tag), sum.Truncated, sum.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveQuiz(ctx context.Context, q *Quiz) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if q.ModuleID == "" {
		return fmt.Errorf("module_id is required")
	}
	stampID(&q.ID)
	if q.GeneratedAt.IsZero() {
		q.GeneratedAt = time.Now()
	}
	items, err := json.Marshal(q.Items)
	if err != nil {
		return fmt.Errorf("marshal items: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO generated_quizzes (id, module_id, tos_id, run_id, items, generated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		q.ID, q.ModuleID, q.TOSID, q.RunID, string(items), q.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveDeck(ctx context.Context, d *FlashcardDeck) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if d.ModuleID == "" {
		return fmt.Errorf("module_id is required")
	}
	stampID(&d.ID)
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now()
	}
	cards, err := json.Marshal(d.Cards)
	if err != nil {
		return fmt.Errorf("marshal cards: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO generated_flashcard_decks (id, module_id, tos_id, run_id, cards, generated_at)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
		d.ID, d.ModuleID, d.TOSID, d.RunID, string(cards), d.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert flashcard deck: %w", err)
	}
	return nil
}

func (s *PostgresStore) SummariesForModule(ctx context.Context, moduleID string, limit int, startAfter string) ([]Summary, string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, module_id, tos_id, run_id, text, tag, truncated, generated_at
		 FROM generated_summaries
		 WHERE module_id = $1
		   AND ($2 = '' OR seq > (SELECT seq FROM generated_summaries WHERE id = $2))
		 ORDER BY seq ASC
		 LIMIT $3`,
		moduleID, startAfter, limit,
	)
	if err != nil {
		return nil, "", fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	last := ""
	for rows.Next() {
		var sum Summary
		var tag []byte
		if err := rows.Scan(&sum.ID, &sum.ModuleID, &sum.TOSID, &sum.RunID, &sum.Text, &tag, &sum.Truncated, &sum.GeneratedAt); err != nil {
			return nil, "", fmt.Errorf("scan summary: %w", err)
		}
		if err := json.Unmarshal(tag, &sum.Tag); err != nil {
			return nil, "", fmt.Errorf("unmarshal tag: %w", err)
		}
		out = append(out, sum)
		last = sum.ID
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate summaries: %w", err)
	}
	return out, last, nil
}

func (s *PostgresStore) QuizzesForModule(ctx context.Context, moduleID string, limit int, startAfter string) ([]Quiz, string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, module_id, tos_id, run_id, items, generated_at
		 FROM generated_quizzes
		 WHERE module_id = $1
		   AND ($2 = '' OR seq > (SELECT seq FROM generated_quizzes WHERE id = $2))
		 ORDER BY seq ASC
		 LIMIT $3`,
		moduleID, startAfter, limit,
	)
	if err != nil {
		return nil, "", fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	var out []Quiz
	last := ""
	for rows.Next() {
		var q Quiz
		var items []byte
		if err := rows.Scan(&q.ID, &q.ModuleID, &q.TOSID, &q.RunID, &items, &q.GeneratedAt); err != nil {
			return nil, "", fmt.Errorf("scan quiz: %w", err)
		}
		if err := json.Unmarshal(items, &q.Items); err != nil {
			return nil, "", fmt.Errorf("unmarshal items: %w", err)
		}
		out = append(out, q)
		last = q.ID
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate quizzes: %w", err)
	}
	return out, last, nil
}

func (s *PostgresStore) DecksForModule(ctx context.Context, moduleID string, limit int, startAfter string) ([]FlashcardDeck, string, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, module_id, tos_id, run_id, cards, generated_at
		 FROM generated_flashcard_decks
		 WHERE module_id = $1
		   AND ($2 = '' OR seq > (SELECT seq FROM generated_flashcard_decks WHERE id = $2))
		 ORDER BY seq ASC
		 LIMIT $3`,
		moduleID, startAfter, limit,
	)
	if err != nil {
		return nil, "", fmt.Errorf("query flashcard decks: %w", err)
	}
	defer rows.Close()

	var out []FlashcardDeck
	last := ""
	for rows.Next() {
		var d FlashcardDeck
		var cards []byte
		if err := rows.Scan(&d.ID, &d.ModuleID, &d.TOSID, &d.RunID, &cards, &d.GeneratedAt); err != nil {
			return nil, "", fmt.Errorf("scan flashcard deck: %w", err)
		}
		if err := json.Unmarshal(cards, &d.Cards); err != nil {
			return nil, "", fmt.Errorf("unmarshal cards: %w", err)
		}
		out = append(out, d)
		last = d.ID
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate flashcard decks: %w", err)
	}
	return out, last, nil
}
