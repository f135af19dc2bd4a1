package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresRunStore is a PostgreSQL-backed RunStore backed by the
// generation_runs table.
type PostgresRunStore struct {
	pool *pgxpool.Pool
}

func NewPostgresRunStore(pool *pgxpool.Pool) (*PostgresRunStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresRunStore{pool: pool}, nil
}

// Claim reclaims any stale running marker for the module, then inserts a new
// running row only when no live marker remains. The NOT EXISTS guard cannot
// see a concurrent claimer's uncommitted row under READ COMMITTED, so the
// partial unique index on (module_id) WHERE state = 'running' is the real
// arbiter: the loser's insert or commit fails with a unique violation, which
// maps to ErrAlreadyRunning.
func (s *PostgresRunStore) Claim(ctx context.Context, moduleID string, staleAfter time.Duration) (*Run, error) {
	if moduleID == "" {
		return nil, fmt.Errorf("module id is required")
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if staleAfter > 0 {
		_, err = tx.Exec(ctx,
			`UPDATE generation_runs
			 SET state = 'failed', reason = $2, finished_at = now()
			 WHERE module_id = $1 AND state = 'running' AND started_at < now() - $3::interval`,
			moduleID, staleReclaimReason, staleAfter,
		)
		if err != nil {
			return nil, fmt.Errorf("reclaim stale runs: %w", err)
		}
	}

	run := &Run{
		ID:        uuid.NewString(),
		ModuleID:  moduleID,
		State:     StateRunning,
		Stage:     StageClaimed,
		StartedAt: time.Now(),
	}
	cmd, err := tx.Exec(ctx,
		`INSERT INTO generation_runs (id, module_id, state, stage, started_at)
		 SELECT $1, $2, 'running', $3, $4
		 WHERE NOT EXISTS (
		   SELECT 1 FROM generation_runs WHERE module_id = $2 AND state = 'running'
		 )`,
		run.ID, run.ModuleID, run.Stage, run.StartedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("insert run: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrAlreadyRunning
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("commit claim tx: %w", err)
	}
	return run, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresRunStore) SetStage(ctx context.Context, runID, stage string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE generation_runs SET stage = $2 WHERE id = $1 AND state = 'running'`,
		runID, stage,
	)
	if err != nil {
		return fmt.Errorf("set stage: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("run not found or not running: %s", runID)
	}
	return nil
}

func (s *PostgresRunStore) Complete(ctx context.Context, runID string, counts RunCounts) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	payload, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("marshal counts: %w", err)
	}

	cmd, err := s.pool.Exec(ctx,
		`UPDATE generation_runs
		 SET state = 'completed', counts = $2::jsonb, finished_at = now()
		 WHERE id = $1 AND state = 'running'`,
		runID, string(payload),
	)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("run not found or not running: %s", runID)
	}
	return nil
}

func (s *PostgresRunStore) Fail(ctx context.Context, runID, stage, reason string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE generation_runs
		 SET state = 'failed', stage = COALESCE(NULLIF($2, ''), stage), reason = $3, finished_at = now()
		 WHERE id = $1 AND state = 'running'`,
		runID, stage, reason,
	)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("run not found or not running: %s", runID)
	}
	return nil
}

func (s *PostgresRunStore) Get(ctx context.Context, runID string) (*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT id, module_id, state, stage, COALESCE(reason, ''), COALESCE(counts, '{}'::jsonb),
		        started_at, COALESCE(finished_at, 'epoch'::timestamptz)
		 FROM generation_runs WHERE id = $1`,
		runID,
	)
	run, err := scanRun(row)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

func (s *PostgresRunStore) Latest(ctx context.Context, moduleID string) (*Run, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	row := s.pool.QueryRow(ctx,
		`SELECT id, module_id, state, stage, COALESCE(reason, ''), COALESCE(counts, '{}'::jsonb),
		        started_at, COALESCE(finished_at, 'epoch'::timestamptz)
		 FROM generation_runs
		 WHERE module_id = $1
		 ORDER BY started_at DESC
		 LIMIT 1`,
		moduleID,
	)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

func (s *PostgresRunStore) History(ctx context.Context, moduleID string) ([]Run, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, module_id, state, stage, COALESCE(reason, ''), COALESCE(counts, '{}'::jsonb),
		        started_at, COALESCE(finished_at, 'epoch'::timestamptz)
		 FROM generation_runs
		 WHERE module_id = $1
		 ORDER BY started_at ASC`,
		moduleID,
	)
	if err != nil {
		return nil, fmt.Errorf("run history: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func scanRun(row pgx.Row) (*Run, error) {
	var (
		run        Run
		countsJSON []byte
		finishedAt time.Time
	)
	if err := row.Scan(&run.ID, &run.ModuleID, &run.State, &run.Stage, &run.Reason,
		&countsJSON, &run.StartedAt, &finishedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(countsJSON, &run.Counts); err != nil {
		return nil, fmt.Errorf("decode counts: %w", err)
	}
	if finishedAt.Unix() != 0 {
		run.FinishedAt = finishedAt
	}
	return &run, nil
}
