package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists review_sessions directly through pgx. The pool
// comes from pkg/database.NewPool, which applies schema migrations before
// handing the pool back — there is no ORM layer in between.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-connected pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

const sessionColumns = `task_id, status, domain_id, domain_subtype, our_party, language,
	current_clause_index, current_clause_id, total_clauses, is_complete, is_interrupted,
	error, graph_run_id, graph_state, created_at, updated_at, completed_at`

func (s *PostgresStore) Upsert(ctx context.Context, rec *Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO review_sessions (`+sessionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (task_id) DO UPDATE SET
			status = EXCLUDED.status,
			domain_id = EXCLUDED.domain_id,
			domain_subtype = EXCLUDED.domain_subtype,
			our_party = EXCLUDED.our_party,
			language = EXCLUDED.language,
			current_clause_index = EXCLUDED.current_clause_index,
			current_clause_id = EXCLUDED.current_clause_id,
			total_clauses = EXCLUDED.total_clauses,
			is_complete = EXCLUDED.is_complete,
			is_interrupted = EXCLUDED.is_interrupted,
			error = EXCLUDED.error,
			graph_run_id = EXCLUDED.graph_run_id,
			graph_state = EXCLUDED.graph_state,
			updated_at = EXCLUDED.updated_at,
			completed_at = COALESCE(EXCLUDED.completed_at, review_sessions.completed_at)`,
		rec.TaskID, rec.Status, nullString(rec.DomainID), nullString(rec.DomainSubtype), nullString(rec.OurParty), nullString(rec.Language),
		rec.CurrentClauseIndex, nullString(rec.CurrentClauseID), rec.TotalClauses, rec.IsComplete, rec.IsInterrupted,
		nullString(rec.Error), nullString(rec.GraphRunID), rec.GraphState, rec.CreatedAt, rec.UpdatedAt, rec.CompletedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, taskID string) (*Record, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM review_sessions WHERE task_id = $1`, taskID)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, taskID string, apply func(rec *Record)) error {
	rec, ok, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	apply(rec)
	return s.Upsert(ctx, rec)
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+sessionColumns+` FROM review_sessions WHERE status IN ('reviewing','interrupted')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeletePurgeable removes completed/failed sessions past the retention
// cutoff in one statement.
func (s *PostgresStore) DeletePurgeable(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM review_sessions
		WHERE status IN ('completed','failed') AND completed_at IS NOT NULL AND completed_at < $1`,
		cutoff,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var domainID, domainSubtype, ourParty, language, currentClauseID, errMsg, graphRunID *string
	if err := row.Scan(
		&rec.TaskID, &rec.Status, &domainID, &domainSubtype, &ourParty, &language,
		&rec.CurrentClauseIndex, &currentClauseID, &rec.TotalClauses, &rec.IsComplete, &rec.IsInterrupted,
		&errMsg, &graphRunID, &rec.GraphState, &rec.CreatedAt, &rec.UpdatedAt, &rec.CompletedAt,
	); err != nil {
		return nil, err
	}
	assignString(&rec.DomainID, domainID)
	assignString(&rec.DomainSubtype, domainSubtype)
	assignString(&rec.OurParty, ourParty)
	assignString(&rec.Language, language)
	assignString(&rec.CurrentClauseID, currentClauseID)
	assignString(&rec.Error, errMsg)
	assignString(&rec.GraphRunID, graphRunID)
	return &rec, nil
}

func assignString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
