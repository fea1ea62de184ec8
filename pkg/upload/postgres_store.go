package upload

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cosiris15/contract-review/pkg/models"
)

// PostgresStore persists upload_jobs directly through pgx. The repository
// has no ORM layer (ent's codegen cannot run in this environment, see
// DESIGN.md), so this store talks to the pool with hand-written SQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-connected pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

const jobColumns = `job_id, task_id, role, filename, storage_key, status, stage, progress,
	error_message, result_meta, our_party, language,
	created_at, updated_at, started_at, finished_at`

func (s *PostgresStore) Insert(ctx context.Context, job *models.UploadJob) error {
	meta, err := marshalMeta(job.ResultMeta)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO upload_jobs (`+jobColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		job.JobID, job.TaskID, job.Role, job.Filename, job.StorageKey, job.Status, job.Stage, job.Progress,
		nullString(job.ErrorMessage), meta, job.OurParty, job.Language,
		job.CreatedAt, job.UpdatedAt, job.StartedAt, job.FinishedAt,
	)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, jobID string) (*models.UploadJob, bool, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM upload_jobs WHERE job_id = $1`, jobID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *PostgresStore) GetByTask(ctx context.Context, taskID string) ([]*models.UploadJob, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM upload_jobs WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) GetRecoverable(ctx context.Context) ([]*models.UploadJob, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+jobColumns+` FROM upload_jobs WHERE status IN ('queued','running')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanJobs(rows)
}

func (s *PostgresStore) Update(ctx context.Context, job *models.UploadJob) error {
	meta, err := marshalMeta(job.ResultMeta)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE upload_jobs SET
			status = $2, stage = $3, progress = $4, error_message = $5,
			result_meta = $6, updated_at = $7, started_at = $8, finished_at = $9
		WHERE job_id = $1`,
		job.JobID, job.Status, job.Stage, job.Progress, nullString(job.ErrorMessage),
		meta, job.UpdatedAt, job.StartedAt, job.FinishedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ClaimNext claims the oldest queued job with SELECT ... FOR UPDATE SKIP
// LOCKED, so concurrent queue workers never race for the same row.
// Grounded on pkg/queue.Worker.claimNextSession, adapted from
// ent's ForUpdate(sql.SkipLocked) to raw pgx.
func (s *PostgresStore) ClaimNext(ctx context.Context) (*models.UploadJob, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		SELECT `+jobColumns+` FROM upload_jobs
		WHERE status = 'queued'
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED`)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	job.Status = models.UploadRunning
	if job.Stage == "" || job.Stage == models.StageUploaded {
		job.Stage = models.StageLoading
	}
	job.UpdatedAt = now
	if job.StartedAt == nil {
		job.StartedAt = &now
	}
	if _, err := tx.Exec(ctx, `
		UPDATE upload_jobs SET status = $2, stage = $3, started_at = COALESCE(started_at, $4), updated_at = $4
		WHERE job_id = $1`,
		job.JobID, job.Status, job.Stage, now,
	); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func marshalMeta(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return nil, nil
	}
	return json.Marshal(meta)
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

func scanJob(row rowScanner) (*models.UploadJob, error) {
	var job models.UploadJob
	var errorMessage *string
	var metaBytes []byte
	if err := row.Scan(
		&job.JobID, &job.TaskID, &job.Role, &job.Filename, &job.StorageKey, &job.Status, &job.Stage, &job.Progress,
		&errorMessage, &metaBytes, &job.OurParty, &job.Language,
		&job.CreatedAt, &job.UpdatedAt, &job.StartedAt, &job.FinishedAt,
	); err != nil {
		return nil, err
	}
	if errorMessage != nil {
		job.ErrorMessage = *errorMessage
	}
	if len(metaBytes) > 0 {
		if err := json.Unmarshal(metaBytes, &job.ResultMeta); err != nil {
			return nil, err
		}
	}
	return &job, nil
}

func scanJobs(rows pgx.Rows) ([]*models.UploadJob, error) {
	var out []*models.UploadJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}
