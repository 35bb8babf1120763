package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"weblser/internal/domain"
	"weblser/internal/ports"
)

func (db *DB) EnqueueJob(ctx context.Context, auditID string) (string, error) {
	var jobID string
	err := db.Pool.QueryRow(ctx, `
		INSERT INTO audit_jobs (audit_id) VALUES ($1) RETURNING id
	`, auditID).Scan(&jobID)
	return jobID, err
}

// ClaimNext locks the oldest queued job with SKIP LOCKED and transitions both
// the job and its audit to running, so concurrent runners never double-claim.
func (db *DB) ClaimNext(ctx context.Context) (job ports.AuditJob, found bool, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return job, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	err = tx.QueryRow(ctx, `
		SELECT j.id, j.audit_id, a.url
		FROM audit_jobs j
		JOIN audits a ON a.id = j.audit_id
		WHERE j.status = 'queued'
		ORDER BY j.queued_at
		FOR UPDATE OF j SKIP LOCKED
		LIMIT 1
	`).Scan(&job.ID, &job.AuditID, &job.URL)
	if errors.Is(err, pgx.ErrNoRows) {
		return job, false, nil
	}
	if err != nil {
		return job, false, err
	}

	if _, err = tx.Exec(ctx, `
		UPDATE audit_jobs SET status='running', started_at=now(), attempts=attempts+1 WHERE id=$1
	`, job.ID); err != nil {
		return job, false, err
	}
	if _, err = tx.Exec(ctx, `
		UPDATE audits SET status=$2 WHERE id=$1
	`, job.AuditID, domain.AuditRunning); err != nil {
		return job, false, err
	}
	return job, true, nil
}

// Terminal transitions run on a context detached from the caller's: a worker
// shutting down mid-job still has to record the job's fate, or the row stays
// running forever (ClaimNext only selects queued).

func (db *DB) MarkCompleted(ctx context.Context, jobID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	_, err := db.Pool.Exec(ctx, `
		UPDATE audit_jobs SET status='completed', finished_at=now() WHERE id=$1
	`, jobID)
	return err
}

func (db *DB) MarkFailed(ctx context.Context, jobID string, reason string) (err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	var auditID string
	if err = tx.QueryRow(ctx, `SELECT audit_id FROM audit_jobs WHERE id=$1`, jobID).Scan(&auditID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `
		UPDATE audit_jobs SET status='failed', error=$2, finished_at=now() WHERE id=$1
	`, jobID, reason); err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE audits SET status=$2, error=$3 WHERE id=$1
	`, auditID, domain.AuditFailed, reason)
	return err
}
