package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"weblser/internal/domain"
)

// AnalysisRepository

func (db *DB) SaveAnalysis(ctx context.Context, id string, res domain.AnalysisResult, createdAt time.Time) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO analyses (id, url, result, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, res.URL, payload, createdAt)
	return err
}

func (db *DB) GetAnalysis(ctx context.Context, id string) (domain.StoredAnalysis, error) {
	var (
		out     domain.StoredAnalysis
		payload []byte
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT id, result, created_at FROM analyses WHERE id = $1
	`, id).Scan(&out.ID, &payload, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(payload, &out.Analysis)
	return out, err
}

func (db *DB) ListAnalyses(ctx context.Context, limit int) ([]domain.StoredAnalysis, int, error) {
	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM analyses`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, result, created_at FROM analyses
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.StoredAnalysis
	for rows.Next() {
		var (
			item    domain.StoredAnalysis
			payload []byte
		)
		if err := rows.Scan(&item.ID, &payload, &item.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(payload, &item.Analysis); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (db *DB) DeleteAnalysis(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) ClearAnalyses(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM analyses`)
	return err
}

// AuditRepository

func (db *DB) CreateAudit(ctx context.Context, id, url string, status domain.AuditStatus, createdAt time.Time) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO audits (id, url, status, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, url, status, createdAt)
	return err
}

func (db *DB) SaveAuditReport(ctx context.Context, id string, report *domain.EvaluationReport) error {
	return db.saveReport(ctx, "audits", id, report)
}

func (db *DB) MarkAuditFailed(ctx context.Context, id, reason string) error {
	return db.markFailed(ctx, "audits", id, reason)
}

func (db *DB) GetAudit(ctx context.Context, id string) (domain.StoredAudit, error) {
	return db.getAudit(ctx, "audits", id)
}

func (db *DB) ListAudits(ctx context.Context, limit int) ([]domain.StoredAudit, int, error) {
	return db.listAudits(ctx, "audits", limit)
}

func (db *DB) DeleteAudit(ctx context.Context, id string) error {
	return db.deleteRow(ctx, "audits", id)
}

func (db *DB) ClearAudits(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, `DELETE FROM audits`)
	return err
}

// ComplianceRepository — same row shape as audits, separate table.

func (db *DB) CreateComplianceReport(ctx context.Context, id, url string, status domain.AuditStatus, createdAt time.Time) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO compliance_reports (id, url, status, created_at)
		VALUES ($1, $2, $3, $4)
	`, id, url, status, createdAt)
	return err
}

func (db *DB) SaveComplianceReport(ctx context.Context, id string, report *domain.EvaluationReport) error {
	return db.saveReport(ctx, "compliance_reports", id, report)
}

func (db *DB) MarkComplianceFailed(ctx context.Context, id, reason string) error {
	return db.markFailed(ctx, "compliance_reports", id, reason)
}

func (db *DB) GetComplianceReport(ctx context.Context, id string) (domain.StoredAudit, error) {
	return db.getAudit(ctx, "compliance_reports", id)
}

func (db *DB) ListComplianceReports(ctx context.Context, limit int) ([]domain.StoredAudit, int, error) {
	return db.listAudits(ctx, "compliance_reports", limit)
}

func (db *DB) DeleteComplianceReport(ctx context.Context, id string) error {
	return db.deleteRow(ctx, "compliance_reports", id)
}

// shared helpers; table comes from a fixed set above, never from input

func (db *DB) saveReport(ctx context.Context, table, id string, report *domain.EvaluationReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx, `
		UPDATE `+table+`
		SET status = $2, report = $3, site_name = $4, overall_score = $5, error = ''
		WHERE id = $1
	`, id, domain.AuditCompleted, payload, report.SiteName, report.OverallScore)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) markFailed(ctx context.Context, table, id, reason string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE `+table+` SET status = $2, error = $3 WHERE id = $1
	`, id, domain.AuditFailed, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) getAudit(ctx context.Context, table, id string) (domain.StoredAudit, error) {
	var (
		out     domain.StoredAudit
		payload []byte
	)
	err := db.Pool.QueryRow(ctx, `
		SELECT id, url, status, error, report, created_at FROM `+table+` WHERE id = $1
	`, id).Scan(&out.ID, &out.URL, &out.Status, &out.Error, &payload, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, ErrNotFound
	}
	if err != nil {
		return out, err
	}
	if len(payload) > 0 {
		out.Report = new(domain.EvaluationReport)
		if err := json.Unmarshal(payload, out.Report); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (db *DB) listAudits(ctx context.Context, table string, limit int) ([]domain.StoredAudit, int, error) {
	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM `+table).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, url, status, error, report, created_at FROM `+table+`
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.StoredAudit
	for rows.Next() {
		var (
			item    domain.StoredAudit
			payload []byte
		)
		if err := rows.Scan(&item.ID, &item.URL, &item.Status, &item.Error, &payload, &item.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(payload) > 0 {
			item.Report = new(domain.EvaluationReport)
			if err := json.Unmarshal(payload, item.Report); err != nil {
				return nil, 0, err
			}
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (db *DB) deleteRow(ctx context.Context, table, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
