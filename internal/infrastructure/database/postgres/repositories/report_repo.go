package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/trademark-screening/internal/domain/trademark"
	"github.com/turtacn/trademark-screening/internal/infrastructure/database/postgres"
	"github.com/turtacn/trademark-screening/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// executor is satisfied by *sql.DB and *sql.Tx.
type executor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// DefaultHistoryLimit caps ListByRequester when the caller passes no limit.
const DefaultHistoryLimit = 100

type postgresReportRepo struct {
	conn     *postgres.Connection
	log      logging.Logger
	executor executor
	now      func() time.Time
}

// NewPostgresReportRepo returns the screening_reports repository.
func NewPostgresReportRepo(conn *postgres.Connection, log logging.Logger) trademark.ReportRepository {
	return &postgresReportRepo{
		conn:     conn,
		log:      log,
		executor: conn.DB(),
		now:      time.Now,
	}
}

// Save inserts the report. Redelivered reports with a known id are ignored.
func (r *postgresReportRepo) Save(ctx context.Context, rep *trademark.StoredReport) error {
	if rep == nil {
		return errors.InvalidParam("report is nil")
	}
	if rep.RequesterID == "" {
		return errors.InvalidParam("report requester id is required")
	}
	if rep.ID == "" {
		rep.ID = uuid.NewString()
	}
	if rep.CreatedAt.IsZero() {
		rep.CreatedAt = r.now().UTC()
	}
	results := []byte(rep.Results)
	if len(results) == 0 {
		results = []byte("{}")
	}

	query := `
		INSERT INTO screening_reports (id, uid, name, product_name, image_url, results, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.executor.ExecContext(ctx, query,
		rep.ID, rep.RequesterID, rep.Name, rep.ProductCategory, rep.ImageURL, results, rep.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save screening report")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		r.log.Debug("screening report already stored", logging.String("id", rep.ID))
	}
	return nil
}

// ListByRequester returns the requester's reports, newest first.
func (r *postgresReportRepo) ListByRequester(ctx context.Context, requesterID string, limit int) ([]*trademark.StoredReport, error) {
	if requesterID == "" {
		return nil, errors.InvalidParam("requester id is required")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `
		SELECT id, uid, name, product_name, image_url, results, created_at
		FROM screening_reports
		WHERE uid = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.executor.QueryContext(ctx, query, requesterID, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list screening reports")
	}
	defer rows.Close()

	out := make([]*trademark.StoredReport, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate screening reports")
	}
	return out, nil
}

func scanReport(row rowScanner) (*trademark.StoredReport, error) {
	var (
		rep     trademark.StoredReport
		results []byte
	)
	if err := row.Scan(&rep.ID, &rep.RequesterID, &rep.Name, &rep.ProductCategory, &rep.ImageURL, &results, &rep.CreatedAt); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan screening report")
	}
	rep.Results = append([]byte(nil), results...)
	return &rep, nil
}
