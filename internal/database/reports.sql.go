package database

import (
	"context"

	"github.com/google/uuid"
)

const createReport = `
INSERT INTO reports (id, created_at, device_count, valid_count, body, status_code, delivered, error)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, device_count, valid_count, body, status_code, delivered, error
`

type CreateReportParams struct {
	ID          uuid.UUID
	CreatedAt   int64
	DeviceCount int32
	ValidCount  int32
	Body        string
	StatusCode  int32
	Delivered   bool
	Error       string
}

func (q *Queries) CreateReport(ctx context.Context, arg CreateReportParams) (Report, error) {
	row := q.db.QueryRowContext(ctx, q.rebind(createReport),
		arg.ID,
		arg.CreatedAt,
		arg.DeviceCount,
		arg.ValidCount,
		arg.Body,
		arg.StatusCode,
		arg.Delivered,
		arg.Error,
	)
	var i Report
	err := row.Scan(
		&i.ID,
		&i.CreatedAt,
		&i.DeviceCount,
		&i.ValidCount,
		&i.Body,
		&i.StatusCode,
		&i.Delivered,
		&i.Error,
	)
	return i, err
}

const deleteReportsBefore = `
DELETE FROM reports
WHERE created_at < $1
`

func (q *Queries) DeleteReportsBefore(ctx context.Context, createdAt int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, q.rebind(deleteReportsBefore), createdAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listRecentReports = `
SELECT id, created_at, device_count, valid_count, body, status_code, delivered, error
FROM reports
ORDER BY created_at DESC
LIMIT $1
`

func (q *Queries) ListRecentReports(ctx context.Context, limit int32) ([]Report, error) {
	rows, err := q.db.QueryContext(ctx, q.rebind(listRecentReports), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Report{}
	for rows.Next() {
		var i Report
		if err := rows.Scan(
			&i.ID,
			&i.CreatedAt,
			&i.DeviceCount,
			&i.ValidCount,
			&i.Body,
			&i.StatusCode,
			&i.Delivered,
			&i.Error,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
