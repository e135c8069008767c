package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *Queries {
	t.Helper()

	url := "sqlite://" + filepath.Join(t.TempDir(), "history.db")
	db, q, err := Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return q
}

func TestParseURL(t *testing.T) {
	tests := map[string]struct {
		url    string
		driver string
		dsn    string
		err    bool
	}{
		"postgres":   {url: "postgres://u:p@db/w1", driver: DRIVER_POSTGRES, dsn: "postgres://u:p@db/w1"},
		"postgresql": {url: "postgresql://db/w1?sslmode=disable", driver: DRIVER_POSTGRES, dsn: "postgresql://db/w1?sslmode=disable"},
		"sqlite":     {url: "sqlite:///var/lib/w1.db", driver: DRIVER_SQLITE, dsn: "/var/lib/w1.db" + sqlitePragmas},
		"file":       {url: "file:w1.db?cache=shared", driver: DRIVER_SQLITE, dsn: "file:w1.db?cache=shared&_pragma=busy_timeout(1000)&_pragma=journal_mode(WAL)"},
		"empty path": {url: "sqlite://", err: true},
		"mysql":      {url: "mysql://db/w1", err: true},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			driver, dsn, err := parseURL(tc.url)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.driver, driver)
			assert.Equal(t, tc.dsn, dsn)
		})
	}
}

func TestRebind(t *testing.T) {
	pg := New(nil, DRIVER_POSTGRES)
	lite := New(nil, DRIVER_SQLITE)

	assert.Equal(t, "SELECT $1, $2", pg.rebind("SELECT $1, $2"))
	assert.Equal(t, "SELECT ?, ?", lite.rebind("SELECT $1, $2"))
	assert.Equal(t, "LIMIT ?", lite.rebind("LIMIT $10"))
}

func TestReportRoundTrip(t *testing.T) {
	q := openTestDB(t)
	ctx := context.Background()

	now := time.Now()
	params := CreateReportParams{
		ID:          uuid.New(),
		CreatedAt:   now.UnixMilli(),
		DeviceCount: 2,
		ValidCount:  1,
		Body:        `{ "readings": { "0x28ff123456789abc": 20.50 } }`,
		StatusCode:  200,
		Delivered:   true,
	}

	r, err := q.CreateReport(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, Report(params), r)

	older := params
	older.ID = uuid.New()
	older.CreatedAt = now.Add(-48 * time.Hour).UnixMilli()
	older.Delivered = false
	older.StatusCode = 0
	older.Error = "connection failed"
	_, err = q.CreateReport(ctx, older)
	require.NoError(t, err)

	reports, err := q.ListRecentReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, params.ID, reports[0].ID)
	assert.Equal(t, older.ID, reports[1].ID)
	assert.False(t, reports[1].Delivered)
	assert.Equal(t, "connection failed", reports[1].Error)

	reports, err = q.ListRecentReports(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, reports, 1)

	deleted, err := q.DeleteReportsBefore(ctx, now.Add(-24*time.Hour).UnixMilli())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	reports, err = q.ListRecentReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, params.ID, reports[0].ID)
}

func TestOpenIsIdempotent(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "history.db")

	db, _, err := Open(context.Background(), url)
	require.NoError(t, err)
	db.Close()

	db, _, err = Open(context.Background(), url)
	require.NoError(t, err)
	db.Close()
}
