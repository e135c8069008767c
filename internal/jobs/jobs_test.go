package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reportStore struct {
	cutoff int64
	calls  int
	err    error
}

func (store *reportStore) DeleteReportsBefore(ctx context.Context, createdAt int64) (int64, error) {
	store.calls++
	store.cutoff = createdAt
	if store.err != nil {
		return 0, store.err
	}
	return 3, nil
}

func TestNewRetentionJob(t *testing.T) {
	_, err := NewRetentionJob(nil, 7)
	assert.Error(t, err)

	_, err = NewRetentionJob(&reportStore{}, 0)
	assert.Error(t, err)

	job, err := NewRetentionJob(&reportStore{}, 7)
	require.NoError(t, err)
	assert.Equal(t, DefaultRetentionSpec, job.Spec)
}

func TestPruneUsesRetentionCutoff(t *testing.T) {
	store := &reportStore{}
	job, err := NewRetentionJob(store, 7)
	require.NoError(t, err)

	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	deleted, err := job.Prune(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.Equal(t, time.Date(2024, 6, 8, 12, 0, 0, 0, time.UTC).UnixMilli(), store.cutoff)
}

func TestPruneError(t *testing.T) {
	store := &reportStore{err: errors.New("database is locked")}
	job, err := NewRetentionJob(store, 1)
	require.NoError(t, err)

	_, err = job.Prune(context.Background())
	assert.ErrorIs(t, err, store.err)
}

func TestRunPrunesAtStartAndStops(t *testing.T) {
	store := &reportStore{}
	job, err := NewRetentionJob(store, 30)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- job.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("retention job did not stop")
	}
	assert.Equal(t, 1, store.calls)
}

func TestRunRejectsBadSpec(t *testing.T) {
	job, err := NewRetentionJob(&reportStore{}, 30)
	require.NoError(t, err)
	job.Spec = "every day"

	err = job.Run(context.Background())
	assert.Error(t, err)
}
