package background

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platsbanken-sync/internal/config"
	"platsbanken-sync/pkg/models"
)

func newTestManager(t *testing.T) *TaskManagerImpl {
	t.Helper()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	tm := NewTaskManager(cfg, NewInMemoryTaskStore())
	require.NoError(t, tm.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = tm.Stop(ctx)
	})

	return tm
}

func waitForStatus(t *testing.T, tm TaskManager, processID string, want TaskStatus) *TaskResult {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		result, err := tm.GetTaskResult(context.Background(), processID)
		require.NoError(t, err)
		if result.Status == want {
			return result
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("task %s never reached status %s", processID, want)
	return nil
}

func TestSubmitSyncTaskRunsToSuccess(t *testing.T) {
	tm := newTestManager(t)

	err := tm.SubmitSyncTask(context.Background(), "proc-1", TaskTypeSync, func(context.Context) (*models.SyncSummary, error) {
		return &models.SyncSummary{Imported: 3, Removed: 1}, nil
	})
	require.NoError(t, err)

	result := waitForStatus(t, tm, "proc-1", TaskStatusSuccess)
	require.NotNil(t, result.Summary)
	assert.Equal(t, 3, result.Summary.Imported)
	assert.Equal(t, 1, result.Summary.Removed)
	assert.NotNil(t, result.CompletedAt)
	assert.NotNil(t, result.ProcessingTime)
}

func TestSubmitSyncTaskRecordsFailure(t *testing.T) {
	tm := newTestManager(t)

	err := tm.SubmitSyncTask(context.Background(), "proc-2", TaskTypeSnapshot, func(context.Context) (*models.SyncSummary, error) {
		return nil, errors.New("upstream down")
	})
	require.NoError(t, err)

	result := waitForStatus(t, tm, "proc-2", TaskStatusFailure)
	assert.Equal(t, "upstream down", result.Error)
	assert.Nil(t, result.Summary)
}

func TestGetUnknownTaskReturnsNotFound(t *testing.T) {
	tm := newTestManager(t)

	_, err := tm.GetTaskResult(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestSubmitAfterStopFails(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	tm := NewTaskManager(cfg, NewInMemoryTaskStore())
	require.NoError(t, tm.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, tm.Stop(ctx))

	err = tm.SubmitSyncTask(context.Background(), "proc-3", TaskTypeSync, func(context.Context) (*models.SyncSummary, error) {
		return &models.SyncSummary{}, nil
	})
	assert.Error(t, err)
}
