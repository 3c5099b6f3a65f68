package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blues/mfs/internal/apperr"
	"github.com/blues/mfs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCloser 记录关闭调用的 RoundCloser
type fakeCloser struct {
	mu       sync.Mutex
	expired  []int64
	listErr  error
	closeErr map[int64]error
	closed   []int64
}

func (f *fakeCloser) ExpiredRounds(ctx context.Context) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expired, f.listErr
}

func (f *fakeCloser) CloseRound(ctx context.Context, projectId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.closeErr[projectId]; err != nil {
		return err
	}
	f.closed = append(f.closed, projectId)
	return nil
}

func (f *fakeCloser) closedIds() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.closed...)
}

func TestExecuteClosesExpiredRounds(t *testing.T) {
	closer := &fakeCloser{
		expired: []int64{1, 2, 3, 4},
		closeErr: map[int64]error{
			2: apperr.InvalidState("round already closed"),
			3: errors.New("database is locked"),
		},
	}
	job := NewProjectStatusJob(closer, time.Second)
	job.Execute(context.Background())

	assert.Equal(t, []int64{1, 4}, closer.closedIds())
}

func TestExecuteStopsOnListError(t *testing.T) {
	closer := &fakeCloser{expired: []int64{1}, listErr: errors.New("boom")}
	NewProjectStatusJob(closer, 0).Execute(context.Background())
	assert.Empty(t, closer.closedIds())
}

func TestNewProjectStatusJobDefaults(t *testing.T) {
	job := NewProjectStatusJob(&fakeCloser{}, 0)
	assert.Equal(t, time.Minute, job.interval)
	assert.Equal(t, "voting_deadline_closer", job.GetName())
	assert.NotNil(t, job.GetSchedule())
}

func TestManagerRunsJob(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closer := &fakeCloser{expired: []int64{7}}
	m, err := newManager(ctx, closer, config.TaskConfig{Interval: 1})
	require.NoError(t, err)
	require.NoError(t, m.Start())
	defer m.Stop()

	require.Eventually(t, func() bool {
		return len(closer.closedIds()) > 0
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, int64(7), closer.closedIds()[0])
}
