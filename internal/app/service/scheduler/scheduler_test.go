package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store/memstore"
	"github.com/fatflowers/giveledger/pkg/config"
	"github.com/fatflowers/giveledger/pkg/types"
)

type pingArgs struct {
	N int `json:"n"`
}

func newTestScheduler(t *testing.T, sc config.SchedulerConfig) (*Scheduler, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	return New(st, zap.NewNop().Sugar(), &config.Config{Scheduler: sc}), st
}

func TestDrain_RunsAndCompletes(t *testing.T) {
	s, st := newTestScheduler(t, config.SchedulerConfig{})
	ctx := context.Background()

	var got []int
	s.Register("ping", func(ctx context.Context, task *models.Task) error {
		args, err := DecodeArgs[pingArgs](task)
		if err != nil {
			return err
		}
		got = append(got, args.N)
		return nil
	})

	t1, err := NewTask("ping", "ping:1", pingArgs{N: 1})
	require.NoError(t, err)
	dup, err := NewTask("ping", "ping:1", pingArgs{N: 99})
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(ctx, t1, dup))

	n, err := s.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []int{1}, got)

	stored, err := st.GetTask(ctx, t1.ID)
	require.NoError(t, err)
	require.Equal(t, types.TaskStatusDone, stored.Status)
}

func TestDrain_FollowsTasksEnqueuedByHandlers(t *testing.T) {
	s, _ := newTestScheduler(t, config.SchedulerConfig{})
	ctx := context.Background()

	var leaf atomic.Int32
	s.Register("parent", func(ctx context.Context, task *models.Task) error {
		child, err := NewTask("child", "child:"+task.ID, nil)
		if err != nil {
			return err
		}
		return s.Enqueue(ctx, child)
	})
	s.Register("child", func(ctx context.Context, task *models.Task) error {
		leaf.Add(1)
		return nil
	})

	parent, err := NewTask("parent", "parent:1", nil)
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(ctx, parent))

	n, err := s.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, int32(1), leaf.Load())
}

func TestRetryThenFail(t *testing.T) {
	s, st := newTestScheduler(t, config.SchedulerConfig{RetryDelay: 0})
	ctx := context.Background()

	calls := 0
	s.Register("flaky", func(ctx context.Context, task *models.Task) error {
		calls++
		return errors.New("upstream down")
	})
	task, err := NewTask("flaky", "flaky:1", nil)
	require.NoError(t, err)
	task.MaxAttempts = 3
	require.NoError(t, s.Enqueue(ctx, task))

	_, err = s.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, calls)

	stored, err := st.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, types.TaskStatusFailed, stored.Status)
	require.Equal(t, 3, stored.Attempts)
	require.NotNil(t, stored.LastError)
	require.Equal(t, "upstream down", *stored.LastError)
}

func TestRetryIsDelayed(t *testing.T) {
	s, st := newTestScheduler(t, config.SchedulerConfig{RetryDelay: time.Minute})
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }
	ok := false
	s.Register("later", func(ctx context.Context, task *models.Task) error {
		if !ok {
			ok = true
			return errors.New("not yet")
		}
		return nil
	})
	task, err := NewTask("later", "later:1", nil)
	require.NoError(t, err)
	task.RunAt = now
	require.NoError(t, s.Enqueue(ctx, task))

	n, err := s.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	stored, _ := st.GetTask(ctx, task.ID)
	require.Equal(t, types.TaskStatusPending, stored.Status)

	s.now = func() time.Time { return now.Add(2 * time.Minute) }
	n, err = s.Drain(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	stored, _ = st.GetTask(ctx, task.ID)
	require.Equal(t, types.TaskStatusDone, stored.Status)
}

func TestPanicAndMissingHandlerFail(t *testing.T) {
	s, st := newTestScheduler(t, config.SchedulerConfig{})
	ctx := context.Background()

	s.Register("boom", func(ctx context.Context, task *models.Task) error { panic("bad") })
	boom, _ := NewTask("boom", "boom:1", nil)
	boom.MaxAttempts = 1
	orphan, _ := NewTask("orphan", "orphan:1", nil)
	require.NoError(t, s.Enqueue(ctx, boom, orphan))

	_, err := s.Drain(ctx)
	require.NoError(t, err)

	for _, id := range []string{boom.ID, orphan.ID} {
		stored, err := st.GetTask(ctx, id)
		require.NoError(t, err)
		require.Equal(t, types.TaskStatusFailed, stored.Status)
	}
}

func TestStartStop_ProcessesInBackground(t *testing.T) {
	s, st := newTestScheduler(t, config.SchedulerConfig{Workers: 2, PollInterval: 10 * time.Millisecond})
	ctx := context.Background()

	done := make(chan struct{})
	s.Register("bg", func(ctx context.Context, task *models.Task) error {
		close(done)
		return nil
	})
	task, _ := NewTask("bg", "bg:1", nil)
	require.NoError(t, s.Enqueue(ctx, task))

	s.Start()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not processed")
	}
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))

	require.Eventually(t, func() bool {
		stored, err := st.GetTask(ctx, task.ID)
		return err == nil && stored.Status == types.TaskStatusDone
	}, time.Second, 10*time.Millisecond)
}
