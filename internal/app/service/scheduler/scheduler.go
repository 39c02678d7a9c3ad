// Package scheduler runs deferred tasks from the task outbox, at least once
// and in no particular order. Producers write tasks with store.EnqueueTasks
// inside their own transaction so a task becomes runnable only when the
// change that caused it commits.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/config"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/metrics"
	"github.com/fatflowers/giveledger/pkg/tool"
	"github.com/fatflowers/giveledger/pkg/types"
)

// DefaultMaxAttempts applies to tasks created without an explicit limit.
const DefaultMaxAttempts = 10

// Handler executes one task. Returning an error schedules a retry until the
// task's attempts are exhausted.
type Handler func(ctx context.Context, task *models.Task) error

// NewTask builds a pending task due now. args is stored as JSON.
func NewTask(name, dedupKey string, args any) (*models.Task, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s args: %w", name, err)
	}
	now := time.Now()
	return &models.Task{
		ID:          tool.GenerateULID(now),
		Name:        name,
		DedupKey:    dedupKey,
		Args:        datatypes.JSON(raw),
		Status:      types.TaskStatusPending,
		MaxAttempts: DefaultMaxAttempts,
		RunAt:       now,
	}, nil
}

// DecodeArgs unmarshals a task's args into T.
func DecodeArgs[T any](task *models.Task) (T, error) {
	var args T
	if err := json.Unmarshal(task.Args, &args); err != nil {
		return args, fmt.Errorf("failed to decode %s args: %w", task.Name, err)
	}
	return args, nil
}

type Scheduler struct {
	store store.Store
	log   *zap.SugaredLogger
	cfg   config.SchedulerConfig
	now   func() time.Time

	mu       sync.RWMutex
	handlers map[string]Handler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(st store.Store, log *zap.SugaredLogger, cfg *config.Config) *Scheduler {
	sc := cfg.Scheduler
	if sc.Workers <= 0 {
		sc.Workers = 1
	}
	if sc.BatchSize <= 0 {
		sc.BatchSize = 16
	}
	if sc.PollInterval <= 0 {
		sc.PollInterval = time.Second
	}
	if sc.Lease <= 0 {
		sc.Lease = 2 * time.Minute
	}
	if sc.MaxAttempts <= 0 {
		sc.MaxAttempts = DefaultMaxAttempts
	}
	return &Scheduler{
		store:    st,
		log:      log,
		cfg:      sc,
		now:      time.Now,
		handlers: map[string]Handler{},
	}
}

// Register binds a handler to a task name. Registering twice replaces it.
func (s *Scheduler) Register(name string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = h
}

func (s *Scheduler) handler(name string) (Handler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[name]
	return h, ok
}

// Enqueue stores tasks outside of any caller transaction.
func (s *Scheduler) Enqueue(ctx context.Context, tasks ...*models.Task) error {
	if err := s.store.EnqueueTasks(ctx, tasks...); err != nil {
		return fmt.Errorf("failed to enqueue tasks: %w", err)
	}
	return nil
}

// Start launches the worker pool. It returns immediately.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	for i := 0; i < s.cfg.Workers; i++ {
		s.wg.Add(1)
		go func(worker int) {
			defer s.wg.Done()
			s.loop(ctx, worker)
		}(i)
	}
	s.log.Infow("scheduler started", "workers", s.cfg.Workers, "poll_interval", s.cfg.PollInterval)
}

// Stop cancels the workers and waits for in-flight tasks, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Infow("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) loop(ctx context.Context, worker int) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		// keep claiming while there is a backlog
		for {
			n, err := s.runBatch(ctx)
			if err != nil && ctx.Err() == nil {
				s.log.Warnw("scheduler claim failed", "worker", worker, "err", err)
			}
			if n < s.cfg.BatchSize || ctx.Err() != nil {
				break
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) runBatch(ctx context.Context) (int, error) {
	tasks, err := s.store.ClaimTasks(ctx, s.now(), s.cfg.BatchSize, s.cfg.Lease)
	if err != nil {
		return 0, err
	}
	for _, t := range tasks {
		s.run(ctx, t)
	}
	return len(tasks), nil
}

// Drain runs due tasks, including those enqueued by the tasks it runs,
// until none is left. It returns how many executions it performed.
func (s *Scheduler) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := s.runBatch(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
}

func (s *Scheduler) run(ctx context.Context, task *models.Task) {
	lg := logctx.FromCtx(ctx, s.log).With("task_id", task.ID, "task", task.Name, "attempt", task.Attempts)
	ctx = logctx.WithLogger(ctx, lg)

	h, ok := s.handler(task.Name)
	if !ok {
		lg.Errorw("no handler registered for task")
		s.finish(ctx, lg, task, "failed", s.store.FailTask(ctx, task.ID, "no handler registered"))
		return
	}

	start := time.Now()
	err := s.invoke(ctx, h, task)
	metrics.TaskDuration.WithLabelValues(task.Name).Observe(metrics.MillisecondsSince(start))
	if err == nil {
		s.finish(ctx, lg, task, "done", s.store.CompleteTask(ctx, task.ID))
		return
	}

	limit := task.MaxAttempts
	if limit <= 0 {
		limit = s.cfg.MaxAttempts
	}
	if task.Attempts >= limit {
		lg.Errorw("task failed permanently", "err", err)
		s.finish(ctx, lg, task, "failed", s.store.FailTask(ctx, task.ID, err.Error()))
		return
	}
	lg.Warnw("task failed, will retry", "err", err, "retry_in", s.cfg.RetryDelay)
	s.finish(ctx, lg, task, "retry", s.store.RetryTask(ctx, task.ID, s.now().Add(s.cfg.RetryDelay), err.Error()))
}

func (s *Scheduler) invoke(ctx context.Context, h Handler, task *models.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Lease)
	defer cancel()
	return h(ctx, task)
}

func (s *Scheduler) finish(_ context.Context, lg *zap.SugaredLogger, task *models.Task, outcome string, err error) {
	metrics.TaskProcessed.WithLabelValues(task.Name, outcome).Inc()
	if err != nil {
		// the lease expires and the task is claimed again
		lg.Errorw("failed to record task outcome", "outcome", outcome, "err", err)
	}
}
