package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/pkg/types"
)

func (s *Store) EnqueueTasks(ctx context.Context, tasks ...*models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return translate(s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "dedup_key"}}, DoNothing: true}).
		Create(&tasks).Error)
}

const claimTasksSQL = `
UPDATE task SET status = ?, attempts = attempts + 1, locked_until = ?, updated_at = ?
WHERE id IN (
	SELECT id FROM task
	WHERE (status = ? AND run_at <= ?) OR (status = ? AND locked_until < ?)
	ORDER BY run_at, id
	LIMIT ?
	FOR UPDATE SKIP LOCKED
)
RETURNING *`

// ClaimTasks leases due tasks. SKIP LOCKED lets several workers and
// processes claim concurrently without blocking on each other.
func (s *Store) ClaimTasks(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.Task, error) {
	var tasks []*models.Task
	err := s.db.WithContext(ctx).Raw(claimTasksSQL,
		types.TaskStatusRunning, now.Add(lease), now,
		types.TaskStatusPending, now,
		types.TaskStatusRunning, now,
		limit,
	).Scan(&tasks).Error
	if err != nil {
		return nil, translate(err)
	}
	return tasks, nil
}

func (s *Store) setTask(ctx context.Context, id string, values map[string]any) error {
	values["updated_at"] = time.Now()
	return translate(s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", id).Updates(values).Error)
}

func (s *Store) CompleteTask(ctx context.Context, id string) error {
	return s.setTask(ctx, id, map[string]any{"status": types.TaskStatusDone, "locked_until": nil})
}

func (s *Store) RetryTask(ctx context.Context, id string, runAt time.Time, lastErr string) error {
	return s.setTask(ctx, id, map[string]any{
		"status":       types.TaskStatusPending,
		"run_at":       runAt,
		"locked_until": nil,
		"last_error":   lastErr,
	})
}

func (s *Store) FailTask(ctx context.Context, id string, lastErr string) error {
	return s.setTask(ctx, id, map[string]any{"status": types.TaskStatusFailed, "locked_until": nil, "last_error": lastErr})
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return first[models.Task](ctx, s.db, "id = ?", id)
}
