package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"followup/internal/model"
	"followup/pkg/metrics"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

// Insert persists a new task and returns the store-assigned id.
func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) (string, error) {
	r.logger.Debug("Inserting task",
		zap.String("related_id", t.RelatedID),
		zap.String("task_type", t.Type),
		zap.Time("due_at", t.DueAt),
	)
	start := time.Now()
	query := `
        INSERT INTO tasks (related_id, type, title, due_at, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	var id string
	err := r.db.QueryRow(ctx, query,
		t.RelatedID,
		t.Type,
		t.Title,
		t.DueAt,
		t.Status,
	).Scan(&id)
	metrics.RecordDBQueryDuration("insert", "tasks", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to insert task",
			zap.Error(err),
			zap.String("related_id", t.RelatedID),
			zap.String("task_type", t.Type),
		)
		return "", err
	}
	r.logger.Info("Task inserted successfully",
		zap.String("task_id", id),
		zap.String("related_id", t.RelatedID),
	)
	return id, nil
}

// ListDueBetween returns tasks whose due_at falls inside [from, to],
// ordered ascending by due_at.
func (r *TaskRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	r.logger.Debug("Listing tasks by due range",
		zap.Time("from", from),
		zap.Time("to", to),
	)
	start := time.Now()
	query := `
        SELECT id, title, related_id, type, due_at, status, created_at, completed_at
        FROM tasks
        WHERE due_at >= $1 AND due_at <= $2
        ORDER BY due_at ASC
    `
	rows, err := r.db.Query(ctx, query, from, to)
	metrics.RecordDBQueryDuration("select", "tasks", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to query tasks",
			zap.Error(err),
			zap.Time("from", from),
			zap.Time("to", to),
		)
		return nil, err
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.RelatedID,
			&t.Type,
			&t.DueAt,
			&t.Status,
			&t.CreatedAt,
			&t.CompletedAt,
		); err != nil {
			r.logger.Error("Failed to scan task row", zap.Error(err))
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	r.logger.Info("Tasks listed successfully", zap.Int("count", len(tasks)))
	return tasks, nil
}

// MarkCompleted transitions a task to completed. The update is idempotent:
// re-running it leaves the row in the same terminal state, and completed_at
// keeps its original value. Returns false when no task has the given id.
func (r *TaskRepository) MarkCompleted(ctx context.Context, taskID string) (bool, error) {
	r.logger.Debug("Marking task as completed", zap.String("task_id", taskID))
	start := time.Now()
	query := `
        UPDATE tasks
        SET status = 'completed', completed_at = COALESCE(completed_at, NOW())
        WHERE id = $1
    `
	result, err := r.db.Exec(ctx, query, taskID)
	metrics.RecordDBQueryDuration("update", "tasks", time.Since(start))
	if err != nil {
		r.logger.Error("Failed to mark task as completed",
			zap.Error(err),
			zap.String("task_id", taskID),
		)
		return false, err
	}
	rowsAffected := result.RowsAffected()
	r.logger.Info("Task marked as completed",
		zap.String("task_id", taskID),
		zap.Int64("rows_affected", rowsAffected),
	)
	return rowsAffected > 0, nil
}
