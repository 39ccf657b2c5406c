package task

import (
	"context"
	"fmt"
	"time"

	contracts "followup/contracts/mq"
	"followup/internal/model"
	"followup/pkg/metrics"
)

// Store is the persistence surface the service needs. Implemented by
// repository.TaskRepository; tests substitute a fake.
type Store interface {
	Insert(ctx context.Context, t *model.Task) (string, error)
	ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error)
	MarkCompleted(ctx context.Context, taskID string) (bool, error)
}

// Cache holds the today view. Implemented by cache.TodayCache.
type Cache interface {
	Get(ctx context.Context, day time.Time) ([]model.Task, bool)
	Set(ctx context.Context, day time.Time, tasks []model.Task)
	Invalidate(ctx context.Context, day time.Time)
}

// Notifier hands events to the background dispatcher. Fire-and-forget: the
// service never learns whether publication succeeded.
type Notifier interface {
	Enqueue(eventType string, payload any)
}

type Service struct {
	store    Store
	cache    Cache
	notifier Notifier
}

func NewService(store Store, cache Cache, notifier Notifier) *Service {
	return &Service{
		store:    store,
		cache:    cache,
		notifier: notifier,
	}
}

type CreateInput struct {
	ApplicationID string
	TaskType      string
	DueAt         string
}

// Create validates the input, persists a pending task and enqueues a
// task.created event. Validation short-circuits on the first failure with no
// side effects: presence, then type enum, then the temporal check.
func (s *Service) Create(ctx context.Context, in CreateInput) (string, error) {
	if in.ApplicationID == "" || in.TaskType == "" || in.DueAt == "" {
		return "", ErrMissingFields
	}

	if !model.ValidTaskType(in.TaskType) {
		return "", ErrInvalidTaskType
	}

	dueAt, err := time.Parse(time.RFC3339, in.DueAt)
	if err != nil || !dueAt.After(time.Now()) {
		return "", ErrDueAtNotFuture
	}

	t := &model.Task{
		Title:     model.TitleFor(in.TaskType),
		RelatedID: in.ApplicationID,
		Type:      in.TaskType,
		DueAt:     dueAt,
		Status:    model.StatusPending,
	}

	id, err := s.store.Insert(ctx, t)
	if err != nil {
		return "", fmt.Errorf("insert task: %w", err)
	}

	metrics.IncrementTaskCreated(in.TaskType)

	// A task due today changes the cached today view.
	if start, end := TodayRange(time.Now()); !dueAt.Before(start) && !dueAt.After(end) {
		s.cache.Invalidate(ctx, start)
	}

	s.notifier.Enqueue(contracts.EventTypeTaskCreated, contracts.TaskCreatedPayload{
		TaskID:        id,
		ApplicationID: in.ApplicationID,
		TaskType:      in.TaskType,
		DueAt:         in.DueAt,
	})

	return id, nil
}

// Today returns the tasks due within the current local day, ordered
// ascending by due_at. The window is recomputed on every call.
func (s *Service) Today(ctx context.Context) ([]model.Task, error) {
	start, end := TodayRange(time.Now())

	if tasks, ok := s.cache.Get(ctx, start); ok {
		return tasks, nil
	}

	tasks, err := s.store.ListDueBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list due tasks: %w", err)
	}

	s.cache.Set(ctx, start, tasks)
	return tasks, nil
}

// Complete transitions the task to completed and invalidates the cached
// today view. The store update is idempotent; completing an already
// completed task is a no-op that still succeeds.
func (s *Service) Complete(ctx context.Context, taskID string) error {
	found, err := s.store.MarkCompleted(ctx, taskID)
	if err != nil {
		return fmt.Errorf("mark task completed: %w", err)
	}
	if !found {
		return ErrTaskNotFound
	}

	metrics.IncrementTaskCompleted()

	day, _ := TodayRange(time.Now())
	s.cache.Invalidate(ctx, day)
	return nil
}

// TodayRange returns the inclusive [00:00:00.000, 23:59:59.999] window of
// now's calendar day, in now's location.
func TodayRange(now time.Time) (time.Time, time.Time) {
	year, month, day := now.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	end := time.Date(year, month, day, 23, 59, 59, 999000000, now.Location())
	return start, end
}
