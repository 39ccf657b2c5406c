package task

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contracts "followup/contracts/mq"
	"followup/internal/model"
)

type fakeStore struct {
	tasks     map[string]*model.Task
	nextID    string
	insertErr error
	listErr   error
	markErr   error

	inserted  []*model.Task
	listFrom  time.Time
	listTo    time.Time
	listCalls int
	markCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tasks:  map[string]*model.Task{},
		nextID: uuid.NewString(),
	}
}

func (f *fakeStore) Insert(ctx context.Context, t *model.Task) (string, error) {
	if f.insertErr != nil {
		return "", f.insertErr
	}
	f.inserted = append(f.inserted, t)
	id := f.nextID
	copied := *t
	copied.ID = id
	f.tasks[id] = &copied
	return id, nil
}

func (f *fakeStore) ListDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	f.listCalls++
	f.listFrom = from
	f.listTo = to
	if f.listErr != nil {
		return nil, f.listErr
	}
	tasks := []model.Task{}
	for _, t := range f.tasks {
		if !t.DueAt.Before(from) && !t.DueAt.After(to) {
			tasks = append(tasks, *t)
		}
	}
	// same contract as the SQL query: ascending by due_at
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueAt.Before(tasks[j].DueAt) })
	return tasks, nil
}

func (f *fakeStore) MarkCompleted(ctx context.Context, taskID string) (bool, error) {
	f.markCalls++
	if f.markErr != nil {
		return false, f.markErr
	}
	t, ok := f.tasks[taskID]
	if !ok {
		return false, nil
	}
	t.Status = model.StatusCompleted
	return true, nil
}

type fakeCache struct {
	entries     map[string][]model.Task
	sets        int
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]model.Task{}}
}

func (f *fakeCache) Get(ctx context.Context, day time.Time) ([]model.Task, bool) {
	tasks, ok := f.entries[day.Format("2006-01-02")]
	return tasks, ok
}

func (f *fakeCache) Set(ctx context.Context, day time.Time, tasks []model.Task) {
	f.sets++
	f.entries[day.Format("2006-01-02")] = tasks
}

func (f *fakeCache) Invalidate(ctx context.Context, day time.Time) {
	f.invalidated++
	delete(f.entries, day.Format("2006-01-02"))
}

type enqueuedEvent struct {
	eventType string
	payload   any
}

type fakeNotifier struct {
	events []enqueuedEvent
}

func (f *fakeNotifier) Enqueue(eventType string, payload any) {
	f.events = append(f.events, enqueuedEvent{eventType: eventType, payload: payload})
}

func newTestService() (*Service, *fakeStore, *fakeCache, *fakeNotifier) {
	store := newFakeStore()
	cache := newFakeCache()
	notifier := &fakeNotifier{}
	svc := NewService(store, cache, notifier)
	return svc, store, cache, notifier
}

func TestService_Create_Success(t *testing.T) {
	for _, taskType := range []string{"call", "email", "review"} {
		t.Run(taskType, func(t *testing.T) {
			svc, store, _, notifier := newTestService()
			dueAt := time.Now().Add(24 * time.Hour).Format(time.RFC3339)

			id, err := svc.Create(context.Background(), CreateInput{
				ApplicationID: "app-1",
				TaskType:      taskType,
				DueAt:         dueAt,
			})
			require.NoError(t, err)
			assert.Equal(t, store.nextID, id)

			require.Len(t, store.inserted, 1)
			inserted := store.inserted[0]
			assert.Equal(t, "Follow up - "+taskType, inserted.Title)
			assert.Equal(t, "app-1", inserted.RelatedID)
			assert.Equal(t, model.StatusPending, inserted.Status)

			require.Len(t, notifier.events, 1)
			assert.Equal(t, contracts.EventTypeTaskCreated, notifier.events[0].eventType)
			payload, ok := notifier.events[0].payload.(contracts.TaskCreatedPayload)
			require.True(t, ok)
			assert.Equal(t, id, payload.TaskID)
			assert.Equal(t, "app-1", payload.ApplicationID)
			assert.Equal(t, taskType, payload.TaskType)
			assert.Equal(t, dueAt, payload.DueAt)
		})
	}
}

func TestService_Create_MissingFields(t *testing.T) {
	dueAt := time.Now().Add(time.Hour).Format(time.RFC3339)

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"no application_id", CreateInput{TaskType: "call", DueAt: dueAt}},
		{"no task_type", CreateInput{ApplicationID: "app-1", DueAt: dueAt}},
		{"no due_at", CreateInput{ApplicationID: "app-1", TaskType: "call"}},
		{"empty input", CreateInput{}},
		// presence is checked before the enum and temporal rules
		{"missing id with bad type", CreateInput{TaskType: "sms", DueAt: "not-a-date"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _, notifier := newTestService()

			_, err := svc.Create(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrMissingFields)
			assert.Empty(t, store.inserted)
			assert.Empty(t, notifier.events)
		})
	}
}

func TestService_Create_InvalidTaskType(t *testing.T) {
	svc, store, _, notifier := newTestService()

	_, err := svc.Create(context.Background(), CreateInput{
		ApplicationID: "app-1",
		TaskType:      "sms",
		DueAt:         time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	assert.ErrorIs(t, err, ErrInvalidTaskType)
	assert.Empty(t, store.inserted)
	assert.Empty(t, notifier.events)
}

func TestService_Create_DueAtValidation(t *testing.T) {
	tests := []struct {
		name  string
		dueAt string
	}{
		{"unparseable", "next tuesday"},
		{"date only", "2025-01-15"},
		{"in the past", time.Now().Add(-time.Hour).Format(time.RFC3339)},
		{"exactly now", time.Now().Format(time.RFC3339)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _, notifier := newTestService()

			_, err := svc.Create(context.Background(), CreateInput{
				ApplicationID: "app-1",
				TaskType:      "call",
				DueAt:         tt.dueAt,
			})
			assert.ErrorIs(t, err, ErrDueAtNotFuture)
			assert.Empty(t, store.inserted)
			assert.Empty(t, notifier.events)
		})
	}
}

func TestService_Create_InsertFailure(t *testing.T) {
	svc, store, _, notifier := newTestService()
	store.insertErr = errors.New("connection refused")

	_, err := svc.Create(context.Background(), CreateInput{
		ApplicationID: "app-1",
		TaskType:      "call",
		DueAt:         time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingFields)
	assert.NotErrorIs(t, err, ErrInvalidTaskType)
	assert.NotErrorIs(t, err, ErrDueAtNotFuture)
	// no event when persistence failed
	assert.Empty(t, notifier.events)
}

func TestService_Create_DueTodayInvalidatesWarmCache(t *testing.T) {
	svc, _, cache, _ := newTestService()

	// warm the cache with the (empty) today view
	tasks, err := svc.Today(context.Background())
	require.NoError(t, err)
	require.Empty(t, tasks)
	require.Equal(t, 1, cache.sets)

	_, end := TodayRange(time.Now())
	_, err = svc.Create(context.Background(), CreateInput{
		ApplicationID: "app-1",
		TaskType:      "call",
		DueAt:         end.Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	// the next query goes back to the store and sees the new task
	tasks, err = svc.Today(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.StatusPending, tasks[0].Status)
}

func TestService_Create_DueLaterKeepsTodayCache(t *testing.T) {
	svc, _, cache, _ := newTestService()

	_, err := svc.Today(context.Background())
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateInput{
		ApplicationID: "app-1",
		TaskType:      "email",
		DueAt:         time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, cache.invalidated)
}

func TestService_Today_QueriesCurrentDayWindow(t *testing.T) {
	svc, store, cache, _ := newTestService()

	tasks, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)

	wantStart, wantEnd := TodayRange(time.Now())
	assert.Equal(t, wantStart, store.listFrom)
	assert.Equal(t, wantEnd, store.listTo)
	assert.Equal(t, 1, cache.sets)
}

func TestService_Today_CacheHitSkipsStore(t *testing.T) {
	svc, store, cache, _ := newTestService()

	day, _ := TodayRange(time.Now())
	cached := []model.Task{{ID: uuid.NewString(), Title: "Follow up - call"}}
	cache.entries[day.Format("2006-01-02")] = cached

	tasks, err := svc.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cached, tasks)
	assert.Zero(t, store.listCalls)
}

func TestService_Today_StoreFailure(t *testing.T) {
	svc, store, cache, _ := newTestService()
	store.listErr = errors.New("connection refused")

	_, err := svc.Today(context.Background())
	require.Error(t, err)
	assert.Zero(t, cache.sets)
}

func TestService_Complete_Idempotent(t *testing.T) {
	svc, store, cache, _ := newTestService()
	id := uuid.NewString()
	store.tasks[id] = &model.Task{ID: id, Status: model.StatusPending}

	require.NoError(t, svc.Complete(context.Background(), id))
	assert.Equal(t, model.StatusCompleted, store.tasks[id].Status)
	assert.Equal(t, 1, cache.invalidated)

	// second completion is a no-op that still succeeds
	require.NoError(t, svc.Complete(context.Background(), id))
	assert.Equal(t, model.StatusCompleted, store.tasks[id].Status)
	assert.Equal(t, 2, store.markCalls)
}

func TestService_Complete_NotFound(t *testing.T) {
	svc, _, cache, _ := newTestService()

	err := svc.Complete(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, ErrTaskNotFound)
	assert.Zero(t, cache.invalidated)
}

func TestService_Complete_StoreFailure(t *testing.T) {
	svc, store, cache, _ := newTestService()
	store.markErr = errors.New("connection refused")

	err := svc.Complete(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTaskNotFound)
	// invalidation only runs after a confirmed success
	assert.Zero(t, cache.invalidated)
}

func TestTodayRange(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	now := time.Date(2026, time.August, 31, 14, 37, 12, 0, loc)

	start, end := TodayRange(now)

	assert.Equal(t, time.Date(2026, time.August, 31, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Date(2026, time.August, 31, 23, 59, 59, 999000000, loc), end)

	// boundaries are inclusive, the neighbors fall outside
	yesterdayLast := time.Date(2026, time.August, 30, 23, 59, 59, 999000000, loc)
	tomorrowFirst := time.Date(2026, time.September, 1, 0, 0, 0, 0, loc)
	assert.True(t, yesterdayLast.Before(start))
	assert.True(t, tomorrowFirst.After(end))
}

func TestService_Today_WindowBoundariesInclusive(t *testing.T) {
	svc, store, _, _ := newTestService()

	start, end := TodayRange(time.Now())
	dueAts := map[string]time.Time{
		"start of day":   start,
		"end of day":     end,
		"yesterday last": start.Add(-time.Millisecond),
		"tomorrow first": end.Add(time.Millisecond),
	}
	for name, dueAt := range dueAts {
		id := uuid.NewString()
		store.tasks[id] = &model.Task{ID: id, Title: name, DueAt: dueAt, Status: model.StatusPending}
	}

	tasks, err := svc.Today(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "start of day", tasks[0].Title)
	assert.Equal(t, "end of day", tasks[1].Title)
}

func TestService_Today_OrderedByDueAt(t *testing.T) {
	svc, store, _, _ := newTestService()

	day, _ := TodayRange(time.Now())
	for _, hour := range []int{9, 14, 8} {
		id := uuid.NewString()
		store.tasks[id] = &model.Task{
			ID:     id,
			Title:  "Follow up - call",
			DueAt:  day.Add(time.Duration(hour) * time.Hour),
			Status: model.StatusPending,
		}
	}

	tasks, err := svc.Today(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, day.Add(8*time.Hour), tasks[0].DueAt)
	assert.Equal(t, day.Add(9*time.Hour), tasks[1].DueAt)
	assert.Equal(t, day.Add(14*time.Hour), tasks[2].DueAt)
}
