package model

import "time"

const (
	TaskTypeCall   = "call"
	TaskTypeEmail  = "email"
	TaskTypeReview = "review"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	RelatedID   string     `json:"related_id"`
	Type        string     `json:"task_type"`
	DueAt       time.Time  `json:"due_at"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ValidTaskType reports whether t is one of the accepted task types.
func ValidTaskType(t string) bool {
	switch t {
	case TaskTypeCall, TaskTypeEmail, TaskTypeReview:
		return true
	}
	return false
}

// TitleFor derives the task title from its type.
func TitleFor(taskType string) string {
	return "Follow up - " + taskType
}
