package mq

const (
	EventTypeTaskCreated = "task.created"
)

type TaskCreatedPayload struct {
	TaskID        string `json:"task_id"`
	ApplicationID string `json:"application_id"`
	TaskType      string `json:"task_type"`
	DueAt         string `json:"due_at"`
}
