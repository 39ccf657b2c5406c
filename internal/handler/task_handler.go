package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"followup/internal/service/task"
	"followup/pkg/logger"
)

type TaskHandler struct {
	svc    *task.Service
	logger *zap.Logger
}

func NewTaskHandler(svc *task.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

type createTaskRequest struct {
	ApplicationID string `json:"application_id"`
	TaskType      string `json:"task_type"`
	DueAt         string `json:"due_at"`
}

// CreateTask is registered on every method of /tasks so the method check
// stays the first step of the validation chain.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)

	if c.Request.Method != http.MethodPost {
		log.Warn("CreateTask: rejected non-POST request",
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only POST allowed"})
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("CreateTask: malformed request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	taskID, err := h.svc.Create(c.Request.Context(), task.CreateInput{
		ApplicationID: req.ApplicationID,
		TaskType:      req.TaskType,
		DueAt:         req.DueAt,
	})
	if err != nil {
		writeCreateError(c, log, &req, err)
		return
	}

	log.Info("CreateTask: success",
		zap.String("task_id", taskID),
		zap.String("application_id", req.ApplicationID),
		zap.String("task_type", req.TaskType),
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "task_id": taskID})
}

func writeCreateError(c *gin.Context, log *zap.Logger, req *createTaskRequest, err error) {
	switch {
	case errors.Is(err, task.ErrMissingFields):
		log.Warn("CreateTask: missing required fields")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
	case errors.Is(err, task.ErrInvalidTaskType):
		log.Warn("CreateTask: invalid task type",
			zap.String("task_type", req.TaskType),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task type"})
	case errors.Is(err, task.ErrDueAtNotFuture):
		log.Warn("CreateTask: due_at not a future datetime",
			zap.String("due_at", req.DueAt),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "due_at must be a future datetime"})
	default:
		log.Error("CreateTask: insert failed",
			zap.String("application_id", req.ApplicationID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database insert failed"})
	}
}

func (h *TaskHandler) ListTodayTasks(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)
	log.Info("ListTodayTasks request received",
		zap.String("client_ip", c.ClientIP()),
	)

	tasks, err := h.svc.Today(c.Request.Context())
	if err != nil {
		log.Error("ListTodayTasks: failed to fetch tasks", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch tasks"})
		return
	}

	log.Info("ListTodayTasks: success", zap.Int("task_count", len(tasks)))
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (h *TaskHandler) CompleteTask(c *gin.Context) {
	log := logger.WithTrace(c.Request.Context(), h.logger)
	taskID := c.Param("id")
	log.Info("CompleteTask request received",
		zap.String("task_id", taskID),
		zap.String("client_ip", c.ClientIP()),
	)

	if err := h.svc.Complete(c.Request.Context(), taskID); err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			log.Warn("CompleteTask: task not found",
				zap.String("task_id", taskID),
			)
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		log.Error("CompleteTask: failed to mark task as completed",
			zap.String("task_id", taskID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete task"})
		return
	}

	log.Info("CompleteTask: success", zap.String("task_id", taskID))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
