package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

type TaskHandler struct {
	Svc    *application.TaskService
	Logger *logrus.Logger
}

func NewTaskHandler(svc *application.TaskService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{Svc: svc, Logger: logger}
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
}

// updateTaskRequest tracks which fields were present in the body.
// Anything other than the three mutable columns is ignored.
type updateTaskRequest struct {
	Title       entity.Optional[string]            `json:"title"`
	Description entity.Optional[string]            `json:"description"`
	Status      entity.Optional[entity.TaskStatus] `json:"status"`
}

func (r updateTaskRequest) patch() entity.TaskPatch {
	return entity.TaskPatch{Title: r.Title, Description: r.Description, Status: r.Status}
}

func userID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserIDKey)
}

// List GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.Svc.ListTasks(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.List(c, toTaskDTOs(tasks), "Tasks", map[string]any{"count": len(tasks)})
}

// Search GET /api/tasks/search?q=&size=
func (h *TaskHandler) Search(c *gin.Context) {
	size, _ := strconv.Atoi(c.Query("size"))
	tasks, err := h.Svc.SearchTasks(c.Request.Context(), userID(c), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.List(c, toTaskDTOs(tasks), "Tasks", map[string]any{"count": len(tasks)})
}

// Get GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	t, err := h.Svc.GetTask(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, toTaskDTO(t), "Task", nil)
}

// Create POST /api/tasks {title, description?, status?}
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, h.Logger, err)
		return
	}
	t, err := h.Svc.CreateTask(c.Request.Context(), application.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      entity.TaskStatus(req.Status),
	}, userID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusCreated, toTaskDTO(t), "Task created", nil)
}

// Update PUT /api/tasks/:id {title?, description?, status?}
func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, h.Logger, err)
		return
	}
	t, err := h.Svc.UpdateTask(c.Request.Context(), c.Param("id"), req.patch(), userID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, toTaskDTO(t), "Task updated", nil)
}

// Toggle PATCH /api/tasks/:id/toggle
func (h *TaskHandler) Toggle(c *gin.Context) {
	t, err := h.Svc.ToggleTask(c.Request.Context(), c.Param("id"), userID(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON(c, http.StatusOK, toTaskDTO(t), "Task updated", nil)
}

// Delete DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteTask(c.Request.Context(), c.Param("id"), userID(c)); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.JSON[any](c, http.StatusOK, nil, "Task deleted successfully", nil)
}
