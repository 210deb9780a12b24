package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/repository"
)

const (
	kindValidation = "validation"
	kindNotFound   = "not_found"
	kindInternal   = "internal"
)

func errorBody(kind, msg string) gin.H {
	return gin.H{"error": msg, "kind": kind}
}

type taskResponse struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Status      string         `json:"status"`
	Priority    string         `json:"priority"`
	Source      string         `json:"source"`
	DueDate     *time.Time     `json:"due_date,omitempty"`
	Assignee    string         `json:"assignee,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	ExternalID  string         `json:"external_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func toTaskResponse(t model.Task) taskResponse {
	return taskResponse{
		ID:          string(t.ID),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Source:      string(t.Source),
		DueDate:     t.DueDate,
		Assignee:    t.Assignee,
		Tags:        t.Tags,
		ExternalID:  t.ExternalID,
		Metadata:    t.Metadata,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTaskResponses(tasks []model.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListTasks(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(kindValidation, err.Error()))
		return
	}

	tasks, err := s.tasks.ListTasks(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": toTaskResponses(tasks), "count": len(tasks)})
}

func filterFromQuery(c *gin.Context) (*model.TaskFilter, error) {
	filter := &model.TaskFilter{}
	empty := true

	if raw := c.Query("status"); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		filter.Status = []model.Status{status}
		empty = false
	}
	if raw := c.Query("priority"); raw != "" {
		priority, err := model.ParsePriority(raw)
		if err != nil {
			return nil, err
		}
		filter.Priority = []model.Priority{priority}
		empty = false
	}
	if raw := c.Query("source"); raw != "" {
		filter.Source = []model.Source{model.Source(raw)}
		empty = false
	}
	if raw := c.Query("assignee"); raw != "" {
		filter.Assignee = raw
		empty = false
	}
	if tags := c.QueryArray("tag"); len(tags) > 0 {
		filter.Tags = tags
		empty = false
	}
	if raw := c.Query("due_before"); raw != "" {
		t, err := parseQueryTime(raw)
		if err != nil {
			return nil, err
		}
		filter.DueBefore = &t
		empty = false
	}
	if raw := c.Query("due_after"); raw != "" {
		t, err := parseQueryTime(raw)
		if err != nil {
			return nil, err
		}
		filter.DueAfter = &t
		empty = false
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		filter.Limit = n
		empty = false
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, err
		}
		filter.Offset = n
		empty = false
	}

	if empty {
		return nil, nil
	}
	return filter, nil
}

func parseQueryTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

type createTaskRequest struct {
	Title       string         `json:"title" binding:"required"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Priority    string         `json:"priority"`
	DueDate     *time.Time     `json:"due_date"`
	Assignee    string         `json:"assignee"`
	Tags        []string       `json:"tags"`
	Metadata    map[string]any `json:"metadata"`
	Personal    bool           `json:"personal"`
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(kindValidation, err.Error()))
		return
	}

	task := model.NewTask(req.Title, time.Now())
	task.Description = req.Description
	task.DueDate = req.DueDate
	task.Assignee = req.Assignee
	task.Tags = req.Tags
	task.Metadata = req.Metadata

	if req.Status != "" {
		status, err := model.ParseStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(kindValidation, err.Error()))
			return
		}
		task.Status = status
	}
	if req.Priority != "" {
		priority, err := model.ParsePriority(req.Priority)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(kindValidation, err.Error()))
			return
		}
		task.Priority = priority
	}

	created, err := s.tasks.CreateTask(c.Request.Context(), task, req.Personal)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	c.JSON(http.StatusCreated, toTaskResponse(*created))
}

func (s *Server) handleSyncTasks(c *gin.Context) {
	counts, err := s.tasks.SyncAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (s *Server) handleDueToday(c *gin.Context) {
	tasks, err := s.tasks.GetTasksDueToday(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": toTaskResponses(tasks), "count": len(tasks)})
}

func (s *Server) handleOverdue(c *gin.Context) {
	tasks, err := s.tasks.GetOverdueTasks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": toTaskResponses(tasks), "count": len(tasks)})
}

func (s *Server) handleGetTask(c *gin.Context) {
	id := model.TaskID(c.Param("id"))
	task, err := s.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	if task == nil {
		c.JSON(http.StatusNotFound, errorBody(kindNotFound, "task not found"))
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*task))
}

type updateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	Assignee    *string    `json:"assignee"`
	Tags        []string   `json:"tags"`
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id := model.TaskID(c.Param("id"))

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(kindValidation, err.Error()))
		return
	}

	existing, err := s.tasks.GetTask(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, errorBody(kindNotFound, "task not found"))
		return
	}

	task := existing.Clone()
	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		status, err := model.ParseStatus(*req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(kindValidation, err.Error()))
			return
		}
		task.Status = status
	}
	if req.Priority != nil {
		priority, err := model.ParsePriority(*req.Priority)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(kindValidation, err.Error()))
			return
		}
		task.Priority = priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Assignee != nil {
		task.Assignee = *req.Assignee
	}
	if req.Tags != nil {
		task.Tags = req.Tags
	}
	task.UpdatedAt = time.Now()

	updated, err := s.tasks.UpdateTask(c.Request.Context(), task)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*updated))
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleUpdateStatus(c *gin.Context) {
	id := model.TaskID(c.Param("id"))

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(kindValidation, err.Error()))
		return
	}
	status, err := model.ParseStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(kindValidation, err.Error()))
		return
	}

	updated, err := s.tasks.UpdateTaskStatus(c.Request.Context(), id, status)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody(kindNotFound, "task not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	c.JSON(http.StatusOK, toTaskResponse(*updated))
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id := model.TaskID(c.Param("id"))
	deleted, err := s.tasks.DeleteTask(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, errorBody(kindNotFound, "task not found"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleWebhookHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSlackWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(kindValidation, "unreadable body"))
		return
	}

	// Slack sends a one-time URL verification challenge on setup.
	if gjson.GetBytes(body, "type").String() == "url_verification" {
		c.JSON(http.StatusOK, gin.H{"challenge": gjson.GetBytes(body, "challenge").String()})
		return
	}

	task, err := s.mentions.ProcessWebhook(c.Request.Context(), body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	if task == nil {
		c.JSON(http.StatusOK, gin.H{"handled": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"handled": true, "task": toTaskResponse(*task)})
}

func (s *Server) handleDiscordWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody(kindValidation, "unreadable body"))
		return
	}

	// Discord interaction endpoint verification ping.
	if gjson.GetBytes(body, "type").Int() == 1 {
		c.JSON(http.StatusOK, gin.H{"type": 1})
		return
	}

	task, err := s.mentions.ProcessWebhook(c.Request.Context(), body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorBody(kindInternal, err.Error()))
		return
	}
	if task == nil {
		c.JSON(http.StatusOK, gin.H{"handled": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"handled": true, "task": toTaskResponse(*task)})
}
