package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

func (s *Server) callTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "list_tasks":
		return s.toolListTasks(ctx, args)
	case "get_task":
		return s.toolGetTask(ctx, args)
	case "create_task":
		return s.toolCreateTask(ctx, args)
	case "update_task_status":
		return s.toolUpdateTaskStatus(ctx, args)
	case "complete_task":
		return s.toolUpdateStatus(ctx, args, model.StatusDone)
	case "get_tasks_due_today":
		return s.toolDueToday(ctx)
	case "get_overdue_tasks":
		return s.toolOverdue(ctx)
	case "sync_tasks":
		return s.toolSyncTasks(ctx)
	case "delete_task":
		return s.toolDeleteTask(ctx, args)
	case "get_summary":
		return s.toolSummary(ctx)
	}
	return nil, fmt.Errorf("unknown tool: %s", name)
}

func taskToMap(t model.Task) map[string]any {
	m := map[string]any{
		"id":         string(t.ID),
		"title":      t.Title,
		"status":     string(t.Status),
		"priority":   string(t.Priority),
		"source":     string(t.Source),
		"tags":       t.Tags,
		"created_at": t.CreatedAt.Format(time.RFC3339),
		"updated_at": t.UpdatedAt.Format(time.RFC3339),
	}
	if t.Description != "" {
		m["description"] = t.Description
	}
	if t.DueDate != nil {
		m["due_date"] = t.DueDate.Format(time.RFC3339)
	}
	return m
}

func tasksToMaps(tasks []model.Task) []map[string]any {
	out := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToMap(t))
	}
	return out
}

func (s *Server) toolListTasks(ctx context.Context, args map[string]any) (any, error) {
	filter := &model.TaskFilter{Limit: 100}

	if raw, _ := args["status"].(string); raw != "" {
		status, err := model.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		filter.Status = []model.Status{status}
	}
	if raw, _ := args["priority"].(string); raw != "" {
		priority, err := model.ParsePriority(raw)
		if err != nil {
			return nil, err
		}
		filter.Priority = []model.Priority{priority}
	}
	if raw, ok := args["tags"].([]any); ok {
		for _, v := range raw {
			if tag, ok := v.(string); ok {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}
	if l, ok := args["limit"].(float64); ok {
		filter.Limit = int(l)
	}

	tasks, err := s.tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, err
	}
	return map[string]any{"tasks": tasksToMaps(tasks), "total": len(tasks)}, nil
}

func (s *Server) toolGetTask(ctx context.Context, args map[string]any) (any, error) {
	id, _ := args["task_id"].(string)
	if id == "" {
		return nil, fmt.Errorf("task_id is required")
	}

	task, err := s.tasks.GetTask(ctx, model.TaskID(id))
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	return map[string]any{"task": taskToMap(*task)}, nil
}

func (s *Server) toolCreateTask(ctx context.Context, args map[string]any) (any, error) {
	title, _ := args["title"].(string)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	task := model.NewTask(title, time.Now())
	task.Description, _ = args["description"].(string)
	personal, _ := args["personal"].(bool)
	if personal {
		task.Source = model.SourceNotionPersonal
	} else {
		task.Source = model.SourceNotionTeam
	}

	if raw, _ := args["priority"].(string); raw != "" {
		priority, err := model.ParsePriority(raw)
		if err != nil {
			return nil, err
		}
		task.Priority = priority
	}
	if raw, _ := args["due_date"].(string); raw != "" {
		due, err := parseToolDate(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid due date: %s", raw)
		}
		task.DueDate = &due
	}
	if raw, ok := args["tags"].([]any); ok {
		for _, v := range raw {
			if tag, ok := v.(string); ok {
				task.Tags = append(task.Tags, tag)
			}
		}
	}

	created, err := s.tasks.CreateTask(ctx, task, personal)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": taskToMap(*created)}, nil
}

func (s *Server) toolUpdateTaskStatus(ctx context.Context, args map[string]any) (any, error) {
	raw, _ := args["status"].(string)
	status, err := model.ParseStatus(raw)
	if err != nil {
		return nil, err
	}
	return s.toolUpdateStatus(ctx, args, status)
}

func (s *Server) toolUpdateStatus(ctx context.Context, args map[string]any, status model.Status) (any, error) {
	id, _ := args["task_id"].(string)
	if id == "" {
		return nil, fmt.Errorf("task_id is required")
	}

	task, err := s.tasks.UpdateTaskStatus(ctx, model.TaskID(id), status)
	if err != nil {
		return nil, err
	}
	return map[string]any{"task": taskToMap(*task)}, nil
}

func (s *Server) toolDueToday(ctx context.Context) (any, error) {
	tasks, err := s.tasks.GetTasksDueToday(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"tasks":   tasksToMaps(tasks),
		"total":   len(tasks),
		"message": fmt.Sprintf("You have %d task(s) due today.", len(tasks)),
	}, nil
}

func (s *Server) toolOverdue(ctx context.Context) (any, error) {
	tasks, err := s.tasks.GetOverdueTasks(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"tasks":   tasksToMaps(tasks),
		"total":   len(tasks),
		"message": fmt.Sprintf("You have %d overdue task(s).", len(tasks)),
	}, nil
}

func (s *Server) toolSyncTasks(ctx context.Context) (any, error) {
	counts, err := s.tasks.SyncAll(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"status":                "success",
		"team_tasks_synced":     counts.TeamTasks,
		"personal_tasks_synced": counts.PersonalTasks,
		"message": fmt.Sprintf("Synced %d team tasks and %d personal tasks.",
			counts.TeamTasks, counts.PersonalTasks),
	}, nil
}

func (s *Server) toolDeleteTask(ctx context.Context, args map[string]any) (any, error) {
	id, _ := args["task_id"].(string)
	if id == "" {
		return nil, fmt.Errorf("task_id is required")
	}

	deleted, err := s.tasks.DeleteTask(ctx, model.TaskID(id))
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	return map[string]any{"status": "success", "message": fmt.Sprintf("Task %s deleted.", id)}, nil
}

func (s *Server) toolSummary(ctx context.Context) (any, error) {
	tasks, err := s.tasks.ListTasks(ctx, nil)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	byStatus := map[string]int{}
	byPriority := map[string]int{}
	var dueToday, overdue int
	for _, t := range tasks {
		byStatus[string(t.Status)]++
		byPriority[string(t.Priority)]++
		if t.IsDueToday(now) && t.Status != model.StatusDone {
			dueToday++
		}
		if t.IsOverdue(now) {
			overdue++
		}
	}

	return map[string]any{
		"total_tasks": len(tasks),
		"by_status":   byStatus,
		"by_priority": byPriority,
		"due_today":   dueToday,
		"overdue":     overdue,
	}, nil
}

func parseToolDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format")
}

func toolDefinitions() []Tool {
	statusEnum := []string{"todo", "in_progress", "done", "blocked"}
	priorityEnum := []string{"low", "medium", "high", "urgent"}

	taskIDProp := map[string]any{"type": "string", "description": "Task ID"}

	return []Tool{
		{
			Name:        "list_tasks",
			Description: "List tasks, optionally filtered by status, priority, or tags.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"status":   map[string]any{"type": "string", "enum": statusEnum},
					"priority": map[string]any{"type": "string", "enum": priorityEnum},
					"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"limit":    map[string]any{"type": "integer", "default": 100},
				},
			},
		},
		{
			Name:        "get_task",
			Description: "Get a task by ID.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"task_id": taskIDProp},
				"required":   []string{"task_id"},
			},
		},
		{
			Name:        "create_task",
			Description: "Create a new task.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"title":       map[string]any{"type": "string", "description": "Task title"},
					"description": map[string]any{"type": "string"},
					"priority":    map[string]any{"type": "string", "enum": priorityEnum, "default": "medium"},
					"due_date":    map[string]any{"type": "string", "description": "Due date in ISO format"},
					"tags":        map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"personal":    map[string]any{"type": "boolean", "default": false},
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        "update_task_status",
			Description: "Update the status of a task.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task_id": taskIDProp,
					"status":  map[string]any{"type": "string", "enum": statusEnum},
				},
				"required": []string{"task_id", "status"},
			},
		},
		{
			Name:        "complete_task",
			Description: "Mark a task as done.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"task_id": taskIDProp},
				"required":   []string{"task_id"},
			},
		},
		{
			Name:        "get_tasks_due_today",
			Description: "Get tasks due today.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        "get_overdue_tasks",
			Description: "Get overdue tasks.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        "sync_tasks",
			Description: "Sync tasks from the configured repositories into the cache.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        "delete_task",
			Description: "Delete a task.",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"task_id": taskIDProp},
				"required":   []string{"task_id"},
			},
		},
		{
			Name:        "get_summary",
			Description: "Get counts of tasks by status and priority, plus due and overdue totals.",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
	}
}
