package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// NotionSchema maps the repository's task fields onto a concrete Notion
// database: property names plus status/priority value spellings, both of
// which vary per deployment.
type NotionSchema struct {
	TitleProp       string
	StatusProp      string
	PriorityProp    string
	DueDateProp     string
	TagsProp        string
	DescriptionProp string
	AssigneeProp    string
	MetadataProp    string
	CreatedProp     string
	// StatusType is "status" or "select", matching the database column type.
	StatusType string

	StatusValues   map[model.Status]string
	PriorityValues map[model.Priority]string
}

// DefaultNotionSchema returns the conventional English-language schema.
func DefaultNotionSchema() NotionSchema {
	return NotionSchema{
		TitleProp:       "Name",
		StatusProp:      "Status",
		PriorityProp:    "Priority",
		DueDateProp:     "Due",
		TagsProp:        "Tags",
		DescriptionProp: "Description",
		AssigneeProp:    "Assignee",
		MetadataProp:    "Metadata",
		CreatedProp:     "Created",
		StatusType:      "status",
		StatusValues: map[model.Status]string{
			model.StatusTodo:       "Not started",
			model.StatusInProgress: "In progress",
			model.StatusDone:       "Done",
			model.StatusBlocked:    "Blocked",
		},
		PriorityValues: map[model.Priority]string{
			model.PriorityLow:    "Low",
			model.PriorityMedium: "Medium",
			model.PriorityHigh:   "High",
			model.PriorityUrgent: "Urgent",
		},
	}
}

func (s NotionSchema) statusFromNotion(name string) model.Status {
	for status, v := range s.StatusValues {
		if v == name {
			return status
		}
	}
	return model.StatusTodo
}

func (s NotionSchema) priorityFromNotion(name string) model.Priority {
	for priority, v := range s.PriorityValues {
		if v == name {
			return priority
		}
	}
	return model.PriorityMedium
}

// NotionTaskRepository manages tasks as pages of one Notion database.
// Deletion archives the page (Notion has no hard delete).
type NotionTaskRepository struct {
	client     *NotionClient
	databaseID string
	source     model.Source
	schema     NotionSchema
}

func NewNotionTaskRepository(client *NotionClient, databaseID string, source model.Source, schema NotionSchema) *NotionTaskRepository {
	return &NotionTaskRepository{
		client:     client,
		databaseID: databaseID,
		source:     source,
		schema:     schema,
	}
}

// notionPageID strips the local "notion:" prefix back off an identifier.
func notionPageID(id string) string {
	return strings.TrimPrefix(id, "notion:")
}

func (r *NotionTaskRepository) GetByID(ctx context.Context, id model.TaskID) (*model.Task, error) {
	data, err := r.client.get(ctx, "/pages/"+notionPageID(string(id)))
	if err != nil {
		var apiErr *notionAPIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("get page: %w", err)
	}
	task := r.pageToTask(data)
	return &task, nil
}

// ListTasks queries the database sorted by creation time descending. Limit is
// applied client-side after pagination; Offset is ignored, unlike the memory
// and SQLite stores which apply both.
func (r *NotionTaskRepository) ListTasks(ctx context.Context, filter *model.TaskFilter) ([]model.Task, error) {
	sorts := []map[string]string{{"property": r.schema.CreatedProp, "direction": "descending"}}
	queryFilter := r.buildQueryFilter(filter)

	var tasks []model.Task
	var cursor string
	for {
		body := map[string]any{"sorts": sorts}
		if queryFilter != nil {
			body["filter"] = queryFilter
		}
		if cursor != "" {
			body["start_cursor"] = cursor
		}

		data, err := r.client.post(ctx, "/databases/"+r.databaseID+"/query", body)
		if err != nil {
			return nil, fmt.Errorf("query database %s: %w", r.databaseID, err)
		}

		for _, page := range gjson.GetBytes(data, "results").Array() {
			tasks = append(tasks, r.pageToTaskResult(page))
		}

		if filter != nil && filter.Limit > 0 && len(tasks) >= filter.Limit {
			tasks = tasks[:filter.Limit]
			break
		}
		if !gjson.GetBytes(data, "has_more").Bool() {
			break
		}
		cursor = gjson.GetBytes(data, "next_cursor").String()
	}
	return tasks, nil
}

func (r *NotionTaskRepository) Create(ctx context.Context, task model.Task) (*model.Task, error) {
	body := map[string]any{
		"parent":     map[string]any{"database_id": r.databaseID},
		"properties": r.taskToProperties(task),
	}
	data, err := r.client.post(ctx, "/pages", body)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	created := r.pageToTask(data)
	return &created, nil
}

func (r *NotionTaskRepository) Update(ctx context.Context, task model.Task) (*model.Task, error) {
	pageID := task.ExternalID
	if pageID == "" {
		pageID = string(task.ID)
	}
	pageID = notionPageID(pageID)

	body := map[string]any{"properties": r.taskToProperties(task)}
	data, err := r.client.patch(ctx, "/pages/"+pageID, body)
	if err != nil {
		var apiErr *notionAPIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("update task %s: %w", task.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("update page: %w", err)
	}
	updated := r.pageToTask(data)
	return &updated, nil
}

func (r *NotionTaskRepository) Delete(ctx context.Context, id model.TaskID) (bool, error) {
	body := map[string]any{"archived": true}
	_, err := r.client.patch(ctx, "/pages/"+notionPageID(string(id)), body)
	if err != nil {
		var apiErr *notionAPIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, fmt.Errorf("archive page: %w", err)
	}
	return true, nil
}

func (r *NotionTaskRepository) Exists(ctx context.Context, id model.TaskID) (bool, error) {
	task, err := r.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return task != nil, nil
}

// buildQueryFilter translates a TaskFilter into the Notion query filter shape.
// Returns nil when nothing is set.
func (r *NotionTaskRepository) buildQueryFilter(filter *model.TaskFilter) any {
	if filter == nil {
		return nil
	}

	var conditions []any

	if len(filter.Status) > 0 {
		var alts []any
		for _, s := range filter.Status {
			alts = append(alts, map[string]any{
				"property":         r.schema.StatusProp,
				r.schema.StatusType: map[string]any{"equals": r.schema.StatusValues[s]},
			})
		}
		conditions = append(conditions, orGroup(alts))
	}

	if len(filter.Priority) > 0 {
		var alts []any
		for _, p := range filter.Priority {
			alts = append(alts, map[string]any{
				"property": r.schema.PriorityProp,
				"select":   map[string]any{"equals": r.schema.PriorityValues[p]},
			})
		}
		conditions = append(conditions, orGroup(alts))
	}

	if filter.DueBefore != nil {
		conditions = append(conditions, map[string]any{
			"property": r.schema.DueDateProp,
			"date":     map[string]any{"on_or_before": filter.DueBefore.Format(time.RFC3339)},
		})
	}
	if filter.DueAfter != nil {
		conditions = append(conditions, map[string]any{
			"property": r.schema.DueDateProp,
			"date":     map[string]any{"on_or_after": filter.DueAfter.Format(time.RFC3339)},
		})
	}

	for _, tag := range filter.Tags {
		conditions = append(conditions, map[string]any{
			"property":     r.schema.TagsProp,
			"multi_select": map[string]any{"contains": tag},
		})
	}

	if filter.Assignee != "" {
		conditions = append(conditions, map[string]any{
			"property": r.schema.AssigneeProp,
			"people":   map[string]any{"contains": filter.Assignee},
		})
	}

	switch len(conditions) {
	case 0:
		return nil
	case 1:
		return conditions[0]
	default:
		return map[string]any{"and": conditions}
	}
}

func orGroup(alts []any) any {
	if len(alts) == 1 {
		return alts[0]
	}
	return map[string]any{"or": alts}
}

func (r *NotionTaskRepository) taskToProperties(task model.Task) map[string]any {
	props := map[string]any{
		r.schema.TitleProp: map[string]any{
			"title": []any{map[string]any{"text": map[string]any{"content": task.Title}}},
		},
		r.schema.StatusProp: map[string]any{
			r.schema.StatusType: map[string]any{"name": r.schema.StatusValues[task.Status]},
		},
		r.schema.PriorityProp: map[string]any{
			"select": map[string]any{"name": r.schema.PriorityValues[task.Priority]},
		},
	}

	if task.Description != "" && r.schema.DescriptionProp != "" {
		props[r.schema.DescriptionProp] = map[string]any{
			"rich_text": []any{map[string]any{"text": map[string]any{"content": task.Description}}},
		}
	}
	if task.DueDate != nil {
		props[r.schema.DueDateProp] = map[string]any{
			"date": map[string]any{"start": task.DueDate.Format(time.RFC3339)},
		}
	}
	if len(task.Tags) > 0 {
		var opts []any
		for _, tag := range task.Tags {
			opts = append(opts, map[string]any{"name": tag})
		}
		props[r.schema.TagsProp] = map[string]any{"multi_select": opts}
	}
	if len(task.Metadata) > 0 && r.schema.MetadataProp != "" {
		if data, err := json.Marshal(task.Metadata); err == nil {
			props[r.schema.MetadataProp] = map[string]any{
				"rich_text": []any{map[string]any{"text": map[string]any{"content": string(data)}}},
			}
		}
	}
	return props
}

func (r *NotionTaskRepository) pageToTask(data []byte) model.Task {
	return r.pageToTaskResult(gjson.ParseBytes(data))
}

// pageToTaskResult reconstructs a Task from a Notion page. Unrecognized
// status/priority spellings fall back to todo/medium.
func (r *NotionTaskRepository) pageToTaskResult(page gjson.Result) model.Task {
	props := page.Get("properties")

	title := props.Get(r.schema.TitleProp + ".title.0.text.content").String()
	if title == "" {
		title = "Untitled"
	}

	statusName := props.Get(r.schema.StatusProp + "." + r.schema.StatusType + ".name").String()
	priorityName := props.Get(r.schema.PriorityProp + ".select.name").String()

	task := model.Task{
		ID:          model.NotionTaskID(page.Get("id").String()),
		Title:       title,
		Description: props.Get(r.schema.DescriptionProp + ".rich_text.0.text.content").String(),
		Status:      r.schema.statusFromNotion(statusName),
		Priority:    r.schema.priorityFromNotion(priorityName),
		Source:      r.source,
		ExternalID:  page.Get("id").String(),
	}

	if due := props.Get(r.schema.DueDateProp + ".date.start").String(); due != "" {
		if parsed, err := parseNotionDate(due); err == nil {
			task.DueDate = &parsed
		}
	}

	for _, tag := range props.Get(r.schema.TagsProp + ".multi_select.#.name").Array() {
		task.Tags = append(task.Tags, tag.String())
	}

	if raw := props.Get(r.schema.MetadataProp + ".rich_text.0.text.content").String(); raw != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			task.Metadata = meta
		}
	}

	if created := page.Get("created_time").String(); created != "" {
		if ts, err := time.Parse(time.RFC3339, created); err == nil {
			task.CreatedAt = ts
		}
	}
	if edited := page.Get("last_edited_time").String(); edited != "" {
		if ts, err := time.Parse(time.RFC3339, edited); err == nil {
			task.UpdatedAt = ts
		}
	}
	return task
}

// parseNotionDate accepts both date-only and datetime property values.
func parseNotionDate(s string) (time.Time, error) {
	if strings.Contains(s, "T") {
		return time.Parse(time.RFC3339, s)
	}
	return time.Parse("2006-01-02", s)
}
