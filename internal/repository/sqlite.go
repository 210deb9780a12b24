package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// taskRecord is the gorm row shape for tasks. Tags and Metadata are stored as
// JSON text columns.
type taskRecord struct {
	RowID       uint   `gorm:"primaryKey;autoIncrement"`
	TaskID      string `gorm:"uniqueIndex;column:task_id"`
	Title       string
	Description string
	Status      string `gorm:"index"`
	Priority    string
	Source      string
	DueDate     *time.Time
	Assignee    string
	Tags        string
	ExternalID  string
	Metadata    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (taskRecord) TableName() string { return "tasks" }

// NewDB opens a SQLite database and runs migrations.
func NewDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "claude_todo.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}

	dbLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&taskRecord{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return db, nil
}

// ensureDirForSQLite creates the parent dir for the SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}

// SQLiteTaskRepository persists tasks in SQLite via gorm. Listing returns rows
// in insertion order.
type SQLiteTaskRepository struct {
	db *gorm.DB
}

func NewSQLiteTaskRepository(db *gorm.DB) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{db: db}
}

func (r *SQLiteTaskRepository) GetByID(ctx context.Context, id model.TaskID) (*model.Task, error) {
	var rec taskRecord
	err := r.db.WithContext(ctx).Where("task_id = ?", string(id)).First(&rec).Error
	switch {
	case err == nil:
		task := recordToTask(rec)
		return &task, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("find task: %w", err)
	}
}

func (r *SQLiteTaskRepository) ListTasks(ctx context.Context, filter *model.TaskFilter) ([]model.Task, error) {
	var recs []taskRecord
	if err := r.db.WithContext(ctx).Order("row_id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]model.Task, 0, len(recs))
	for _, rec := range recs {
		tasks = append(tasks, recordToTask(rec))
	}
	return filter.Apply(tasks), nil
}

func (r *SQLiteTaskRepository) Create(ctx context.Context, task model.Task) (*model.Task, error) {
	exists, err := r.Exists(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("create task %s: %w", task.ID, ErrDuplicate)
	}
	rec := taskToRecord(task)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	created := recordToTask(rec)
	return &created, nil
}

func (r *SQLiteTaskRepository) Update(ctx context.Context, task model.Task) (*model.Task, error) {
	var rec taskRecord
	err := r.db.WithContext(ctx).Where("task_id = ?", string(task.ID)).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("update task %s: %w", task.ID, ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("find task: %w", err)
	}

	updated := taskToRecord(task)
	updated.RowID = rec.RowID
	if err := r.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	out := recordToTask(updated)
	return &out, nil
}

func (r *SQLiteTaskRepository) Delete(ctx context.Context, id model.TaskID) (bool, error) {
	res := r.db.WithContext(ctx).Where("task_id = ?", string(id)).Delete(&taskRecord{})
	if res.Error != nil {
		return false, fmt.Errorf("delete task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *SQLiteTaskRepository) Exists(ctx context.Context, id model.TaskID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&taskRecord{}).
		Where("task_id = ?", string(id)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count tasks: %w", err)
	}
	return count > 0, nil
}

func taskToRecord(t model.Task) taskRecord {
	rec := taskRecord{
		TaskID:      string(t.ID),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Source:      string(t.Source),
		DueDate:     t.DueDate,
		Assignee:    t.Assignee,
		ExternalID:  t.ExternalID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if len(t.Tags) > 0 {
		if data, err := json.Marshal(t.Tags); err == nil {
			rec.Tags = string(data)
		}
	}
	if len(t.Metadata) > 0 {
		if data, err := json.Marshal(t.Metadata); err == nil {
			rec.Metadata = string(data)
		}
	}
	return rec
}

func recordToTask(rec taskRecord) model.Task {
	task := model.Task{
		ID:          model.TaskID(rec.TaskID),
		Title:       rec.Title,
		Description: rec.Description,
		Status:      model.Status(rec.Status),
		Priority:    model.Priority(rec.Priority),
		Source:      model.Source(rec.Source),
		DueDate:     rec.DueDate,
		Assignee:    rec.Assignee,
		ExternalID:  rec.ExternalID,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	if rec.Tags != "" {
		_ = json.Unmarshal([]byte(rec.Tags), &task.Tags)
	}
	if rec.Metadata != "" {
		_ = json.Unmarshal([]byte(rec.Metadata), &task.Metadata)
	}
	return task
}
