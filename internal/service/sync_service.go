package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/GS-Bacon/claude-todo/internal/model"
	"github.com/GS-Bacon/claude-todo/internal/repository"
)

// Metadata keys stamped on destination tasks to track provenance. A
// destination task carrying both keys is treated as already synced; manually
// created tasks that happen to carry them collide with that detection.
const (
	SyncSourceKey   = "sync_source_id"
	SyncSourceDBKey = "sync_source_db"
)

// TaskPredicate decides whether a source task is picked up by a rule.
type TaskPredicate func(model.Task) bool

// TaskMapper transforms a task before it is written to the destination. It
// must return a new value and leave the input untouched.
type TaskMapper func(model.Task) model.Task

// SyncRule binds a filter, an optional transform and a skip/update policy
// governing one source-to-destination replication pass.
type SyncRule struct {
	Name         string
	SourceFilter TaskPredicate
	FieldMapper  TaskMapper // optional
	SkipStatuses []model.Status
	SyncUpdates  bool
	Enabled      bool
}

// NewSyncRule returns a rule with the default policy: skip done tasks, sync
// updates, enabled.
func NewSyncRule(name string, filter TaskPredicate) SyncRule {
	return SyncRule{
		Name:         name,
		SourceFilter: filter,
		SkipStatuses: []model.Status{model.StatusDone},
		SyncUpdates:  true,
		Enabled:      true,
	}
}

func (r SyncRule) skips(status model.Status) bool {
	for _, s := range r.SkipStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// SyncResult is the outcome of running one rule. Per-task failures are
// captured as strings; Sync never propagates them.
type SyncResult struct {
	RuleName string   `json:"rule_name"`
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

// SyncService replicates a filtered subset of tasks from a source repository
// into a destination repository. Provenance lives entirely in destination
// metadata, so the service is stateless between runs and reruns are
// idempotent.
type SyncService struct {
	sourceRepo   repository.TaskRepository
	destRepo     repository.TaskRepository
	sourceDBName string
	destDBName   string
	rules        []SyncRule
	now          func() time.Time
}

func NewSyncService(sourceRepo, destRepo repository.TaskRepository, sourceDBName, destDBName string) *SyncService {
	if sourceDBName == "" {
		sourceDBName = "team"
	}
	if destDBName == "" {
		destDBName = "personal"
	}
	return &SyncService{
		sourceRepo:   sourceRepo,
		destRepo:     destRepo,
		sourceDBName: sourceDBName,
		destDBName:   destDBName,
		now:          time.Now,
	}
}

// WithClock overrides the time source. Tests use a fixed clock.
func (s *SyncService) WithClock(now func() time.Time) *SyncService {
	s.now = now
	return s
}

// AddRule registers a rule. Rules run in registration order.
func (s *SyncService) AddRule(rule SyncRule) {
	s.rules = append(s.rules, rule)
	log.Printf("sync: added rule %q", rule.Name)
}

// RemoveRule drops a rule by name.
func (s *SyncService) RemoveRule(name string) bool {
	for i, rule := range s.rules {
		if rule.Name == name {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			log.Printf("sync: removed rule %q", name)
			return true
		}
	}
	return false
}

// ListRules returns a copy of the registered rules.
func (s *SyncService) ListRules() []SyncRule {
	return append([]SyncRule(nil), s.rules...)
}

// Sync executes the named enabled rule, or every enabled rule in registration
// order when ruleName is empty. Disabled or non-matching rules are silently
// skipped. All failure is channeled into the per-rule results; Sync itself
// never fails.
func (s *SyncService) Sync(ctx context.Context, ruleName string) []SyncResult {
	var results []SyncResult
	for _, rule := range s.rules {
		if ruleName != "" && rule.Name != ruleName {
			continue
		}
		if !rule.Enabled {
			continue
		}
		results = append(results, s.executeRule(ctx, rule))
	}
	return results
}

func (s *SyncService) executeRule(ctx context.Context, rule SyncRule) SyncResult {
	result := SyncResult{RuleName: rule.Name}

	sourceTasks, err := s.sourceRepo.ListTasks(ctx, nil)
	if err != nil {
		msg := fmt.Sprintf("rule %s: list source tasks: %v", rule.Name, err)
		log.Print("sync: " + msg)
		result.Errors = append(result.Errors, msg)
		return result
	}
	destTasks, err := s.destRepo.ListTasks(ctx, nil)
	if err != nil {
		msg := fmt.Sprintf("rule %s: list destination tasks: %v", rule.Name, err)
		log.Print("sync: " + msg)
		result.Errors = append(result.Errors, msg)
		return result
	}

	synced := s.syncedSourceIDs(destTasks)

	for _, task := range sourceTasks {
		if !rule.SourceFilter(task) {
			continue
		}
		if rule.skips(task.Status) {
			result.Skipped++
			continue
		}

		sourceID := task.ExternalID
		if sourceID == "" {
			sourceID = string(task.ID)
		}

		if dest, ok := synced[sourceID]; ok {
			if !rule.SyncUpdates {
				result.Skipped++
				continue
			}
			if err := s.updateSyncedTask(ctx, task, dest, rule); err != nil {
				msg := fmt.Sprintf("syncing task %s: %v", task.ID, err)
				log.Print("sync: " + msg)
				result.Errors = append(result.Errors, msg)
				continue
			}
			result.Updated++
			continue
		}

		if err := s.createSyncedTask(ctx, task, rule); err != nil {
			msg := fmt.Sprintf("syncing task %s: %v", task.ID, err)
			log.Print("sync: " + msg)
			result.Errors = append(result.Errors, msg)
			continue
		}
		result.Created++
	}

	log.Printf("sync: rule %q: created=%d updated=%d skipped=%d errors=%d",
		rule.Name, result.Created, result.Updated, result.Skipped, len(result.Errors))
	return result
}

// syncedSourceIDs indexes destination tasks by the source ID recorded in
// their provenance metadata, scoped to this service's source database name.
func (s *SyncService) syncedSourceIDs(destTasks []model.Task) map[string]model.Task {
	synced := make(map[string]model.Task)
	for _, task := range destTasks {
		sourceID, _ := task.Metadata[SyncSourceKey].(string)
		sourceDB, _ := task.Metadata[SyncSourceDBKey].(string)
		if sourceID != "" && sourceDB == s.sourceDBName {
			synced[sourceID] = task
		}
	}
	return synced
}

func (s *SyncService) createSyncedTask(ctx context.Context, sourceTask model.Task, rule SyncRule) error {
	mapped := sourceTask.Clone()
	if rule.FieldMapper != nil {
		mapped = rule.FieldMapper(sourceTask)
	}

	sourceID := sourceTask.ExternalID
	if sourceID == "" {
		sourceID = string(sourceTask.ID)
	}

	now := s.now()
	newTask := mapped.Clone()
	newTask.ID = model.NewTaskID()
	newTask.Source = model.SourceNotionPersonal
	newTask.ExternalID = ""
	newTask.CreatedAt = now
	newTask.UpdatedAt = now
	if newTask.Metadata == nil {
		newTask.Metadata = make(map[string]any, 2)
	}
	newTask.Metadata[SyncSourceKey] = sourceID
	newTask.Metadata[SyncSourceDBKey] = s.sourceDBName

	_, err := s.destRepo.Create(ctx, newTask)
	return err
}

func (s *SyncService) updateSyncedTask(ctx context.Context, sourceTask, destTask model.Task, rule SyncRule) error {
	mapped := sourceTask
	if rule.FieldMapper != nil {
		mapped = rule.FieldMapper(sourceTask)
	}

	updated := destTask.Clone()
	updated.Title = mapped.Title
	updated.Description = mapped.Description
	updated.Status = mapped.Status
	updated.Priority = mapped.Priority
	updated.DueDate = mapped.DueDate
	updated.Tags = append([]string(nil), mapped.Tags...)
	updated.UpdatedAt = s.now()

	_, err := s.destRepo.Update(ctx, updated)
	return err
}

// RulePreview describes what one rule would do without writing anything.
type RulePreview struct {
	RuleName string
	Create   []model.Task
	Update   []model.Task
	Skipped  int
	Err      error
}

// Preview runs the matching semantics of Sync without touching the
// destination. Used by the CLI dry-run mode.
func (s *SyncService) Preview(ctx context.Context, ruleName string) []RulePreview {
	var previews []RulePreview
	for _, rule := range s.rules {
		if ruleName != "" && rule.Name != ruleName {
			continue
		}
		if !rule.Enabled {
			continue
		}

		preview := RulePreview{RuleName: rule.Name}
		sourceTasks, err := s.sourceRepo.ListTasks(ctx, nil)
		if err != nil {
			preview.Err = fmt.Errorf("list source tasks: %w", err)
			previews = append(previews, preview)
			continue
		}
		destTasks, err := s.destRepo.ListTasks(ctx, nil)
		if err != nil {
			preview.Err = fmt.Errorf("list destination tasks: %w", err)
			previews = append(previews, preview)
			continue
		}
		synced := s.syncedSourceIDs(destTasks)

		for _, task := range sourceTasks {
			if !rule.SourceFilter(task) {
				continue
			}
			if rule.skips(task.Status) {
				preview.Skipped++
				continue
			}
			sourceID := task.ExternalID
			if sourceID == "" {
				sourceID = string(task.ID)
			}
			if _, ok := synced[sourceID]; ok {
				if rule.SyncUpdates {
					preview.Update = append(preview.Update, task)
				} else {
					preview.Skipped++
				}
				continue
			}
			preview.Create = append(preview.Create, task)
		}
		previews = append(previews, preview)
	}
	return previews
}
