package model

import "time"

// DefaultFilterLimit is applied when a filter leaves Limit unset.
const DefaultFilterLimit = 100

// TaskFilter holds query criteria for task listings. Zero-value fields are
// ignored. No ordering is guaranteed beyond what the backing store imposes.
type TaskFilter struct {
	Status    []Status
	Priority  []Priority
	Source    []Source
	Assignee  string
	DueBefore *time.Time
	DueAfter  *time.Time
	Tags      []string // ANY match
	Limit     int
	Offset    int
}

// Match reports whether the task satisfies every set criterion.
func (f *TaskFilter) Match(t Task) bool {
	if len(f.Status) > 0 && !containsStatus(f.Status, t.Status) {
		return false
	}
	if len(f.Priority) > 0 && !containsPriority(f.Priority, t.Priority) {
		return false
	}
	if len(f.Source) > 0 && !containsSource(f.Source, t.Source) {
		return false
	}
	if f.Assignee != "" && t.Assignee != f.Assignee {
		return false
	}
	if f.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*f.DueBefore)) {
		return false
	}
	if f.DueAfter != nil && (t.DueDate == nil || !t.DueDate.After(*f.DueAfter)) {
		return false
	}
	if len(f.Tags) > 0 && !anyTag(t.Tags, f.Tags) {
		return false
	}
	return true
}

// Apply filters the slice and slices out the requested page. A nil filter
// returns the input unchanged.
func (f *TaskFilter) Apply(tasks []Task) []Task {
	if f == nil {
		return tasks
	}

	matched := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if f.Match(t) {
			matched = append(matched, t)
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultFilterLimit
	}
	if f.Offset >= len(matched) {
		return []Task{}
	}
	end := f.Offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[f.Offset:end]
}

func containsStatus(set []Status, s Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(set []Priority, p Priority) bool {
	for _, v := range set {
		if v == p {
			return true
		}
	}
	return false
}

func containsSource(set []Source, s Source) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}
