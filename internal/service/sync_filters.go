package service

import (
	"strings"

	"github.com/GS-Bacon/claude-todo/internal/model"
)

// Predicate builders for common sync rules. Each returns a closure over its
// criteria; combine them with CombineFilters.

// AssigneeFilter matches tasks assigned to name, whether through the direct
// assignee field, an "assignees" metadata list, or a tag.
func AssigneeFilter(name string) TaskPredicate {
	return func(t model.Task) bool {
		if t.Assignee == name {
			return true
		}
		if assignees, ok := t.Metadata["assignees"].([]any); ok {
			for _, a := range assignees {
				if s, ok := a.(string); ok && s == name {
					return true
				}
			}
		}
		if assignees, ok := t.Metadata["assignees"].([]string); ok {
			for _, a := range assignees {
				if a == name {
					return true
				}
			}
		}
		for _, tag := range t.Tags {
			if tag == name {
				return true
			}
		}
		return false
	}
}

// TagFilter matches tasks carrying the given tag.
func TagFilter(tag string) TaskPredicate {
	return func(t model.Task) bool {
		for _, have := range t.Tags {
			if have == tag {
				return true
			}
		}
		return false
	}
}

// PriorityFilter matches tasks whose priority is in the given set.
func PriorityFilter(priorities ...model.Priority) TaskPredicate {
	return func(t model.Task) bool {
		for _, p := range priorities {
			if t.Priority == p {
				return true
			}
		}
		return false
	}
}

// StatusFilter matches tasks whose status is in the given set.
func StatusFilter(statuses ...model.Status) TaskPredicate {
	return func(t model.Task) bool {
		for _, s := range statuses {
			if t.Status == s {
				return true
			}
		}
		return false
	}
}

// CombineMode selects conjunction or disjunction for CombineFilters.
type CombineMode string

const (
	CombineAnd CombineMode = "and"
	CombineOr  CombineMode = "or"
)

// CombineFilters folds predicates into one. CombineAnd requires all to match;
// CombineOr requires any.
func CombineFilters(mode CombineMode, filters ...TaskPredicate) TaskPredicate {
	return func(t model.Task) bool {
		if mode == CombineAnd {
			for _, f := range filters {
				if !f(t) {
					return false
				}
			}
			return true
		}
		for _, f := range filters {
			if f(t) {
				return true
			}
		}
		return false
	}
}

// Field-transform builders. Each returns a fresh task value; the input is
// never mutated.

// StripTagsMapper removes the given tags.
func StripTagsMapper(tagsToRemove ...string) TaskMapper {
	remove := make(map[string]bool, len(tagsToRemove))
	for _, tag := range tagsToRemove {
		remove[tag] = true
	}
	return func(t model.Task) model.Task {
		out := t.Clone()
		kept := out.Tags[:0]
		for _, tag := range out.Tags {
			if !remove[tag] {
				kept = append(kept, tag)
			}
		}
		out.Tags = kept
		return out
	}
}

// AddTagsMapper appends the given tags, deduplicated, preserving the order of
// first appearance.
func AddTagsMapper(tagsToAdd ...string) TaskMapper {
	return func(t model.Task) model.Task {
		out := t.Clone()
		seen := make(map[string]bool, len(out.Tags)+len(tagsToAdd))
		for _, tag := range out.Tags {
			seen[tag] = true
		}
		for _, tag := range tagsToAdd {
			if !seen[tag] {
				out.Tags = append(out.Tags, tag)
				seen[tag] = true
			}
		}
		return out
	}
}

// PrefixTitleMapper prepends prefix to the title unless it is already there.
func PrefixTitleMapper(prefix string) TaskMapper {
	return func(t model.Task) model.Task {
		if strings.HasPrefix(t.Title, prefix) {
			return t
		}
		out := t.Clone()
		out.Title = prefix + out.Title
		return out
	}
}
