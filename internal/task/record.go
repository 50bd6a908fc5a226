package task

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidRecord is returned by FromRecord for records missing required
// fields.
var ErrInvalidRecord = errors.New("invalid task record")

// Record is the persisted shape of a Task. Optional values encode as null
// and collections always encode as arrays.
type Record struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Priority      string         `json:"priority"`
	DueDate       *time.Time     `json:"due_date"`
	Category      *string        `json:"category"`
	Completed     bool           `json:"completed"`
	CompletedDate *time.Time     `json:"completed_date"`
	Created       time.Time      `json:"created"`
	Modified      time.Time      `json:"modified"`
	Subtasks      []Record       `json:"subtasks"`
	Tags          []string       `json:"tags"`
	Dependencies  []string       `json:"dependencies"`
	Notes         []Note         `json:"notes"`
	TimeSpent     int            `json:"time_spent"`
	Progress      int            `json:"progress"`
	Template      bool           `json:"template"`
	SharedWith    []string       `json:"shared_with"`
	Reminder      *time.Time     `json:"reminder"`
	History       []HistoryEntry `json:"history"`
}

// Record converts t and its subtasks into their persisted form.
func (t *Task) Record() Record {
	r := Record{
		ID:            t.id,
		Title:         t.title,
		Description:   t.description,
		Priority:      string(t.priority),
		DueDate:       copyTime(t.dueDate),
		Completed:     t.completed,
		CompletedDate: copyTime(t.completedDate),
		Created:       t.created,
		Modified:      t.modified,
		Subtasks:      make([]Record, 0, len(t.subtasks)),
		Tags:          cloneOrEmpty(t.tags),
		Dependencies:  cloneOrEmpty(t.dependencies),
		Notes:         cloneOrEmpty(t.notes),
		TimeSpent:     t.timeSpent,
		Progress:      t.progress,
		Template:      t.template,
		SharedWith:    cloneOrEmpty(t.sharedWith),
		Reminder:      copyTime(t.reminder),
		History:       cloneOrEmpty(t.history),
	}
	if t.category != "" {
		c := t.category
		r.Category = &c
	}
	for _, sub := range t.subtasks {
		r.Subtasks = append(r.Subtasks, sub.Record())
	}
	return r
}

// FromRecord rebuilds a task tree from its persisted form. Missing
// collections become empty, missing timestamps default to now, and the
// priority and progress invariants are restored.
func FromRecord(r Record) (*Task, error) {
	return fromRecord(r, "")
}

func fromRecord(r Record, path string) (*Task, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("%sid: %w", path, ErrInvalidRecord)
	}
	if !validTitle(r.Title) {
		return nil, fmt.Errorf("%stitle: %w", path, ErrInvalidRecord)
	}

	ts := now()
	t := &Task{
		id:            r.ID,
		title:         r.Title,
		description:   r.Description,
		priority:      ParsePriority(r.Priority),
		dueDate:       copyTime(r.DueDate),
		completed:     r.Completed,
		completedDate: copyTime(r.CompletedDate),
		created:       r.Created,
		modified:      r.Modified,
		subtasks:      make([]*Task, 0, len(r.Subtasks)),
		tags:          cloneOrEmpty(r.Tags),
		dependencies:  cloneOrEmpty(r.Dependencies),
		notes:         cloneOrEmpty(r.Notes),
		timeSpent:     max(r.TimeSpent, 0),
		progress:      clampProgress(r.Progress),
		template:      r.Template,
		sharedWith:    cloneOrEmpty(r.SharedWith),
		reminder:      copyTime(r.Reminder),
		history:       cloneOrEmpty(r.History),
	}
	if r.Category != nil {
		t.category = *r.Category
	}
	if t.created.IsZero() {
		t.created = ts
	}
	if t.modified.IsZero() {
		t.modified = ts
	}
	for i, sr := range r.Subtasks {
		sub, err := fromRecord(sr, fmt.Sprintf("%ssubtasks[%d].", path, i))
		if err != nil {
			return nil, err
		}
		t.subtasks = append(t.subtasks, sub)
	}
	return t, nil
}

func cloneOrEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return slices.Clone(s)
}
