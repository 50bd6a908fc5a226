package task

import (
	"strings"
	"time"
)

// Update is a typed patch over a task's plain fields. Nil pointers leave a
// field alone. Priority and progress are normalized the same way as the
// dedicated mutators.
type Update struct {
	Title        *string
	Description  *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
	Category     *string
	Progress     *int
	Template     *bool
}

// IsEmpty reports whether u would change nothing.
func (u Update) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Priority == nil &&
		u.DueDate == nil && !u.ClearDueDate && u.Category == nil &&
		u.Progress == nil && u.Template == nil
}

// Apply writes every supplied field, appending one history entry per field
// and touching modified once. A blank title rejects the whole patch.
func (t *Task) Apply(u Update) error {
	if u.Title != nil && !validTitle(*u.Title) {
		return ErrTitleEmpty
	}
	if u.IsEmpty() {
		return nil
	}

	ts := now()
	if u.Title != nil {
		before := t.title
		t.title = *u.Title
		t.record(ts, "title", StringValue(before), StringValue(t.title))
	}
	if u.Description != nil {
		before := t.description
		t.description = *u.Description
		t.record(ts, "description", StringValue(before), StringValue(t.description))
	}
	if u.Priority != nil {
		before := t.priority
		t.priority = ParsePriority(*u.Priority)
		t.record(ts, "priority", StringValue(string(before)), StringValue(string(t.priority)))
	}
	switch {
	case u.DueDate != nil:
		before := OptionalTimeValue(t.dueDate)
		t.dueDate = copyTime(u.DueDate)
		t.record(ts, "due_date", before, TimeValue(*t.dueDate))
	case u.ClearDueDate:
		before := OptionalTimeValue(t.dueDate)
		t.dueDate = nil
		t.record(ts, "due_date", before, NullValue())
	}
	if u.Category != nil {
		before := t.category
		t.category = strings.TrimSpace(*u.Category)
		t.record(ts, "category", optionalStringValue(before), optionalStringValue(t.category))
	}
	if u.Progress != nil {
		before := t.progress
		t.progress = clampProgress(*u.Progress)
		t.record(ts, "progress", IntValue(before), IntValue(t.progress))
	}
	if u.Template != nil {
		before := t.template
		t.template = *u.Template
		t.record(ts, "template", BoolValue(before), BoolValue(t.template))
	}
	return nil
}
