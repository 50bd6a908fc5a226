package task

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultNoteAuthor is used when a note is added without an author.
const DefaultNoteAuthor = "system"

var (
	// ErrTitleEmpty is returned when a title is blank.
	ErrTitleEmpty = errors.New("title must not be empty")
	// ErrNegativeMinutes is returned by AddTime for negative input.
	ErrNegativeMinutes = errors.New("minutes must not be negative")
	// ErrSubtaskNotFound is returned when a subtask id does not match.
	ErrSubtaskNotFound = errors.New("subtask not found")
)

// validTitle is the title rule shared by the mutators and FromRecord.
func validTitle(title string) bool {
	return strings.TrimSpace(title) != ""
}

// now returns the current UTC time without a monotonic reading, so values
// compare equal after a JSON round trip.
var now = func() time.Time {
	return time.Now().UTC().Round(0)
}

// Note is a free-text annotation on a task.
type Note struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"`
}

// Task is a unit of trackable work with nested subtasks and an audit log.
type Task struct {
	id            string
	title         string
	description   string
	priority      Priority
	dueDate       *time.Time
	category      string
	completed     bool
	completedDate *time.Time
	created       time.Time
	modified      time.Time
	subtasks      []*Task
	tags          []string
	dependencies  []string
	notes         []Note
	timeSpent     int
	progress      int
	template      bool
	sharedWith    []string
	reminder      *time.Time
	history       []HistoryEntry
}

// Params holds the inputs for New.
type Params struct {
	Title       string
	Description string
	Priority    string
	DueDate     *time.Time
	Category    string
}

// New creates a task with a fresh id. Unknown priorities become medium. New
// does not check the title; callers reject blank titles first.
func New(p Params) *Task {
	ts := now()
	return &Task{
		id:           uuid.NewString(),
		title:        p.Title,
		description:  p.Description,
		priority:     ParsePriority(p.Priority),
		dueDate:      copyTime(p.DueDate),
		category:     p.Category,
		created:      ts,
		modified:     ts,
		subtasks:     []*Task{},
		tags:         []string{},
		dependencies: []string{},
		notes:        []Note{},
		sharedWith:   []string{},
		history:      []HistoryEntry{},
	}
}

func (t *Task) ID() string { return t.id }
func (t *Task) Title() string { return t.title }
func (t *Task) Description() string { return t.description }
func (t *Task) Priority() Priority { return t.priority }
func (t *Task) DueDate() *time.Time { return copyTime(t.dueDate) }
func (t *Task) Category() string { return t.category }
func (t *Task) Completed() bool { return t.completed }
func (t *Task) CompletedDate() *time.Time { return copyTime(t.completedDate) }
func (t *Task) Created() time.Time { return t.created }
func (t *Task) Modified() time.Time { return t.modified }
func (t *Task) Tags() []string { return slices.Clone(t.tags) }
func (t *Task) Dependencies() []string { return slices.Clone(t.dependencies) }
func (t *Task) Notes() []Note { return slices.Clone(t.notes) }
func (t *Task) TimeSpent() int { return t.timeSpent }
func (t *Task) Progress() int { return t.progress }
func (t *Task) Template() bool { return t.template }
func (t *Task) SharedWith() []string { return slices.Clone(t.sharedWith) }
func (t *Task) Reminder() *time.Time { return copyTime(t.reminder) }

// Subtasks returns the direct children in order. The returned slice is a
// copy; the tasks themselves remain owned by t.
func (t *Task) Subtasks() []*Task { return slices.Clone(t.subtasks) }

// Overdue reports whether an incomplete task's due date falls before the
// calendar day of at.
func (t *Task) Overdue(at time.Time) bool {
	if t.completed || t.dueDate == nil {
		return false
	}
	y, m, d := at.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, at.Location())
	return t.dueDate.Before(startOfDay)
}

// AddSubtask appends a new child task that inherits t's category. A blank
// title is rejected with ErrTitleEmpty.
func (t *Task) AddSubtask(title, description, priority string) (*Task, error) {
	if !validTitle(title) {
		return nil, ErrTitleEmpty
	}
	sub := New(Params{
		Title:       title,
		Description: description,
		Priority:    priority,
		Category:    t.category,
	})
	before := len(t.subtasks)
	t.subtasks = append(t.subtasks, sub)
	t.record(now(), "subtasks", IntValue(before), IntValue(len(t.subtasks)))
	return sub, nil
}

// RemoveSubtask removes the direct child with id. It reports whether a
// child was removed; an unknown id changes nothing and records nothing.
func (t *Task) RemoveSubtask(id string) bool {
	idx := slices.IndexFunc(t.subtasks, func(s *Task) bool { return s.id == id })
	if idx < 0 {
		return false
	}
	before := len(t.subtasks)
	t.subtasks = slices.Delete(t.subtasks, idx, idx+1)
	t.record(now(), "subtasks", IntValue(before), IntValue(len(t.subtasks)))
	return true
}

// Subtask returns the direct child with id, or nil if not found.
func (t *Task) Subtask(id string) *Task {
	for _, s := range t.subtasks {
		if s.id == id {
			return s
		}
	}
	return nil
}

// AddNote appends a note. An empty author becomes DefaultNoteAuthor.
func (t *Task) AddNote(text, author string) {
	if author == "" {
		author = DefaultNoteAuthor
	}
	ts := now()
	before := len(t.notes)
	t.notes = append(t.notes, Note{Text: text, Timestamp: ts, Author: author})
	t.record(ts, "notes", IntValue(before), IntValue(len(t.notes)))
}

// AddTag adds tag if absent and reports whether anything changed.
func (t *Task) AddTag(tag string) bool {
	return t.addMember(&t.tags, "tags", tag)
}

// RemoveTag removes tag if present and reports whether anything changed.
func (t *Task) RemoveTag(tag string) bool {
	return t.removeMember(&t.tags, "tags", tag)
}

// AddDependency records that t depends on the task with id. The id is not
// validated against any store.
func (t *Task) AddDependency(id string) bool {
	return t.addMember(&t.dependencies, "dependencies", id)
}

// RemoveDependency drops a dependency id if present.
func (t *Task) RemoveDependency(id string) bool {
	return t.removeMember(&t.dependencies, "dependencies", id)
}

// ShareWith adds a user to the share list if absent.
func (t *Task) ShareWith(user string) bool {
	return t.addMember(&t.sharedWith, "shared_with", user)
}

// UnshareWith removes a user from the share list if present.
func (t *Task) UnshareWith(user string) bool {
	return t.removeMember(&t.sharedWith, "shared_with", user)
}

func (t *Task) addMember(set *[]string, field, item string) bool {
	if slices.Contains(*set, item) {
		return false
	}
	before := slices.Clone(*set)
	*set = append(*set, item)
	t.record(now(), field, StringsValue(before), StringsValue(*set))
	return true
}

func (t *Task) removeMember(set *[]string, field, item string) bool {
	idx := slices.Index(*set, item)
	if idx < 0 {
		return false
	}
	before := slices.Clone(*set)
	*set = slices.Delete(*set, idx, idx+1)
	t.record(now(), field, StringsValue(before), StringsValue(*set))
	return true
}

// UpdateProgress sets progress, clamped to [0,100].
func (t *Task) UpdateProgress(progress int) {
	before := t.progress
	t.progress = clampProgress(progress)
	t.record(now(), "progress", IntValue(before), IntValue(t.progress))
}

// AddTime accumulates minutes into time spent.
func (t *Task) AddTime(minutes int) error {
	if minutes < 0 {
		return fmt.Errorf("add %d minutes: %w", minutes, ErrNegativeMinutes)
	}
	before := t.timeSpent
	t.timeSpent += minutes
	t.record(now(), "time_spent", IntValue(before), IntValue(t.timeSpent))
	return nil
}

// SetReminder sets the reminder time, stored in UTC.
func (t *Task) SetReminder(at time.Time) {
	before := OptionalTimeValue(t.reminder)
	at = at.UTC().Round(0)
	t.reminder = &at
	t.record(now(), "reminder", before, TimeValue(at))
}

// ClearReminder removes the reminder. It records an entry even when no
// reminder was set.
func (t *Task) ClearReminder() {
	before := OptionalTimeValue(t.reminder)
	t.reminder = nil
	t.record(now(), "reminder", before, NullValue())
}

// Complete marks the task completed as of now. Completing an already
// completed task overwrites the completion date.
func (t *Task) Complete() {
	ts := now()
	wasCompleted := t.completed
	prevDate := OptionalTimeValue(t.completedDate)
	t.completed = true
	t.completedDate = &ts
	t.record(ts, "completed", BoolValue(wasCompleted), BoolValue(true))
	t.record(ts, "completed_date", prevDate, TimeValue(ts))
}

// String renders a one-line summary, e.g.
// "[☐] [HIGH] Write report, due: 2024-05-01 [40%] #work,#q2".
func (t *Task) String() string {
	status := "☐"
	if t.completed {
		status = "✓"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s", status, strings.ToUpper(string(t.priority)), t.title)
	if t.dueDate != nil {
		fmt.Fprintf(&b, ", due: %s", t.dueDate.Format(time.DateOnly))
	}
	if t.progress > 0 {
		fmt.Fprintf(&b, " [%d%%]", t.progress)
	}
	if len(t.tags) > 0 {
		b.WriteString(" #" + strings.Join(t.tags, ",#"))
	}
	return b.String()
}

func clampProgress(p int) int {
	return min(max(p, 0), 100)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
