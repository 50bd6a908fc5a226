// Package report renders plain-text summaries of a task list.
package report

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nibzard/tasker-go/internal/task"
)

// Kind names a report layout.
type Kind string

const (
	KindSummary  Kind = "summary"
	KindDetailed Kind = "detailed"
)

// ErrUnknownKind is returned by Generate for unrecognized report kinds.
var ErrUnknownKind = errors.New("unknown report kind")

const stampLayout = "2006-01-02 15:04"

// Generate renders the report named by kind.
func Generate(kind string, tasks []*task.Task, now time.Time) (string, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindSummary, "":
		return Summary(tasks, now), nil
	case KindDetailed:
		return Detailed(tasks, now), nil
	}
	return "", fmt.Errorf("%w %q (expected summary or detailed)", ErrUnknownKind, kind)
}

// Stats are the aggregate counts behind the summary report.
type Stats struct {
	Total          int
	Completed      int
	CompletionRate float64 // percent
	ByPriority     map[task.Priority]int
	ByCategory     map[string]int
	Overdue        []*task.Task
}

// Compute aggregates tasks as of now.
func Compute(tasks []*task.Task, now time.Time) Stats {
	st := Stats{
		Total:      len(tasks),
		ByPriority: make(map[task.Priority]int, len(task.Priorities)),
		ByCategory: make(map[string]int),
	}
	for _, t := range tasks {
		if t.Completed() {
			st.Completed++
		}
		st.ByPriority[t.Priority()]++
		if c := t.Category(); c != "" {
			st.ByCategory[c]++
		}
		if t.Overdue(now) {
			st.Overdue = append(st.Overdue, t)
		}
	}
	if st.Total > 0 {
		st.CompletionRate = float64(st.Completed) / float64(st.Total) * 100
	}
	return st
}

// Summary renders totals, completion rate, priority and category counts, and
// overdue tasks.
func Summary(tasks []*task.Task, now time.Time) string {
	st := Compute(tasks, now)

	var b strings.Builder
	b.WriteString("Task Summary Report\n")
	fmt.Fprintf(&b, "Generated on: %s\n", now.Format(stampLayout))

	b.WriteString("\nOverall Statistics:\n")
	fmt.Fprintf(&b, "- Total Tasks: %d\n", st.Total)
	fmt.Fprintf(&b, "- Completed Tasks: %d\n", st.Completed)
	fmt.Fprintf(&b, "- Completion Rate: %.1f%%\n", st.CompletionRate)

	b.WriteString("\nTasks by Priority:\n")
	for _, p := range slices.Backward(task.Priorities) {
		fmt.Fprintf(&b, "- %s: %d\n", capitalize(string(p)), st.ByPriority[p])
	}

	if len(st.ByCategory) > 0 {
		b.WriteString("\nTasks by Category:\n")
		categories := make([]string, 0, len(st.ByCategory))
		for c := range st.ByCategory {
			categories = append(categories, c)
		}
		slices.Sort(categories)
		for _, c := range categories {
			fmt.Fprintf(&b, "- %s: %d\n", c, st.ByCategory[c])
		}
	}

	if len(st.Overdue) > 0 {
		b.WriteString("\nOverdue Tasks:\n")
		for _, t := range st.Overdue {
			fmt.Fprintf(&b, "- %s (Due: %s)\n", t.Title(), t.DueDate().Format(time.DateOnly))
		}
	}
	return b.String()
}

// Detailed renders every active task followed by every completed task.
func Detailed(tasks []*task.Task, now time.Time) string {
	var active, done []*task.Task
	for _, t := range tasks {
		if t.Completed() {
			done = append(done, t)
		} else {
			active = append(active, t)
		}
	}

	var b strings.Builder
	b.WriteString("Detailed Task Report\n")
	fmt.Fprintf(&b, "Generated on: %s\n", now.Format(stampLayout))

	if len(active) > 0 {
		b.WriteString("\nActive Tasks:\n")
		for _, t := range active {
			fmt.Fprintf(&b, "\nTask: %s\n", t.Title())
			fmt.Fprintf(&b, "ID: %s\n", t.ID())
			fmt.Fprintf(&b, "Priority: %s\n", strings.ToUpper(string(t.Priority())))
			if d := t.Description(); d != "" {
				fmt.Fprintf(&b, "Description: %s\n", d)
			}
			if due := t.DueDate(); due != nil {
				fmt.Fprintf(&b, "Due Date: %s\n", due.Format(time.DateOnly))
			}
			if c := t.Category(); c != "" {
				fmt.Fprintf(&b, "Category: %s\n", c)
			}
			if tags := t.Tags(); len(tags) > 0 {
				fmt.Fprintf(&b, "Tags: %s\n", strings.Join(tags, ", "))
			}
			if p := t.Progress(); p > 0 {
				fmt.Fprintf(&b, "Progress: %d%%\n", p)
			}
			if n := len(t.Subtasks()); n > 0 {
				fmt.Fprintf(&b, "Subtasks: %d\n", n)
			}
		}
	}

	if len(done) > 0 {
		b.WriteString("\nCompleted Tasks:\n")
		for _, t := range done {
			fmt.Fprintf(&b, "\nTask: %s\n", t.Title())
			if cd := t.CompletedDate(); cd != nil {
				fmt.Fprintf(&b, "Completed on: %s\n", cd.Format(time.DateOnly))
			}
			if c := t.Category(); c != "" {
				fmt.Fprintf(&b, "Category: %s\n", c)
			}
		}
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
