package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nibzard/tasker-go/internal/task"
)

func fixture(t *testing.T, now time.Time) []*task.Task {
	t.Helper()
	overdue := now.AddDate(0, 0, -3)
	future := now.AddDate(0, 0, 7)

	taxes := task.New(task.Params{Title: "File taxes", Priority: "critical", DueDate: &overdue, Category: "finance"})
	trip := task.New(task.Params{Title: "Plan trip", Description: "Lisbon", Priority: "high", DueDate: &future, Category: "travel"})
	trip.AddTag("summer")
	trip.UpdateProgress(30)
	if _, err := trip.AddSubtask("Book flights", "", ""); err != nil {
		t.Fatal(err)
	}
	milk := task.New(task.Params{Title: "Buy milk", Priority: "low"})
	milk.Complete()
	laundry := task.New(task.Params{Title: "Laundry", Category: "home"})

	return []*task.Task{taxes, trip, milk, laundry}
}

func TestCompute(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	st := Compute(fixture(t, now), now)

	if st.Total != 4 || st.Completed != 1 {
		t.Fatalf("totals: got %d/%d, want 4/1", st.Total, st.Completed)
	}
	if st.CompletionRate != 25 {
		t.Errorf("CompletionRate: got %v, want 25", st.CompletionRate)
	}
	if st.ByPriority[task.PriorityMedium] != 1 || st.ByPriority[task.PriorityCritical] != 1 {
		t.Errorf("ByPriority: got %v", st.ByPriority)
	}
	if len(st.ByCategory) != 3 {
		t.Errorf("ByCategory: got %v, want 3 categories", st.ByCategory)
	}
	if len(st.Overdue) != 1 || st.Overdue[0].Title() != "File taxes" {
		t.Errorf("Overdue: got %v", st.Overdue)
	}
}

func TestSummary(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	out := Summary(fixture(t, now), now)

	for _, want := range []string{
		"Generated on: 2024-06-10 12:00",
		"- Total Tasks: 4",
		"- Completion Rate: 25.0%",
		"- Critical: 1\n- High: 1\n- Medium: 1\n- Low: 1",
		"- finance: 1\n- home: 1\n- travel: 1",
		"- File taxes (Due: 2024-06-07)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSummaryEmpty(t *testing.T) {
	out := Summary(nil, time.Now())
	if !strings.Contains(out, "- Completion Rate: 0.0%") {
		t.Errorf("unexpected summary:\n%s", out)
	}
	if strings.Contains(out, "Tasks by Category") || strings.Contains(out, "Overdue") {
		t.Errorf("empty summary should omit category and overdue sections:\n%s", out)
	}
}

func TestDetailed(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	out := Detailed(fixture(t, now), now)

	activeIdx := strings.Index(out, "Active Tasks:")
	doneIdx := strings.Index(out, "Completed Tasks:")
	if activeIdx < 0 || doneIdx < 0 || activeIdx > doneIdx {
		t.Fatalf("sections out of order:\n%s", out)
	}
	for _, want := range []string{
		"Task: Plan trip",
		"Priority: HIGH",
		"Description: Lisbon",
		"Tags: summer",
		"Progress: 30%",
		"Subtasks: 1",
	} {
		if !strings.Contains(out[activeIdx:doneIdx], want) {
			t.Errorf("active section missing %q", want)
		}
	}
	if !strings.Contains(out[doneIdx:], "Task: Buy milk\nCompleted on: ") {
		t.Errorf("completed section missing Buy milk:\n%s", out[doneIdx:])
	}
}

func TestGenerate(t *testing.T) {
	now := time.Now()
	if out, err := Generate("summary", nil, now); err != nil || !strings.HasPrefix(out, "Task Summary Report") {
		t.Errorf("summary: got %q, %v", out, err)
	}
	if out, err := Generate("DETAILED", nil, now); err != nil || !strings.HasPrefix(out, "Detailed Task Report") {
		t.Errorf("detailed: got %q, %v", out, err)
	}
	if _, err := Generate("weekly", nil, now); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("weekly: got %v, want ErrUnknownKind", err)
	}
}
