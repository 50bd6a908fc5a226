package task

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClock pins now() to a controllable instant for the test's duration.
func stubClock(t *testing.T, start time.Time) func(time.Duration) {
	t.Helper()
	current := start
	orig := now
	now = func() time.Time { return current }
	t.Cleanup(func() { now = orig })
	return func(d time.Duration) { current = current.Add(d) }
}

func TestNew(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tk := New(Params{Title: "Write report", Description: "q2", Priority: "high", DueDate: &due, Category: "work"})

	assert.NotEmpty(t, tk.ID())
	assert.Equal(t, "Write report", tk.Title())
	assert.Equal(t, PriorityHigh, tk.Priority())
	assert.Equal(t, "work", tk.Category())
	assert.False(t, tk.Completed())
	assert.Nil(t, tk.CompletedDate())
	assert.Equal(t, 0, tk.Progress())
	assert.Equal(t, tk.Created(), tk.Modified())
	assert.Empty(t, tk.Subtasks())
	assert.Empty(t, tk.Tags())
	assert.Equal(t, 0, tk.HistoryLen())
	require.NotNil(t, tk.DueDate())
	assert.True(t, tk.DueDate().Equal(due))

	other := New(Params{Title: "Other"})
	assert.NotEqual(t, tk.ID(), other.ID())
}

func TestNewCoercesPriority(t *testing.T) {
	tests := []struct {
		input string
		want  Priority
	}{
		{"low", PriorityLow},
		{"HIGH", PriorityHigh},
		{" critical ", PriorityCritical},
		{"urgent", PriorityMedium},
		{"", PriorityMedium},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			tk := New(Params{Title: "x", Priority: tt.input})
			assert.Equal(t, tt.want, tk.Priority())
		})
	}
}

func TestSubtasks(t *testing.T) {
	parent := New(Params{Title: "Move house", Category: "home"})

	sub, err := parent.AddSubtask("Pack books", "", "low")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, "home", sub.Category())
	assert.Equal(t, PriorityLow, sub.Priority())
	assert.NotEqual(t, parent.ID(), sub.ID())
	assert.Same(t, sub, parent.Subtask(sub.ID()))
	assert.Nil(t, parent.Subtask("missing"))

	h := parent.History(HistoryFilter{Field: "subtasks"})
	require.Len(t, h, 1)
	assert.Equal(t, 0, h[0].OldValue.Int())
	assert.Equal(t, 1, h[0].NewValue.Int())

	t.Run("remove restores prior content", func(t *testing.T) {
		before := parent.Record()
		extra, err := parent.AddSubtask("Temp", "", "")
		require.NoError(t, err)
		assert.True(t, parent.RemoveSubtask(extra.ID()))
		after := parent.Record()
		assert.Equal(t, len(before.Subtasks), len(after.Subtasks))
		assert.Equal(t, before.Subtasks[0].ID, after.Subtasks[0].ID)
	})

	t.Run("remove unknown id records nothing", func(t *testing.T) {
		n := parent.HistoryLen()
		assert.False(t, parent.RemoveSubtask("missing"))
		assert.Equal(t, n, parent.HistoryLen())
	})

	t.Run("subtasks keep their own history", func(t *testing.T) {
		n := parent.HistoryLen()
		sub.AddTag("fragile")
		assert.Equal(t, n, parent.HistoryLen())
		assert.Equal(t, 1, sub.HistoryLen())
	})
}

func TestAddSubtaskRejectsBlankTitle(t *testing.T) {
	parent := New(Params{Title: "Move house"})
	for _, title := range []string{"", "  \t"} {
		sub, err := parent.AddSubtask(title, "", "low")
		assert.ErrorIs(t, err, ErrTitleEmpty)
		assert.Nil(t, sub)
	}
	assert.Empty(t, parent.Subtasks())
	assert.Zero(t, parent.HistoryLen())

	t.Run("record with blank title is rejected", func(t *testing.T) {
		_, err := FromRecord(Record{ID: "a1", Title: "   "})
		assert.ErrorIs(t, err, ErrInvalidRecord)
	})
}

func TestSetMembershipIdempotent(t *testing.T) {
	tk := New(Params{Title: "x"})

	tests := []struct {
		name   string
		add    func(string) bool
		remove func(string) bool
		get    func() []string
	}{
		{"tags", tk.AddTag, tk.RemoveTag, tk.Tags},
		{"dependencies", tk.AddDependency, tk.RemoveDependency, tk.Dependencies},
		{"shared_with", tk.ShareWith, tk.UnshareWith, tk.SharedWith},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := tk.HistoryLen()
			assert.True(t, tt.add("a"))
			assert.False(t, tt.add("a"))
			assert.True(t, tt.add("b"))
			assert.Equal(t, []string{"a", "b"}, tt.get())
			assert.Equal(t, start+2, tk.HistoryLen())

			assert.True(t, tt.remove("a"))
			assert.False(t, tt.remove("a"))
			assert.Equal(t, []string{"b"}, tt.get())
			assert.Equal(t, start+3, tk.HistoryLen())

			h := tk.History(HistoryFilter{Field: tt.name})
			require.Len(t, h, 3)
			assert.Equal(t, []string{"a"}, h[1].OldValue.Strings())
			assert.Equal(t, []string{"a", "b"}, h[1].NewValue.Strings())
		})
	}
}

func TestUpdateProgressClamps(t *testing.T) {
	tk := New(Params{Title: "x"})
	for _, tt := range []struct{ in, want int }{{150, 100}, {-5, 0}, {42, 42}} {
		tk.UpdateProgress(tt.in)
		assert.Equal(t, tt.want, tk.Progress(), "UpdateProgress(%d)", tt.in)
	}
	assert.Equal(t, 3, tk.HistoryLen())
}

func TestAddTime(t *testing.T) {
	tk := New(Params{Title: "x"})
	require.NoError(t, tk.AddTime(30))
	require.NoError(t, tk.AddTime(15))
	assert.Equal(t, 45, tk.TimeSpent())

	err := tk.AddTime(-10)
	assert.True(t, errors.Is(err, ErrNegativeMinutes))
	assert.Equal(t, 45, tk.TimeSpent())
	assert.Equal(t, 2, tk.HistoryLen())
}

func TestNotes(t *testing.T) {
	tk := New(Params{Title: "x"})
	tk.AddNote("first", "")
	tk.AddNote("second", "ana")

	notes := tk.Notes()
	require.Len(t, notes, 2)
	assert.Equal(t, DefaultNoteAuthor, notes[0].Author)
	assert.Equal(t, "ana", notes[1].Author)
	h := tk.History(HistoryFilter{Field: "notes"})
	require.Len(t, h, 2)
	assert.Equal(t, 1, h[1].OldValue.Int())
	assert.Equal(t, 2, h[1].NewValue.Int())
}

func TestReminder(t *testing.T) {
	tk := New(Params{Title: "x"})
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	tk.SetReminder(at)
	require.NotNil(t, tk.Reminder())
	tk.ClearReminder()
	assert.Nil(t, tk.Reminder())

	h := tk.History(HistoryFilter{Field: "reminder"})
	require.Len(t, h, 2)
	assert.True(t, h[0].OldValue.IsNull())
	assert.True(t, h[0].NewValue.Time().Equal(at))
	assert.True(t, h[1].NewValue.IsNull())

	t.Run("stored in UTC and survives a round trip", func(t *testing.T) {
		tk := New(Params{Title: "x"})
		tk.SetReminder(time.Now().In(time.FixedZone("CEST", 2*60*60)))
		require.NotNil(t, tk.Reminder())
		assert.Equal(t, time.UTC, tk.Reminder().Location())

		data, err := json.Marshal(tk.Record())
		require.NoError(t, err)
		var rec Record
		require.NoError(t, json.Unmarshal(data, &rec))
		decoded, err := FromRecord(rec)
		require.NoError(t, err)
		assert.Equal(t, tk.Reminder(), decoded.Reminder())
	})
}

func TestComplete(t *testing.T) {
	advance := stubClock(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	tk := New(Params{Title: "x"})

	advance(time.Minute)
	tk.Complete()
	first := *tk.CompletedDate()
	assert.True(t, tk.Completed())
	assert.Equal(t, 2, tk.HistoryLen())

	advance(time.Hour)
	tk.Complete()
	second := *tk.CompletedDate()
	assert.True(t, second.After(first))
	assert.Equal(t, 4, tk.HistoryLen())

	h := tk.History(HistoryFilter{Field: "completed_date"})
	require.Len(t, h, 2)
	assert.True(t, h[1].OldValue.Time().Equal(first))
}

func TestApply(t *testing.T) {
	advance := stubClock(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	tk := New(Params{Title: "Draft", Category: "work"})
	advance(time.Second)

	title := "Final"
	prio := "urgent"
	progress := 250
	empty := ""
	yes := true
	require.NoError(t, tk.Apply(Update{
		Title:    &title,
		Priority: &prio,
		Progress: &progress,
		Category: &empty,
		Template: &yes,
	}))

	assert.Equal(t, "Final", tk.Title())
	assert.Equal(t, PriorityMedium, tk.Priority())
	assert.Equal(t, 100, tk.Progress())
	assert.Equal(t, "", tk.Category())
	assert.True(t, tk.Template())
	assert.Equal(t, 5, tk.HistoryLen())
	assert.True(t, tk.Modified().After(tk.Created()))

	cat := tk.History(HistoryFilter{Field: "category"})
	require.Len(t, cat, 1)
	assert.Equal(t, "work", cat[0].OldValue.Text())
	assert.True(t, cat[0].NewValue.IsNull())

	t.Run("blank title rejected", func(t *testing.T) {
		blank := "  "
		desc := "ignored"
		n := tk.HistoryLen()
		err := tk.Apply(Update{Title: &blank, Description: &desc})
		assert.ErrorIs(t, err, ErrTitleEmpty)
		assert.Equal(t, n, tk.HistoryLen())
		assert.Equal(t, "", tk.Description())
	})

	t.Run("due date set and clear", func(t *testing.T) {
		due := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, tk.Apply(Update{DueDate: &due}))
		require.NotNil(t, tk.DueDate())
		require.NoError(t, tk.Apply(Update{ClearDueDate: true}))
		assert.Nil(t, tk.DueDate())
		h := tk.History(HistoryFilter{Field: "due_date"})
		require.Len(t, h, 2)
		assert.True(t, h[1].NewValue.IsNull())
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		n := tk.HistoryLen()
		require.NoError(t, tk.Apply(Update{}))
		assert.Equal(t, n, tk.HistoryLen())
	})
}

func TestHistoryFilter(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	advance := stubClock(t, start)
	tk := New(Params{Title: "x"})

	tk.AddTag("a") // t+0
	advance(time.Hour)
	tk.UpdateProgress(10) // t+1h
	advance(time.Hour)
	tk.AddTag("b") // t+2h

	since := start.Add(time.Hour)
	until := start.Add(time.Hour)

	assert.Len(t, tk.History(HistoryFilter{}), 3)
	assert.Len(t, tk.History(HistoryFilter{Field: "tags"}), 2)
	assert.Len(t, tk.History(HistoryFilter{Since: &since}), 2)
	assert.Len(t, tk.History(HistoryFilter{Until: &until}), 2)
	assert.Len(t, tk.History(HistoryFilter{Since: &since, Until: &until}), 1)
	assert.Len(t, tk.History(HistoryFilter{Field: "tags", Since: &since, Until: &until}), 0)

	got := tk.History(HistoryFilter{Field: "tags"})
	assert.Equal(t, []string{"a"}, got[0].NewValue.Strings())
	assert.Equal(t, []string{"a", "b"}, got[1].NewValue.Strings())
}

func TestHistoryCountsMutations(t *testing.T) {
	tk := New(Params{Title: "x"})
	tk.AddTag("a")
	tk.AddTag("a") // no-op
	tk.AddDependency("dep")
	tk.UpdateProgress(5)
	require.NoError(t, tk.AddTime(3))
	tk.ShareWith("bob")
	tk.SetReminder(time.Now())
	tk.ClearReminder()
	sub, err := tk.AddSubtask("s", "", "")
	require.NoError(t, err)
	tk.RemoveSubtask(sub.ID())
	tk.AddNote("n", "")
	assert.Equal(t, 10, tk.HistoryLen())
}

func TestString(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	tk := New(Params{Title: "Write report", Priority: "high", DueDate: &due})
	tk.UpdateProgress(40)
	tk.AddTag("work")
	tk.AddTag("q2")
	assert.Equal(t, "[☐] [HIGH] Write report, due: 2024-05-01 [40%] #work,#q2", tk.String())

	plain := New(Params{Title: "Done"})
	plain.Complete()
	assert.Equal(t, "[✓] [MEDIUM] Done", plain.String())
}

func TestOverdue(t *testing.T) {
	at := time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)
	past := time.Date(2024, 5, 9, 23, 0, 0, 0, time.UTC)
	today := time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC)

	assert.True(t, New(Params{Title: "x", DueDate: &past}).Overdue(at))
	assert.False(t, New(Params{Title: "x", DueDate: &today}).Overdue(at))
	assert.False(t, New(Params{Title: "x"}).Overdue(at))

	done := New(Params{Title: "x", DueDate: &past})
	done.Complete()
	assert.False(t, done.Overdue(at))
}

func TestRecordRoundTrip(t *testing.T) {
	due := time.Date(2024, 5, 1, 8, 30, 0, 123456789, time.UTC)
	root := New(Params{Title: "Root", Description: "d", Priority: "critical", DueDate: &due, Category: "work"})
	root.AddTag("t1")
	root.AddDependency("other-id")
	root.ShareWith("bob")
	root.AddNote("hello", "ana")
	require.NoError(t, root.AddTime(20))
	root.UpdateProgress(55)
	root.SetReminder(due)
	yes := true
	require.NoError(t, root.Apply(Update{Template: &yes}))
	root.Complete()

	// three levels of nesting below the root
	level := root
	for i := 0; i < 3; i++ {
		var err error
		level, err = level.AddSubtask("child", "", "low")
		require.NoError(t, err)
		level.AddTag("nested")
	}

	t.Run("record shape", func(t *testing.T) {
		data, err := json.Marshal(New(Params{Title: "bare"}).Record())
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(data, &raw))
		for _, key := range []string{"due_date", "category", "completed_date", "reminder"} {
			v, ok := raw[key]
			assert.True(t, ok, "key %s present", key)
			assert.Nil(t, v, "key %s null", key)
		}
		for _, key := range []string{"subtasks", "tags", "dependencies", "notes", "shared_with", "history"} {
			assert.Equal(t, []any{}, raw[key], "key %s empty array", key)
		}
	})

	t.Run("lossless", func(t *testing.T) {
		first, err := json.Marshal(root.Record())
		require.NoError(t, err)

		var rec Record
		require.NoError(t, json.Unmarshal(first, &rec))
		decoded, err := FromRecord(rec)
		require.NoError(t, err)

		second, err := json.Marshal(decoded.Record())
		require.NoError(t, err)
		assert.JSONEq(t, string(first), string(second))

		assert.Equal(t, root.HistoryLen(), decoded.HistoryLen())
		for i, h := range decoded.History(HistoryFilter{}) {
			orig := root.History(HistoryFilter{})[i]
			assert.True(t, orig.OldValue.Equal(h.OldValue), "entry %d (%s) old", i, h.Field)
			assert.True(t, orig.NewValue.Equal(h.NewValue), "entry %d (%s) new", i, h.Field)
		}

		deep := decoded
		for i := 0; i < 3; i++ {
			require.Len(t, deep.Subtasks(), 1)
			deep = deep.Subtasks()[0]
		}
		assert.Equal(t, []string{"nested"}, deep.Tags())
	})
}

func TestFromRecordDefaults(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"id":"a1","title":"Legacy","priority":"urgent","progress":180}`), &rec))

	tk, err := FromRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, tk.Priority())
	assert.Equal(t, 100, tk.Progress())
	assert.NotNil(t, tk.Tags())
	assert.Empty(t, tk.Subtasks())
	assert.False(t, tk.Created().IsZero())

	_, err = FromRecord(Record{Title: "no id"})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = FromRecord(Record{ID: "p", Title: "parent", Subtasks: []Record{{ID: "c"}}})
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "subtasks[0].title")
}

func TestRecordAcceptsOffsetlessTimestamps(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "a1",
		"title": "Legacy",
		"created": "2024-05-01T10:00:00.123456",
		"modified": "2024-05-01T10:00:00",
		"reminder": "2024-05-02T08:00:00+02:00",
		"completed_date": null
	}`), &rec))

	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC), rec.Created)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), rec.Modified)
	require.NotNil(t, rec.Reminder)
	assert.True(t, rec.Reminder.Equal(time.Date(2024, 5, 2, 6, 0, 0, 0, time.UTC)))
	assert.Nil(t, rec.CompletedDate)
	assert.Nil(t, rec.DueDate)

	tk, err := FromRecord(rec)
	require.NoError(t, err)
	data, err := json.Marshal(tk.Record())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"created":"2024-05-01T10:00:00.123456Z"`)

	t.Run("rejects other shapes", func(t *testing.T) {
		var bad Record
		err := json.Unmarshal([]byte(`{"id":"a1","title":"x","created":"yesterday"}`), &bad)
		assert.Error(t, err)
	})
}
