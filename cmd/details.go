package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nibzard/tasker-go/internal/task"
)

// mutate resolves ref and runs fn through the store so the change is saved.
func (a *app) mutate(ref string, fn func(*task.Task) error) (*task.Task, error) {
	t, err := a.resolveTask(ref)
	if err != nil {
		return nil, err
	}
	if _, err := a.openStore().Mutate(t.ID(), fn); err != nil {
		return nil, err
	}
	return t, a.saved()
}

// addSubtaskCommand appends a subtask to a root task.
func (a *app) addSubtaskCommand(args []string) error {
	fs := a.newFlagSet("add-subtask")
	desc := fs.String("desc", "", "Description")
	priority := fs.String("priority", "medium", "Priority (low|medium|high|critical)")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs("add-subtask", rest, 2, "<id> <title> [options]"); err != nil {
		return err
	}
	title := strings.Join(rest[1:], " ")

	var st *task.Task
	parent, err := a.mutate(rest[0], func(t *task.Task) error {
		var err error
		st, err = t.AddSubtask(title, *desc, *priority)
		return err
	})
	if err != nil {
		return err
	}
	a.printf("Added subtask %s to %s: %s\n", st.ID(), shortID(parent.ID()), st.Title())
	return nil
}

// removeSubtaskCommand drops a direct subtask.
func (a *app) removeSubtaskCommand(args []string) error {
	if err := wantArgs("remove-subtask", args, 2, "<id> <subtask-id>"); err != nil {
		return err
	}
	var title string
	_, err := a.mutate(args[0], func(t *task.Task) error {
		st, err := resolveSubtask(t, args[1])
		if err != nil {
			return err
		}
		title = st.Title()
		t.RemoveSubtask(st.ID())
		return nil
	})
	if err != nil {
		return err
	}
	a.printf("Removed subtask: %s\n", title)
	return nil
}

// completeSubtaskCommand marks a direct subtask completed.
func (a *app) completeSubtaskCommand(args []string) error {
	if err := wantArgs("complete-subtask", args, 2, "<id> <subtask-id>"); err != nil {
		return err
	}
	var title string
	_, err := a.mutate(args[0], func(t *task.Task) error {
		st, err := resolveSubtask(t, args[1])
		if err != nil {
			return err
		}
		title = st.Title()
		st.Complete()
		return nil
	})
	if err != nil {
		return err
	}
	a.printf("Completed subtask: %s\n", title)
	return nil
}

// memberOp adds or removes one member of a set-like field.
type memberOp func(t *task.Task, item string) bool

func addTag(t *task.Task, item string) bool      { return t.AddTag(item) }
func removeTag(t *task.Task, item string) bool   { return t.RemoveTag(item) }
func shareWith(t *task.Task, item string) bool   { return t.ShareWith(item) }
func unshareWith(t *task.Task, item string) bool { return t.UnshareWith(item) }

// memberCommand applies op for every item after the task id.
func (a *app) memberCommand(name string, args []string, op memberOp) error {
	if err := wantArgs(name, args, 2, "<id> <value>..."); err != nil {
		return err
	}
	changed := 0
	t, err := a.mutate(args[0], func(t *task.Task) error {
		for _, item := range args[1:] {
			if op(t, item) {
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.printf("%s: %d changed for %s\n", name, changed, t.Title())
	return nil
}

// dependCommand records dependencies on other root tasks. Targets must exist
// when the dependency is added; deleting them later leaves the id in place.
func (a *app) dependCommand(args []string) error {
	if err := wantArgs("depend", args, 2, "<id> <dependency-id>..."); err != nil {
		return err
	}
	var ids []string
	for _, ref := range args[1:] {
		dep, err := a.resolveTask(ref)
		if err != nil {
			return err
		}
		ids = append(ids, dep.ID())
	}
	changed := 0
	t, err := a.mutate(args[0], func(t *task.Task) error {
		for _, id := range ids {
			if id == t.ID() {
				return fmt.Errorf("a task cannot depend on itself")
			}
			if t.AddDependency(id) {
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.printf("depend: %d changed for %s\n", changed, t.Title())
	return nil
}

// undependCommand removes dependencies by id or id prefix. Dangling ids of
// deleted tasks can be removed this way too.
func (a *app) undependCommand(args []string) error {
	if err := wantArgs("undepend", args, 2, "<id> <dependency-id>..."); err != nil {
		return err
	}
	changed := 0
	t, err := a.mutate(args[0], func(t *task.Task) error {
		for _, ref := range args[1:] {
			id, err := matchDependency(t.Dependencies(), ref)
			if err != nil {
				return err
			}
			if t.RemoveDependency(id) {
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	a.printf("undepend: %d changed for %s\n", changed, t.Title())
	return nil
}

func matchDependency(deps []string, ref string) (string, error) {
	var found string
	for _, id := range deps {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			if found != "" {
				return "", fmt.Errorf("%w %q", errAmbiguousID, ref)
			}
			found = id
		}
	}
	if found == "" {
		return ref, nil
	}
	return found, nil
}

// noteCommand appends a note.
func (a *app) noteCommand(args []string) error {
	fs := a.newFlagSet("note")
	author := fs.String("author", a.cfg.Author, "Note author")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs("note", rest, 2, "<id> <text> [-author name]"); err != nil {
		return err
	}
	text := strings.Join(rest[1:], " ")
	t, err := a.mutate(rest[0], func(t *task.Task) error {
		t.AddNote(text, *author)
		return nil
	})
	if err != nil {
		return err
	}
	a.printf("Added note to %s\n", t.Title())
	return nil
}

// progressCommand sets progress, clamped to 0..100.
func (a *app) progressCommand(args []string) error {
	if err := wantArgs("progress", args, 2, "<id> <percent>"); err != nil {
		return err
	}
	pct, err := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
	if err != nil {
		return fmt.Errorf("invalid progress %q: %w", args[1], err)
	}
	t, err := a.mutate(args[0], func(t *task.Task) error {
		t.UpdateProgress(pct)
		return nil
	})
	if err != nil {
		return err
	}
	a.printf("Progress of %s: %d%%\n", t.Title(), t.Progress())
	return nil
}

// timeCommand adds minutes spent. Go durations such as 1h30m are accepted.
func (a *app) timeCommand(args []string) error {
	if err := wantArgs("time", args, 2, "<id> <minutes|duration>"); err != nil {
		return err
	}
	minutes, err := parseMinutes(args[1])
	if err != nil {
		return err
	}
	t, err := a.mutate(args[0], func(t *task.Task) error {
		return t.AddTime(minutes)
	})
	if err != nil {
		return err
	}
	a.printf("Time spent on %s: %dm\n", t.Title(), t.TimeSpent())
	return nil
}

func parseMinutes(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (expected minutes or a duration like 1h30m)", s)
	}
	return int(d.Minutes()), nil
}

// remindCommand sets or clears the reminder.
func (a *app) remindCommand(args []string) error {
	fs := a.newFlagSet("remind")
	clearReminder := fs.Bool("clear", false, "Remove the reminder")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if *clearReminder {
		if err := wantArgs("remind", rest, 1, "<id> -clear"); err != nil {
			return err
		}
		t, err := a.mutate(rest[0], func(t *task.Task) error {
			t.ClearReminder()
			return nil
		})
		if err != nil {
			return err
		}
		a.printf("Cleared reminder for %s\n", t.Title())
		return nil
	}

	if err := wantArgs("remind", rest, 2, "<id> <date>"); err != nil {
		return err
	}
	at, err := parseDate(strings.Join(rest[1:], " "))
	if err != nil {
		return err
	}
	t, err := a.mutate(rest[0], func(t *task.Task) error {
		t.SetReminder(at)
		return nil
	})
	if err != nil {
		return err
	}
	a.printf("Reminder for %s: %s\n", t.Title(), at.Local().Format("2006-01-02 15:04"))
	return nil
}

// historyCommand prints a task's audit trail, oldest first.
func (a *app) historyCommand(args []string) error {
	fs := a.newFlagSet("history")
	field := fs.String("field", "", "Only entries for this field")
	since := fs.String("since", "", "Only entries at or after this date")
	until := fs.String("until", "", "Only entries at or before this date")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs("history", rest, 1, "<id> [options]"); err != nil {
		return err
	}

	f := task.HistoryFilter{Field: *field}
	if *since != "" {
		d, err := parseDate(*since)
		if err != nil {
			return err
		}
		f.Since = &d
	}
	if *until != "" {
		d, err := parseDate(*until)
		if err != nil {
			return err
		}
		f.Until = &d
	}

	t, err := a.resolveTask(rest[0])
	if err != nil {
		return err
	}
	entries := a.openStore().TaskHistory(t.ID(), f)
	if len(entries) == 0 {
		a.println("No history.")
		return nil
	}
	for _, h := range entries {
		a.printf("%s  %-14s %s -> %s\n", h.Timestamp.Local().Format("2006-01-02 15:04:05"), h.Field, h.OldValue, h.NewValue)
	}
	return nil
}
