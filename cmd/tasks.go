package cmd

import (
	"cmp"
	"flag"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nibzard/tasker-go/internal/store"
	"github.com/nibzard/tasker-go/internal/task"
	"github.com/nibzard/tasker-go/internal/ui"
	"github.com/nibzard/tasker-go/internal/utils"
)

// addCommand creates a root task.
func (a *app) addCommand(args []string) error {
	fs := a.newFlagSet("add")
	desc := fs.String("desc", "", "Description")
	priority := fs.String("priority", "medium", "Priority (low|medium|high|critical)")
	due := fs.String("due", "", "Due date")
	category := fs.String("category", "", "Category")
	tags := fs.String("tags", "", "Comma-separated tags")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs("add", rest, 1, "<title> [options]"); err != nil {
		return err
	}

	p := task.Params{
		Title:       strings.Join(rest, " "),
		Description: *desc,
		Priority:    *priority,
		Category:    strings.TrimSpace(*category),
	}
	if *due != "" {
		d, err := parseDate(*due)
		if err != nil {
			return err
		}
		p.DueDate = &d
	}

	s := a.openStore()
	t, err := s.AddTask(p)
	if err != nil {
		return err
	}
	if tagList := utils.SplitAndTrim(*tags, ","); len(tagList) > 0 {
		if _, err := s.Mutate(t.ID(), func(t *task.Task) error {
			for _, tag := range tagList {
				t.AddTag(tag)
			}
			return nil
		}); err != nil {
			return err
		}
	}
	if err := a.saved(); err != nil {
		return err
	}
	a.printf("Added task %s: %s\n", t.ID(), t.Title())
	return nil
}

// listCommand prints root tasks, pending ones by default.
func (a *app) listCommand(args []string) error {
	fs := a.newFlagSet("list")
	all := fs.Bool("all", false, "Include completed tasks")
	completed := fs.Bool("completed", false, "Only completed tasks")
	category := fs.String("category", "", "Filter by category")
	priority := fs.String("priority", "", "Filter by priority")
	sortBy := fs.String("sort", "created", "Sort order (created|priority|due)")
	verbose := fs.Bool("v", false, "Show descriptions and subtasks")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	f := store.Filter{Category: *category}
	switch {
	case *completed:
		done := true
		f.Completed = &done
	case !*all:
		pending := false
		f.Completed = &pending
	}
	if *priority != "" {
		p := task.Priority(strings.ToLower(*priority))
		if !p.Valid() {
			return fmt.Errorf("invalid priority %q (expected low|medium|high|critical)", *priority)
		}
		f.Priority = p
	}

	tasks := a.openStore().Tasks(f)
	if err := sortTasks(tasks, *sortBy); err != nil {
		return err
	}
	if len(tasks) == 0 {
		a.println("No tasks found.")
		return nil
	}
	now := a.now()
	for _, t := range tasks {
		a.printTaskLine(t, now, *verbose)
	}
	return nil
}

// sortTasks orders tasks in place. Ties keep insertion order.
func sortTasks(tasks []*task.Task, by string) error {
	switch by {
	case "", "created":
	case "priority":
		slices.SortStableFunc(tasks, func(x, y *task.Task) int {
			return cmp.Compare(y.Priority().Rank(), x.Priority().Rank())
		})
	case "due":
		slices.SortStableFunc(tasks, func(x, y *task.Task) int {
			dx, dy := x.DueDate(), y.DueDate()
			switch {
			case dx == nil && dy == nil:
				return 0
			case dx == nil:
				return 1
			case dy == nil:
				return -1
			}
			return dx.Compare(*dy)
		})
	default:
		return fmt.Errorf("invalid sort %q (expected created|priority|due)", by)
	}
	return nil
}

func (a *app) printTaskLine(t *task.Task, now time.Time, verbose bool) {
	line := fmt.Sprintf("  %s %s", shortID(t.ID()), t)
	if t.Overdue(now) {
		line += " (overdue)"
	}
	a.println(line)
	if !verbose {
		return
	}
	if d := t.Description(); d != "" {
		a.printf("      %s\n", utils.Truncate(d, 72))
	}
	for _, st := range t.Subtasks() {
		a.printf("      - %s %s\n", shortID(st.ID()), st)
	}
}

// viewCommand prints every field of one task and its subtask tree.
func (a *app) viewCommand(args []string) error {
	fs := a.newFlagSet("view")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs("view", rest, 1, "<id>"); err != nil {
		return err
	}
	t, err := a.resolveTask(rest[0])
	if err != nil {
		return err
	}
	a.printTaskDetail(t, "")
	return nil
}

func (a *app) printTaskDetail(t *task.Task, indent string) {
	a.printf("%s%s %s %s\n", indent, ui.RenderCheck(t.Completed()), ui.RenderPriority(t.Priority()), t.Title())
	field := func(label, value string) {
		if value != "" {
			a.printf("%s  %-13s %s\n", indent, label+":", value)
		}
	}
	field("ID", t.ID())
	field("Description", t.Description())
	field("Category", t.Category())
	if due := t.DueDate(); due != nil {
		label := due.Format(time.DateOnly)
		if t.Overdue(a.now()) {
			label += " (overdue)"
		}
		field("Due", label)
	}
	if cd := t.CompletedDate(); cd != nil {
		field("Completed", cd.Local().Format("2006-01-02 15:04"))
	}
	if r := t.Reminder(); r != nil {
		field("Reminder", r.Local().Format("2006-01-02 15:04"))
	}
	if p := t.Progress(); p > 0 {
		field("Progress", fmt.Sprintf("%d%%", p))
	}
	if m := t.TimeSpent(); m > 0 {
		field("Time spent", fmt.Sprintf("%dm", m))
	}
	field("Tags", strings.Join(t.Tags(), ", "))
	field("Depends on", strings.Join(t.Dependencies(), ", "))
	field("Shared with", strings.Join(t.SharedWith(), ", "))
	if t.Template() {
		field("Template", "yes")
	}
	field("Created", t.Created().Local().Format("2006-01-02 15:04"))
	field("Modified", t.Modified().Local().Format("2006-01-02 15:04"))
	field("History", fmt.Sprintf("%d entries", t.HistoryLen()))
	if notes := t.Notes(); len(notes) > 0 {
		a.printf("%s  Notes:\n", indent)
		for _, n := range notes {
			a.printf("%s    %s (%s): %s\n", indent, n.Timestamp.Local().Format("2006-01-02 15:04"), n.Author, n.Text)
		}
	}
	if subtasks := t.Subtasks(); len(subtasks) > 0 {
		a.printf("%s  Subtasks:\n", indent)
		for _, st := range subtasks {
			a.printTaskDetail(st, indent+"    ")
		}
	}
}

// updateCommand applies the flags that were set as one patch.
func (a *app) updateCommand(args []string) error {
	fs := a.newFlagSet("update")
	title := fs.String("title", "", "New title")
	desc := fs.String("desc", "", "New description")
	priority := fs.String("priority", "", "New priority")
	due := fs.String("due", "", "New due date")
	clearDue := fs.Bool("clear-due", false, "Remove the due date")
	category := fs.String("category", "", "New category (empty clears)")
	progress := fs.Int("progress", 0, "New progress percentage")
	template := fs.Bool("template", false, "Mark or unmark as a template")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := wantArgs("update", rest, 1, "<id> [options]"); err != nil {
		return err
	}

	var u task.Update
	var dueErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			u.Title = title
		case "desc":
			u.Description = desc
		case "priority":
			u.Priority = priority
		case "due":
			d, err := parseDate(*due)
			if err != nil {
				dueErr = err
				return
			}
			u.DueDate = &d
		case "clear-due":
			u.ClearDueDate = *clearDue
		case "category":
			u.Category = category
		case "progress":
			u.Progress = progress
		case "template":
			u.Template = template
		}
	})
	if dueErr != nil {
		return dueErr
	}
	if u.IsEmpty() {
		return fmt.Errorf("nothing to update (see tasker help)")
	}

	t, err := a.resolveTask(rest[0])
	if err != nil {
		return err
	}
	if _, err := a.openStore().UpdateTask(t.ID(), u); err != nil {
		return err
	}
	if err := a.saved(); err != nil {
		return err
	}
	a.printf("Updated task %s: %s\n", shortID(t.ID()), t.Title())
	return nil
}

// completeCommand marks root tasks completed.
func (a *app) completeCommand(args []string) error {
	if err := wantArgs("complete", args, 1, "<id>..."); err != nil {
		return err
	}
	for _, ref := range args {
		t, err := a.resolveTask(ref)
		if err != nil {
			return err
		}
		if _, err := a.openStore().CompleteTask(t.ID()); err != nil {
			return err
		}
		if err := a.saved(); err != nil {
			return err
		}
		a.printf("Completed task %s: %s\n", shortID(t.ID()), t.Title())
	}
	return nil
}

// deleteCommand removes root tasks. Dependencies on them are left dangling.
func (a *app) deleteCommand(args []string) error {
	if err := wantArgs("delete", args, 1, "<id>..."); err != nil {
		return err
	}
	for _, ref := range args {
		t, err := a.resolveTask(ref)
		if err != nil {
			return err
		}
		a.openStore().DeleteTask(t.ID())
		if err := a.saved(); err != nil {
			return err
		}
		a.printf("Deleted task %s: %s\n", shortID(t.ID()), t.Title())
	}
	return nil
}

// searchCommand prints root tasks matching the query.
func (a *app) searchCommand(args []string) error {
	if err := wantArgs("search", args, 1, "<query>"); err != nil {
		return err
	}
	results := a.openStore().Search(strings.Join(args, " "))
	if len(results) == 0 {
		a.println("No matching tasks.")
		return nil
	}
	now := a.now()
	for _, t := range results {
		a.printTaskLine(t, now, false)
	}
	return nil
}

// categoriesCommand prints the distinct categories with task counts.
func (a *app) categoriesCommand(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	s := a.openStore()
	categories := s.Categories()
	if len(categories) == 0 {
		a.println("No categories.")
		return nil
	}
	for _, c := range categories {
		a.printf("%s (%d)\n", c, len(s.Tasks(store.Filter{Category: c})))
	}
	return nil
}
