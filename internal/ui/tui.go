// Package ui provides the optional terminal interface.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasker-go/internal/store"
	"github.com/nibzard/tasker-go/internal/task"
	"github.com/nibzard/tasker-go/internal/utils"
)

// ErrNotTTY is returned by RunTUI when the output is not a terminal.
var ErrNotTTY = errors.New("tui requires a TTY")

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiModel)

// WithRefreshInterval reloads the task file from disk every d. Zero disables
// periodic reloads; r still reloads on demand.
func WithRefreshInterval(d time.Duration) TUIOption {
	return func(m *tuiModel) {
		m.tickInterval = d
	}
}

// WithStreams sets the terminal the program reads keys from and draws on.
// The default is stdin and stdout.
func WithStreams(in io.Reader, out io.Writer) TUIOption {
	return func(m *tuiModel) {
		m.in, m.out = in, out
	}
}

// WithClock overrides the time source used for overdue markers.
func WithClock(now func() time.Time) TUIOption {
	return func(m *tuiModel) {
		m.now = now
	}
}

// RunTUI browses the tasks in s until the user quits or ctx is done.
func RunTUI(ctx context.Context, s *store.Store, opts ...TUIOption) error {
	model := newTUIModel(s, opts...)
	if !IsTTY(model.out) {
		return ErrNotTTY
	}
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(model.in),
		tea.WithOutput(model.out),
	)
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// listFilter selects which root tasks the list shows.
type listFilter int

const (
	filterAll listFilter = iota
	filterPending
	filterCompleted
)

func (f listFilter) String() string {
	switch f {
	case filterPending:
		return "pending"
	case filterCompleted:
		return "completed"
	}
	return "all"
}

func (f listFilter) storeFilter() store.Filter {
	var completed bool
	switch f {
	case filterPending:
		return store.Filter{Completed: &completed}
	case filterCompleted:
		completed = true
		return store.Filter{Completed: &completed}
	}
	return store.Filter{}
}

type tuiModel struct {
	store        *store.Store
	tasks        []*task.Task
	cursor       int
	filter       listFilter
	showDetail   bool
	showHelp     bool
	status       string
	err          error
	tickInterval time.Duration
	now          func() time.Time
	in           io.Reader
	out          io.Writer
}

type tickMsg time.Time

func newTUIModel(s *store.Store, opts ...TUIOption) *tuiModel {
	m := &tuiModel{
		store: s,
		now:   time.Now,
		in:    os.Stdin,
		out:   os.Stdout,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.applyFilter()
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	if m.tickInterval > 0 {
		return tickCmd(m.tickInterval)
	}
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		m.reload()
		return m, tickCmd(m.tickInterval)
	}
	return m, nil
}

func (m *tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "h", "?":
		m.showHelp = !m.showHelp
	case "j", "down":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "enter":
		m.showDetail = !m.showDetail
	case "c":
		m.completeSelected()
	case "r", "f5":
		m.reload()
		m.status = "Reloaded " + m.store.Path()
	case "0":
		m.setFilter(filterAll)
	case "1":
		m.setFilter(filterPending)
	case "2":
		m.setFilter(filterCompleted)
	}
	return m, nil
}

func (m *tuiModel) selected() *task.Task {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return nil
	}
	return m.tasks[m.cursor]
}

func (m *tuiModel) completeSelected() {
	t := m.selected()
	if t == nil {
		return
	}
	if t.Completed() {
		m.status = fmt.Sprintf("%q is already completed", t.Title())
		return
	}
	if _, err := m.store.CompleteTask(t.ID()); err != nil {
		m.err = err
		return
	}
	m.err = m.store.LastSaveError()
	m.status = fmt.Sprintf("Completed %q", t.Title())
	m.applyFilter()
}

func (m *tuiModel) setFilter(f listFilter) {
	m.filter = f
	m.cursor = 0
	m.applyFilter()
}

func (m *tuiModel) reload() {
	m.store.Load()
	m.err = nil
	m.applyFilter()
}

// applyFilter recomputes the visible list and keeps the cursor in range.
func (m *tuiModel) applyFilter() {
	m.tasks = m.store.Tasks(m.filter.storeFilter())
	if m.cursor >= len(m.tasks) {
		m.cursor = max(len(m.tasks)-1, 0)
	}
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b, m.filter, len(m.tasks))

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.tickInterval)
		return b.String()
	}

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	}

	writeList(&b, m.tasks, m.cursor, m.now())
	if t := m.selected(); t != nil && m.showDetail {
		writeDetail(&b, t)
	}
	if m.status != "" {
		b.WriteString(faintStyle.Render(m.status) + "\n\n")
	}
	writeFooter(&b, m.tickInterval)
	return b.String()
}

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func writeTitle(b *strings.Builder, f listFilter, n int) {
	b.WriteString(titleStyle.Render("Tasker") + "\n")
	fmt.Fprintf(b, "Showing %s tasks (%d)\n\n", f, n)
}

func writeList(b *strings.Builder, tasks []*task.Task, cursor int, now time.Time) {
	if len(tasks) == 0 {
		b.WriteString("  No tasks.\n\n")
		return
	}
	for i, t := range tasks {
		line := formatRow(t, now)
		if i == cursor {
			b.WriteString("> " + cursorStyle.Render(line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")
}

func formatRow(t *task.Task, now time.Time) string {
	title := utils.Truncate(t.Title(), 50)
	if t.Completed() {
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s %s %s", RenderCheck(t.Completed()), RenderPriority(t.Priority()), title)
	if due := t.DueDate(); due != nil {
		label := "due " + due.Format(time.DateOnly)
		if t.Overdue(now) {
			label = overdueStyle.Render(label + " (overdue)")
		}
		line += "  " + label
	}
	if p := t.Progress(); p > 0 && !t.Completed() {
		line += fmt.Sprintf("  %d%%", p)
	}
	return line
}

func writeDetail(b *strings.Builder, t *task.Task) {
	b.WriteString(headingStyle.Render(t.Title()) + "\n")
	fmt.Fprintf(b, "  ID: %s\n", t.ID())
	if d := t.Description(); d != "" {
		fmt.Fprintf(b, "  Description: %s\n", d)
	}
	if c := t.Category(); c != "" {
		fmt.Fprintf(b, "  Category: %s\n", c)
	}
	if tags := t.Tags(); len(tags) > 0 {
		fmt.Fprintf(b, "  Tags: %s\n", strings.Join(tags, ", "))
	}
	if deps := t.Dependencies(); len(deps) > 0 {
		fmt.Fprintf(b, "  Depends on: %s\n", strings.Join(deps, ", "))
	}
	if m := t.TimeSpent(); m > 0 {
		fmt.Fprintf(b, "  Time spent: %dm\n", m)
	}
	if subtasks := t.Subtasks(); len(subtasks) > 0 {
		b.WriteString("  Subtasks:\n")
		for _, st := range subtasks {
			fmt.Fprintf(b, "    %s %s\n", RenderCheck(st.Completed()), st.Title())
		}
	}
	if notes := t.Notes(); len(notes) > 0 {
		b.WriteString("  Notes:\n")
		for _, n := range notes {
			fmt.Fprintf(b, "    %s (%s): %s\n", n.Timestamp.Format("2006-01-02 15:04"), n.Author, n.Text)
		}
	}
	fmt.Fprintf(b, "  History: %d entries\n\n", t.HistoryLen())
}

func writeHelp(b *strings.Builder) {
	b.WriteString(headingStyle.Render("Keyboard Shortcuts") + "\n\n")
	b.WriteString("  j, down      Move down\n")
	b.WriteString("  k, up        Move up\n")
	b.WriteString("  enter        Toggle task details\n")
	b.WriteString("  c            Complete selected task\n")
	b.WriteString("  0            Show all tasks\n")
	b.WriteString("  1            Show pending tasks\n")
	b.WriteString("  2            Show completed tasks\n")
	b.WriteString("  r, F5        Reload from disk\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  q, ctrl+c    Quit\n\n")
}

func writeFooter(b *strings.Builder, interval time.Duration) {
	footer := "Press h for help | q to quit"
	if interval > 0 {
		footer += fmt.Sprintf(" | Reloading every %s", interval)
	}
	b.WriteString(faintStyle.Render(footer) + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
