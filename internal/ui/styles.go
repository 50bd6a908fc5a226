package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasker-go/internal/task"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	headingStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	priorityStyles = map[task.Priority]lipgloss.Style{
		task.PriorityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		task.PriorityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		task.PriorityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		task.PriorityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
)

// RenderPriority renders p as an upper-case label in its color.
func RenderPriority(p task.Priority) string {
	label := strings.ToUpper(string(p))
	if style, ok := priorityStyles[p]; ok {
		return style.Render(label)
	}
	return label
}

// RenderCheck renders the completion box for a task.
func RenderCheck(done bool) string {
	if done {
		return "[✓]"
	}
	return "[☐]"
}
