package task

import "strings"

// Priority represents a task priority level.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Priorities lists every level from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// ParsePriority normalizes s to a known level. Unknown or empty input
// yields PriorityMedium.
func ParsePriority(s string) Priority {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p.Valid() {
		return p
	}
	return PriorityMedium
}

// Valid reports whether p is one of the four levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Rank orders priorities: low is 0, critical is 3, invalid is -1.
func (p Priority) Rank() int {
	for i, level := range Priorities {
		if level == p {
			return i
		}
	}
	return -1
}
