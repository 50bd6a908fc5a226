package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// HistoryEntry records one change to a task field.
type HistoryEntry struct {
	Field     string
	OldValue  Value
	NewValue  Value
	Timestamp time.Time
}

type historyEntryJSON struct {
	Field     string          `json:"field"`
	OldValue  json.RawMessage `json:"old_value"`
	NewValue  json.RawMessage `json:"new_value"`
	Timestamp timestamp       `json:"timestamp"`
}

// MarshalJSON encodes the entry as {field, old_value, new_value, timestamp}.
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	oldRaw, err := h.OldValue.MarshalJSON()
	if err != nil {
		return nil, err
	}
	newRaw, err := h.NewValue.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(historyEntryJSON{
		Field:     h.Field,
		OldValue:  oldRaw,
		NewValue:  newRaw,
		Timestamp: timestamp(h.Timestamp),
	})
}

// UnmarshalJSON decodes an entry, recovering value kinds from the field name.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var aux historyEntryJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	oldValue, err := decodeValue(aux.Field, aux.OldValue)
	if err != nil {
		return fmt.Errorf("history %q old_value: %w", aux.Field, err)
	}
	newValue, err := decodeValue(aux.Field, aux.NewValue)
	if err != nil {
		return fmt.Errorf("history %q new_value: %w", aux.Field, err)
	}
	*h = HistoryEntry{
		Field:     aux.Field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: time.Time(aux.Timestamp),
	}
	return nil
}

// HistoryFilter narrows a history query. Zero fields do not filter; set
// fields combine with AND. Since and Until are inclusive.
type HistoryFilter struct {
	Field string
	Since *time.Time
	Until *time.Time
}

func (f HistoryFilter) match(h HistoryEntry) bool {
	if f.Field != "" && h.Field != f.Field {
		return false
	}
	if f.Since != nil && h.Timestamp.Before(*f.Since) {
		return false
	}
	if f.Until != nil && h.Timestamp.After(*f.Until) {
		return false
	}
	return true
}

// History returns the entries matching f in insertion order.
func (t *Task) History(f HistoryFilter) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(t.history))
	for _, h := range t.history {
		if f.match(h) {
			out = append(out, h)
		}
	}
	return out
}

// HistoryLen returns the number of recorded entries.
func (t *Task) HistoryLen() int {
	return len(t.history)
}

// record appends a history entry stamped at ts and touches modified.
func (t *Task) record(ts time.Time, field string, oldValue, newValue Value) {
	t.history = append(t.history, HistoryEntry{
		Field:     field,
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: ts,
	})
	t.modified = ts
}
