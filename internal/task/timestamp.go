package task

import (
	"encoding/json"
	"fmt"
	"time"
)

// localLayout matches ISO-8601 date-times written without a UTC offset,
// with or without fractional seconds.
const localLayout = "2006-01-02T15:04:05"

// parseTimestamp accepts RFC 3339 and ISO-8601 without an offset. Values
// without an offset are read as UTC.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(localLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: expected RFC 3339 or ISO-8601", s)
	}
	return t, nil
}

// timestamp is a time.Time that decodes through parseTimestamp and encodes
// as RFC 3339.
type timestamp time.Time

func (ts timestamp) MarshalJSON() ([]byte, error) {
	return time.Time(ts).MarshalJSON()
}

func (ts *timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = timestamp(t)
	return nil
}

func (ts *timestamp) ptr() *time.Time {
	if ts == nil {
		return nil
	}
	t := time.Time(*ts)
	return &t
}

// UnmarshalJSON decodes a record, accepting the timestamp forms of
// parseTimestamp for every date field.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	aux := struct {
		*plain
		DueDate       *timestamp `json:"due_date"`
		CompletedDate *timestamp `json:"completed_date"`
		Created       timestamp  `json:"created"`
		Modified      timestamp  `json:"modified"`
		Reminder      *timestamp `json:"reminder"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.DueDate = aux.DueDate.ptr()
	r.CompletedDate = aux.CompletedDate.ptr()
	r.Created = time.Time(aux.Created)
	r.Modified = time.Time(aux.Modified)
	r.Reminder = aux.Reminder.ptr()
	return nil
}

// UnmarshalJSON decodes a note, accepting the timestamp forms of
// parseTimestamp.
func (n *Note) UnmarshalJSON(data []byte) error {
	type plain Note
	aux := struct {
		*plain
		Timestamp timestamp `json:"timestamp"`
	}{plain: (*plain)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	n.Timestamp = time.Time(aux.Timestamp)
	return nil
}
