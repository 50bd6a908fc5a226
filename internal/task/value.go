package task

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the shape of a history Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindString
	KindStrings
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindStrings:
		return "strings"
	case KindTime:
		return "time"
	}
	return "unknown"
}

// Value is a typed old or new value in a history entry.
type Value struct {
	kind Kind
	b    bool
	i    int
	s    string
	ss   []string
	t    time.Time
}

// NullValue returns the absent value.
func NullValue() Value { return Value{} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue wraps an integer (counts, minutes, percentages).
func IntValue(i int) Value { return Value{kind: KindInt, i: i} }

// StringValue wraps a string.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// StringsValue wraps a copy of ss.
func StringsValue(ss []string) Value {
	return Value{kind: KindStrings, ss: append([]string{}, ss...)}
}

// TimeValue wraps a timestamp.
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }

// OptionalTimeValue wraps t, or returns NullValue when t is nil.
func OptionalTimeValue(t *time.Time) Value {
	if t == nil {
		return NullValue()
	}
	return TimeValue(*t)
}

// optionalStringValue maps the empty string to null.
func optionalStringValue(s string) Value {
	if s == "" {
		return NullValue()
	}
	return StringValue(s)
}

// Kind returns the value's shape.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the absent value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload, false for other kinds.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload, 0 for other kinds.
func (v Value) Int() int { return v.i }

// Text returns the string payload, "" for other kinds.
func (v Value) Text() string { return v.s }

// Strings returns a copy of the string-list payload.
func (v Value) Strings() []string {
	if v.kind != KindStrings {
		return nil
	}
	return append([]string{}, v.ss...)
}

// Time returns the timestamp payload, the zero time for other kinds.
func (v Value) Time() time.Time { return v.t }

// Equal reports whether v and o have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindString:
		return v.s == o.s
	case KindStrings:
		return slices.Equal(v.ss, o.ss)
	case KindTime:
		return v.t.Equal(o.t)
	}
	return false
}

// String renders v for display.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.Itoa(v.i)
	case KindString:
		return strconv.Quote(v.s)
	case KindStrings:
		return "[" + strings.Join(v.ss, ", ") + "]"
	case KindTime:
		return v.t.Format(time.RFC3339)
	}
	return "?"
}

// MarshalJSON encodes v as plain JSON without a kind tag.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindString:
		return json.Marshal(v.s)
	case KindStrings:
		if v.ss == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.ss)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339Nano))
	}
	return nil, fmt.Errorf("marshal value: unknown kind %d", v.kind)
}

// kindForField returns the kind a history entry's values take for field.
func kindForField(field string) Kind {
	switch field {
	case "due_date", "completed_date", "reminder":
		return KindTime
	case "tags", "dependencies", "shared_with":
		return KindStrings
	case "subtasks", "notes", "time_spent", "progress":
		return KindInt
	case "completed", "template":
		return KindBool
	}
	return KindString
}

// decodeValue decodes raw using the kind implied by field. JSON that does
// not fit that kind is decoded by its own shape instead.
func decodeValue(field string, raw json.RawMessage) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return NullValue(), nil
	}

	switch kindForField(field) {
	case KindTime:
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if t, err := parseTimestamp(s); err == nil {
				return TimeValue(t), nil
			}
		}
	case KindStrings:
		var ss []string
		if json.Unmarshal(raw, &ss) == nil {
			return StringsValue(ss), nil
		}
	case KindInt:
		var i int
		if json.Unmarshal(raw, &i) == nil {
			return IntValue(i), nil
		}
	case KindBool:
		var b bool
		if json.Unmarshal(raw, &b) == nil {
			return BoolValue(b), nil
		}
	case KindString:
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return StringValue(s), nil
		}
	}
	return inferValue(raw)
}

// inferValue decodes raw by its JSON shape alone.
func inferValue(raw json.RawMessage) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return Value{}, fmt.Errorf("decode history value: %w", err)
	}

	switch x := generic.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(x), nil
	case json.Number:
		if i, err := strconv.Atoi(x.String()); err == nil {
			return IntValue(i), nil
		}
		return StringValue(x.String()), nil
	case string:
		return StringValue(x), nil
	case []any:
		ss := make([]string, 0, len(x))
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return StringValue(string(raw)), nil
			}
			ss = append(ss, s)
		}
		return StringsValue(ss), nil
	}
	return StringValue(string(raw)), nil
}
