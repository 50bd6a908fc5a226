package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat maps a user-supplied name (json, yaml, yml, toml) to a
// Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unknown export format %q (expected json, yaml, or toml)", s)
}

// Export writes every root task to w in the given format. JSON output is
// identical to the task file. TOML cannot represent null, so absent values
// are dropped and the tasks are wrapped in a [[tasks]] array.
func (s *Store) Export(w io.Writer, format Format) error {
	records := s.records()
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		_, err = w.Write(append(data, '\n'))
		return err
	case FormatYAML, FormatTOML:
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}

	generic, err := toGeneric(records)
	if err != nil {
		return err
	}
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	doc := map[string]any{"tasks": dropNulls(generic)}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode toml: %w", err)
	}
	return nil
}

// toGeneric converts records to plain maps and slices via their JSON form,
// so every encoder sees the same field names and value shapes.
func toGeneric(records any) (any, error) {
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return normalizeNumbers(out), nil
}

func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil && !math.IsInf(f, 0) {
			return f
		}
		return x.String()
	case map[string]any:
		for k, item := range x {
			x[k] = normalizeNumbers(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = normalizeNumbers(item)
		}
		return x
	}
	return v
}

func dropNulls(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			if item == nil {
				delete(x, k)
				continue
			}
			x[k] = dropNulls(item)
		}
		return x
	case []any:
		out := make([]any, 0, len(x))
		for _, item := range x {
			if item != nil {
				out = append(out, dropNulls(item))
			}
		}
		return out
	}
	return v
}
