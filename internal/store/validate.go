package store

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/tasker-go/internal/utils"
)

const schemaURL = "https://github.com/nibzard/tasker-go/tasks.schema.json"

//go:embed tasks.schema.json
var schemaJSON []byte

// Schema returns the embedded JSON Schema for task files.
func Schema() []byte {
	return bytes.Clone(schemaJSON)
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func taskSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, compileErr
}

// ValidationError locates a problem in a task file.
type ValidationError struct {
	Path string // dot path to the offending value, e.g. "[0].subtasks[1].title"
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid    bool
	Errors   []error
	Warnings []string
	Tasks    int // root tasks in the file, when it parsed
}

// Validate checks raw task file bytes against the embedded schema. It also
// warns about duplicate ids and dependencies that point at no task, which
// the schema cannot express.
func Validate(data []byte) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{Err: fmt.Errorf("invalid JSON: %w", err)})
		return result
	}
	if items, ok := doc.([]any); ok {
		result.Tasks = len(items)
	}

	schema, err := taskSchema()
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Errorf("compile schema: %w", err))
		return result
	}
	if err := schema.Validate(doc); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
		return result
	}

	var roots []json.RawMessage
	if err := json.Unmarshal(data, &roots); err != nil {
		return result
	}
	ids := make(map[string]int)
	var deps []string
	var walk func(raw json.RawMessage)
	walk = func(raw json.RawMessage) {
		var rec struct {
			ID           string            `json:"id"`
			Dependencies []string          `json:"dependencies"`
			Subtasks     []json.RawMessage `json:"subtasks"`
		}
		if json.Unmarshal(raw, &rec) != nil {
			return
		}
		ids[rec.ID]++
		deps = append(deps, rec.Dependencies...)
		for _, sub := range rec.Subtasks {
			walk(sub)
		}
	}
	for _, raw := range roots {
		walk(raw)
	}

	dupes := make([]string, 0)
	for id, n := range ids {
		if n > 1 {
			dupes = append(dupes, id)
		}
	}
	slices.Sort(dupes)
	for _, id := range dupes {
		result.Warnings = append(result.Warnings, fmt.Sprintf("duplicate task id %q (%d occurrences)", id, ids[id]))
	}
	for _, dep := range deps {
		if ids[dep] == 0 {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dependency %q does not match any task", dep))
		}
	}
	return result
}

func appendSchemaErrors(result *ValidationResult, err error) {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		result.Errors = append(result.Errors, err)
		return
	}
	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  errors.New(err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}
