// Package store persists root tasks to a JSON file and answers queries.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasker-go/internal/task"
)

var (
	// ErrTaskNotFound is returned when no root task has the requested id.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTitleRequired is returned when adding a task without a title.
	ErrTitleRequired = errors.New("title is required")
)

// Store owns the ordered root tasks and the file they are saved to. Every
// mutating call rewrites the whole file. A Store is not safe for
// concurrent use, and two processes sharing a file overwrite each other.
type Store struct {
	path        string
	tasks       []*task.Task
	logger      *log.Logger
	validate    bool
	lastSaveErr error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for load and save events.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSchemaValidation checks the file against the task schema on load.
// A file that fails validation is treated like a corrupt one.
func WithSchemaValidation(enabled bool) Option {
	return func(s *Store) {
		s.validate = enabled
	}
}

// Open creates a Store for path and loads it.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:   path,
		tasks:  []*task.Task{},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Load()
	return s
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory tasks with the file contents. A missing file
// is created empty. A file that cannot be read leaves the store empty in
// memory and untouched on disk. A file that cannot be decoded is renamed
// aside and replaced with an empty one. Errors are logged, never returned.
func (s *Store) Load() {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.tasks = []*task.Task{}
		s.logger.Info("creating task file", "path", s.path)
		_ = s.Save()
		return
	}
	if err != nil {
		s.logger.Error("read task file", "path", s.path, "err", err)
		s.tasks = []*task.Task{}
		return
	}

	tasks, err := s.decode(data)
	if err == nil {
		s.tasks = tasks
		s.logger.Info("loaded tasks", "path", s.path, "count", len(tasks))
		return
	}

	s.logger.Error("load tasks", "path", s.path, "err", err)
	s.backupCorrupt()
	s.tasks = []*task.Task{}
	_ = s.Save()
}

func (s *Store) decode(data []byte) ([]*task.Task, error) {
	if s.validate {
		if result := Validate(data); !result.Valid {
			return nil, fmt.Errorf("schema validation: %w", errors.Join(result.Errors...))
		}
	}

	var records []task.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse task file: %w", err)
	}
	tasks := make([]*task.Task, 0, len(records))
	for i, r := range records {
		t, err := task.FromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("task [%d]: %w", i, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// backupCorrupt moves the current file out of the way so that resetting the
// store does not destroy it.
func (s *Store) backupCorrupt() {
	backup := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().UTC().Format("20060102-150405"))
	if err := os.Rename(s.path, backup); err != nil {
		s.logger.Error("back up corrupt task file", "path", s.path, "err", err)
		return
	}
	s.logger.Warn("moved corrupt task file aside", "backup", backup)
}

// Save writes every root task to the file with 2-space indentation.
func (s *Store) Save() error {
	err := s.save()
	s.lastSaveErr = err
	if err != nil {
		s.logger.Error("save tasks", "path", s.path, "err", err)
		return err
	}
	s.logger.Debug("saved tasks", "path", s.path, "count", len(s.tasks))
	return nil
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(s.records(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal task file: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create task dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write task file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("chmod task file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace task file: %w", err)
	}
	return nil
}

// LastSaveError returns the error from the most recent save, or nil.
func (s *Store) LastSaveError() error {
	return s.lastSaveErr
}

func (s *Store) records() []task.Record {
	records := make([]task.Record, 0, len(s.tasks))
	for _, t := range s.tasks {
		records = append(records, t.Record())
	}
	return records
}

// AddTask creates a root task from p and saves.
func (s *Store) AddTask(p task.Params) (*task.Task, error) {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return nil, ErrTitleRequired
	}
	t := task.New(p)
	s.tasks = append(s.tasks, t)
	s.logger.Info("added task", "id", t.ID(), "title", t.Title())
	_ = s.Save()
	return t, nil
}

// Filter selects root tasks. Zero fields match everything.
type Filter struct {
	Completed *bool
	Category  string
	Priority  task.Priority
}

func (f Filter) match(t *task.Task) bool {
	if f.Completed != nil && t.Completed() != *f.Completed {
		return false
	}
	if f.Category != "" && t.Category() != f.Category {
		return false
	}
	if f.Priority != "" && t.Priority() != f.Priority {
		return false
	}
	return true
}

// Tasks returns the root tasks matching f in insertion order.
func (s *Store) Tasks(f Filter) []*task.Task {
	out := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if f.match(t) {
			out = append(out, t)
		}
	}
	return out
}

// Task returns the root task with id, or nil if not found. Subtasks are
// not searched.
func (s *Store) Task(id string) *task.Task {
	for _, t := range s.tasks {
		if t.ID() == id {
			return t
		}
	}
	return nil
}

// UpdateTask applies u to the root task with id and saves.
func (s *Store) UpdateTask(id string, u task.Update) (*task.Task, error) {
	return s.Mutate(id, func(t *task.Task) error {
		return t.Apply(u)
	})
}

// CompleteTask marks the root task with id completed and saves.
func (s *Store) CompleteTask(id string) (*task.Task, error) {
	t, err := s.Mutate(id, func(t *task.Task) error {
		t.Complete()
		return nil
	})
	if err == nil {
		s.logger.Info("completed task", "id", id)
	}
	return t, err
}

// Mutate runs fn against the root task with id and saves if fn succeeds.
// It is the path for audited fine-grained changes such as tags or notes.
func (s *Store) Mutate(id string, fn func(*task.Task) error) (*task.Task, error) {
	t := s.Task(id)
	if t == nil {
		return nil, fmt.Errorf("task %q: %w", id, ErrTaskNotFound)
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	s.logger.Debug("updated task", "id", id)
	_ = s.Save()
	return t, nil
}

// DeleteTask removes the root task with id and saves. Dependencies on the
// removed task held by other tasks are left in place.
func (s *Store) DeleteTask(id string) bool {
	idx := slices.IndexFunc(s.tasks, func(t *task.Task) bool { return t.ID() == id })
	if idx < 0 {
		return false
	}
	s.tasks = slices.Delete(s.tasks, idx, idx+1)
	s.logger.Info("deleted task", "id", id)
	_ = s.Save()
	return true
}

// Search matches query case-insensitively against root task titles,
// descriptions and categories. An empty query matches nothing.
func (s *Store) Search(query string) []*task.Task {
	out := []*task.Task{}
	q := strings.ToLower(query)
	if q == "" {
		return out
	}
	for _, t := range s.tasks {
		if strings.Contains(strings.ToLower(t.Title()), q) ||
			strings.Contains(strings.ToLower(t.Description()), q) ||
			(t.Category() != "" && strings.Contains(strings.ToLower(t.Category()), q)) {
			out = append(out, t)
		}
	}
	s.logger.Info("searched tasks", "query", query, "matches", len(out))
	return out
}

// Categories returns the distinct non-empty root categories, sorted.
func (s *Store) Categories() []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, t := range s.tasks {
		c := t.Category()
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// TaskHistory returns the filtered history of a root task, or an empty
// slice when the task does not exist.
func (s *Store) TaskHistory(id string, f task.HistoryFilter) []task.HistoryEntry {
	t := s.Task(id)
	if t == nil {
		return []task.HistoryEntry{}
	}
	return t.History(f)
}
