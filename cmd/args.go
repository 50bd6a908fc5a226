package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nibzard/tasker-go/internal/store"
	"github.com/nibzard/tasker-go/internal/task"
	"github.com/nibzard/tasker-go/internal/utils"
)

// errAmbiguousID is returned when an id prefix matches more than one task.
var errAmbiguousID = errors.New("ambiguous task id")

// newFlagSet returns a subcommand flag set that reports errors to the
// command's error stream.
func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("tasker "+name, flag.ContinueOnError)
	fs.SetOutput(a.streams.Err)
	return fs
}

// parseArgs parses fs allowing flags before, between, and after positional
// arguments, and returns the positional arguments in order.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// wantArgs checks that at least min positional arguments were supplied.
func wantArgs(name string, args []string, min int, usage string) error {
	if len(args) < min {
		return fmt.Errorf("usage: tasker %s %s", name, usage)
	}
	return nil
}

// resolveTask finds the root task whose id equals or uniquely starts with ref.
func (a *app) resolveTask(ref string) (*task.Task, error) {
	s := a.openStore()
	if t := s.Task(ref); t != nil {
		return t, nil
	}
	t, err := matchPrefix(s.Tasks(store.Filter{}), ref)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("task %q: %w", ref, store.ErrTaskNotFound)
	}
	return t, nil
}

// resolveSubtask finds the direct subtask of parent matching ref.
func resolveSubtask(parent *task.Task, ref string) (*task.Task, error) {
	if st := parent.Subtask(ref); st != nil {
		return st, nil
	}
	st, err := matchPrefix(parent.Subtasks(), ref)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("subtask %q: %w", ref, task.ErrSubtaskNotFound)
	}
	return st, nil
}

func matchPrefix(tasks []*task.Task, ref string) (*task.Task, error) {
	if ref == "" {
		return nil, nil
	}
	var found *task.Task
	for _, t := range tasks {
		if !strings.HasPrefix(t.ID(), ref) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w %q", errAmbiguousID, ref)
		}
		found = t
	}
	return found, nil
}

// parseDate parses a CLI date in the local time zone.
func parseDate(s string) (time.Time, error) {
	return utils.ParseDate(s, time.Local)
}

// shortID abbreviates an id for list output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// output returns the command's stdout, or a created file when path is set.
// The returned close function must be called.
func (a *app) output(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return a.streams.Out, func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}
