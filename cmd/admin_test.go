package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nibzard/tasker-go/internal/config"
	"github.com/nibzard/tasker-go/internal/store"
	"github.com/nibzard/tasker-go/internal/ui"
)

func TestDoctorCommand(t *testing.T) {
	t.Run("fresh project passes", func(t *testing.T) {
		isolate(t)
		out, _, err := run(t, "doctor")
		if err != nil {
			t.Fatalf("doctor: %v\n%s", err, out)
		}
		for _, want := range []string{"Tasker Doctor", "Project root:", "Not found (will be created on first use)", "✅ All checks passed!"} {
			if !strings.Contains(out, want) {
				t.Errorf("doctor missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("valid file with verbose", func(t *testing.T) {
		isolate(t)
		addTask(t, "One")
		addTask(t, "Two")
		out := mustRun(t, "doctor", "-v")
		if !strings.Contains(out, "✅ Valid") || !strings.Contains(out, "Tasks: 2") {
			t.Errorf("doctor -v:\n%s", out)
		}
	})

	t.Run("dangling dependency warns", func(t *testing.T) {
		isolate(t)
		a := addTask(t, "A")
		b := addTask(t, "B")
		mustRun(t, "depend", b, a)
		mustRun(t, "delete", a)
		out := mustRun(t, "doctor")
		if !strings.Contains(out, "does not match any task") {
			t.Errorf("expected dangling dependency warning:\n%s", out)
		}
	})

	t.Run("corrupt file fails and is left alone", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, config.DefaultDataFile)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}

		out, _, err := run(t, "doctor")
		if err == nil || !strings.Contains(err.Error(), "doctor checks failed") {
			t.Errorf("expected doctor failure, got %v", err)
		}
		if !strings.Contains(out, "Validation failed") {
			t.Errorf("doctor output:\n%s", out)
		}
		data, err := os.ReadFile(path)
		if err != nil || string(data) != "{not json" {
			t.Errorf("doctor must not modify the task file: %q, %v", data, err)
		}
	})

	t.Run("schema violation fails", func(t *testing.T) {
		dir := isolate(t)
		path := filepath.Join(dir, config.DefaultDataFile)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(`[{"title": 7}]`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, _, err := run(t, "doctor"); err == nil {
			t.Error("expected doctor failure for schema violation")
		}
	})

	t.Run("bad log level fails", func(t *testing.T) {
		isolate(t)
		t.Setenv(config.EnvLogLevel, "loud")
		out, _, err := run(t, "doctor")
		if err == nil {
			t.Error("expected doctor failure for bad log level")
		}
		if !strings.Contains(out, "❌ Log level: loud") {
			t.Errorf("doctor output:\n%s", out)
		}
	})
}

func TestCorruptFileIsBackedUp(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, config.DefaultDataFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}

	if out := mustRun(t, "list"); out != "No tasks found.\n" {
		t.Errorf("list after corrupt file: %q", out)
	}
	matches, err := filepath.Glob(path + ".corrupt-*")
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one backup, got %v (%v)", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil || string(data) != "garbage" {
		t.Errorf("backup content: %q, %v", data, err)
	}
}

func TestInitCommand(t *testing.T) {
	t.Run("creates files", func(t *testing.T) {
		dir := isolate(t)
		out := mustRun(t, "init")

		for _, rel := range []string{"data/tasks.json", "data/tasks.schema.json", "tasker.toml"} {
			if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
				t.Errorf("%s not created: %v", rel, err)
			}
		}
		if strings.Count(out, "Created ") != 3 {
			t.Errorf("init output:\n%s", out)
		}
		data, err := os.ReadFile(filepath.Join(dir, "tasker.toml"))
		if err != nil || string(data) != config.ExampleConfig() {
			t.Errorf("tasker.toml: %v", err)
		}
		schema, err := os.ReadFile(filepath.Join(dir, "data", "tasks.schema.json"))
		if err != nil || string(schema) != string(store.Schema()) {
			t.Errorf("schema copy: %v", err)
		}
	})

	t.Run("keeps existing files", func(t *testing.T) {
		dir := isolate(t)
		id := addTask(t, "Keep me")
		configPath := filepath.Join(dir, "tasker.toml")
		if err := os.WriteFile(configPath, []byte("author = \"me\"\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		out := mustRun(t, "init")
		if !strings.Contains(out, "Task file exists") || !strings.Contains(out, "Skipped "+configPath) {
			t.Errorf("init output:\n%s", out)
		}
		if loadTasks(t, dir).Task(id) == nil {
			t.Error("init must not reset the task file")
		}
		data, _ := os.ReadFile(configPath)
		if string(data) != "author = \"me\"\n" {
			t.Errorf("tasker.toml overwritten: %q", data)
		}

		mustRun(t, "init", "-force")
		data, _ = os.ReadFile(configPath)
		if string(data) != config.ExampleConfig() {
			t.Error("-force should overwrite tasker.toml")
		}
		if loadTasks(t, dir).Task(id) == nil {
			t.Error("-force must not reset the task file")
		}
	})

	t.Run("skip config", func(t *testing.T) {
		dir := isolate(t)
		mustRun(t, "init", "-skip-config")
		if _, err := os.Stat(filepath.Join(dir, "tasker.toml")); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("tasker.toml should not exist: %v", err)
		}
	})
}

func TestConfigCommand(t *testing.T) {
	dir := isolate(t)
	if err := os.WriteFile(filepath.Join(dir, "tasker.toml"), []byte("author = \"pat\"\nmystery = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(config.EnvLogFormat, "json")

	out := mustRun(t, "-log-level", "error", "config")
	for _, want := range []string{
		filepath.Join(dir, "tasker.toml"),
		`author = "pat" (project file)`,
		`log_format = "json" (environment)`,
		`log_level = "error" (flag)`,
		`validate_on_load = "false" (default)`,
		`unknown key "mystery"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("config missing %q:\n%s", want, out)
		}
	}
}

func TestNoteUsesConfiguredAuthor(t *testing.T) {
	dir := isolate(t)
	t.Setenv(config.EnvAuthor, "robin")

	id := addTask(t, "Read")
	mustRun(t, "note", id, "chapter one")
	notes := loadTasks(t, dir).Task(id).Notes()
	if len(notes) != 1 || notes[0].Author != "robin" {
		t.Errorf("notes: %+v", notes)
	}
}

func TestTailCommand(t *testing.T) {
	t.Run("no logs", func(t *testing.T) {
		isolate(t)
		if out := mustRun(t, "tail"); out != "No log files found.\n" {
			t.Errorf("tail: %q", out)
		}
	})

	t.Run("reads log file", func(t *testing.T) {
		isolate(t)
		t.Setenv(config.EnvLogFile, "true")
		t.Setenv(config.EnvLogLevel, "info")
		addTask(t, "Logged")

		out := mustRun(t, "tail", "-n", "50")
		if !strings.Contains(out, "Tailing: ") || !strings.Contains(out, "added task") {
			t.Errorf("tail output:\n%s", out)
		}
	})
}

func TestTUIRequiresTerminal(t *testing.T) {
	isolate(t)
	if _, _, err := run(t, "tui", "-refresh", "0"); !errors.Is(err, ui.ErrNotTTY) {
		t.Errorf("tui without terminal: got %v, want ErrNotTTY", err)
	}
}

func TestShellCommand(t *testing.T) {
	dir := isolate(t)

	script := strings.Join([]string{
		`add "Buy milk" -priority high`,
		``,
		`list`,
		`bogus`,
		`view`,
		`search milk`,
		`shell`,
		`exit`,
		`add never reached`,
	}, "\n")
	out, errOut, err := runInput(t, script, "shell")
	if err != nil {
		t.Fatalf("shell: %v\nstderr: %s", err, errOut)
	}
	if !strings.Contains(out, "Added task ") || !strings.Contains(out, "[☐] [HIGH] Buy milk") {
		t.Errorf("shell output:\n%s", out)
	}
	if strings.Count(out, shellPrompt) != 8 {
		t.Errorf("expected 8 prompts, got %d:\n%s", strings.Count(out, shellPrompt), out)
	}
	for _, want := range []string{"Unknown command: bogus", "Error: usage: tasker view", "Error: already in a shell"} {
		if !strings.Contains(errOut, want) {
			t.Errorf("stderr missing %q:\n%s", want, errOut)
		}
	}
	if n := len(loadTasks(t, dir).Tasks(store.Filter{})); n != 1 {
		t.Errorf("tasks after shell: got %d, want 1", n)
	}

	t.Run("ends at EOF", func(t *testing.T) {
		out, _, err := runInput(t, "list\n", "shell")
		if err != nil {
			t.Fatalf("shell: %v", err)
		}
		if !strings.Contains(out, "Buy milk") {
			t.Errorf("shell output:\n%s", out)
		}
	})

	t.Run("bad quoting", func(t *testing.T) {
		_, errOut, err := runInput(t, "add \"unterminated\n", "shell")
		if err != nil {
			t.Fatalf("shell: %v", err)
		}
		if !strings.Contains(errOut, "Error: ") {
			t.Errorf("stderr: %q", errOut)
		}
	})
}

// TestBuyMilkScenario walks a task through its whole life across separate
// invocations, each of which reloads the file.
func TestBuyMilkScenario(t *testing.T) {
	dir := isolate(t)

	id := addTask(t, "Buy milk", "-priority", "high", "-category", "errands")
	mustRun(t, "tag", id, "shopping")
	mustRun(t, "add-subtask", id, "Check fridge")
	mustRun(t, "note", id, "2% fat", "-author", "kim")
	mustRun(t, "progress", id, "50")
	mustRun(t, "complete", id)

	s := loadTasks(t, dir)
	got := s.Task(id)
	if got == nil {
		t.Fatal("task missing after reload")
	}
	if !got.Completed() || got.CompletedDate() == nil {
		t.Error("task should be completed with a date")
	}
	if got.Progress() != 50 || len(got.Subtasks()) != 1 || len(got.Notes()) != 1 {
		t.Errorf("progress %d, subtasks %d, notes %d", got.Progress(), len(got.Subtasks()), len(got.Notes()))
	}
	// tags, subtasks, notes, progress, completed, completed_date
	if got.HistoryLen() != 6 {
		t.Errorf("history: got %d entries, want 6", got.HistoryLen())
	}

	out := mustRun(t, "report")
	if !strings.Contains(out, "- Completion Rate: 100.0%") || !strings.Contains(out, "- High: 1") {
		t.Errorf("report:\n%s", out)
	}
}
