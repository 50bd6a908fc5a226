package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nibzard/tasker-go/internal/config"
	"github.com/nibzard/tasker-go/internal/logging"
	"github.com/nibzard/tasker-go/internal/store"
	"github.com/nibzard/tasker-go/internal/taskerdir"
	"github.com/nibzard/tasker-go/internal/ui"
)

// schemaFileName is written next to the task file by init.
const schemaFileName = "tasks.schema.json"

// doctorCommand checks config, the task file, and the log directory. The task
// file is read directly so that a corrupt file is reported rather than reset.
func (a *app) doctorCommand(args []string) error {
	fs := a.newFlagSet("doctor")
	verbose := fs.Bool("v", false, "Verbose output")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	a.println("Tasker Doctor")
	a.println("=============")
	a.println()

	allOK := true

	// Check project root
	a.printf("Project root: %s\n", a.cfg.ProjectRoot)
	if _, err := os.Stat(a.cfg.ProjectRoot); err != nil {
		a.printf("  ❌ Error: %v\n", err)
		allOK = false
	} else {
		a.println("  ✅ OK")
	}
	a.println()

	// Check config
	a.println("Config:")
	if file := a.sources.ConfigFile(); file != "" {
		a.printf("  ✅ File: %s\n", file)
	} else {
		a.println("  ⚠️  No config file (using defaults)")
	}
	if logging.ValidLevel(a.cfg.LogLevel) {
		a.printf("  ✅ Log level: %s\n", a.cfg.LogLevel)
	} else {
		a.printf("  ❌ Log level: %s (expected debug|info|warn|error)\n", a.cfg.LogLevel)
		allOK = false
	}
	if logging.ValidFormat(a.cfg.LogFormat) {
		a.printf("  ✅ Log format: %s\n", a.cfg.LogFormat)
	} else {
		a.printf("  ❌ Log format: %s (expected text|json|logfmt)\n", a.cfg.LogFormat)
		allOK = false
	}
	for _, w := range a.sources.Warnings {
		a.printf("  ⚠️  %s\n", w)
	}
	a.println()

	// Check task file
	a.printf("Task file: %s\n", a.cfg.DataFile)
	if !a.checkDataFile(*verbose) {
		allOK = false
	}
	a.println()

	// Check log directory
	a.printf("Log directory: %s\n", a.cfg.LogDir)
	if info, err := os.Stat(a.cfg.LogDir); err != nil {
		if os.IsNotExist(err) {
			a.println("  ⚠️  Not found (created when log_to_file is enabled)")
		} else {
			a.printf("  ❌ Error: %v\n", err)
			allOK = false
		}
	} else if !info.IsDir() {
		a.println("  ❌ Error: path is not a directory")
		allOK = false
	} else {
		a.println("  ✅ OK")
	}
	a.println()

	if allOK {
		a.println("✅ All checks passed!")
		return nil
	}
	a.println("⚠️  Some checks failed. Tasker may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

func (a *app) checkDataFile(verbose bool) bool {
	info, err := os.Stat(a.cfg.DataFile)
	if err != nil {
		if os.IsNotExist(err) {
			a.println("  ⚠️  Not found (will be created on first use)")
			return true
		}
		a.printf("  ❌ Error: %v\n", err)
		return false
	}
	if info.IsDir() {
		a.println("  ❌ Error: path is a directory")
		return false
	}
	a.println("  ✅ OK")

	data, err := os.ReadFile(a.cfg.DataFile)
	if err != nil {
		a.printf("  ❌ Read error: %v\n", err)
		return false
	}
	result := store.Validate(data)
	for _, w := range result.Warnings {
		a.printf("  ⚠️  %s\n", w)
	}
	if !result.Valid {
		a.println("  ❌ Validation failed:")
		for _, e := range result.Errors {
			a.printf("     - %v\n", e)
		}
		return false
	}
	a.println("  ✅ Valid")
	if verbose {
		a.printf("  Tasks: %d\n", result.Tasks)
	}
	return true
}

// initCommand creates the task file, a schema copy beside it, and a project
// tasker.toml. An existing task file is never touched.
func (a *app) initCommand(args []string) error {
	fs := a.newFlagSet("init")
	force := fs.Bool("force", false, "Overwrite an existing tasker.toml and schema file")
	skipConfig := fs.Bool("skip-config", false, "Do not write tasker.toml")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	if _, err := os.Stat(a.cfg.DataFile); err == nil {
		a.printf("Task file exists: %s\n", a.cfg.DataFile)
	} else if errors.Is(err, os.ErrNotExist) {
		if err := a.openStore().LastSaveError(); err != nil {
			return fmt.Errorf("create task file: %w", err)
		}
		a.printf("Created %s\n", a.cfg.DataFile)
	} else {
		return fmt.Errorf("stat task file: %w", err)
	}

	schemaPath := filepath.Join(filepath.Dir(a.cfg.DataFile), schemaFileName)
	if err := a.writeInitFile(schemaPath, store.Schema(), *force); err != nil {
		return err
	}

	if !*skipConfig {
		configPath := filepath.Join(a.cfg.ProjectRoot, taskerdir.ConfigFile)
		if err := a.writeInitFile(configPath, []byte(config.ExampleConfig()), *force); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) writeInitFile(path string, data []byte, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		a.printf("Skipped %s (exists, use -force to overwrite)\n", path)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	a.printf("Created %s\n", path)
	return nil
}

// configCommand prints the effective configuration and where each value
// came from.
func (a *app) configCommand(args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	if len(a.sources.Files) == 0 {
		a.println("Config files: (none)")
	} else {
		a.println("Config files:")
		for _, f := range a.sources.Files {
			a.printf("  %s\n", f)
		}
	}
	a.println()
	for _, field := range config.Fields() {
		a.printf("%s = %q (%s)\n", field, a.cfg.Value(field), a.sources.Sources[field])
	}
	if len(a.sources.Warnings) > 0 {
		a.println()
		for _, w := range a.sources.Warnings {
			a.printf("warning: %s\n", w)
		}
	}
	return nil
}

// tuiCommand launches the terminal UI.
func (a *app) tuiCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("tui")
	refresh := fs.Duration("refresh", 2*time.Second, "Reload the task file this often (0 disables)")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	s := a.openStore()
	a.logger.DetachTerminal()
	return ui.RunTUI(ctx, s,
		ui.WithRefreshInterval(*refresh),
		ui.WithStreams(a.streams.In, a.streams.Out),
	)
}

// tailCommand prints the log file, optionally following it.
func (a *app) tailCommand(ctx context.Context, args []string) error {
	fs := a.newFlagSet("tail")
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}

	logPath := taskerdir.LogPath(a.cfg.LogDir)
	if _, err := os.Stat(logPath); err != nil {
		logPath, err = logging.FindLatestLog(a.cfg.LogDir)
		if err != nil {
			return fmt.Errorf("finding latest log: %w", err)
		}
	}
	if logPath == "" {
		a.println("No log files found.")
		return nil
	}

	a.printf("Tailing: %s\n", logPath)
	if *follow {
		a.println("(Ctrl+C to stop)")
	}
	a.println()
	return logging.TailLog(ctx, a.streams.Out, logPath, *n, *follow)
}
