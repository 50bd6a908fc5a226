// Package cmd implements the CLI command structure for tasker.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nibzard/tasker-go/internal/config"
	"github.com/nibzard/tasker-go/internal/logging"
	"github.com/nibzard/tasker-go/internal/store"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Streams are the standard streams a command reads from and writes to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Run executes the tasker CLI against the process's standard streams.
func Run(ctx context.Context, args []string) error {
	return RunWith(ctx, args, Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// RunWith executes the tasker CLI with explicit streams.
func RunWith(ctx context.Context, args []string, streams Streams) error {
	fs := flag.NewFlagSet("tasker", flag.ContinueOnError)
	fs.SetOutput(streams.Err)
	fs.Usage = func() {
		printUsage(fs, streams.Err)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, streams.Out)
		return nil
	}

	a := &app{
		cfg:     cws.Config,
		sources: cws,
		streams: streams,
		now:     time.Now,
	}
	if *showVersion {
		return a.versionCommand()
	}

	logger, err := logging.New(streams.Err, logging.Options{
		Level:      a.cfg.LogLevel,
		Format:     a.cfg.LogFormat,
		Timestamps: a.cfg.LogTimestamps,
		Caller:     a.cfg.LogCaller,
		Prefix:     "tasker",
		Dir:        logFileDir(a.cfg),
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Close()
	a.logger = logger
	for _, w := range cws.Warnings {
		logger.Warn("config", "warning", w)
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		printUsage(fs, streams.Out)
		return nil
	}
	a.usage = func(w io.Writer) { printUsage(fs, w) }
	if err := a.dispatch(ctx, remaining[0], remaining[1:]); err != nil && !errors.Is(err, flag.ErrHelp) {
		return err
	}
	return nil
}

func logFileDir(cfg *config.Config) string {
	if !cfg.LogToFile {
		return ""
	}
	return cfg.LogDir
}

// app carries the loaded configuration and shared resources for one
// invocation, or for every line of a shell session.
type app struct {
	cfg     *config.Config
	sources *config.ConfigWithSources
	streams Streams
	logger  *logging.Logger
	store   *store.Store
	now     func() time.Time
	usage   func(io.Writer)
	inShell bool
}

// dispatch runs one subcommand.
func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "add":
		return a.addCommand(args)
	case "list", "ls":
		return a.listCommand(args)
	case "view", "show":
		return a.viewCommand(args)
	case "update", "edit":
		return a.updateCommand(args)
	case "complete", "done":
		return a.completeCommand(args)
	case "delete", "rm":
		return a.deleteCommand(args)
	case "search":
		return a.searchCommand(args)
	case "categories":
		return a.categoriesCommand(args)
	case "add-subtask":
		return a.addSubtaskCommand(args)
	case "remove-subtask":
		return a.removeSubtaskCommand(args)
	case "complete-subtask":
		return a.completeSubtaskCommand(args)
	case "tag":
		return a.memberCommand("tag", args, addTag)
	case "untag":
		return a.memberCommand("untag", args, removeTag)
	case "depend":
		return a.dependCommand(args)
	case "undepend":
		return a.undependCommand(args)
	case "share":
		return a.memberCommand("share", args, shareWith)
	case "unshare":
		return a.memberCommand("unshare", args, unshareWith)
	case "note":
		return a.noteCommand(args)
	case "progress":
		return a.progressCommand(args)
	case "time":
		return a.timeCommand(args)
	case "remind":
		return a.remindCommand(args)
	case "history":
		return a.historyCommand(args)
	case "report":
		return a.reportCommand(args)
	case "export":
		return a.exportCommand(args)
	case "doctor":
		return a.doctorCommand(args)
	case "init":
		return a.initCommand(args)
	case "config":
		return a.configCommand(args)
	case "tui":
		return a.tuiCommand(ctx, args)
	case "shell":
		if a.inShell {
			return fmt.Errorf("already in a shell")
		}
		return a.shellCommand(ctx, args)
	case "tail":
		return a.tailCommand(ctx, args)
	case "version":
		return a.versionCommand()
	case "help":
		a.usage(a.streams.Out)
		return nil
	default:
		fmt.Fprintf(a.streams.Err, "Unknown command: %s\n", name)
		if !a.inShell {
			a.usage(a.streams.Err)
		}
		return fmt.Errorf("unknown command: %s", name)
	}
}

// openStore opens the task file on first use.
func (a *app) openStore() *store.Store {
	if a.store == nil {
		a.store = store.Open(a.cfg.DataFile,
			store.WithLogger(a.logger.Logger),
			store.WithSchemaValidation(a.cfg.ValidateOnLoad),
		)
	}
	return a.store
}

// saved reports the store's most recent save failure, if any.
func (a *app) saved() error {
	if err := a.openStore().LastSaveError(); err != nil {
		return fmt.Errorf("saving tasks: %w", err)
	}
	return nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.streams.Out, format, args...)
}

func (a *app) println(args ...any) {
	fmt.Fprintln(a.streams.Out, args...)
}

// versionCommand prints version information.
func (a *app) versionCommand() error {
	a.printf("tasker version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "Tasker - A local task tracker with an audit trail")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasker [global options] <command> [arguments] [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Task commands:")
	fmt.Fprintln(w, "  add <title>                     Add a task (-desc, -priority, -due, -category, -tags)")
	fmt.Fprintln(w, "  list, ls                        List pending tasks (-all, -completed, -category, -priority, -sort, -v)")
	fmt.Fprintln(w, "  view <id>                       Show a task with its subtasks and notes")
	fmt.Fprintln(w, "  update <id>                     Change fields (-title, -desc, -priority, -due, -clear-due, -category, -progress, -template)")
	fmt.Fprintln(w, "  complete <id>                   Mark a task completed")
	fmt.Fprintln(w, "  delete <id>                     Delete a task")
	fmt.Fprintln(w, "  search <query>                  Search titles, descriptions, and categories")
	fmt.Fprintln(w, "  categories                      List categories in use")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Detail commands:")
	fmt.Fprintln(w, "  add-subtask <id> <title>        Add a subtask (-desc, -priority)")
	fmt.Fprintln(w, "  remove-subtask <id> <sub>       Remove a subtask")
	fmt.Fprintln(w, "  complete-subtask <id> <sub>     Mark a subtask completed")
	fmt.Fprintln(w, "  tag|untag <id> <tag>...         Add or remove tags")
	fmt.Fprintln(w, "  depend|undepend <id> <dep>...   Add or remove dependencies")
	fmt.Fprintln(w, "  share|unshare <id> <user>...    Share or unshare with users")
	fmt.Fprintln(w, "  note <id> <text>                Add a note (-author)")
	fmt.Fprintln(w, "  progress <id> <percent>         Set progress (clamped to 0-100)")
	fmt.Fprintln(w, "  time <id> <minutes>             Log time spent")
	fmt.Fprintln(w, "  remind <id> <date>              Set a reminder (-clear to remove)")
	fmt.Fprintln(w, "  history <id>                    Show the change history (-field, -since, -until)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other commands:")
	fmt.Fprintln(w, "  report [summary|detailed]       Print a report (-o file)")
	fmt.Fprintln(w, "  export                          Export tasks (-format json|yaml|toml, -o file)")
	fmt.Fprintln(w, "  doctor                          Check config, task file, and log directory (-v)")
	fmt.Fprintln(w, "  init                            Create the task file and tasker.toml (-force, -skip-config)")
	fmt.Fprintln(w, "  config                          Show effective configuration and sources")
	fmt.Fprintln(w, "  tui                             Launch terminal UI (-refresh)")
	fmt.Fprintln(w, "  shell                           Run commands interactively from stdin")
	fmt.Fprintln(w, "  tail                            Print the log file (-n, -f)")
	fmt.Fprintln(w, "  version                         Show version information")
	fmt.Fprintln(w, "  help                            Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Task ids may be abbreviated to any unique prefix.")
	fmt.Fprintln(w, "Dates are YYYY-MM-DD, \"YYYY-MM-DD HH:MM\", or RFC 3339.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}
