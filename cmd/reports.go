package cmd

import (
	"fmt"
	"io"

	"github.com/nibzard/tasker-go/internal/report"
	"github.com/nibzard/tasker-go/internal/store"
)

// reportCommand prints a summary or detailed report.
func (a *app) reportCommand(args []string) error {
	fs := a.newFlagSet("report")
	out := fs.String("o", "", "Write the report to a file")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 1 {
		return fmt.Errorf("unexpected arguments: %v", rest[1:])
	}
	kind := string(report.KindSummary)
	if len(rest) == 1 {
		kind = rest[0]
	}

	text, err := report.Generate(kind, a.openStore().Tasks(store.Filter{}), a.now())
	if err != nil {
		return err
	}
	w, closeOut, err := a.output(*out)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, text); err != nil {
		closeOut()
		return err
	}
	if err := closeOut(); err != nil {
		return err
	}
	if *out != "" {
		a.printf("Wrote %s report to %s\n", kind, *out)
	}
	return nil
}

// exportCommand writes every root task as JSON, YAML, or TOML.
func (a *app) exportCommand(args []string) error {
	fs := a.newFlagSet("export")
	formatName := fs.String("format", "json", "Output format (json|yaml|toml)")
	out := fs.String("o", "", "Write to a file instead of stdout")

	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return fmt.Errorf("unexpected arguments: %v", rest)
	}
	format, err := store.ParseFormat(*formatName)
	if err != nil {
		return err
	}

	w, closeOut, err := a.output(*out)
	if err != nil {
		return err
	}
	if err := a.openStore().Export(w, format); err != nil {
		closeOut()
		return fmt.Errorf("export: %w", err)
	}
	if err := closeOut(); err != nil {
		return err
	}
	if *out != "" {
		a.printf("Exported %d tasks to %s\n", len(a.openStore().Tasks(store.Filter{})), *out)
	}
	return nil
}
