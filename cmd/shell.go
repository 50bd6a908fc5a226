package cmd

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/nibzard/tasker-go/internal/utils"
)

const shellPrompt = "tasker> "

// shellCommand reads commands from stdin, one per line, against a single
// store until EOF, exit, or cancellation. A failing command does not end the
// session.
func (a *app) shellCommand(ctx context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments: %v", args)
	}
	a.inShell = true
	defer func() { a.inShell = false }()

	lines := make(chan string)
	readErr := make(chan error, 1)
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.streams.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	a.println("Tasker shell. Type help for commands, exit to quit.")
	for {
		fmt.Fprint(a.streams.Out, shellPrompt)
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			a.println()
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			a.println()
			return <-readErr
		}

		words, err := utils.SplitCommandLine(line)
		if err != nil {
			fmt.Fprintf(a.streams.Err, "Error: %v\n", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		switch strings.ToLower(words[0]) {
		case "exit", "quit":
			return nil
		}
		a.logger.Debug("shell command", "line", line)
		if err := a.dispatch(ctx, words[0], words[1:]); err != nil && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(a.streams.Err, "Error: %v\n", err)
		}
	}
}
