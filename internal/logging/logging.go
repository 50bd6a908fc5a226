// Package logging builds the structured logger and tails log files.
package logging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasker-go/internal/taskerdir"
)

// MaxLogSize is the size at which an existing log file is rotated on open.
const MaxLogSize = 5 << 20

// Options configure New.
type Options struct {
	Level      string
	Format     string
	Timestamps bool
	Caller     bool
	Prefix     string

	// Dir, when non-empty, adds a log file sink at Dir/tasker.log.
	Dir string
}

// Logger is a charmbracelet logger plus the log file it may own.
type Logger struct {
	*log.Logger
	path string
	file *os.File
}

// New returns a logger writing to w and, if opts.Dir is set, to the log file.
func New(w io.Writer, opts Options) (*Logger, error) {
	l := &Logger{}
	if opts.Dir != "" {
		file, path, err := openLogFile(opts.Dir)
		if err != nil {
			return nil, err
		}
		l.file, l.path = file, path
		w = io.MultiWriter(w, file)
	}
	l.Logger = log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(opts.Level),
		Formatter:       ParseFormatter(opts.Format),
		ReportTimestamp: opts.Timestamps || opts.Dir != "",
		ReportCaller:    opts.Caller,
		Prefix:          opts.Prefix,
	})
	return l, nil
}

// Path returns the log file path, or "" when logging only to the writer.
func (l *Logger) Path() string {
	return l.path
}

// DetachTerminal stops writing to the terminal stream. Records still reach
// the log file when there is one.
func (l *Logger) DetachTerminal() {
	if l.file != nil {
		l.SetOutput(l.file)
		return
	}
	l.SetOutput(io.Discard)
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

func openLogFile(dir string) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create log dir: %w", err)
	}
	path := taskerdir.LogPath(dir)
	if info, err := os.Stat(path); err == nil && info.Size() >= MaxLogSize {
		rotated := strings.TrimSuffix(path, ".log") + "-" + time.Now().UTC().Format("20060102-150405") + ".log"
		if err := os.Rename(path, rotated); err != nil {
			return nil, "", fmt.Errorf("rotate log file: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("open log file: %w", err)
	}
	return file, path, nil
}

// ParseLevel converts a level name to a log.Level. Unknown names map to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// ParseFormatter converts a format name to a log.Formatter. Unknown names
// map to text.
func ParseFormatter(format string) log.Formatter {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}

// ValidLevel reports whether level is a recognized level name.
func ValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return true
	}
	return false
}

// ValidFormat reports whether format is a recognized format name.
func ValidFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text", "json", "logfmt":
		return true
	}
	return false
}

// FindLatestLog returns the most recently modified .log file in logDir, or
// "" if there is none.
func FindLatestLog(logDir string) (string, error) {
	entries, err := os.ReadDir(logDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read log dir: %w", err)
	}

	var latest string
	var latestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latest = filepath.Join(logDir, entry.Name())
		}
	}
	return latest, nil
}

// followInterval is how often tailFollow polls for new data.
var followInterval = 100 * time.Millisecond

// TailLog copies the last n lines of path to w (all of it when n <= 0). With
// follow it keeps copying appended data until ctx is done.
func TailLog(ctx context.Context, w io.Writer, path string, n int, follow bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if n > 0 {
		if err := tailSeek(file, n); err != nil {
			return fmt.Errorf("seek to tail position: %w", err)
		}
	}

	if _, err := io.Copy(w, file); err != nil {
		return err
	}
	if !follow {
		return nil
	}
	return tailFollow(ctx, w, file)
}

// tailSeek positions file at the start of its last n lines.
func tailSeek(file *os.File, n int) error {
	const chunk = 4096

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	end := stat.Size()

	// A trailing newline terminates the last line rather than starting a new one.
	if end > 0 {
		var last [1]byte
		if _, err := file.ReadAt(last[:], end-1); err != nil {
			return err
		}
		if last[0] == '\n' {
			end--
		}
	}

	buf := make([]byte, chunk)
	pos := end
	lines := 0
	for pos > 0 {
		size := int64(chunk)
		if pos < size {
			size = pos
		}
		pos -= size
		if _, err := file.ReadAt(buf[:size], pos); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		for i := size - 1; i >= 0; i-- {
			if buf[i] != '\n' {
				continue
			}
			lines++
			if lines == n {
				_, err := file.Seek(pos+i+1, io.SeekStart)
				return err
			}
		}
	}
	_, err = file.Seek(0, io.SeekStart)
	return err
}

// tailFollow polls file for appended data like tail -f.
func tailFollow(ctx context.Context, w io.Writer, file *os.File) error {
	ticker := time.NewTicker(followInterval)
	defer ticker.Stop()

	var pending bytes.Buffer
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		pending.Reset()
		if _, err := io.Copy(&pending, file); err != nil {
			return err
		}
		if pending.Len() == 0 {
			continue
		}
		if _, err := w.Write(pending.Bytes()); err != nil {
			return err
		}
	}
}
