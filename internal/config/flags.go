package config

import "flag"

// flagToSource maps global flag names to config field names.
var flagToSource = map[string]string{
	"data":           "data_file",
	"log-dir":        "log_dir",
	"log-level":      "log_level",
	"log-format":     "log_format",
	"log-timestamps": "log_timestamps",
	"log-caller":     "log_caller",
	"log-file":       "log_to_file",
	"author":         "author",
	"validate":       "validate_on_load",
}

// parseFlags registers the global flags on fs, parses args, and marks
// every flag that was set explicitly.
func parseFlags(cfg *Config, fs *flag.FlagSet, args []string, sources map[string]ConfigSource) error {
	if fs == nil {
		fs = flag.NewFlagSet("tasker", flag.ContinueOnError)
	}

	fs.StringVar(&cfg.DataFile, "data", cfg.DataFile, "Path to task file")
	fs.StringVar(&cfg.LogDir, "log-dir", cfg.LogDir, "Log directory")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json, logfmt)")
	fs.BoolVar(&cfg.LogTimestamps, "log-timestamps", cfg.LogTimestamps, "Show timestamps in logs")
	fs.BoolVar(&cfg.LogCaller, "log-caller", cfg.LogCaller, "Show caller location in logs")
	fs.BoolVar(&cfg.LogToFile, "log-file", cfg.LogToFile, "Also write JSON logs to <log-dir>/tasker.log")
	fs.StringVar(&cfg.Author, "author", cfg.Author, "Default note author")
	fs.BoolVar(&cfg.ValidateOnLoad, "validate", cfg.ValidateOnLoad, "Validate the task file against the schema on load")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if field, ok := flagToSource[f.Name]; ok {
			sources[field] = SourceFlag
		}
	})
	return nil
}
