package config

import (
	"os"
	"strings"
)

// Environment variables read by loadFromEnv.
const (
	EnvDataFile      = "TASKER_DATA"
	EnvLogDir        = "TASKER_LOG_DIR"
	EnvLogLevel      = "TASKER_LOG_LEVEL"
	EnvLogFormat     = "TASKER_LOG_FORMAT"
	EnvLogTimestamps = "TASKER_LOG_TIMESTAMPS"
	EnvLogCaller     = "TASKER_LOG_CALLER"
	EnvLogFile       = "TASKER_LOG_FILE"
	EnvAuthor        = "TASKER_AUTHOR"
	EnvValidate      = "TASKER_VALIDATE"
)

// loadFromEnv overrides config from environment variables and marks each
// field it sets in sources.
func loadFromEnv(cfg *Config, sources map[string]ConfigSource) {
	str := func(env, field string, target *string) {
		if v := os.Getenv(env); v != "" {
			*target = v
			sources[field] = SourceEnv
		}
	}
	boolean := func(env, field string, target *bool) {
		if v := os.Getenv(env); v != "" {
			*target = boolFromString(v)
			sources[field] = SourceEnv
		}
	}

	str(EnvDataFile, "data_file", &cfg.DataFile)
	str(EnvLogDir, "log_dir", &cfg.LogDir)
	str(EnvLogLevel, "log_level", &cfg.LogLevel)
	str(EnvLogFormat, "log_format", &cfg.LogFormat)
	boolean(EnvLogTimestamps, "log_timestamps", &cfg.LogTimestamps)
	boolean(EnvLogCaller, "log_caller", &cfg.LogCaller)
	boolean(EnvLogFile, "log_to_file", &cfg.LogToFile)
	str(EnvAuthor, "author", &cfg.Author)
	boolean(EnvValidate, "validate_on_load", &cfg.ValidateOnLoad)
}

// boolFromString reports whether v is one of 1, true, yes, or on.
func boolFromString(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
