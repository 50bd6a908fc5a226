package config

import (
	"strconv"

	"github.com/nibzard/tasker-go/internal/taskerdir"
)

// ConfigSource represents where a configuration value came from.
type ConfigSource string

const (
	SourceDefault  ConfigSource = "default"
	SourceUserFile ConfigSource = "user file"
	SourceProjFile ConfigSource = "project file"
	SourceEnv      ConfigSource = "environment"
	SourceFlag     ConfigSource = "flag"
)

// ConfigWithSources holds configuration along with source information for each field.
type ConfigWithSources struct {
	Config  *Config
	Sources map[string]ConfigSource

	// Files lists the config files that were read, in load order.
	Files []string

	// Warnings lists unrecognized keys found in config files.
	Warnings []string
}

// ConfigFile returns the config file with the highest precedence, or "".
func (cws *ConfigWithSources) ConfigFile() string {
	if len(cws.Files) == 0 {
		return ""
	}
	return cws.Files[len(cws.Files)-1]
}

// Default values.
const (
	DefaultDataFile  = taskerdir.DataFile
	DefaultLogDir    = "~/" + taskerdir.Dir
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"
	DefaultAuthor    = "system"
)

// Config holds the full configuration for tasker.
type Config struct {
	// Paths
	DataFile string `toml:"data_file"`
	LogDir   string `toml:"log_dir"`

	// Logging
	LogLevel      string `toml:"log_level"`
	LogFormat     string `toml:"log_format"`
	LogTimestamps bool   `toml:"log_timestamps"`
	LogCaller     bool   `toml:"log_caller"`
	LogToFile     bool   `toml:"log_to_file"`

	// Author attached to notes added without -author.
	Author string `toml:"author"`

	// Validate the task file against the JSON schema on every load.
	ValidateOnLoad bool `toml:"validate_on_load"`

	// Project root (computed)
	ProjectRoot string `toml:"-"`
}

// configFields returns the list of configurable field names for source tracking.
func configFields() []string {
	return []string{
		"data_file",
		"log_dir",
		"log_level",
		"log_format",
		"log_timestamps",
		"log_caller",
		"log_to_file",
		"author",
		"validate_on_load",
	}
}

// Fields returns the configurable keys in display order.
func Fields() []string {
	return configFields()
}

// Value formats the value of a configurable key, or "" for unknown keys.
func (c *Config) Value(field string) string {
	switch field {
	case "data_file":
		return c.DataFile
	case "log_dir":
		return c.LogDir
	case "log_level":
		return c.LogLevel
	case "log_format":
		return c.LogFormat
	case "log_timestamps":
		return strconv.FormatBool(c.LogTimestamps)
	case "log_caller":
		return strconv.FormatBool(c.LogCaller)
	case "log_to_file":
		return strconv.FormatBool(c.LogToFile)
	case "author":
		return c.Author
	case "validate_on_load":
		return strconv.FormatBool(c.ValidateOnLoad)
	}
	return ""
}

// setDefaults applies default values to the config.
func setDefaults(cfg *Config) {
	cfg.DataFile = DefaultDataFile
	cfg.LogDir = DefaultLogDir
	cfg.LogLevel = DefaultLogLevel
	cfg.LogFormat = DefaultLogFormat
	cfg.Author = DefaultAuthor
}
