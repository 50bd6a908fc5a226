package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# Tasker configuration file
# Values can be overridden by TASKER_* environment variables or CLI flags

# Task file (relative to the working directory)
data_file = "data/tasks.json"

# Log directory (supports ~ expansion)
log_dir = "~/.tasker"

# Logging: level is debug, info, warn, or error; format is text, json, or logfmt
log_level = "warn"
log_format = "text"
log_timestamps = false
log_caller = false

# Also append logs to <log_dir>/tasker.log
log_to_file = false

# Author recorded on notes added without -author
author = "system"

# Validate the task file against the JSON schema on every load
validate_on_load = false
`
}
