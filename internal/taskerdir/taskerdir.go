// Package taskerdir provides constants and path helpers for tasker's
// per-user state directory (~/.tasker) and project files.
package taskerdir

import "path/filepath"

const (
	// Dir is the name of the tasker state directory.
	Dir = ".tasker"

	// ConfigFile is the config file name, both in Dir and in a project root.
	ConfigFile = "tasker.toml"

	// HiddenConfigFile is the alternate project config file name.
	HiddenConfigFile = ".tasker.toml"

	// LogFile is the name of the log file written inside the log directory.
	LogFile = "tasker.log"

	// DataFile is the default task file, relative to the project root.
	DataFile = "data/tasks.json"
)

// DirPath returns the state directory under home.
func DirPath(home string) string {
	if home == "" {
		return Dir
	}
	return filepath.Join(home, Dir)
}

// UserConfigPath returns the user-level config file path under home.
func UserConfigPath(home string) string {
	return filepath.Join(DirPath(home), ConfigFile)
}

// ProjectConfigNames lists project config file names in lookup order.
func ProjectConfigNames() []string {
	return []string{ConfigFile, HiddenConfigFile}
}

// LogPath returns the log file path inside logDir.
func LogPath(logDir string) string {
	return filepath.Join(logDir, LogFile)
}
