// Package config loads tasker settings.
//
// Values are layered, later sources winning:
// built-in defaults, the user file, the project file, TASKER_* environment
// variables, then global CLI flags. The user file is ~/.tasker/tasker.toml,
// falling back to tasker/tasker.toml under the OS config directory
// (%APPDATA%, ~/Library/Application Support, or $XDG_CONFIG_HOME). The
// project file is tasker.toml or .tasker.toml in the working directory.
//
// LoadWithSources also records which layer set each key and collects a
// warning for every key a file defines that tasker does not know.
package config
