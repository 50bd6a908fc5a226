package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/nibzard/tasker-go/internal/taskerdir"
)

// Load loads configuration from multiple sources in priority order:
// 1. Defaults
// 2. User config file (~/.tasker/tasker.toml or OS-specific config dir)
// 3. Project config file (tasker.toml or .tasker.toml in current directory)
// 4. Environment variables
// 5. CLI flags
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cws, err := LoadWithSources(fs, args)
	if err != nil {
		return nil, err
	}
	return cws.Config, nil
}

// LoadWithSources loads configuration and tracks the source of each value.
func LoadWithSources(fs *flag.FlagSet, args []string) (*ConfigWithSources, error) {
	cws := &ConfigWithSources{
		Config:  &Config{},
		Sources: make(map[string]ConfigSource),
	}
	cfg := cws.Config

	// 1. Set defaults (all fields start with default source)
	setDefaults(cfg)
	for _, field := range configFields() {
		cws.Sources[field] = SourceDefault
	}

	// 2. User config file
	if path := findUserConfigFile(); path != "" {
		if err := loadConfigFile(cws, path, SourceUserFile); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", path, err)
		}
	}

	// 3. Project config file (overrides user config)
	if path := findProjectConfigFile(); path != "" {
		if err := loadConfigFile(cws, path, SourceProjFile); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", path, err)
		}
	}

	// 4. Environment
	loadFromEnv(cfg, cws.Sources)

	// 5. CLI flags (they override everything)
	if err := parseFlags(cfg, fs, args, cws.Sources); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	// 6. Derived values
	if err := finalizeConfig(cfg); err != nil {
		return nil, fmt.Errorf("finalizing config: %w", err)
	}
	return cws, nil
}

// loadConfigFile decodes a TOML file over cfg and records every key the
// file defines.
func loadConfigFile(cws *ConfigWithSources, path string, source ConfigSource) error {
	md, err := toml.DecodeFile(path, cws.Config)
	if err != nil {
		return err
	}
	for _, field := range configFields() {
		if md.IsDefined(field) {
			cws.Sources[field] = source
		}
	}
	for _, key := range md.Undecoded() {
		cws.Warnings = append(cws.Warnings, fmt.Sprintf("%s: unknown key %q", path, key.String()))
	}
	cws.Files = append(cws.Files, path)
	return nil
}

// findProjectConfigFile looks for a config file in the current directory.
func findProjectConfigFile() string {
	for _, name := range taskerdir.ProjectConfigNames() {
		if _, err := os.Stat(name); err == nil {
			abs, err := filepath.Abs(name)
			if err != nil {
				return name
			}
			return abs
		}
	}
	return ""
}

// findUserConfigFile looks for ~/.tasker/tasker.toml first, then falls back
// to the OS config directory.
func findUserConfigFile() string {
	if home, err := os.UserHomeDir(); err == nil {
		path := taskerdir.UserConfigPath(home)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	if dir := osUserConfigDir(); dir != "" {
		path := filepath.Join(dir, "tasker", taskerdir.ConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// osUserConfigDir returns the OS-specific user config directory, or "".
func osUserConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		return os.Getenv("APPDATA")
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support")
		}
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return xdg
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".config")
		}
	}
	return ""
}

// finalizeConfig expands paths and resolves the data file against the
// project root.
func finalizeConfig(cfg *Config) error {
	cfg.LogDir = expandPath(cfg.LogDir)
	cfg.DataFile = expandPath(cfg.DataFile)

	if cfg.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.ProjectRoot = wd
	}
	if !filepath.IsAbs(cfg.DataFile) {
		cfg.DataFile = filepath.Join(cfg.ProjectRoot, cfg.DataFile)
	}
	if cfg.LogDir != "" && !filepath.IsAbs(cfg.LogDir) {
		cfg.LogDir = filepath.Join(cfg.ProjectRoot, cfg.LogDir)
	}
	if cfg.Author == "" {
		cfg.Author = DefaultAuthor
	}
	return nil
}
