// Package config manages YAML-based configuration and CLI flag overrides.
package config

import (
	"flag"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the server.
type Config struct {
	Port         int    `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	SeedDir      string `yaml:"seed_dir"`
	WatchSeed    bool   `yaml:"watch_seed"`
	LogLevel     string `yaml:"log_level"`

	// Preview settings.
	AliasPrefix     string   `yaml:"alias_prefix"`
	CDNBase         string   `yaml:"cdn_base"`
	ReactVersion    string   `yaml:"react_version"`
	EntryCandidates []string `yaml:"entry_candidates"`

	// Internal: path to the config file that was loaded.
	configPath string
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		DatabasePath: "reacthub.db",
		WatchSeed:    true,
		LogLevel:     "info",
		AliasPrefix:  "@/",
		CDNBase:      "https://esm.sh",
		ReactVersion: "18.3.1",
		EntryCandidates: []string{
			"/App.jsx", "/App.tsx", "/App.js",
			"/index.jsx", "/index.tsx", "/index.js",
			"/src/App.jsx", "/src/App.tsx",
		},
	}
}

// GetConfigDir returns the config directory path.
func GetConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/reacthub"
	}
	return filepath.Join(home, ".config", "reacthub")
}

// GetConfigPath returns the full path to the config file.
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load loads configuration from file and command line flags.
func Load() (*Config, error) {
	return load(flag.CommandLine, os.Args[1:])
}

func load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := DefaultConfig()

	port := fs.Int("port", 0, "HTTP server port")
	db := fs.String("db", "", "SQLite database path")
	seedDir := fs.String("seed", "", "Starter template directory")
	watchSeed := fs.Bool("watch-seed", true, "Reload the starter template on changes")
	logLevel := fs.String("log-level", "", "Log level (debug/info/warn/error)")
	configFile := fs.String("config", "", "Configuration file path")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Determine config file path.
	var cfgPath string
	if *configFile != "" {
		cfgPath = *configFile
	} else {
		globalConfig := GetConfigPath()
		if _, err := os.Stat(globalConfig); err == nil {
			cfgPath = globalConfig
		} else if _, err := os.Stat("reacthub.yaml"); err == nil {
			cfgPath = "reacthub.yaml"
		}
	}

	if cfgPath != "" {
		if err := cfg.loadFromFile(cfgPath); err != nil && *configFile != "" {
			// Only fail when the user explicitly named a config file.
			return nil, err
		}
		cfg.configPath = cfgPath
	}

	// Command line flags override the config file (only if explicitly set).
	// The bool flag has no zero-value sentinel, so track it through Visit.
	passed := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { passed[f.Name] = true })

	if *port != 0 {
		cfg.Port = *port
	}
	if *db != "" {
		cfg.DatabasePath = *db
	}
	if *seedDir != "" {
		cfg.SeedDir = *seedDir
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if passed["watch-seed"] {
		cfg.WatchSeed = *watchSeed
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, c)
}

// GetConfigFilePath returns the path of the loaded config file, or ""
// when only defaults and flags were used.
func (c *Config) GetConfigFilePath() string {
	return c.configPath
}
