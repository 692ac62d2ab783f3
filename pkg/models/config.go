package models

import "time"

// Config is the effective configuration of one activation build run.
type Config struct {
	Database Database `yaml:"database" mapstructure:"database"`
	LogLevel string   `yaml:"log_level" mapstructure:"log_level"`
	LogJSON  bool     `yaml:"log_json" mapstructure:"log_json"`
	Summary  bool     `yaml:"summary" mapstructure:"summary"`
}

// Database locates the embedded DuckDB file.
type Database struct {
	Path    string        `yaml:"path" mapstructure:"path"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // 0 disables
}
