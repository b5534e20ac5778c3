// Package config defines process configuration and how it is loaded.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// ResultsDir is where daily result files are written.
	ResultsDir string `koanf:"results_dir"`

	// RestartDelay is the pause between the start announcement and the map
	// restart.
	RestartDelay time.Duration `koanf:"restart_delay"`

	// ChatPrefix is prepended to every chat announcement.
	ChatPrefix string `koanf:"chat_prefix"`

	// CongratsMessages are the closing lines picked for a winner message;
	// empty keeps the built-in set.
	CongratsMessages []string `koanf:"congrats_messages"`

	// EndSection is the scores section that marks a finished map.
	EndSection string `koanf:"end_section"`

	// MetricsTextfile, if set, receives a Prometheus text dump after every
	// handled map.
	MetricsTextfile string `koanf:"metrics_textfile"`

	// EventQueueSize bounds the in-memory host event queue.
	EventQueueSize int `koanf:"queue_size"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		ResultsDir:     "matchresults",
		RestartDelay:   5 * time.Second,
		ChatPrefix:     "$o$20atBG $fff- ",
		EndSection:     "EndMap",
		EventQueueSize: 1024,
	}
}
