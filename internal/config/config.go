package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	HistoryLimit      int           `mapstructure:"history_limit" yaml:"history_limit"`
	NATSURL           string        `mapstructure:"nats_url" yaml:"nats_url"`
}

// Default returns configuration with reasonable starter defaults. An empty
// nats_url runs the service in single-process fan-out mode.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		DatabasePath:      "chat.db",
		HistoryLimit:      50,
		NATSURL:           "",
	}
}
