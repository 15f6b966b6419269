package config

import "time"

// Config is the root configuration of the web client
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	API    APIConfig    `mapstructure:"api"`
	Page   PageConfig   `mapstructure:"page"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// APIConfig points at the movie review backend. BaseURL is read once at
// startup and shared by every call site.
type APIConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// PageConfig controls how long a mounted page keeps its view state.
type PageConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
