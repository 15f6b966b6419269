package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// CINEREVIEW_API_BASE_URL overrides api.base_url.
const EnvPrefix = "CINEREVIEW"

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.read_timeout", 15)
	v.SetDefault("server.write_timeout", 15)
	v.SetDefault("api.base_url", "http://127.0.0.1:5000")
	v.SetDefault("page.ttl", "30m")
	v.SetDefault("page.sweep_interval", "1m")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads app-config.yaml from the given directories (the working
// directory when none are given), then applies environment overrides. A
// missing config file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app-config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("No app-config.yaml found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Info().Str("api_base_url", cfg.API.BaseURL).Msg("Configuration loaded successfully")
	return &cfg, nil
}

func (c *Config) validate() error {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url %q is not an absolute URL", c.API.BaseURL)
	}
	if c.Page.TTL <= 0 {
		return fmt.Errorf("page.ttl must be positive, got %s", c.Page.TTL)
	}
	if c.Page.SweepInterval <= 0 {
		return fmt.Errorf("page.sweep_interval must be positive, got %s", c.Page.SweepInterval)
	}
	return nil
}
