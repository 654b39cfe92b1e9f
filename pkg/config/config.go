// Package config loads server configuration from defaults, an optional
// config.yaml and ESG_-prefixed environment variables.
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every tunable of the server. The upload limit is treated as
// configuration, not core logic: imports are bounded upstream, never inside
// the pipeline.
type Config struct {
	Port           string `mapstructure:"port"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	DevMode        bool   `mapstructure:"dev_mode"`
	LogLevel       string `mapstructure:"log_level"`
	LogFile        string `mapstructure:"log_file"`
}

// Load reads configuration. A missing config file is fine; defaults and
// environment variables (ESG_PORT, ESG_MAX_UPLOAD_BYTES, ...) apply.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("port", "3000")
	v.SetDefault("max_upload_bytes", int64(10<<20))
	v.SetDefault("dev_mode", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("ESG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
