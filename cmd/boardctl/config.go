package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// cliConfig is read from boardctl.yaml and BOARDCTL_* variables
type cliConfig struct {
	ServerURL    string
	Email        string
	Password     string
	SyncInterval time.Duration
	LogLevel     string
}

// loadConfig reads the config file from path, or searches the working
// directory and $HOME/.config/boardctl when path is empty. A missing file
// is fine as long as the environment provides the credentials.
func loadConfig(v *viper.Viper, path string) (*cliConfig, error) {
	v.SetDefault("server.url", "http://localhost:8080")
	v.SetDefault("sync.interval", "30s")
	v.SetDefault("log.level", "warn")

	v.SetEnvPrefix("boardctl")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("boardctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/boardctl")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &cliConfig{
		ServerURL:    v.GetString("server.url"),
		Email:        v.GetString("auth.email"),
		Password:     v.GetString("auth.password"),
		SyncInterval: v.GetDuration("sync.interval"),
		LogLevel:     v.GetString("log.level"),
	}
	if cfg.Email == "" || cfg.Password == "" {
		return nil, errors.New("auth.email and auth.password are required (BOARDCTL_AUTH_EMAIL, BOARDCTL_AUTH_PASSWORD)")
	}
	if cfg.SyncInterval <= 0 {
		return nil, fmt.Errorf("sync.interval must be positive, got %s", cfg.SyncInterval)
	}
	return cfg, nil
}
