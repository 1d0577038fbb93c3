// Package config loads castlists configuration: config.yaml in the config
// directory, overlaid by CASTLISTS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// FileName is the configuration file inside the config directory.
	FileName = "config.yaml"

	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeySyncStrategy = "sync_strategy"
	cfgKeyDefaultActor = "default_actor"
)

// envOverlay holds the environment overrides. Empty values leave the file
// settings alone.
type envOverlay struct {
	Backend      string `env:"CASTLISTS_BACKEND"`
	DataDir      string `env:"CASTLISTS_DATA_DIR"`
	SyncStrategy string `env:"CASTLISTS_SYNC"`
	DefaultActor string `env:"CASTLISTS_ACTOR"`
}

// Load reads config.yaml from configDir and applies environment overrides.
// A missing config.yaml is not an error. The result is validated.
func Load(configDir string) (types.Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := types.Config{
		Backend:      v.GetString(cfgKeyBackend),
		DataDir:      v.GetString(cfgKeyDataDir),
		SyncStrategy: v.GetString(cfgKeySyncStrategy),
		DefaultActor: v.GetString(cfgKeyDefaultActor),
	}

	var overlay envOverlay
	if err := env.Parse(&overlay); err != nil {
		return types.Config{}, fmt.Errorf("parse env: %w", err)
	}
	apply(&cfg.Backend, overlay.Backend)
	apply(&cfg.DataDir, overlay.DataDir)
	apply(&cfg.SyncStrategy, overlay.SyncStrategy)
	apply(&cfg.DefaultActor, overlay.DefaultActor)

	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func apply(dst *string, val string) {
	if val != "" {
		*dst = val
	}
}

// fileContents is the structure written to config.yaml.
type fileContents struct {
	Backend      string `yaml:"backend"`
	DataDir      string `yaml:"data_dir,omitempty"`
	SyncStrategy string `yaml:"sync_strategy,omitempty"`
	DefaultActor string `yaml:"default_actor,omitempty"`
}

// WriteDefault creates configDir and writes config.yaml with cfg's values
// unless the file already exists. It reports whether it wrote the file.
func WriteDefault(configDir string, cfg types.Config) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}
	path := filepath.Join(configDir, FileName)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	backend := cfg.Backend
	if backend == "" {
		backend = types.BackendSQLite
	}
	data, err := yaml.Marshal(&fileContents{
		Backend:      backend,
		DataDir:      cfg.DataDir,
		SyncStrategy: cfg.SyncStrategy,
		DefaultActor: cfg.DefaultActor,
	})
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
