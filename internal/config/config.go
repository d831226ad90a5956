package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadopc/dailystretch/internal/model"
	"gopkg.in/yaml.v3"
)

const (
	appName        = "dailystretch"
	configFileName = "config.yaml"
)

// Config is everything the host supplies to the timer at startup.
type Config struct {
	Session       model.SessionConfig
	UserKey       string
	Notifications bool
	DBPath        string
	RedisAddr     string
}

type yamlConfig struct {
	StudyMinutes            int    `yaml:"study_minutes"`
	BreakMinutes            int    `yaml:"break_minutes"`
	ReminderIntervalMinutes int    `yaml:"reminder_interval_minutes"`
	UserKey                 string `yaml:"user_key,omitempty"`
	Notifications           *bool  `yaml:"notifications,omitempty"`
	DBPath                  string `yaml:"db_path,omitempty"`
	RedisAddr               string `yaml:"redis_addr,omitempty"`
}

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Session:       model.DefaultSessionConfig(),
		UserKey:       model.DefaultUserKey,
		Notifications: true,
	}
}

// DefaultPath returns ~/.config/dailystretch/config.yaml
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName, configFileName), nil
}

// Dir returns the directory holding the config, database and log.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// Load reads the YAML config at path.
// If the file does not exist, default settings are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var fileData yamlConfig
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}

	applyYamlConfig(&cfg, fileData)
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	notifications := cfg.Notifications
	fileData := yamlConfig{
		StudyMinutes:            cfg.Session.StudyMinutes,
		BreakMinutes:            cfg.Session.BreakMinutes,
		ReminderIntervalMinutes: cfg.Session.ReminderIntervalMinutes,
		UserKey:                 cfg.UserKey,
		Notifications:           &notifications,
		DBPath:                  cfg.DBPath,
		RedisAddr:               cfg.RedisAddr,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides values from DAILYSTRETCH_* environment variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("DAILYSTRETCH_USER_KEY"); v != "" {
		cfg.UserKey = v
	}
	if v := os.Getenv("DAILYSTRETCH_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("DAILYSTRETCH_DB"); v != "" {
		cfg.DBPath = v
	}
}

func applyYamlConfig(cfg *Config, fileData yamlConfig) {
	if fileData.StudyMinutes > 0 {
		cfg.Session.StudyMinutes = fileData.StudyMinutes
	}
	if fileData.BreakMinutes > 0 {
		cfg.Session.BreakMinutes = fileData.BreakMinutes
	}
	if fileData.ReminderIntervalMinutes > 0 {
		cfg.Session.ReminderIntervalMinutes = fileData.ReminderIntervalMinutes
	}
	if fileData.UserKey != "" {
		cfg.UserKey = fileData.UserKey
	}
	if fileData.Notifications != nil {
		cfg.Notifications = *fileData.Notifications
	}
	cfg.DBPath = fileData.DBPath
	cfg.RedisAddr = fileData.RedisAddr
}
