package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig       `mapstructure:"app"`
	Bridge   BridgeConfig    `mapstructure:"bridge"`
	Backup   BackupConfig    `mapstructure:"backup"`
	Sessions []SessionConfig `mapstructure:"sessions"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type BridgeConfig struct {
	// Binary is the adb executable; a bare name is resolved on PATH.
	Binary                string `mapstructure:"binary"`
	CommandTimeoutSeconds int    `mapstructure:"command_timeout_seconds"`
}

type BackupConfig struct {
	LocalPath     string         `mapstructure:"local_path"`
	RetentionDays int            `mapstructure:"retention_days"`
	Compress      bool           `mapstructure:"compress"`
	SettleDelays  DelaysConfig   `mapstructure:"settle_delays"`
	UploadTargets []UploadTarget `mapstructure:"upload_targets"`
}

// DelaysConfig holds the pauses between automation steps, in seconds.
// These are empirical defaults for dialog rendering, not tuned values.
type DelaysConfig struct {
	DialogSeconds  int `mapstructure:"dialog_seconds"`
	TapSeconds     int `mapstructure:"tap_seconds"`
	FieldSeconds   int `mapstructure:"field_seconds"`
	TextSeconds    int `mapstructure:"text_seconds"`
	ConfirmSeconds int `mapstructure:"confirm_seconds"`
}

type SessionConfig struct {
	Name   string `mapstructure:"name"`
	Device string `mapstructure:"device"` // empty: use the sole authorized device
	Scope  string `mapstructure:"scope"`  // "all" or "app"

	// Package applies to app scope only.
	Package string `mapstructure:"package"`

	// Schedule is a cron spec (with seconds). Empty means run once at startup.
	Schedule string `mapstructure:"schedule"`

	TimeoutSeconds int `mapstructure:"timeout_seconds"` // 0: default per scope

	Automation AutomationConfig `mapstructure:"automation"`
}

// AutomationConfig carries the on-device confirmation coordinates as
// strings: they are usually pasted from device-specific notes, and a
// value that fails to parse as an integer demotes the session to
// manual confirmation instead of aborting it.
type AutomationConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ConfirmX       string `mapstructure:"confirm_x"`
	ConfirmY       string `mapstructure:"confirm_y"`
	PasswordFieldX string `mapstructure:"password_field_x"`
	PasswordFieldY string `mapstructure:"password_field_y"`
	PasswordDoneX  string `mapstructure:"password_done_x"`
	PasswordDoneY  string `mapstructure:"password_done_y"`
	Password       string `mapstructure:"password"`
	EnterKeyCode   int    `mapstructure:"enter_key_code"`
}

type UploadTarget struct {
	Type    string `mapstructure:"type"`
	Enabled bool   `mapstructure:"enabled"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`

	// AWS S3
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`

	// Telegram
	BotToken   string `mapstructure:"bot_token"`
	ChatID     string `mapstructure:"chat_id"`
	SendFile   bool   `mapstructure:"send_file"`
	NotifyOnly bool   `mapstructure:"notify_only"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app.name", "droidkeep")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("bridge.binary", "adb")
	v.SetDefault("bridge.command_timeout_seconds", 30)
	v.SetDefault("backup.retention_days", 7)
	v.SetDefault("backup.compress", false)
	v.SetDefault("backup.settle_delays.dialog_seconds", 5)
	v.SetDefault("backup.settle_delays.tap_seconds", 2)
	v.SetDefault("backup.settle_delays.field_seconds", 1)
	v.SetDefault("backup.settle_delays.text_seconds", 1)
	v.SetDefault("backup.settle_delays.confirm_seconds", 2)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Backup.LocalPath == "" {
		return fmt.Errorf("backup.local_path is required")
	}

	if len(c.Sessions) == 0 {
		return fmt.Errorf("at least one backup session is required")
	}

	for i, s := range c.Sessions {
		switch s.Scope {
		case "all", "app":
		default:
			return fmt.Errorf("sessions[%d]: scope must be \"all\" or \"app\", got %q", i, s.Scope)
		}
		if s.TimeoutSeconds < 0 {
			return fmt.Errorf("sessions[%d]: timeout_seconds cannot be negative", i)
		}
	}

	for i, t := range c.Backup.UploadTargets {
		if t.Type == "" {
			return fmt.Errorf("upload_targets[%d]: type is required", i)
		}
	}

	return nil
}

func (c *Config) GetEnabledUploadTargets() []UploadTarget {
	var enabled []UploadTarget
	for _, target := range c.Backup.UploadTargets {
		if target.Enabled {
			enabled = append(enabled, target)
		}
	}
	return enabled
}
