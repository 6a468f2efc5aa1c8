// Package config loads livecheck settings from INI files with embedded defaults.
package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/umputun/livecheck/pkg/notify"
)

//go:embed defaults/config
var defaultsFS embed.FS

// LocalDir is the per-project config directory, relative to the working directory.
const LocalDir = ".livecheck"

// Config is the merged configuration: embedded defaults, then global, then local.
type Config struct {
	Values
	Colors       ColorConfig
	NotifyParams notify.Params

	configDir string // global config directory
	localPath string // local config file, empty if missing
}

// DefaultConfigDir returns ~/.config/livecheck, or a relative fallback if home is unknown.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".config", "livecheck")
	}
	return filepath.Join(home, ".config", "livecheck")
}

// Load installs defaults into configDir on first run and loads the merged configuration.
// empty configDir uses DefaultConfigDir.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	if err := newDefaultsInstaller(defaultsFS).Install(configDir); err != nil {
		return nil, fmt.Errorf("install defaults: %w", err)
	}

	globalPath := filepath.Join(configDir, "config")
	localPath := filepath.Join(LocalDir, "config")
	if _, err := os.Stat(localPath); err != nil {
		localPath = ""
	}

	values, err := newValuesLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}

	colors, err := newColorLoader(defaultsFS).Load(localPath, globalPath)
	if err != nil {
		return nil, fmt.Errorf("load colors: %w", err)
	}

	return &Config{
		Values:       values,
		Colors:       colors,
		NotifyParams: values.notifyParams(),
		configDir:    configDir,
		localPath:    localPath,
	}, nil
}

// ConfigDir returns the global config directory in use.
func (c *Config) ConfigDir() string { return c.configDir }

// LocalPath returns the local config file, empty if there is none.
func (c *Config) LocalPath() string { return c.localPath }

// Ms converts a millisecond config value to a duration.
func Ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (v Values) notifyParams() notify.Params {
	return notify.Params{
		Channels:      v.NotifyChannels,
		OnError:       v.NotifyOnError,
		OnComplete:    v.NotifyOnComplete,
		TimeoutMs:     v.NotifyTimeoutMs,
		TelegramToken: v.NotifyTelegramToken,
		TelegramChat:  v.NotifyTelegramChat,
		SlackToken:    v.NotifySlackToken,
		SlackChannel:  v.NotifySlackChannel,
		SMTPHost:      v.NotifySMTPHost,
		SMTPPort:      v.NotifySMTPPort,
		SMTPUsername:  v.NotifySMTPUsername,
		SMTPPassword:  v.NotifySMTPPassword,
		SMTPStartTLS:  v.NotifySMTPStartTLS,
		EmailFrom:     v.NotifyEmailFrom,
		EmailTo:       v.NotifyEmailTo,
		WebhookURLs:   v.NotifyWebhookURLs,
		CustomScript:  v.NotifyCustomScript,
	}
}
