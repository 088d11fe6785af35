package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort         = 8000
	DefaultInstance     = "Callisto"
	DefaultService      = "_callisto._tcp"
	DefaultExportPrefix = "org.mpris.MediaPlayer2.callisto"
	DefaultDesktopEntry = "callisto"
	DefaultLogLevel     = "info"

	appName = "callisto"
)

var busNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)+$`)

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Zeroconf    ZeroconfConfig    `yaml:"zeroconf"`
	MediaPlayer MediaPlayerConfig `yaml:"media_player"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig represents the transmission server settings
type ServerConfig struct {
	Port   int  `yaml:"port"`
	Secure bool `yaml:"secure"`
}

// ZeroconfConfig represents the service advertisement settings
type ZeroconfConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
	Service  string `yaml:"service"`
}

// MediaPlayerConfig represents the media player bridge settings
type MediaPlayerConfig struct {
	// Mirrored players are claimed as <export_prefix>.<name>
	ExportPrefix string `yaml:"export_prefix"`
	DesktopEntry string `yaml:"desktop_entry"`
	// Received album art is cached here. Empty disables album art.
	ArtCacheDir string `yaml:"art_cache_dir"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development,omitempty"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:   DefaultPort,
			Secure: true,
		},
		Zeroconf: ZeroconfConfig{
			Enabled:  true,
			Instance: DefaultInstance,
			Service:  DefaultService,
		},
		MediaPlayer: MediaPlayerConfig{
			ExportPrefix: DefaultExportPrefix,
			DesktopEntry: DefaultDesktopEntry,
			ArtCacheDir:  defaultArtCacheDir(),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

func defaultArtCacheDir() string {
	cacheDir, cacheErr := os.UserCacheDir()
	if cacheErr != nil {
		cacheDir = os.TempDir()
	}
	return filepath.Join(cacheDir, appName, "art")
}

// DefaultPath is the configuration file in the user's config directory.
func DefaultPath() string {
	configDir, configErr := os.UserConfigDir()
	if configErr != nil {
		return appName + ".yaml"
	}
	return filepath.Join(configDir, appName, "config.yaml")
}

// LoadConfig loads configuration from file. Settings missing from the file
// keep their defaults.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		// If file doesn't exist, return default config
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig saves configuration to file
func SaveConfig(fs afero.Fs, path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if !busNamePattern.MatchString(c.MediaPlayer.ExportPrefix) {
		return fmt.Errorf("export prefix %q is not a bus name", c.MediaPlayer.ExportPrefix)
	}
	if c.Zeroconf.Enabled && c.Zeroconf.Service == "" {
		return errors.New("zeroconf service is empty")
	}
	return nil
}
