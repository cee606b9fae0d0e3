package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. GPU_KEEPALIVE_INTERVAL
const EnvPrefix = "GPU_KEEPALIVE"

// Config is the effective configuration shared by gpukeepalive and timetrack
type Config struct {
	Interval     time.Duration `mapstructure:"interval" yaml:"interval" json:"interval"`
	Command      string        `mapstructure:"command" yaml:"command" json:"command"`
	Args         []string      `mapstructure:"args" yaml:"args" json:"args"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout" json:"query_timeout"`
	MetricsAddr  string        `mapstructure:"metrics_addr" yaml:"metrics_addr" json:"metrics_addr"`

	LogLevel      string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	LogJSON       bool   `mapstructure:"log_json" yaml:"log_json" json:"log_json"`
	LogDir        string `mapstructure:"log_dir" yaml:"log_dir" json:"log_dir"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb" json:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups" yaml:"log_max_backups" json:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days" yaml:"log_max_age_days" json:"log_max_age_days"`

	Timetrack TimetrackConfig `mapstructure:"timetrack" yaml:"timetrack" json:"timetrack"`
	Install   InstallConfig   `mapstructure:"install" yaml:"install" json:"install"`
}

// TimetrackConfig locates the time-tracking data
type TimetrackConfig struct {
	DataDir string `mapstructure:"data_dir" yaml:"data_dir" json:"data_dir"`
}

// InstallConfig controls where timetrack links its commands
type InstallConfig struct {
	BinDir    string `mapstructure:"bin_dir" yaml:"bin_dir" json:"bin_dir"`
	SourceDir string `mapstructure:"source_dir" yaml:"source_dir" json:"source_dir"`
	// Links maps command name to a file in SourceDir
	Links map[string]string `mapstructure:"links" yaml:"links" json:"links"`
}

// DefaultLinks are the commands timetrack installs
func DefaultLinks() map[string]string {
	return map[string]string{
		"tt-start":   "timetrack",
		"tt-stop":    "timetrack",
		"tt-summary": "timetrack",
	}
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("interval", 60*time.Second)
	v.SetDefault("command", "nvidia-smi")
	v.SetDefault("args", []string{})
	v.SetDefault("query_timeout", time.Duration(0))
	v.SetDefault("metrics_addr", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
	v.SetDefault("log_dir", "")
	v.SetDefault("log_max_size_mb", 10)
	v.SetDefault("log_max_backups", 3)
	v.SetDefault("log_max_age_days", 28)

	v.SetDefault("timetrack.data_dir", "~/notes/_data/timetracker")
	v.SetDefault("install.bin_dir", "~/.local/bin")
	v.SetDefault("install.source_dir", "")
	// install.links is filled in by Load; a map default here would merge into a configured map.
}

// New returns a viper instance with defaults and environment binding.
// cfgFile overrides the search for $HOME/.gpu-keepalive/config.yaml.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to find home directory: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, ".gpu-keepalive"))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return v, nil
}

// Load decodes v into a Config, expanding ~ in paths
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", cfg.Interval)
	}
	if cfg.QueryTimeout < 0 {
		return nil, fmt.Errorf("query_timeout must not be negative, got %s", cfg.QueryTimeout)
	}
	if len(cfg.Install.Links) == 0 {
		cfg.Install.Links = DefaultLinks()
	}

	var err error
	if cfg.Timetrack.DataDir, err = ExpandHome(cfg.Timetrack.DataDir); err != nil {
		return nil, err
	}
	if cfg.Install.BinDir, err = ExpandHome(cfg.Install.BinDir); err != nil {
		return nil, err
	}
	if cfg.Install.SourceDir, err = ExpandHome(cfg.Install.SourceDir); err != nil {
		return nil, err
	}
	if cfg.LogDir, err = ExpandHome(cfg.LogDir); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
