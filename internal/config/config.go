// Package config loads runtime configuration from .env, a
// .verse-rotator.yaml file and VERSE_ROTATOR_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. VERSE_ROTATOR_ADDR.
	EnvPrefix = "VERSE_ROTATOR"
	// PathEnv names an extra directory searched for the config file.
	PathEnv = "VERSE_ROTATOR_CONFIG_PATH"
)

type Config struct {
	DataDir        string
	DBPath         string
	SettingsDir    string
	CacheDir       string
	AssetsDir      string
	LogLevel       string
	LogFile        string
	Addr           string
	AllowedOrigins []string
	PlayerCommand  string
	Interval       int
}

// Load reads the configuration. envFiles are loaded with godotenv first
// (missing files are ignored); values already in the environment win.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("error reading %s: %w", f, err)
		}
	}

	dataDir, err := defaultDataDir()
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault("data_dir", dataDir)
	v.SetDefault("log_level", "info")
	v.SetDefault("addr", ":8080")
	v.SetDefault("allowed_origins", []string{"http://*", "https://*"})
	v.SetDefault("player_command", "")
	v.SetDefault("default_interval_minutes", 4)

	v.SetConfigName(".verse-rotator") // .yaml is implicit
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if override := os.Getenv(PathEnv); override != "" {
		v.AddConfigPath(override)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		DataDir:        expandHome(v.GetString("data_dir")),
		DBPath:         expandHome(v.GetString("db_path")),
		SettingsDir:    expandHome(v.GetString("settings_dir")),
		CacheDir:       expandHome(v.GetString("cache_dir")),
		AssetsDir:      expandHome(v.GetString("assets_dir")),
		LogLevel:       v.GetString("log_level"),
		LogFile:        expandHome(v.GetString("log_file")),
		Addr:           v.GetString("addr"),
		AllowedOrigins: origins(v.GetStringSlice("allowed_origins")),
		PlayerCommand:  v.GetString("player_command"),
		Interval:       v.GetInt("default_interval_minutes"),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "bible.db")
	}
	if cfg.SettingsDir == "" {
		cfg.SettingsDir = filepath.Join(cfg.DataDir, "settings")
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.DataDir, "translations")
	}
	if cfg.AssetsDir == "" {
		cfg.AssetsDir = filepath.Join(cfg.DataDir, "assets")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "verse-rotator.log")
	}
	if cfg.Interval <= 0 || cfg.Interval > 24*60 {
		cfg.Interval = 4
	}
	return cfg, nil
}

func defaultDataDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "verse-rotator"), nil
}

// origins accepts both a YAML list and a comma-separated env value.
func origins(in []string) []string {
	var out []string
	for _, s := range in {
		for _, o := range strings.Split(s, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
