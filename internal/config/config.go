// Package config loads fencer's TOML config file and environment overrides
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Environment overrides
const (
	EnvDBPath = "FENCER_DB_PATH"
	EnvDebug  = "FENCER_DEBUG"
	EnvLogDir = "FENCER_LOG_DIR"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
	Timer   TimerConfig   `toml:"timer"`
}

type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

type LogConfig struct {
	Debug bool   `toml:"debug"`
	Dir   string `toml:"dir"`
}

type TimerConfig struct {
	// BlockCheckSeconds is how often the timer looks for blocked apps; 0 disables it
	BlockCheckSeconds int  `toml:"block_check_seconds"`
	ConfirmStop       bool `toml:"confirm_stop"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

// DataDir is where the database and logs live by default
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".fencer"
	}
	return filepath.Join(home, ".fencer")
}

// DefaultPath is the config file location used when --config is not given
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fencer", "config.toml")
}

func DefaultConfig() Config {
	dir := DataDir()
	return Config{
		Storage: StorageConfig{DBPath: filepath.Join(dir, "fencer.db")},
		Log:     LogConfig{Dir: dir},
		Timer:   TimerConfig{BlockCheckSeconds: 5, ConfirmStop: true},
	}
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads path over the defaults, then applies a .env file from the
// working directory and FENCER_* variables. A missing file is not an error.
func LoadFrom(path string) (*LoadResult, error) {
	result := &LoadResult{Config: DefaultConfig()}

	if path != "" {
		if err := decodeFile(path, result); err != nil {
			return nil, err
		}
	}

	// .env is optional; real environment variables win over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("reading .env: %v", err))
	}
	if err := applyEnv(&result.Config); err != nil {
		return nil, err
	}

	result.Config.Storage.DBPath = expandHome(result.Config.Storage.DBPath)
	result.Config.Log.Dir = expandHome(result.Config.Log.Dir)

	if err := validate(&result.Config); err != nil {
		return nil, err
	}
	return result, nil
}

func decodeFile(path string, result *LoadResult) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	md, err := toml.Decode(string(data), &result.Config)
	if err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	var unknown []string
	for _, key := range md.Undecoded() {
		unknown = append(unknown, key.String())
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvDBPath); ok && v != "" {
		cfg.Storage.DBPath = v
	}
	if v, ok := os.LookupEnv(EnvLogDir); ok && v != "" {
		cfg.Log.Dir = v
	}
	if v, ok := os.LookupEnv(EnvDebug); ok && v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", EnvDebug, v)
		}
		cfg.Log.Debug = debug
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func validate(cfg *Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Storage.DBPath) == "" {
		errs = append(errs, "storage.db_path must not be empty")
	}
	if strings.TrimSpace(cfg.Log.Dir) == "" {
		errs = append(errs, "log.dir must not be empty")
	}
	if cfg.Timer.BlockCheckSeconds < 0 || cfg.Timer.BlockCheckSeconds > 3600 {
		errs = append(errs, fmt.Sprintf("timer.block_check_seconds must be between 0 and 3600, got %d", cfg.Timer.BlockCheckSeconds))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
