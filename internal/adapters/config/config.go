// Package config loads bridge settings from config.toml and FAM_ environment
// variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/familiar-bridge/internal/adapters/repo/jsonfile"
)

const (
	appDirName = "familiar-bridge"
	configName = "config"
	configType = "toml"
	envPrefix  = "FAM"

	configFileMode = 0o600

	KeyListen         = "server.listen"
	KeySharedTemp     = "paths.shared_temp"
	KeyFamiliars      = "paths.familiars"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyResetLocations = "boot.reset_locations"
	KeyHeartbeatTTL   = "watcher.heartbeat_ttl"

	DefaultListen       = "127.0.0.1:8787"
	DefaultHeartbeatTTL = 20 * time.Second
)

var ErrConfigExists = errors.New("config file already exists")

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Paths   PathsConfig   `toml:"paths"`
	Log     LogConfig     `toml:"log"`
	Boot    BootConfig    `toml:"boot"`
	Watcher WatcherConfig `toml:"watcher"`
}

type ServerConfig struct {
	Listen string `toml:"listen"`
}

type PathsConfig struct {
	SharedTemp string `toml:"shared_temp"`
	Familiars  string `toml:"familiars"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type BootConfig struct {
	ResetLocations bool `toml:"reset_locations"`
}

type WatcherConfig struct {
	HeartbeatTTL string `toml:"heartbeat_ttl"`
}

// HeartbeatTTL parses the watcher liveness window.
func (c Config) HeartbeatTTL() time.Duration {
	ttl, err := time.ParseDuration(c.Watcher.HeartbeatTTL)
	if err != nil || ttl <= 0 {
		return DefaultHeartbeatTTL
	}
	return ttl
}

// DefaultDir is $XDG_CONFIG_HOME/familiar-bridge, falling back to
// ~/.config/familiar-bridge.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("resolve config directory: %w", errors.Join(err, homeErr))
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appDirName), nil
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a key.
func Defaults(dir string) Config {
	return Config{
		Server: ServerConfig{Listen: DefaultListen},
		Paths: PathsConfig{
			SharedTemp: filepath.Join(os.TempDir(), appDirName),
			Familiars:  filepath.Join(dir, "familiars"),
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Boot:    BootConfig{ResetLocations: true},
		Watcher: WatcherConfig{HeartbeatTTL: DefaultHeartbeatTTL.String()},
	}
}

// Load reads config.toml from dir (DefaultDir when empty) and overlays FAM_
// environment variables. A missing file is not an error.
func Load(cfg *viper.Viper, dir string) (Config, error) {
	if cfg == nil {
		cfg = viper.New()
	}
	if dir == "" {
		resolved, err := DefaultDir()
		if err != nil {
			return Config{}, err
		}
		dir = resolved
	}

	defaults := Defaults(dir)
	cfg.SetDefault(KeyListen, defaults.Server.Listen)
	cfg.SetDefault(KeySharedTemp, defaults.Paths.SharedTemp)
	cfg.SetDefault(KeyFamiliars, defaults.Paths.Familiars)
	cfg.SetDefault(KeyLogLevel, defaults.Log.Level)
	cfg.SetDefault(KeyLogFormat, defaults.Log.Format)
	cfg.SetDefault(KeyResetLocations, defaults.Boot.ResetLocations)
	cfg.SetDefault(KeyHeartbeatTTL, defaults.Watcher.HeartbeatTTL)

	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(dir)
	if err := cfg.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	loaded := Config{
		Server: ServerConfig{Listen: strings.TrimSpace(cfg.GetString(KeyListen))},
		Paths: PathsConfig{
			SharedTemp: expandHome(cfg.GetString(KeySharedTemp)),
			Familiars:  expandHome(cfg.GetString(KeyFamiliars)),
		},
		Log: LogConfig{
			Level:  strings.ToLower(strings.TrimSpace(cfg.GetString(KeyLogLevel))),
			Format: strings.ToLower(strings.TrimSpace(cfg.GetString(KeyLogFormat))),
		},
		Boot:    BootConfig{ResetLocations: cfg.GetBool(KeyResetLocations)},
		Watcher: WatcherConfig{HeartbeatTTL: cfg.GetString(KeyHeartbeatTTL)},
	}

	if err := loaded.validate(); err != nil {
		return Config{}, err
	}
	return loaded, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Server.Listen == "" {
		errs = append(errs, fmt.Errorf("%s is empty", KeyListen))
	}
	if c.Paths.SharedTemp == "" {
		errs = append(errs, fmt.Errorf("%s is empty", KeySharedTemp))
	}
	if c.Paths.Familiars == "" {
		errs = append(errs, fmt.Errorf("%s is empty", KeyFamiliars))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("%s must be text or json, got %q", KeyLogFormat, c.Log.Format))
	}
	if ttl, err := time.ParseDuration(c.Watcher.HeartbeatTTL); err != nil || ttl <= 0 {
		errs = append(errs, fmt.Errorf("%s must be a positive duration, got %q", KeyHeartbeatTTL, c.Watcher.HeartbeatTTL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// Path is the config.toml location inside dir.
func Path(dir string) string {
	return filepath.Join(dir, configName+"."+configType)
}

// WriteDefault writes the default configuration to dir/config.toml. An
// existing file is kept unless force is set.
func WriteDefault(dir string, force bool) (string, error) {
	path := Path(dir)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s: %w", path, ErrConfigExists)
		} else if !errors.Is(err, os.ErrNotExist) {
			return path, fmt.Errorf("stat config file: %w", err)
		}
	}

	data, err := Encode(Defaults(dir))
	if err != nil {
		return path, err
	}
	if err := jsonfile.WriteBytes(path, data, configFileMode); err != nil {
		return path, fmt.Errorf("write config file: %w", err)
	}
	return path, nil
}

func expandHome(path string) string {
	path = strings.TrimSpace(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
