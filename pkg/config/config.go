// Package config loads settings from a config file, CONCILIAR_* environment
// variables (optionally from a .env file) and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/yurifrl/conciliar/pkg/parser"
)

const EnvPrefix = "CONCILIAR"

type StoreConfig struct {
	Driver string `mapstructure:"driver"` // memory or bolt
	Path   string `mapstructure:"path"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type Config struct {
	Workspace     string         `mapstructure:"workspace"`
	Store         StoreConfig    `mapstructure:"store"`
	CommitTimeout time.Duration  `mapstructure:"commit_timeout"`
	LogLevel      string         `mapstructure:"log_level"`
	Columns       parser.Columns `mapstructure:"columns"`
	Server        ServerConfig   `mapstructure:"server"`
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"workspace":      "workspace",
	"store-driver":   "store.driver",
	"store-path":     "store.path",
	"commit-timeout": "commit_timeout",
	"log-level":      "log_level",
	"addr":           "server.addr",
}

func setDefaults(v *viper.Viper) {
	cols := parser.DefaultColumns()
	v.SetDefault("workspace", "default")
	v.SetDefault("store.driver", "bolt")
	v.SetDefault("store.path", "conciliar.db")
	v.SetDefault("commit_timeout", 30*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("columns.date", cols.Date)
	v.SetDefault("columns.description", cols.Description)
	v.SetDefault("columns.amount", cols.Amount)
	v.SetDefault("columns.category", cols.Category)
	v.SetDefault("server.addr", "0.0.0.0:3000")
}

// Build loads the configuration. cfgFile may be empty, in which case an
// optional config.yaml in the working directory is used. flags may be nil.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "bolt":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the bolt driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q (want memory or bolt)", c.Store.Driver)
	}
	if c.Workspace == "" {
		return fmt.Errorf("workspace is required")
	}
	if c.CommitTimeout <= 0 {
		return fmt.Errorf("commit_timeout must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Level is the parsed log level; Validate guarantees it parses.
func (c *Config) Level() log.Level {
	l, _ := log.ParseLevel(c.LogLevel)
	return l
}

// RegisterFlags adds the flags Build understands to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("workspace", "", "Workspace (tenant) id")
	fs.String("store-driver", "", "Ledger store: memory or bolt")
	fs.String("store-path", "", "Ledger file for the bolt store")
	fs.Duration("commit-timeout", 0, "Import commit timeout")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
}
