package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazyfilter/internal/models"
)

const appName = "lazyfilter"

// Config holds all application configuration
type Config struct {
	UI          UIConfig          `mapstructure:"ui"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Filters     FiltersConfig     `mapstructure:"filters"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Performance PerformanceConfig `mapstructure:"performance"`
}

type UIConfig struct {
	Theme        string `mapstructure:"theme"`
	MouseEnabled bool   `mapstructure:"mouse_enabled"`
}

// DatabaseConfig selects the metadata source: a SQLite file or a YAML schema
// when their paths are set, PostgreSQL otherwise.
type DatabaseConfig struct {
	models.ConnectionConfig `mapstructure:",squash"`

	Schema     string `mapstructure:"schema"`
	Passfile   string `mapstructure:"passfile"`
	SQLitePath string `mapstructure:"sqlite_path"`
	SchemaFile string `mapstructure:"schema_file"`
}

// FiltersConfig configures the condition catalog. Endpoint names are
// matched lower-cased.
type FiltersConfig struct {
	HierarchicalTypes []string                     `mapstructure:"hierarchical_types"`
	CustomConditions  []models.CustomCondition     `mapstructure:"custom_conditions"`
	Endpoints         map[string]models.FieldShape `mapstructure:"endpoints"`
	NestedSetKey      string                       `mapstructure:"nested_set_key"`

	// HistoryFile is the SQLite file recently opened record types are kept in; empty disables it
	HistoryFile string `mapstructure:"history_file"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // text, json
	Dir        string `mapstructure:"dir"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"` // days
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

type PerformanceConfig struct {
	QueryTimeout     int `mapstructure:"query_timeout"`      // ms
	MetadataCacheTTL int `mapstructure:"metadata_cache_ttl"` // s
}

// QueryTimeoutDuration returns the query timeout
func (p PerformanceConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(p.QueryTimeout) * time.Millisecond
}

// MetadataCacheTTLDuration returns the metadata cache lifetime
func (p PerformanceConfig) MetadataCacheTTLDuration() time.Duration {
	return time.Duration(p.MetadataCacheTTL) * time.Second
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		UI: UIConfig{
			Theme:        "default",
			MouseEnabled: true,
		},
		Database: DatabaseConfig{
			ConnectionConfig: models.ConnectionConfig{
				Host:    "localhost",
				Port:    5432,
				SSLMode: "prefer",
			},
			Schema: "public",
		},
		Filters: FiltersConfig{
			NestedSetKey: "name",
			HistoryFile:  filepath.Join(defaultLogDir(), "history.db"),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Dir:        defaultLogDir(),
			File:       appName + ".log",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Performance: PerformanceConfig{
			QueryTimeout:     30000,
			MetadataCacheTTL: 300,
		},
	}
}

func defaultLogDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(os.TempDir(), appName)
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.database", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.schema", d.Database.Schema)
	v.SetDefault("database.passfile", "")
	v.SetDefault("database.sqlite_path", "")
	v.SetDefault("database.schema_file", "")
	v.SetDefault("filters.nested_set_key", d.Filters.NestedSetKey)
	v.SetDefault("filters.history_file", d.Filters.HistoryFile)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.compress", d.Logging.Compress)
	v.SetDefault("logging.console", d.Logging.Console)
	v.SetDefault("performance.query_timeout", d.Performance.QueryTimeout)
	v.SetDefault("performance.metadata_cache_ttl", d.Performance.MetadataCacheTTL)
}

// flagKeys maps command line flags to config keys
var flagKeys = map[string]string{
	"host":        "database.host",
	"port":        "database.port",
	"database":    "database.database",
	"user":        "database.user",
	"sslmode":     "database.ssl_mode",
	"schema":      "database.schema",
	"sqlite":      "database.sqlite_path",
	"schema-file": "database.schema_file",
	"theme":       "ui.theme",
	"log-level":   "logging.level",
}

// RegisterFlags adds the flags understood by Loader.BindFlags
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("config", "c", "", "config file (default: search user config dir, ., ./config)")
	flags.StringP("host", "H", "", "database host")
	flags.IntP("port", "p", 0, "database port")
	flags.StringP("database", "d", "", "database name")
	flags.StringP("user", "U", "", "database user")
	flags.String("sslmode", "", "ssl mode")
	flags.String("schema", "", "default schema for record types")
	flags.String("sqlite", "", "read field metadata from a SQLite file")
	flags.String("schema-file", "", "read field metadata from a YAML schema file")
	flags.String("theme", "", "color theme (default, catppuccin-mocha)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
}

// Loader reads the configuration through viper. The filesystem is
// replaceable for tests.
type Loader struct {
	v  *viper.Viper
	fs afero.Fs
}

// NewLoader creates a loader reading from fs
func NewLoader(fs afero.Fs) *Loader {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)
	return &Loader{v: v, fs: fs}
}

// BindFlags lets flags that were set on the command line override the
// config file. The config flag selects the file itself.
func (l *Loader) BindFlags(flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := l.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}
	if f := flags.Lookup("config"); f != nil && f.Changed {
		l.v.SetConfigFile(f.Value.String())
	}
	return nil
}

// Load reads the config file, if any, and decodes it over the defaults. A
// missing file in the search paths is not an error.
func (l *Loader) Load() (*Config, error) {
	if l.v.ConfigFileUsed() == "" {
		l.v.SetConfigName("config")
		l.v.SetConfigType("yaml")
		if configDir, err := GetConfigPath(); err == nil {
			l.v.AddConfigPath(configDir)
		}
		l.v.AddConfigPath(".")
		l.v.AddConfigPath("./config")
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := l.v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ConfigFile returns the file the configuration was read from, if any
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch re-reads the config file whenever it changes and hands the result
// to onChange. It does nothing when no file was read.
func (l *Loader) Watch(onChange func(*Config, error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(l.decode())
	})
	l.v.WatchConfig()
}

// Validate checks values that would otherwise fail later
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	seen := make(map[models.FilterOperator]bool)
	for i, cc := range c.Filters.CustomConditions {
		if cc.Key == "" {
			return fmt.Errorf("custom condition %d has no key", i)
		}
		if seen[cc.Key] {
			return fmt.Errorf("custom condition %q defined twice", cc.Key)
		}
		seen[cc.Key] = true
		if cc.Endpoint == "" {
			return fmt.Errorf("custom condition %q has no endpoint", cc.Key)
		}
		if len(cc.ValidForFieldTypes) == 0 {
			return fmt.Errorf("custom condition %q applies to no field type", cc.Key)
		}
	}
	return nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}
