// ABOUTME: Layered configuration: .env, shopmigrate.yaml, SHOPMIGRATE_* env vars and flags
// ABOUTME: Resolves XDG default paths and turns settings into loader options
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/harperreed/shopmigrate/dbf"
	"github.com/harperreed/shopmigrate/importer"
	"github.com/harperreed/shopmigrate/legacy"
)

// AppName names the XDG directories and the config file.
const AppName = "shopmigrate"

// EnvPrefix prefixes environment overrides, e.g. SHOPMIGRATE_DATA_DIR.
const EnvPrefix = "SHOPMIGRATE"

// Config holds every setting a command may need.
type Config struct {
	DataDir       string         `mapstructure:"data_dir"`
	DatabaseURL   string         `mapstructure:"database_url"`
	BatchSize     int            `mapstructure:"batch_size"`
	LayoutFile    string         `mapstructure:"layout_file"`
	QuarantineDir string         `mapstructure:"quarantine_dir"`
	AMQPURL       string         `mapstructure:"amqp_url"`
	AMQPExchange  string         `mapstructure:"amqp_exchange"`
	DBFCharset    string         `mapstructure:"dbf_charset"`
	Files         importer.Files `mapstructure:"files"`
}

// DefaultDatabaseURL points at a SQLite file under the XDG data home.
func DefaultDatabaseURL() string {
	return "sqlite://" + filepath.Join(xdg.DataHome, AppName, "shop.db")
}

// SetDefaults registers every key so env overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	files := importer.DefaultFiles()

	v.SetDefault("data_dir", "")
	v.SetDefault("database_url", DefaultDatabaseURL())
	v.SetDefault("batch_size", importer.DefaultBatchSize)
	v.SetDefault("layout_file", "")
	v.SetDefault("quarantine_dir", "")
	v.SetDefault("amqp_url", "")
	v.SetDefault("amqp_exchange", "shopmigrate")
	v.SetDefault("dbf_charset", "")
	v.SetDefault("files.customers", files.Customers)
	v.SetDefault("files.repairs", files.Repairs)
	v.SetDefault("files.history_pattern", files.HistoryPattern)
	v.SetDefault("files.parts", files.Parts)
	v.SetDefault("files.part_aliases", files.PartAliases)
}

// Load reads configuration into v and decodes it. configFile overrides the
// search for shopmigrate.yaml in the working directory and
// $XDG_CONFIG_HOME/shopmigrate. Flags should be bound to v before calling.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(AppName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(xdg.ConfigHome, AppName))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
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

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.BatchSize < 1 || c.BatchSize > importer.MaxBatchSize {
		return fmt.Errorf("batch_size must be between 1 and %d, got %d", importer.MaxBatchSize, c.BatchSize)
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if _, err := dbf.CharsetByName(c.DBFCharset); err != nil {
		return err
	}
	return nil
}

// RequireDataDir returns the data directory or an error naming the setting.
func (c *Config) RequireDataDir() (string, error) {
	if c.DataDir == "" {
		return "", fmt.Errorf("no data directory: pass --data-dir or set %s_DATA_DIR", EnvPrefix)
	}
	return c.DataDir, nil
}

// LoaderOptions turns the file, layout, charset and batch settings into
// importer options.
func (c *Config) LoaderOptions() ([]importer.Option, error) {
	layouts, err := legacy.LoadLayouts(c.LayoutFile)
	if err != nil {
		return nil, err
	}
	charset, err := dbf.CharsetByName(c.DBFCharset)
	if err != nil {
		return nil, err
	}

	opts := []importer.Option{
		importer.WithBatchSize(c.BatchSize),
		importer.WithLayouts(layouts),
		importer.WithFiles(c.Files),
	}
	if charset != nil {
		opts = append(opts, importer.WithCharset(charset))
	}
	return opts, nil
}
