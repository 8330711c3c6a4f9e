package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/javi11/dvdnavstream/internal/nav"
	"github.com/javi11/dvdnavstream/internal/navstream"
	"github.com/javi11/dvdnavstream/internal/slogutil"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

// EnvPrefix prefixes environment overrides, e.g. DVDNAVSTREAM_LANGUAGE.
const EnvPrefix = "DVDNAVSTREAM"

// Config represents the complete application configuration
type Config struct {
	Engine         string            `mapstructure:"engine" yaml:"engine"`
	Language       string            `mapstructure:"language" yaml:"language"`
	ReadAhead      bool              `mapstructure:"read_ahead" yaml:"read_ahead"`
	PGCPositioning bool              `mapstructure:"pgc_positioning" yaml:"pgc_positioning"`
	SideChannel    SideChannelConfig `mapstructure:"side_channel" yaml:"side_channel"`
	Log            LogConfig         `mapstructure:"log" yaml:"log"`
}

// SideChannelConfig controls where side-channel packets go.
type SideChannelConfig struct {
	// Buffer is the number of packets queued between the stream and the
	// writer. The stream waits while the queue is full.
	Buffer int `mapstructure:"buffer" yaml:"buffer"`
	// Output is a file path, "-" for stdout, or empty to discard.
	Output string `mapstructure:"output" yaml:"output"`
	// MaxSizeMB splits a file output into parts of this size. Every part is
	// kept.
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

var defaults = map[string]any{
	"engine":                   string(nav.DefaultType()),
	"language":                 "en",
	"read_ahead":               true,
	"pgc_positioning":          false,
	"side_channel.buffer":      64,
	"side_channel.output":      "",
	"side_channel.max_size_mb": 100,
	"log.level":                "info",
	"log.format":               "text",
	"log.file":                 "",
	"log.max_size_mb":          100,
	"log.max_backups":          10,
	"log.max_age_days":         30,
	"log.compress":             true,
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		panic(fmt.Sprintf("config: decoding defaults: %v", err))
	}
	return cfg
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// LoadConfig reads the configuration from path, or from config.yaml in the
// working directory, $HOME/.dvdnavstream or /etc/dvdnavstream when path is
// empty. A missing default file is not an error.
func LoadConfig(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range []string{".", "$HOME/.dvdnavstream", "/etc/dvdnavstream"} {
			v.AddConfigPath(os.ExpandEnv(p))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Engine == "" {
		return fmt.Errorf("engine cannot be empty")
	}
	if _, err := nav.Lookup(nav.Type(c.Engine)); err != nil {
		return err
	}

	if len(c.Language) != 2 {
		return fmt.Errorf("language must be a two-letter code, got %q", c.Language)
	}
	if _, err := language.ParseBase(c.Language); err != nil {
		return fmt.Errorf("language %q is not a known language code: %w", c.Language, err)
	}

	if c.SideChannel.Buffer <= 0 {
		return fmt.Errorf("side_channel.buffer must be greater than 0")
	}
	if c.SideChannel.MaxSizeMB < 0 {
		return fmt.Errorf("side_channel.max_size_mb cannot be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation limits cannot be negative")
	}

	return nil
}

// StreamOptions returns the adapter settings. Sink and Logger are left for
// the caller to fill in.
func (c *Config) StreamOptions() navstream.Options {
	return navstream.Options{
		Language:       c.Language,
		ReadAhead:      c.ReadAhead,
		PGCPositioning: c.PGCPositioning,
	}
}

// LogOptions returns the logger settings.
func (c *Config) LogOptions() slogutil.Options {
	return slogutil.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}
