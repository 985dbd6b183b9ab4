// Package config loads ls-orrery settings from flags, environment variables
// and an optional orrery.yaml.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrInvalid is returned for configuration that cannot be used.
var ErrInvalid = errors.New("invalid configuration")

const (
	defaultFPS = 60
	minFPS     = 1
	maxFPS     = 120

	// EnvPrefix prefixes every environment variable, e.g. ORRERY_FPS.
	EnvPrefix = "ORRERY"
)

// Config holds every setting of the CLI, the TUI and the service.
type Config struct {
	LogLevel    string   `mapstructure:"log_level"`
	LogFile     string   `mapstructure:"log_file"`
	SpeedFactor float64  `mapstructure:"speed_factor"`
	FPS         int      `mapstructure:"fps"`
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	StreamRate  float64  `mapstructure:"stream_rate"` // frames per second per stream client
	At          string   `mapstructure:"at"`          // RFC 3339 override for "now"
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		LogLevel:    "info",
		SpeedFactor: 3.0,
		FPS:         defaultFPS,
		Listen:      ":8080",
		CORSOrigins: []string{"*"},
		StreamRate:  30,
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"log-level":    "log_level",
	"log-file":     "log_file",
	"speed":        "speed_factor",
	"fps":          "fps",
	"listen":       "listen",
	"cors-origins": "cors_origins",
	"stream-rate":  "stream_rate",
	"at":           "at",
}

// New returns a viper instance carrying the defaults, the environment
// binding and the config file search path. An explicit file overrides the
// search path.
func New(file string) *viper.Viper {
	v := viper.New()

	d := Default()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
	v.SetDefault("speed_factor", d.SpeedFactor)
	v.SetDefault("fps", d.FPS)
	v.SetDefault("listen", d.Listen)
	v.SetDefault("cors_origins", d.CORSOrigins)
	v.SetDefault("stream_rate", d.StreamRate)
	v.SetDefault("at", d.At)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return v
	}
	v.SetConfigName("orrery")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".ls-orrery"))
	}
	return v
}

// BindFlags binds every known flag present in fs to its configuration key.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load reads the config file if one exists, then decodes and validates.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate clamps fps and the stream rate into range and rejects unusable
// values.
func (c *Config) Validate() error {
	if c.FPS < minFPS {
		c.FPS = minFPS
	} else if c.FPS > maxFPS {
		c.FPS = maxFPS
	}

	if math.IsNaN(c.SpeedFactor) || math.IsInf(c.SpeedFactor, 0) || c.SpeedFactor <= 0 {
		return fmt.Errorf("%w: speed_factor must be a positive number, got %v", ErrInvalid, c.SpeedFactor)
	}

	if c.StreamRate <= 0 || c.StreamRate > float64(c.FPS) {
		c.StreamRate = float64(c.FPS)
	}

	if c.At != "" {
		if _, err := ParseTime(c.At); err != nil {
			return err
		}
	}
	return nil
}

// FrameInterval returns the time between animation frames.
func (c Config) FrameInterval() time.Duration {
	fps := c.FPS
	if fps < minFPS {
		fps = defaultFPS
	}
	return time.Second / time.Duration(fps)
}

// Now returns the configured instant, or now when none is set.
func (c Config) Now() time.Time {
	if c.At == "" {
		return time.Now().UTC()
	}
	t, err := ParseTime(c.At)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// ParseTime parses an RFC 3339 instant.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q is not RFC 3339", ErrInvalid, s)
	}
	return t.UTC(), nil
}
