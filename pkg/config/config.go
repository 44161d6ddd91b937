// Package config holds the runner configuration, backed by viper.
package config

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. LEIDEN_ALGORITHM_SEED
const EnvPrefix = "LEIDEN"

// ServiceName is attached to every log event
const ServiceName = "leiden-runner"

// Config manages runner configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.objective", "cpm")
	v.SetDefault("algorithm.resolution", 1.0)
	v.SetDefault("algorithm.seed", 42)
	v.SetDefault("algorithm.iterations", -1)
	v.SetDefault("algorithm.max_rounds", 1000)
	v.SetDefault("algorithm.engine", "louvain")

	// Native engine parameters
	v.SetDefault("louvain.max_levels", 32)
	v.SetDefault("louvain.max_passes", 100)
	v.SetDefault("louvain.min_gain", 1e-12)

	v.SetDefault("graph.directed", false)

	v.SetDefault("output.one_indexed", true)
	v.SetDefault("output.layout", "auto")

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// HTTP server parameters
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)
	v.SetDefault("server.max_body_bytes", 64<<20)
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// BindFlag lets a command line flag override key once the flag is set
func (c *Config) BindFlag(key string, flag *pflag.Flag) error {
	return c.v.BindPFlag(key, flag)
}

// Getters for algorithm parameters
func (c *Config) Objective() string   { return c.v.GetString("algorithm.objective") }
func (c *Config) Resolution() float64 { return c.v.GetFloat64("algorithm.resolution") }
func (c *Config) Seed() int64         { return c.v.GetInt64("algorithm.seed") }
func (c *Config) Iterations() int     { return c.v.GetInt("algorithm.iterations") }
func (c *Config) MaxRounds() int      { return c.v.GetInt("algorithm.max_rounds") }
func (c *Config) Engine() string      { return c.v.GetString("algorithm.engine") }

func (c *Config) MaxLevels() int   { return c.v.GetInt("louvain.max_levels") }
func (c *Config) MaxPasses() int   { return c.v.GetInt("louvain.max_passes") }
func (c *Config) MinGain() float64 { return c.v.GetFloat64("louvain.min_gain") }

func (c *Config) Directed() bool { return c.v.GetBool("graph.directed") }

func (c *Config) OneIndexed() bool     { return c.v.GetBool("output.one_indexed") }
func (c *Config) OutputLayout() string { return c.v.GetString("output.layout") }

func (c *Config) LogLevel() string  { return c.v.GetString("logging.level") }
func (c *Config) LogFormat() string { return c.v.GetString("logging.format") }

func (c *Config) ServerAddress() string          { return c.v.GetString("server.address") }
func (c *Config) ReadTimeout() time.Duration     { return c.v.GetDuration("server.read_timeout") }
func (c *Config) WriteTimeout() time.Duration    { return c.v.GetDuration("server.write_timeout") }
func (c *Config) ShutdownTimeout() time.Duration { return c.v.GetDuration("server.shutdown_timeout") }
func (c *Config) MaxBodyBytes() int64            { return c.v.GetInt64("server.max_body_bytes") }
func (c *Config) AllowedOrigins() []string       { return c.v.GetStringSlice("server.allowed_origins") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger(w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	if c.LogFormat() != "json" {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: "15:04:05",
		}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", ServiceName).Logger()
}
