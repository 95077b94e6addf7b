// Package config assembles globe-server and globe-sim settings from defaults,
// .env files, GLOBE_* environment variables and command-line flags, in that
// order of precedence (later wins).
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/signalsfoundry/logistics-globe/internal/logging"
)

// Config holds all runtime settings.
type Config struct {
	// Listeners
	HTTPAddr    string
	GRPCAddr    string
	CORSOrigins []string

	// Scene
	ScenePath string // empty uses the built-in locations
	MaskPath  string // land mask texture; empty shows the full sphere
	Seed      uint64 // zero picks a random seed

	// Frame clock
	FrameInterval time.Duration
	Accelerated   bool

	// Logging
	LogLevel  string
	LogFormat string
}

// Default returns the settings used when nothing else is configured.
func Default() Config {
	return Config{
		HTTPAddr:      ":8080",
		GRPCAddr:      ":50051",
		CORSOrigins:   []string{"*"},
		FrameInterval: time.Second / 60,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// LoadDotEnv loads the given .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv applies GLOBE_* environment variables on top of Default.
func FromEnv() (Config, error) {
	cfg := Default()

	cfg.HTTPAddr = getEnv("GLOBE_HTTP_ADDR", cfg.HTTPAddr)
	cfg.GRPCAddr = getEnv("GLOBE_GRPC_ADDR", cfg.GRPCAddr)
	if v := os.Getenv("GLOBE_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	cfg.ScenePath = getEnv("GLOBE_SCENE", cfg.ScenePath)
	cfg.MaskPath = getEnv("GLOBE_LAND_MASK", cfg.MaskPath)
	cfg.LogLevel = getEnv("GLOBE_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("GLOBE_LOG_FORMAT", cfg.LogFormat)

	var err error
	if cfg.Seed, err = getEnvUint("GLOBE_SEED", cfg.Seed); err != nil {
		return cfg, err
	}
	if cfg.FrameInterval, err = getEnvDuration("GLOBE_FRAME_INTERVAL", cfg.FrameInterval); err != nil {
		return cfg, err
	}
	if v := os.Getenv("GLOBE_ACCELERATED"); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return cfg, fmt.Errorf("GLOBE_ACCELERATED: %w", perr)
		}
		cfg.Accelerated = b
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.FrameInterval <= 0 {
		return fmt.Errorf("frame interval %v must be positive", c.FrameInterval)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// RegisterFlags binds command-line flags to c. Values already in c become
// the flag defaults, so flags override the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr, "HTTP address for the JSON API and /metrics")
	fs.StringVar(&c.GRPCAddr, "grpc-addr", c.GRPCAddr, "TCP address the gRPC frame stream listens on")
	fs.StringVar(&c.ScenePath, "scene", c.ScenePath, "Path to a YAML scene file (empty uses the built-in locations)")
	fs.StringVar(&c.MaskPath, "land-mask", c.MaskPath, "Path to a land mask texture (PNG, JPEG, BMP or WebP)")
	fs.Uint64Var(&c.Seed, "seed", c.Seed, "Seed for route speeds and delays (0 picks one at random)")
	fs.DurationVar(&c.FrameInterval, "frame-interval", c.FrameInterval, "Time between animation frames")
	fs.BoolVar(&c.Accelerated, "accelerated", c.Accelerated, "Advance frames as fast as possible instead of in real time")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: debug, info, warn or error")
	fs.StringVar(&c.LogFormat, "log-format", c.LogFormat, "Log format: text or json")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
