// Package config loads hexagraph settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath      = "./hexagraph_data"
	DefaultMaxSize   = 10 << 20
	DefaultCacheSize = 16 << 20
)

// Size is a byte count written in go-humanize syntax, e.g. 10MB or 16MiB
type Size int64

// ParseSize parses a human readable byte count
func ParseSize(s string) (Size, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("size %s is too large", s)
	}
	return Size(n), nil // #nosec G115 - bounded above
}

func (s Size) String() string {
	return humanize.IBytes(uint64(s)) // #nosec G115 - sizes are never negative
}

// UnmarshalYAML accepts both plain integers and humanized strings
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseSize(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid size %q: %w", value.Line, value.Value, err)
	}
	*s = parsed
	return nil
}

func (s Size) MarshalYAML() (any, error) {
	return s.String(), nil
}

// Config holds everything needed to open a store
type Config struct {
	Path       string `yaml:"path"`
	Create     bool   `yaml:"create"`
	MaxSize    Size   `yaml:"max_size"`
	CacheSize  Size   `yaml:"cache_size"`
	SyncWrites bool   `yaml:"sync_writes"`
	LogLevel   string `yaml:"log_level"`
	LogFormat  string `yaml:"log_format"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Path:      DefaultPath,
		Create:    true,
		MaxSize:   DefaultMaxSize,
		CacheSize: DefaultCacheSize,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads a configuration file. Keys missing from the file keep their
// defaults; unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document on top of Default
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot be used
func (c Config) Validate() error {
	if c.Path == "" {
		return errors.New("path must not be empty")
	}
	if c.MaxSize < 0 {
		return errors.New("max_size must not be negative")
	}
	if c.CacheSize < 0 {
		return errors.New("cache_size must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// Logger builds the logger described by the configuration, writing to w
func (c Config) Logger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log_level: %w", err)
	}

	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
