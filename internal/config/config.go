// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

// Package config loads runtime configuration from defaults, an optional
// YAML file, and command-line flags, in that order of precedence.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config is the full runtime configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
	Blob     BlobConfig     `koanf:"blob"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the API listener settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// DatabaseConfig holds PostgreSQL settings. URL falls back to the
// DATABASE_URL environment variable when unset.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// SessionConfig holds session persistence settings. An empty Path means
// the XDG state directory default.
type SessionConfig struct {
	Path string `koanf:"path"`
}

// BlobConfig holds object storage settings for item photos.
type BlobConfig struct {
	Endpoint      string `koanf:"endpoint"`
	Region        string `koanf:"region"`
	Bucket        string `koanf:"bucket"`
	AccessKey     string `koanf:"access_key"`
	SecretKey     string `koanf:"secret_key"`
	PublicBaseURL string `koanf:"public_base_url"`
}

// MetricsConfig holds the observability server settings.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: "localhost:8080"},
		Database: DatabaseConfig{URL: os.Getenv("DATABASE_URL")},
		Blob: BlobConfig{
			Region: "us-east-1",
			Bucket: "vitrina",
		},
		Metrics: MetricsConfig{Addr: "localhost:9090"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// when non-empty, then any set flags. Flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("CONFIG_FILE_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	if flags != nil {
		// Merge only flags the caller actually set, so unset flags with
		// empty defaults do not stomp file values or built-in defaults.
		changed := pflag.NewFlagSet("changed", pflag.ContinueOnError)
		flags.Visit(func(f *pflag.Flag) { changed.AddFlag(f) })
		if err := k.Load(posflag.Provider(changed, ".", k), nil); err != nil {
			return Config{}, oops.Code("CONFIG_FLAGS_FAILED").Wrap(err)
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("CONFIG_PARSE_FAILED").Wrap(err)
	}

	return cfg, nil
}
