// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v2"

	"github.com/ava-labs/countervm/api/ws"
	"github.com/ava-labs/countervm/chain"
	"github.com/ava-labs/countervm/consts"
	"github.com/ava-labs/countervm/pebble"
	"github.com/ava-labs/countervm/server"
	"github.com/ava-labs/countervm/trace"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "COUNTERD_"

var (
	ErrUnknownFormat  = errors.New("unknown config file format")
	ErrInvalidConfig  = errors.New("invalid config")
	ErrMissingChainID = errors.New("chain ID is required")
)

type Config struct {
	LogLevel     string `json:"logLevel"     yaml:"logLevel"     env:"LOG_LEVEL"`
	LogFormat    string `json:"logFormat"    yaml:"logFormat"    env:"LOG_FORMAT"`
	LogDirectory string `json:"logDirectory" yaml:"logDirectory" env:"LOG_DIR"`

	// Directory holding the pebble database.
	DataDirectory string `json:"dataDirectory" yaml:"dataDirectory" env:"DATA_DIR"`
	// SQLite file of the event indexer. Empty disables the indexer.
	IndexerPath string `json:"indexerPath" yaml:"indexerPath" env:"INDEXER_PATH"`

	HTTPAddress     string            `json:"httpAddress"     yaml:"httpAddress"     env:"HTTP_ADDRESS"`
	AllowedOrigins  []string          `json:"allowedOrigins"  yaml:"allowedOrigins"  env:"ALLOWED_ORIGINS" envSeparator:","`
	AllowedHosts    []string          `json:"allowedHosts"    yaml:"allowedHosts"    env:"ALLOWED_HOSTS"   envSeparator:","`
	ShutdownTimeout time.Duration     `json:"shutdownTimeout" yaml:"shutdownTimeout" env:"SHUTDOWN_TIMEOUT"`
	HTTP            server.HTTPConfig `json:"http"            yaml:"http"            envPrefix:"HTTP_"`

	ChainID        string        `json:"chainID"        yaml:"chainID"        env:"CHAIN_ID"`
	ProgramID      string        `json:"programID"      yaml:"programID"      env:"PROGRAM_ID"`
	CounterTag     string        `json:"counterTag"     yaml:"counterTag"     env:"COUNTER_TAG"`
	ValidityWindow time.Duration `json:"validityWindow" yaml:"validityWindow" env:"VALIDITY_WINDOW"`

	WebSocket ws.Config     `json:"websocket" yaml:"websocket" envPrefix:"WS_"`
	Trace     trace.Config  `json:"trace"     yaml:"trace"     envPrefix:"TRACE_"`
	Pebble    pebble.Config `json:"pebble"    yaml:"pebble"    envPrefix:"PEBBLE_"`
}

func NewDefaultConfig() Config {
	return Config{
		LogLevel:        logging.Info.String(),
		LogFormat:       "auto",
		LogDirectory:    "logs",
		DataDirectory:   "db",
		IndexerPath:     "events.db",
		HTTPAddress:     "127.0.0.1:9650",
		AllowedOrigins:  []string{"*"},
		AllowedHosts:    []string{"localhost"},
		ShutdownTimeout: 10 * time.Second,
		HTTP:            server.NewDefaultHTTPConfig(),
		ChainID:         "",
		ProgramID:       ids.Empty.String(),
		CounterTag:      consts.DefaultCounterTag,
		ValidityWindow:  time.Minute,
		WebSocket:       ws.NewDefaultConfig(),
		Trace: trace.Config{
			Enabled:         false,
			TraceSampleRate: 1,
			Endpoint:        trace.DefaultEndpoint,
			AppName:         consts.Name,
			Agent:           "counterd",
			Version:         consts.Version,
		},
		Pebble: pebble.NewDefaultConfig(),
	}
}

// Load reads the config file at [path], if any, on top of the defaults and
// then applies environment overrides. The file format is picked by
// extension: .json, .yaml or .yml.
func Load(path string) (Config, error) {
	c := NewDefaultConfig()
	if len(path) > 0 {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := unmarshal(filepath.Ext(path), b, &c); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
		}
	}
	if err := env.ParseWithOptions(&c, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("%w: environment: %w", ErrInvalidConfig, err)
	}
	return c, c.Verify()
}

func unmarshal(ext string, b []byte, c *Config) error {
	switch strings.ToLower(ext) {
	case ".json":
		return json.Unmarshal(b, c)
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, c)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

func (c Config) Verify() error {
	if len(c.ChainID) == 0 {
		return ErrMissingChainID
	}
	if _, err := c.Rules(); err != nil {
		return err
	}
	if _, err := logging.ToLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.ValidityWindow < time.Second {
		return fmt.Errorf("%w: validity window %s is shorter than 1s", ErrInvalidConfig, c.ValidityWindow)
	}
	if len(c.CounterTag) == 0 {
		return fmt.Errorf("%w: counter tag is empty", ErrInvalidConfig)
	}
	return nil
}

// Rules returns the chain rules described by [c].
func (c Config) Rules() (*chain.DefaultRules, error) {
	chainID, err := ids.FromString(c.ChainID)
	if err != nil {
		return nil, fmt.Errorf("%w: chain ID: %w", ErrInvalidConfig, err)
	}
	programID, err := ids.FromString(c.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("%w: program ID: %w", ErrInvalidConfig, err)
	}
	rules := chain.NewDefaultRules(chainID, programID)
	rules.CounterTag = []byte(c.CounterTag)
	rules.ValidityWindow = c.ValidityWindow.Milliseconds()
	return rules, nil
}

// LoggingConfig returns the node log settings described by [c].
func (c Config) LoggingConfig() (logging.Config, error) {
	level, err := logging.ToLevel(c.LogLevel)
	if err != nil {
		return logging.Config{}, err
	}
	format, err := logging.ToFormat(c.LogFormat, os.Stdout.Fd())
	if err != nil {
		return logging.Config{}, err
	}
	return logging.Config{
		RotatingWriterConfig: logging.RotatingWriterConfig{
			MaxSize:   8, // MB
			MaxFiles:  10,
			MaxAge:    30, // days
			Directory: c.LogDirectory,
			Compress:  false,
		},
		DisplayLevel: level,
		LogLevel:     level,
		LogFormat:    format,
	}, nil
}
