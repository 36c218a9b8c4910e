// Package config loads the server's immutable configuration snapshot from
// YAML, once, before any socket is opened. There is no reload path: the
// specification treats configuration hot-reload as an explicit non-goal.
package config

import (
	"fmt"
	"os"
	"runtime"

	"github.com/elastic/go-ucfg"
	"github.com/elastic/go-ucfg/yaml"
)

// Recognizer holds the recognizer section as an opaque map; the dispatch
// core never interprets its keys. cmd/sherpa-server does not pass it on:
// the fake recognizer it builds takes no options from this map.
type Recognizer map[string]any

// Server holds the knobs the front-end and dispatch core need.
type Server struct {
	DocRoot             string  `config:"doc_root"`
	Port                int     `config:"port"`
	ComputeWorkers      int     `config:"compute_workers"`
	ComputeAffinity     []int   `config:"compute_affinity"`
	TailPaddingSeconds  float64 `config:"tail_padding_seconds"`
	MaxQueueDepth       int     `config:"max_queue_depth"`
	ShutdownTimeoutSecs int     `config:"shutdown_timeout_seconds"`
}

// Log holds the logging sink configuration.
type Log struct {
	File  string `config:"file"`
	Level string `config:"level"`
}

// Config is the full, immutable configuration snapshot.
type Config struct {
	Recognizer Recognizer `config:"recognizer"`
	Server     Server     `config:"server"`
	Log        Log        `config:"log"`
}

func defaults() Config {
	return Config{
		Server: Server{
			Port:                8000,
			ComputeWorkers:      runtime.NumCPU(),
			TailPaddingSeconds:  0.3,
			MaxQueueDepth:       0,
			ShutdownTimeoutSecs: 30,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads and unpacks the YAML file at path over top of the built-in
// defaults.
func Load(path string) (Config, error) {
	cfg := defaults()

	raw, err := yaml.NewConfigWithFile(path, ucfg.PathSep("."))
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := raw.Unpack(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unpack %s: %w", path, err)
	}
	return cfg, nil
}

// Validate enforces the startup invariants named in the specification:
// the document root must be set and must contain index.html.
func (c Config) Validate() error {
	if c.Server.DocRoot == "" {
		return fmt.Errorf("config: server.doc_root must be set")
	}
	if _, err := os.Stat(c.Server.DocRoot + "/index.html"); err != nil {
		return fmt.Errorf("config: server.doc_root %q missing index.html: %w", c.Server.DocRoot, err)
	}
	return nil
}
