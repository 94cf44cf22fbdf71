package config

// This file implements the YAML config file and environment layers that sit
// between DefaultConfig and the CLI flags.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by ApplyEnv. A .env file in the working
// directory is loaded into the process environment by main before this runs.
const (
	EnvBackend    = "ARIABATCH_BACKEND"
	EnvCheckpoint = "ARIABATCH_CHECKPOINT"
	EnvCommand    = "ARIABATCH_COMMAND"
	EnvLogFile    = "ARIABATCH_LOG"
	EnvEnv        = "ARIABATCH_ENV"
	EnvSentryDSN  = "SENTRY_DSN"
)

// LoadFile decodes the YAML file at path on top of cfg. Keys absent from the
// file keep their current values; unknown keys are rejected.
func LoadFile(cfg *Config, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	defer f.Close()

	if err := decodeYAML(cfg, f); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.ConfigFile = path
	return nil
}

func decodeYAML(cfg *Config, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg from the environment. lookup is usually os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if v, ok := nonEmpty(lookup, EnvBackend); ok {
		cfg.Run.Backend = v
	}
	if v, ok := nonEmpty(lookup, EnvCheckpoint); ok {
		cfg.Run.CheckpointPath = v
	}
	if v, ok := nonEmpty(lookup, EnvCommand); ok {
		cfg.Generator.Command = strings.Fields(v)
	}
	if v, ok := nonEmpty(lookup, EnvLogFile); ok {
		cfg.LogFile = v
	}
	if v, ok := nonEmpty(lookup, EnvEnv); ok {
		cfg.Environment = v
	}
	if v, ok := nonEmpty(lookup, EnvSentryDSN); ok {
		cfg.SentryDSN = v
	}
}

func nonEmpty(lookup func(string) (string, bool), key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
