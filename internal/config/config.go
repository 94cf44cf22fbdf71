// Package config holds runtime configuration: defaults, config-file and
// environment overrides, CLI flag parsing, and validation. Generation defaults
// are fixed so reruns with no overrides produce the same jobs.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FullPrompt is the prompt-duration sentinel meaning "use the whole prompt".
const FullPrompt = 999999

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// RunConfig is the set of generation parameters shared by every job of a run.
// It is a value type: jobs carry a copy, so no component can observe a
// divergent version after [RunConfig.Validate] has passed.
type RunConfig struct {
	Backend        string  `yaml:"backend"`
	CheckpointPath string  `yaml:"checkpoint_path"`
	Temperature    float64 `yaml:"temperature"`
	MinP           float64 `yaml:"min_p"`
	Variations     int     `yaml:"variations"`
	PromptDuration int     `yaml:"prompt_duration"` // FullPrompt = entire prompt.
	Length         int     `yaml:"length"`          // Generated length in tokens.
	Seed           int64   `yaml:"seed"`
	RootDir        string  `yaml:"root_dir"`

	// Determinism knobs exported to the generator process. Empty HashSeed
	// means "derive from Seed".
	HashSeed        string `yaml:"hash_seed"`
	CublasWorkspace string `yaml:"cublas_workspace"`
}

// GeneratorConfig describes how the external generator is launched.
type GeneratorConfig struct {
	// Command is the program plus leading arguments, e.g. ["aria", "generate"].
	Command []string `yaml:"command"`
	// PassSeedFlag appends --seed to the generator arguments. Off by default
	// because the stock generator CLI rejects unknown flags.
	PassSeedFlag bool `yaml:"pass_seed_flag"`
	// Timeout bounds a single invocation. Zero waits indefinitely.
	Timeout time.Duration `yaml:"timeout"`
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then [LoadFile], [ApplyEnv] and [ParseFlags] before being passed (by
// pointer) to packages that need it.
type Config struct {
	Run       RunConfig       `yaml:"run"`
	Generator GeneratorConfig `yaml:"generator"`

	// VariantDir is the per-item subdirectory holding derived variants.
	VariantDir string `yaml:"variant_dir"` // Default: "minorized".

	// Behavior flags.
	DryRun    bool `yaml:"dry_run"`
	Overwrite bool `yaml:"overwrite"` // Regenerate even when the output exists.

	// Display and logging.
	Verbose   bool      `yaml:"verbose"`
	ColorMode ColorMode `yaml:"color"`
	LogFile   string    `yaml:"log_file"`
	CheckOnly bool      `yaml:"-"`

	// Telemetry.
	SentryDSN   string `yaml:"sentry_dsn"`
	Environment string `yaml:"environment"`

	// ConfigFile is the YAML file the settings were loaded from, if any.
	ConfigFile string `yaml:"-"`
}

// DefaultConfig returns a Config with the stock generation parameters.
func DefaultConfig() Config {
	return Config{
		Run: RunConfig{
			Backend:         "torch_cuda",
			CheckpointPath:  "config/models/aria-medium-base/model-gen.safetensors",
			Temperature:     0.8,
			MinP:            0.035,
			Variations:      1,
			PromptDuration:  FullPrompt,
			Length:          100,
			Seed:            42,
			CublasWorkspace: ":4096:8",
		},
		Generator: GeneratorConfig{
			Command: []string{"aria", "generate"},
		},
		VariantDir:  "minorized",
		ColorMode:   ColorAuto,
		Environment: "development",
	}
}

// ConfigurationError reports an invalid or missing run parameter. It is the
// only error kind that aborts a run, and it is always raised before any
// generator invocation.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// EffectiveHashSeed returns the PYTHONHASHSEED value for the generator.
func (r RunConfig) EffectiveHashSeed() string {
	if r.HashSeed != "" {
		return r.HashSeed
	}
	return fmt.Sprintf("%d", r.Seed)
}

// UsesFullPrompt reports whether the whole prompt file is used as context.
func (r RunConfig) UsesFullPrompt() bool { return r.PromptDuration >= FullPrompt }

// Validate checks sampling parameters and that RootDir is an existing
// directory. Every failure is a *ConfigurationError.
func (r RunConfig) Validate() error {
	if err := r.ValidateParams(); err != nil {
		return err
	}
	return ValidateRoot(r.RootDir)
}

// ValidateParams checks the sampling parameters only.
func (r RunConfig) ValidateParams() error {
	if strings.TrimSpace(r.Backend) == "" {
		return &ConfigurationError{Field: "backend", Reason: "must not be empty"}
	}
	if r.Temperature <= 0 {
		return &ConfigurationError{Field: "temperature", Reason: fmt.Sprintf("must be > 0 (got %g)", r.Temperature)}
	}
	if r.MinP < 0 || r.MinP > 1 {
		return &ConfigurationError{Field: "min_p", Reason: fmt.Sprintf("must be within [0,1] (got %g)", r.MinP)}
	}
	if r.Variations < 1 {
		return &ConfigurationError{Field: "variations", Reason: fmt.Sprintf("must be >= 1 (got %d)", r.Variations)}
	}
	if r.Length < 1 {
		return &ConfigurationError{Field: "length", Reason: fmt.Sprintf("must be >= 1 (got %d)", r.Length)}
	}
	if r.PromptDuration < 1 {
		return &ConfigurationError{Field: "prompt_duration", Reason: fmt.Sprintf("must be >= 1 (got %d)", r.PromptDuration)}
	}
	return nil
}

// ValidateRoot ensures root names an existing directory.
func ValidateRoot(root string) error {
	if root == "" {
		return &ConfigurationError{Field: "root_dir", Reason: "must not be empty"}
	}
	fi, err := os.Stat(root)
	if err != nil {
		return &ConfigurationError{Field: "root_dir", Reason: "cannot access " + root, Err: err}
	}
	if !fi.IsDir() {
		return &ConfigurationError{Field: "root_dir", Reason: root + " is not a directory"}
	}
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum and layout fields, then the run parameters. In
// CheckOnly mode the root directory is not required.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if c.VariantDir == "" || c.VariantDir != filepath.Base(c.VariantDir) {
		return &ConfigurationError{Field: "variant_dir", Reason: fmt.Sprintf("must be a single directory name (got %q)", c.VariantDir)}
	}
	if len(c.Generator.Command) == 0 || strings.TrimSpace(c.Generator.Command[0]) == "" {
		return &ConfigurationError{Field: "generator.command", Reason: "must name a program"}
	}
	if c.Generator.Timeout < 0 {
		return &ConfigurationError{Field: "generator.timeout", Reason: "must not be negative"}
	}

	if c.CheckOnly {
		return c.Run.ValidateParams()
	}
	return c.Run.Validate()
}
