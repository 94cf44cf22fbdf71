package config

// This file implements CLI flag parsing and help text.
// Layering is defaults -> --config YAML file -> environment -> flags, so each
// flag is registered with the value the lower layers produced as its default.

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

// lookupEnv is swapped in tests.
var lookupEnv = os.LookupEnv

// ParseFlags applies the config file, environment and args (without the
// program name) to cfg. On --help or --version it prints and exits.
// On error it returns non-nil (e.g. unknown flag, unreadable config file).
func ParseFlags(cfg *Config, version string, args []string) error {
	if path := scanConfigArg(args); path != "" {
		if err := LoadFile(cfg, path); err != nil {
			return err
		}
	}
	ApplyEnv(cfg, lookupEnv)

	fs := flag.NewFlagSet("ariabatch", flag.ContinueOnError)
	fs.Usage = func() { printUsage(version) }

	var n negatedFlags
	var configPath string

	defineGenerationFlags(fs, cfg)
	defineGeneratorFlags(fs, cfg)
	defineBehaviorFlags(fs, cfg)
	defineDisplayFlags(fs, cfg, &n)
	defineUtilityFlags(fs, &n, &configPath)

	if err := fs.Parse(args); err != nil {
		return err
	}

	applyNegatedFlags(cfg, &n)

	if n.showHelp {
		printUsage(version)
		os.Exit(0)
	}
	if n.showVersion {
		fmt.Fprintln(os.Stdout, "ariabatch v"+version)
		os.Exit(0)
	}

	return parsePositionalArgs(fs, cfg)
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	forceColor  bool
	noColor     bool
	showVersion bool
	showHelp    bool
}

// scanConfigArg finds --config before the real parse so the file can supply
// flag defaults. Both "--config x" and "--config=x" forms are accepted.
func scanConfigArg(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			return ""
		}
		name := strings.TrimLeft(a, "-")
		if len(name) == len(a) {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// defineGenerationFlags registers the RunConfig sampling parameters.
func defineGenerationFlags(fs *flag.FlagSet, cfg *Config) {
	r := &cfg.Run
	fs.StringVar(&r.Backend, "backend", r.Backend, "Inference backend identifier")
	fs.StringVar(&r.CheckpointPath, "checkpoint", r.CheckpointPath, "Model checkpoint path")
	fs.Float64Var(&r.Temperature, "temp", r.Temperature, "Sampling temperature (> 0)")
	fs.Float64Var(&r.Temperature, "t", r.Temperature, "Same as --temp")
	fs.Float64Var(&r.MinP, "min-p", r.MinP, "Min-p sampling floor in [0,1]")
	fs.IntVar(&r.Variations, "variations", r.Variations, "Variations per prompt (>= 1)")
	fs.IntVar(&r.PromptDuration, "prompt-duration", r.PromptDuration, "Prompt duration in seconds (999999 = whole prompt)")
	fs.IntVar(&r.Length, "length", r.Length, "Generated length in tokens")
	fs.Int64Var(&r.Seed, "seed", r.Seed, "Random seed")
	fs.StringVar(&r.HashSeed, "hash-seed", r.HashSeed, "PYTHONHASHSEED for the generator (default: seed)")
	fs.StringVar(&r.CublasWorkspace, "cublas-workspace", r.CublasWorkspace, "CUBLAS_WORKSPACE_CONFIG for the generator")
}

// defineGeneratorFlags registers how the external generator is launched.
func defineGeneratorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.Var(&commandValue{&cfg.Generator.Command}, "generator", "Generator command (default: \"aria generate\")")
	fs.BoolVar(&cfg.Generator.PassSeedFlag, "pass-seed", cfg.Generator.PassSeedFlag, "Pass --seed to the generator")
	fs.DurationVar(&cfg.Generator.Timeout, "timeout", cfg.Generator.Timeout, "Per-job timeout (0 = none)")
}

// defineBehaviorFlags registers dry-run, force and the variant directory name.
func defineBehaviorFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.VariantDir, "variant-dir", cfg.VariantDir, "Per-item subdirectory with derived variants")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Plan only; do not invoke the generator")
	fs.BoolVar(&cfg.DryRun, "d", cfg.DryRun, "Same as --dry-run")
	fs.BoolVar(&cfg.Overwrite, "force", cfg.Overwrite, "Regenerate outputs that already exist")
	fs.BoolVar(&cfg.Overwrite, "f", cfg.Overwrite, "Same as --force")
}

// defineDisplayFlags registers --color, --no-color, verbose, --check, --log.
func defineDisplayFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as --verbose")
	fs.BoolVar(&cfg.CheckOnly, "check", false, "Run system diagnostics and exit")
	fs.BoolVar(&cfg.CheckOnly, "c", false, "Same as --check")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as --log")
}

// defineUtilityFlags registers --config, --version and --help.
// --config is consumed by scanConfigArg; it is registered so Parse accepts it.
func defineUtilityFlags(fs *flag.FlagSet, n *negatedFlags, configPath *string) {
	fs.StringVar(configPath, "config", "", "YAML config file")
	fs.BoolVar(&n.showVersion, "version", false, "Print version and exit")
	fs.BoolVar(&n.showVersion, "V", false, "Same as --version")
	fs.BoolVar(&n.showHelp, "help", false, "Show this help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Show this help and exit")
}

func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs sets RootDir from the optional positional argument.
// A root already supplied by the config file may be omitted on the CLI.
func parsePositionalArgs(fs *flag.FlagSet, cfg *Config) error {
	args := fs.Args()
	switch {
	case len(args) > 1:
		return fmt.Errorf("expected at most one root_dir argument, got %d", len(args))
	case len(args) == 1:
		cfg.Run.RootDir = NormalizeDirArg(args[0])
	case cfg.Run.RootDir == "" && !cfg.CheckOnly:
		return fmt.Errorf("need root_dir (argument or run.root_dir in --config)")
	}
	return nil
}

// printUsage writes the help text to stderr. Column-aligned for readability.
func printUsage(version string) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "ariabatch v" + version + " - batch MIDI continuation runner"},
		{"", ""},
		{"  ariabatch [OPTIONS] <root_dir>", ""},
		{"", ""},
		{"Generation", ""},
		{"  --backend <name>", "Inference backend (default: torch_cuda)"},
		{"  --checkpoint <path>", "Model checkpoint"},
		{"  -t, --temp <float>", "Sampling temperature (default: 0.8)"},
		{"  --min-p <float>", "Min-p floor (default: 0.035)"},
		{"  --variations <n>", "Variations per prompt (default: 1)"},
		{"  --prompt-duration <s>", "Prompt duration (default: whole prompt)"},
		{"  --length <n>", "Generated length in tokens (default: 100)"},
		{"  --seed <n>", "Random seed (default: 42)"},
		{"  --hash-seed <v>", "PYTHONHASHSEED (default: seed)"},
		{"  --cublas-workspace <v>", "CUBLAS_WORKSPACE_CONFIG (default: :4096:8)"},
		{"", ""},
		{"Generator", ""},
		{"  --generator <cmd>", "Generator command (default: aria generate)"},
		{"  --pass-seed", "Pass --seed to the generator"},
		{"  --timeout <dur>", "Per-job timeout, e.g. 30m (default: none)"},
		{"", ""},
		{"Corpus & behavior", ""},
		{"  --variant-dir <name>", "Variant subdirectory (default: minorized)"},
		{"  -f, --force", "Regenerate existing outputs"},
		{"  -d, --dry-run", "Plan only; do not invoke the generator"},
		{"", ""},
		{"Display", ""},
		{"  --color", "Force colored logs"},
		{"  --no-color", "Disable colored logs"},
		{"  -v, --verbose", "Verbose output (stream generator output)"},
		{"", ""},
		{"Utility", ""},
		{"  --config <path>", "YAML config file"},
		{"  -l, --log <path>", "Append logs to file"},
		{"  -c, --check", "System diagnostics (generator, checkpoint)"},
		{"  -V, --version", "Print version and exit"},
		{"  -h, --help", "Show this help and exit"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(os.Stderr)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(os.Stderr, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(os.Stderr, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(os.Stderr, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// commandValue adapts a whitespace-separated command line to flag.Var.
type commandValue struct{ p *[]string }

func (c *commandValue) String() string {
	if c.p == nil {
		return ""
	}
	return strings.Join(*c.p, " ")
}

func (c *commandValue) Set(s string) error {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return fmt.Errorf("generator command must not be empty")
	}
	*c.p = fields
	return nil
}
