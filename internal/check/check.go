// Package check provides system diagnostics (--check mode) and pre-pipeline
// dependency validation (CheckDeps) for the generator command and the model
// checkpoint.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/backmassage/ariabatch/internal/config"
	"github.com/backmassage/ariabatch/internal/display"
)

// Sentinel errors returned by CheckDeps when a required dependency is missing.
var (
	ErrGeneratorNotFound = errors.New("generator command not found on PATH")
	ErrCheckpointMissing = errors.New("model checkpoint not found")
)

// helpTimeout bounds the "<command> --help" probe in --check mode.
const helpTimeout = 30 * time.Second

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// stays testable with a recording logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// RunCheck runs the interactive --check flow: generator on PATH, whether it
// answers --help, the checkpoint file, and the determinism environment that
// will be pinned. It reports every item and returns false if any required
// dependency is missing.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	ok := checkGenerator(ctx, cfg.Generator, log)
	if !checkCheckpoint(cfg.Run.CheckpointPath, log) {
		ok = false
	}
	checkParams(cfg.Run, log)
	return ok
}

func checkGenerator(ctx context.Context, gen config.GeneratorConfig, log Logger) bool {
	if len(gen.Command) == 0 {
		log.Error("No generator command configured")
		return false
	}
	path, err := exec.LookPath(gen.Command[0])
	if err != nil {
		log.Error("%s not found on PATH", gen.Command[0])
		return false
	}
	log.Success("Generator: %s (%s)", strings.Join(gen.Command, " "), path)

	ctx, cancel := context.WithTimeout(ctx, helpTimeout)
	defer cancel()
	args := append(append([]string{}, gen.Command[1:]...), "--help")
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	if err != nil {
		log.Warn("%s --help failed: %v", strings.Join(gen.Command, " "), err)
		return true
	}
	log.Debug("%s", firstLine(string(out)))
	return true
}

func checkCheckpoint(path string, log Logger) bool {
	fi, err := os.Stat(path)
	switch {
	case err != nil:
		log.Error("Checkpoint not found: %s", path)
		return false
	case fi.IsDir():
		log.Error("Checkpoint is a directory: %s", path)
		return false
	}
	log.Success("Checkpoint: %s (%s)", path, display.FormatBytes(fi.Size()))
	return true
}

func checkParams(rc config.RunConfig, log Logger) {
	if err := rc.ValidateParams(); err != nil {
		log.Warn("Run parameters: %v", err)
		return
	}
	log.Info("Backend: %s", rc.Backend)
	log.Info("Determinism: PYTHONHASHSEED=%s CUBLAS_WORKSPACE_CONFIG=%s",
		rc.EffectiveHashSeed(), rc.CublasWorkspace)
}

// CheckDeps is the pre-pipeline validation: the generator executable must
// resolve on PATH and the checkpoint must be an existing file. Dry runs do
// not call it. Returns a wrapped sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	if len(cfg.Generator.Command) == 0 {
		return ErrGeneratorNotFound
	}
	if _, err := exec.LookPath(cfg.Generator.Command[0]); err != nil {
		return fmt.Errorf("%w: %s", ErrGeneratorNotFound, cfg.Generator.Command[0])
	}
	fi, err := os.Stat(cfg.Run.CheckpointPath)
	if err != nil || fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrCheckpointMissing, cfg.Run.CheckpointPath)
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
