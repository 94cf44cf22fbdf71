package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/backmassage/ariabatch/internal/config"
	"github.com/backmassage/ariabatch/internal/corpus"
	"github.com/backmassage/ariabatch/internal/display"
	"github.com/backmassage/ariabatch/internal/logging"
	"github.com/backmassage/ariabatch/internal/planner"
)

// Invoker runs one accepted job to completion. *generate.Invoker is the
// production implementation.
type Invoker interface {
	Invoke(ctx context.Context, job planner.Job) planner.Outcome
}

// Run is the top-level batch entry point. It validates the run parameters
// and root, then walks the corpus lazily: each file is planned, skipped or
// invoked, and recorded before the next one is read. Cancellation is checked
// between jobs, so an interrupt lets the current job finish. sink may be nil.
//
// The only error returned is a *config.ConfigurationError (nothing has been
// invoked) or a failure to list the root after validation.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, inv Invoker, sink FailureSink) (Summary, error) {
	if err := cfg.Run.Validate(); err != nil {
		return Summary{}, err
	}

	runID := uuid.NewString()
	root := cfg.Run.RootDir
	rep := NewReporter(log, runID, root, sink)
	walker := corpus.NewWalker(cfg.VariantDir, func(w corpus.DiscoveryWarning) {
		if w.Missing() {
			log.Debug("%s", w)
			return
		}
		log.Warn("%s", w)
	})
	opts := planner.Options{Overwrite: cfg.Overwrite}
	// Jobs outlive ctx; cancellation only stops the walk.
	jobCtx := context.WithoutCancel(ctx)

	logBatchHeader(cfg, log, runID)

	n := 0
	for f, err := range walker.Files(root) {
		if err != nil {
			log.Error("File discovery failed: %v", err)
			return rep.Summarize(), fmt.Errorf("pipeline: %w", err)
		}
		if ctx.Err() != nil {
			log.Warn("Interrupted, stopping before %s", f.Path)
			rep.Interrupted()
			break
		}

		d := planner.Plan(f, cfg.Run, opts)
		switch {
		case d.Skipped():
			rep.Record(planner.SkippedOutcome(d))
		case cfg.DryRun:
			rep.Record(planner.Outcome{Job: d.Job, Status: planner.StatusPlanned})
		default:
			n++
			log.Info("[%d] %s", n, rep.rel(f.Path))
			rep.Record(inv.Invoke(jobCtx, d.Job))
		}
	}

	s := rep.Summarize()
	logSummary(cfg, log, s, rep.OutputBytes())
	return s, nil
}

func logBatchHeader(cfg *config.Config, log *logging.Logger, runID string) {
	rc := cfg.Run
	log.Info("Run %s", runID)
	log.Info("Corpus: %s (variants in %q)", rc.RootDir, cfg.VariantDir)
	log.Info("Backend: %s, checkpoint: %s", rc.Backend, rc.CheckpointPath)

	prompt := fmt.Sprintf("%ds", rc.PromptDuration)
	if rc.UsesFullPrompt() {
		prompt = "whole prompt"
	}
	log.Info("Sampling: temp %g, min_p %g, variations %d, length %d, prompt %s",
		rc.Temperature, rc.MinP, rc.Variations, rc.Length, prompt)
	log.Info("Seed: %d (PYTHONHASHSEED=%s, CUBLAS_WORKSPACE_CONFIG=%s)",
		rc.Seed, rc.EffectiveHashSeed(), rc.CublasWorkspace)
	if cfg.Generator.Timeout > 0 {
		log.Info("Per-job timeout: %s", cfg.Generator.Timeout)
	}
	if cfg.Overwrite {
		log.Info("Existing continuations will be regenerated")
	}
	if cfg.DryRun {
		log.Info("Dry run: the generator will not be invoked")
	}
	log.Blank()
}

func logSummary(cfg *config.Config, log *logging.Logger, s Summary, outBytes int64) {
	log.Blank()
	log.Info("==============================")
	if cfg.DryRun {
		log.Info("Done (dry run): %d planned, %d skipped", s.Planned, s.Skipped)
	} else {
		log.Info("Done: %d succeeded, %d skipped, %d failed", s.Succeeded, s.Skipped, s.Failed)
	}
	if s.Succeeded > 0 {
		log.Info("  Continuations written: %s", display.FormatBytes(outBytes))
	}
	if s.Interrupted {
		log.Warn("  Run was interrupted; remaining files were not processed")
	}
	if len(s.Failures) > 0 {
		log.Error("Failed files:")
		for _, f := range s.Failures {
			log.Error("  %s: %s", f.Path, f.Reason)
		}
	}
}
