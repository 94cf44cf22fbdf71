package planner

import (
	"os"
	"path/filepath"

	"github.com/backmassage/ariabatch/internal/config"
	"github.com/backmassage/ariabatch/internal/corpus"
	"github.com/backmassage/ariabatch/internal/naming"
)

// Options adjusts the skip rules.
type Options struct {
	// Overwrite plans a job even when the continuation already exists.
	// Generated files are still never used as prompts.
	Overwrite bool
}

// Plan maps one input file to a Job or a skip. The output path is derived
// from the input path alone; the job carries rc by value.
//
// Skipped decisions still carry the Job fields so the reporter can name the
// input and the output that was found.
func Plan(f corpus.InputFile, rc config.RunConfig, opts Options) Decision {
	d := Decision{Job: Job{
		Input:      f,
		OutputPath: naming.ContinuationPath(f.Path),
		Run:        rc,
	}}

	if naming.IsContinuation(filepath.Base(f.Path)) {
		d.Skip = SkipContinuation
		return d
	}
	if !opts.Overwrite && exists(d.Job.OutputPath) {
		d.Skip = SkipExists
		return d
	}
	return d
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
