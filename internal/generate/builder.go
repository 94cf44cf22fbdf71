package generate

import (
	"strconv"

	"github.com/backmassage/ariabatch/internal/config"
	"github.com/backmassage/ariabatch/internal/planner"
)

// Build constructs the complete generator argument slice for a job, program
// name first. Every RunConfig sampling field is passed explicitly so the
// generator's own defaults never leak into a run:
//
//	aria generate --backend B --checkpoint_path C --prompt_midi_path IN
//	    --variations V --temp T --min_p P --save_dir OUT
//	    --prompt_duration D --length L [--seed S]
func Build(gen config.GeneratorConfig, job planner.Job) []string {
	rc := job.Run
	args := make([]string, 0, len(gen.Command)+22)
	args = append(args, gen.Command...)

	args = append(args,
		"--backend", rc.Backend,
		"--checkpoint_path", rc.CheckpointPath,
		"--prompt_midi_path", job.Input.Path,
		"--variations", strconv.Itoa(rc.Variations),
		"--temp", formatFloat(rc.Temperature),
		"--min_p", formatFloat(rc.MinP),
		"--save_dir", job.OutputPath,
		"--prompt_duration", strconv.Itoa(rc.PromptDuration),
		"--length", strconv.Itoa(rc.Length),
	)

	if gen.PassSeedFlag {
		args = append(args, "--seed", strconv.FormatInt(rc.Seed, 10))
	}
	return args
}

// formatFloat renders the shortest exact representation (0.8, not 0.800000).
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
