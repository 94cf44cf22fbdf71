package generate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   string
	}{
		{"cuda oom", "torch.OutOfMemoryError: CUDA out of memory. Tried to allocate 2.00 GiB", HintOutOfMemory},
		{"no gpu", "RuntimeError: No CUDA GPUs are available", HintNoGPU},
		{"torch without cuda", "AssertionError: Torch not compiled with CUDA enabled", HintNoGPU},
		{"missing checkpoint", "FileNotFoundError: [Errno 2] No such file or directory: 'model-gen.safetensors'", HintCheckpoint},
		{"bad state dict", "RuntimeError: Error(s) in loading state_dict for TransformerLM", HintCheckpoint},
		{"bad prompt", "OSError: MThd not found. Probably not a MIDI file", HintPrompt},
		{"argparse choice", "aria generate: error: argument --backend: invalid choice: 'tpu'", HintBadArgument},
		{"unrecognized flag", "aria: error: unrecognized arguments: --seed 42", HintBadArgument},
		{"unknown", "Traceback (most recent call last):\nValueError: something else", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.stderr))
		})
	}
}

func TestGenerationFailure_Error(t *testing.T) {
	f := &GenerationFailure{
		Input:    "/c/a.mid",
		ExitCode: 1,
		Hint:     HintOutOfMemory,
		Stderr:   "Traceback...\n  line 3\ntorch.OutOfMemoryError: CUDA out of memory\n",
		Err:      errors.New("exit status 1"),
	}
	assert.Equal(t, "exit status 1 (GPU out of memory): torch.OutOfMemoryError: CUDA out of memory", f.Error())

	bare := &GenerationFailure{Err: ErrOutputMissing}
	assert.Equal(t, ErrOutputMissing.Error(), bare.Error())
	assert.ErrorIs(t, bare, ErrOutputMissing)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "c\nd", tail("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", tail("a", 5))
	assert.Equal(t, "", tail("", 5))
	assert.Equal(t, "d", lastLine("a\nb\n  d  \n"))
}
