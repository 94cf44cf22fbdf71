// Package naming holds the filename rules shared by discovery and planning:
// which files are MIDI prompts, which are generated continuations, and where
// a prompt's continuation is written.
//
// A continuation lives beside its prompt, with [ContinuationSuffix] inserted
// before the extension:
//
//	chorale_001/prompt.mid           -> chorale_001/prompt_with_continuation.mid
//	chorale_001/minorized/prompt.mid -> chorale_001/minorized/prompt_with_continuation.mid
package naming
