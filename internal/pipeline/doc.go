// Package pipeline drives a batch run: it walks the corpus, plans each
// prompt file, hands accepted jobs to the generator one at a time and
// reports every outcome plus an end-of-run summary.
//
// Only a *config.ConfigurationError aborts a run, and always before the first
// invocation. Everything that goes wrong with a single file is confined to
// that file's Outcome.
package pipeline
