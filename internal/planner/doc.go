// Package planner turns a discovered prompt file into a generation Job or a
// skip decision, and defines the Outcome type reported for every file.
//
// Skip rules, in order:
//   - the file name already carries the continuation suffix (it is generator
//     output and is never used as a prompt);
//   - the continuation already exists on disk, unless Options.Overwrite.
//
// Both rules depend only on the file name and the filesystem, so rerunning a
// finished corpus plans zero jobs.
package planner
