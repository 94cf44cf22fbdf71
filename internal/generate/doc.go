// Package generate builds and executes external generator invocations.
//
// One Job becomes one process: [Build] produces the argument list,
// [Environ] the environment (with the determinism variables pinned from the
// run configuration), and [Invoker.Invoke] runs it once and reports an
// Outcome. There is no retry; a failed job is reported and the batch moves
// on.
//
// Split: builder.go (arguments), env.go (environment), executor.go
// (process execution), errors.go (failure type and stderr classification).
package generate
