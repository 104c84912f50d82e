// Package taskrunner executes ordered trees of named steps. Callers describe each step
// as a Task with a title, an optional skip predicate, an action and optional children,
// then hand the top-level slice to Run. Tasks execute strictly in order; a branch task's
// action receives a SubRunner that runs its children on demand, while a leaf task's
// action receives the arguments forwarded by its parent. Failures are contained at the
// task that raised them and rendered through a progress.Reporter; Run itself never
// fails.
package taskrunner
