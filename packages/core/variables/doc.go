// Package variables holds the live variable scope of a run.
//
// A Scope maps names to values in declaration order. After each response
// the orchestrator resolves the request's json references, merges the
// response body's top-level fields and applies the request's declarations,
// including the `.append(name)` and `.remove(name)` operators.
package variables
