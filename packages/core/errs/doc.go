// Package errs defines the error kinds shared by the rester engine.
//
// Every error produced by the engine can be classified with errors.Is
// against one of the sentinel kinds:
//   - ErrDecoding: malformed document, fatal at load
//   - ErrUndefinedVariable: a ${...} reference that could not be resolved
//   - ErrInvalidURL: a request URL that does not parse after substitution
//   - ErrNoSuchRequest: reference to an undeclared request name
//   - ErrFileNotFound: missing nested document or file reference
//   - ErrTimeout: request exceeded its deadline
//   - ErrInternal: invariant violations
//   - ErrCancelled: run superseded or interrupted
package errs
