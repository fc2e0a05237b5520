// Package runner executes the requests of a loaded Restfile.
//
// It provides functionality for:
//   - Expanding a request against the live variable scope
//   - Running setup and main sequences in declared order, or sampling a
//     single request at random
//   - Racing every request against its timeout
//   - Validating responses and merging response data into the scope
//   - Supervising a single in-flight run, superseding it on demand
//
// Validation mismatches are recorded as failed results and never stop a
// sequence. Timeouts, transport errors and expansion errors abort the run.
package runner
