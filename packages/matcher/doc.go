// Package matcher validates response fragments against structural
// matchers.
//
// A matcher is built from a declared value:
//   - a scalar, array or null means Equals
//   - `.regex(P)` means Regex(P), matched against the display string
//   - `.doesNotEqual(V)` means DoesNotEqual(V), V parsed as YAML
//   - a dictionary means Contains: every declared key must be present and
//     valid, extra keys are ignored. Against an array the keys are
//     (possibly negative) indices.
//
// Validation never fails with an error. A mismatch is an invalid Result
// whose Reason chains the keys that led to it, e.g.
// "index '0' validation error: key 'foo' not found".
package matcher
