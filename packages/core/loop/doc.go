// Package loop decides how many times a request sequence runs and how
// long to wait between runs.
//
// An Iteration is Forever, Until(deadline) or Times(n). Options combines
// the optional count, duration and delay inputs into Parameters, and a
// Controller drives the work function until the iteration is done.
package loop
