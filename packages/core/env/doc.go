// Package env implements template substitution for rester documents.
//
// Templates reference values with `${key.path}` spans. Each span is
// resolved against the live variable scope first and then, by plain name,
// against the process environment (optionally extended by a .env file).
// Substitution is a single pass: substituted text is never rescanned.
package env
