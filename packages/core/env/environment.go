package env

import (
	"os"
	"strings"
)

// Environment is the flat name lookup consulted when a template reference
// is not found in the variable scope.
type Environment map[string]string

// FromOS snapshots the process environment.
func FromOS() Environment {
	return FromPairs(os.Environ())
}

// FromPairs builds an environment from KEY=value pairs. Entries without
// a '=' are ignored.
func FromPairs(pairs []string) Environment {
	result := make(Environment, len(pairs))
	for _, e := range pairs {
		key, value, found := strings.Cut(e, "=")
		if !found || key == "" {
			continue
		}
		result[key] = value
	}
	return result
}

// Lookup returns the value of name. A nil environment has no entries.
func (e Environment) Lookup(name string) (string, bool) {
	v, ok := e[name]
	return v, ok
}

// WithDefaults returns a copy of e extended with the entries of defaults
// that e does not already define.
func (e Environment) WithDefaults(defaults map[string]string) Environment {
	result := make(Environment, len(e)+len(defaults))
	for k, v := range defaults {
		result[k] = v
	}
	for k, v := range e {
		result[k] = v
	}
	return result
}
