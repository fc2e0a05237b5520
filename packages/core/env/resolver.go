package env

import (
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
)

var templatePattern = regexp.MustCompile(`\$\{(.*?)\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Scope resolves key paths against the live variables. Implementations
// return an error when the path does not resolve.
type Scope interface {
	Resolve(path value.KeyPath) (value.Value, error)
}

// Resolver substitutes `${...}` templates against a scope and falls back to
// an Environment for plain names.
type Resolver struct {
	mu       sync.RWMutex
	env      Environment
	warnFunc WarnFunc
}

func NewResolver(environment Environment) *Resolver {
	return &Resolver{env: environment}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g. a
// reference that only the environment could satisfy).
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

// Environment returns the fallback environment.
func (r *Resolver) Environment() Environment {
	return r.env
}

// Substitute replaces every `${...}` span of text in a single pass. If any
// span could not be resolved the result is an UndefinedVariable error
// naming the first residual span.
func (r *Resolver) Substitute(text string, scope Scope) (string, error) {
	var residual string
	out := templatePattern.ReplaceAllStringFunc(text, func(match string) string {
		v, ok := r.lookup(match[2:len(match)-1], scope)
		if !ok {
			if residual == "" {
				residual = match
			}
			return match
		}
		return render(v)
	})
	if residual != "" {
		return "", errs.UndefinedVariable(residual)
	}
	return out, nil
}

// SubstituteValue substitutes every string leaf of v. A string consisting
// of exactly one span takes the referenced value itself, so `${count}`
// stays an int when count is one. Dictionary keys are not substituted.
func (r *Resolver) SubstituteValue(v value.Value, scope Scope) (value.Value, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		if loc := templatePattern.FindStringSubmatchIndex(s); loc != nil && loc[0] == 0 && loc[1] == len(s) {
			resolved, ok := r.lookup(s[loc[2]:loc[3]], scope)
			if !ok {
				return value.Null(), errs.UndefinedVariable(s)
			}
			return resolved, nil
		}
		out, err := r.Substitute(s, scope)
		if err != nil {
			return value.Null(), err
		}
		return value.String(out), nil
	case value.KindArray:
		items, _ := v.AsArray()
		out := make([]value.Value, len(items))
		for i, item := range items {
			sub, err := r.SubstituteValue(item, scope)
			if err != nil {
				return value.Null(), err
			}
			out[i] = sub
		}
		return value.Array(out...), nil
	case value.KindDictionary:
		d, _ := v.AsDictionary()
		out := value.NewDictionary()
		var err error
		d.Each(func(key string, item value.Value) bool {
			var sub value.Value
			sub, err = r.SubstituteValue(item, scope)
			if err != nil {
				return false
			}
			out.Set(key, sub)
			return true
		})
		if err != nil {
			return value.Null(), err
		}
		return value.Dict(out), nil
	default:
		return v, nil
	}
}

// HasTemplates reports whether text contains a `${...}` span.
func HasTemplates(text string) bool {
	return templatePattern.MatchString(text)
}

func (r *Resolver) lookup(expr string, scope Scope) (value.Value, bool) {
	name := strings.TrimSpace(expr)
	if scope != nil {
		if path, err := value.ParseKeyPath(name); err == nil && len(path) > 0 {
			v, err := scope.Resolve(path)
			if err == nil {
				return v, true
			}
			if _, ok := r.env.Lookup(name); !ok {
				r.warn("cannot resolve ${%s}: %v", name, err)
			}
		}
	}
	if s, ok := r.env.Lookup(name); ok {
		return value.String(s), true
	}
	return value.Null(), false
}

// render is the substitution form of a value: scalars use their display
// string, arrays and dictionaries are inlined as JSON.
func render(v value.Value) string {
	switch v.Kind() {
	case value.KindArray, value.KindDictionary:
		data, err := v.MarshalJSON()
		if err != nil {
			return v.String()
		}
		return string(data)
	default:
		return v.String()
	}
}

// Substitute is a convenience for a one-off substitution without warnings.
func Substitute(text string, scope Scope, environment Environment) (string, error) {
	return NewResolver(environment).Substitute(text, scope)
}
