package variables

import (
	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
)

// Strategy decides which side wins when a merge meets an existing name.
type Strategy int

const (
	FirstWins Strategy = iota
	LastWins
)

func (s Strategy) String() string {
	if s == FirstWins {
		return "first-wins"
	}
	return "last-wins"
}

// Scope is a mutable, insertion-ordered mapping from variable name to
// value. It is not safe for concurrent use; a run owns its scope.
type Scope struct {
	vars *value.Dictionary
}

func New() *Scope {
	return &Scope{vars: value.NewDictionary()}
}

// FromDictionary returns a scope holding a copy of d's entries.
func FromDictionary(d *value.Dictionary) *Scope {
	return &Scope{vars: d.Clone()}
}

func (s *Scope) Get(name string) (value.Value, bool) {
	return s.vars.Get(name)
}

func (s *Scope) Set(name string, v value.Value) {
	s.vars.Set(name, v)
}

func (s *Scope) Delete(name string) {
	s.vars.Delete(name)
}

func (s *Scope) Has(name string) bool {
	return s.vars.Has(name)
}

// Names returns variable names in insertion order.
func (s *Scope) Names() []string {
	return s.vars.Keys()
}

func (s *Scope) Len() int {
	return s.vars.Len()
}

// Resolve looks up path, whose first segment names the variable.
func (s *Scope) Resolve(path value.KeyPath) (value.Value, error) {
	return value.Dict(s.vars).Resolve(path)
}

// Lookup parses path and resolves it.
func (s *Scope) Lookup(path string) (value.Value, error) {
	return value.Dict(s.vars).Lookup(path)
}

// Value returns the scope as a dictionary value. The dictionary is shared.
func (s *Scope) Value() value.Value {
	return value.Dict(s.vars)
}

func (s *Scope) Clone() *Scope {
	return FromDictionary(s.vars)
}

// Merge copies other's entries into s. With FirstWins existing names are
// kept; with LastWins they are overwritten.
func (s *Scope) Merge(other *Scope, strategy Strategy) {
	if other == nil {
		return
	}
	s.MergeDictionary(other.vars, strategy)
}

// MergeDictionary is Merge for a plain dictionary.
func (s *Scope) MergeDictionary(d *value.Dictionary, strategy Strategy) {
	d.Each(func(name string, v value.Value) bool {
		if strategy == FirstWins && s.vars.Has(name) {
			return true
		}
		s.vars.Set(name, v)
		return true
	})
}

// Append concatenates v onto the array variable name. An array v
// contributes its elements; a missing variable starts out empty.
func (s *Scope) Append(name string, v value.Value) error {
	items, err := s.array(name)
	if err != nil {
		return err
	}
	out := make([]value.Value, 0, len(items)+1)
	out = append(out, items...)
	if extra, ok := v.AsArray(); ok {
		out = append(out, extra...)
	} else {
		out = append(out, v)
	}
	s.vars.Set(name, value.Array(out...))
	return nil
}

// Remove drops every element equal to v (or to any element of an array v)
// from the array variable name. Removing from a missing variable is a
// no-op.
func (s *Scope) Remove(name string, v value.Value) error {
	if !s.vars.Has(name) {
		return nil
	}
	items, err := s.array(name)
	if err != nil {
		return err
	}
	drop := []value.Value{v}
	if arr, ok := v.AsArray(); ok {
		drop = arr
	}
	out := make([]value.Value, 0, len(items))
	for _, item := range items {
		if !containsValue(drop, item) {
			out = append(out, item)
		}
	}
	s.vars.Set(name, value.Array(out...))
	return nil
}

func (s *Scope) array(name string) ([]value.Value, error) {
	current, ok := s.vars.Get(name)
	if !ok || current.IsNull() {
		return nil, nil
	}
	items, ok := current.AsArray()
	if !ok {
		return nil, errs.Internal("variable %q is a %s, not an array", name, current.Kind())
	}
	return items, nil
}

func containsValue(items []value.Value, v value.Value) bool {
	for _, item := range items {
		if value.Equal(item, v) {
			return true
		}
	}
	return false
}
