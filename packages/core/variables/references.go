package variables

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
)

// JSONMarker prefixes a declaration that indexes the response body.
const JSONMarker = ".json"

var operatorPattern = regexp.MustCompile(`^\.(append|remove)\((.*)\)$`)

// Operator is the array operation a declaration asks for.
type Operator int

const (
	OpSet Operator = iota
	OpAppend
	OpRemove
)

func (o Operator) String() string {
	switch o {
	case OpAppend:
		return "append"
	case OpRemove:
		return "remove"
	default:
		return "set"
	}
}

// ParseOperator recognises `.append(name)` and `.remove(name)` strings.
func ParseOperator(v value.Value) (Operator, string) {
	s, ok := v.AsString()
	if !ok {
		return OpSet, ""
	}
	m := operatorPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return OpSet, ""
	}
	ref := strings.TrimSpace(m[2])
	if m[1] == "append" {
		return OpAppend, ref
	}
	return OpRemove, ref
}

// JSONReference returns the key path of a `.json`, `.json.<path>` or
// `.json[<i>]...` string.
func JSONReference(v value.Value) (value.KeyPath, bool, error) {
	s, ok := v.AsString()
	if !ok {
		return nil, false, nil
	}
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, JSONMarker) {
		return nil, false, nil
	}
	rest := s[len(JSONMarker):]
	switch {
	case rest == "":
	case rest[0] == '.':
		rest = rest[1:]
	case rest[0] == '[':
	default:
		return nil, false, nil
	}
	path, err := value.ParseKeyPath(rest)
	if err != nil {
		return nil, true, err
	}
	return path, true, nil
}

// ResolveJSONReferences returns a copy of s in which every json reference
// is replaced by the addressed part of response. Other entries are copied
// unchanged.
func (s *Scope) ResolveJSONReferences(response value.Value) (*Scope, error) {
	out := New()
	for _, name := range s.Names() {
		v, _ := s.Get(name)
		path, isRef, err := JSONReference(v)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		if isRef {
			if len(path) > 0 && response.IsNull() {
				return nil, errs.Internal("variable %q: response body is not JSON", name)
			}
			v, err = response.Resolve(path)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", name, err)
			}
		}
		out.Set(name, v)
	}
	return out, nil
}

// Apply writes the resolved declarations into s in order. Plain entries
// are set last-wins; `.append(ref)` and `.remove(ref)` entries take the
// value of ref (from declared first, then from s) and update the array
// variable they are declared as. The resulting arrays are written back
// into declared so the request's snapshot shows them.
func (s *Scope) Apply(declared *Scope) error {
	for _, name := range declared.Names() {
		v, _ := declared.Get(name)
		op, ref := ParseOperator(v)
		if op == OpSet {
			s.Set(name, v)
			continue
		}

		operand, ok := declared.Get(ref)
		if !ok || ref == name {
			operand, ok = s.Get(ref)
		}
		if !ok {
			return errs.UndefinedVariable(fmt.Sprintf(".%s(%s)", op, ref))
		}

		var err error
		if op == OpAppend {
			err = s.Append(name, operand)
		} else {
			err = s.Remove(name, operand)
		}
		if err != nil {
			return err
		}
		result, _ := s.Get(name)
		declared.Set(name, result)
	}
	return nil
}
