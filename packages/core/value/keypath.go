package value

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrIndexOutOfRange = errors.New("index out of bounds")
	ErrFieldNotFound   = errors.New("field not found")
	ErrTypeMismatch    = errors.New("type mismatch")
	ErrInvalidPath     = errors.New("invalid key path")
)

// PathError describes why a key path could not be resolved.
type PathError struct {
	Path    string
	Segment string
	Detail  string
	Err     error
}

func (e *PathError) Error() string {
	msg := fmt.Sprintf("key path %q", e.Path)
	if e.Segment != "" {
		msg += fmt.Sprintf(" at %q", e.Segment)
	}
	msg += ": " + e.Err.Error()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Segment is one step of a key path: a field name or an array index.
// Index segments keep their text in Name so a dictionary with numeric
// keys can still be addressed.
type Segment struct {
	Name    string
	Index   int
	IsIndex bool
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Name
}

// KeyPath addresses a value inside a tree, e.g. `a.b[2].c` or the legacy
// form `a.b.2.c`. Negative indices count from the end of an array.
type KeyPath []Segment

// ParseKeyPath parses a dotted/bracketed key path. The empty string is the
// empty path, which resolves to the value itself.
func ParseKeyPath(s string) (KeyPath, error) {
	s = strings.TrimSpace(s)
	path := KeyPath{}
	if s == "" {
		return path, nil
	}

	invalid := func(detail string) error {
		return &PathError{Path: s, Detail: detail, Err: ErrInvalidPath}
	}

	expectName := true
	for i := 0; i < len(s); {
		switch s[i] {
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, invalid("unterminated '['")
			}
			raw := strings.TrimSpace(s[i+1 : i+end])
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, invalid(fmt.Sprintf("index %q is not an integer", raw))
			}
			path = append(path, Segment{Name: raw, Index: n, IsIndex: true})
			i += end + 1
			if i < len(s) && s[i] != '.' && s[i] != '[' {
				return nil, invalid(fmt.Sprintf("unexpected %q after index", s[i]))
			}
			expectName = false
		case '.':
			if expectName {
				return nil, invalid("empty segment")
			}
			i++
			if i == len(s) {
				return nil, invalid("trailing '.'")
			}
			expectName = true
		default:
			j := i
			for j < len(s) && s[j] != '.' && s[j] != '[' {
				j++
			}
			name := s[i:j]
			seg := Segment{Name: name}
			if n, err := strconv.Atoi(name); err == nil {
				seg.Index = n
				seg.IsIndex = true
			}
			path = append(path, seg)
			i = j
			expectName = false
		}
	}
	return path, nil
}

// MustParseKeyPath is like ParseKeyPath but panics on error.
func MustParseKeyPath(s string) KeyPath {
	p, err := ParseKeyPath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p KeyPath) String() string {
	var sb strings.Builder
	for i, seg := range p {
		if seg.IsIndex {
			sb.WriteString(seg.String())
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(seg.Name)
	}
	return sb.String()
}

// Head splits off the first segment. It must not be called on an empty path.
func (p KeyPath) Head() (Segment, KeyPath) {
	return p[0], p[1:]
}

// Resolve walks path from v. Dictionaries are indexed by name, arrays by
// (possibly negative) index. Failures are *PathError values wrapping
// ErrIndexOutOfRange, ErrFieldNotFound or ErrTypeMismatch.
func (v Value) Resolve(path KeyPath) (Value, error) {
	cur := v
	for _, seg := range path {
		next, err := cur.child(seg)
		if err != nil {
			return Value{}, &PathError{Path: path.String(), Segment: seg.String(), Detail: err.detail, Err: err.kind}
		}
		cur = next
	}
	return cur, nil
}

// Lookup parses path and resolves it against v.
func (v Value) Lookup(path string) (Value, error) {
	p, err := ParseKeyPath(path)
	if err != nil {
		return Value{}, err
	}
	return v.Resolve(p)
}

type stepError struct {
	kind   error
	detail string
}

func (v Value) child(seg Segment) (Value, *stepError) {
	switch v.kind {
	case KindDictionary:
		item, ok := v.dict.Get(seg.Name)
		if !ok {
			return Value{}, &stepError{kind: ErrFieldNotFound}
		}
		return item, nil
	case KindArray:
		if !seg.IsIndex {
			return Value{}, &stepError{kind: ErrTypeMismatch, detail: "cannot look up a field in an array"}
		}
		idx, ok := Index(len(v.arr), seg.Index)
		if !ok {
			return Value{}, &stepError{kind: ErrIndexOutOfRange, detail: fmt.Sprintf("length %d", len(v.arr))}
		}
		return v.arr[idx], nil
	default:
		return Value{}, &stepError{kind: ErrTypeMismatch, detail: "cannot index into " + v.kind.String()}
	}
}

// Index maps a possibly negative index onto [0, length). It reports false
// when the index falls outside the array, including any index into an
// empty array.
func Index(length, i int) (int, bool) {
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}
