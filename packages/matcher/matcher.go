package matcher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/rester/packages/core/env"
	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
)

var (
	regexSyntax        = regexp.MustCompile(`^\.regex\((.*)\)$`)
	doesNotEqualSyntax = regexp.MustCompile(`^\.doesNotEqual\((.*)\)$`)
)

type Kind int

const (
	KindEquals Kind = iota
	KindDoesNotEqual
	KindRegex
	KindContains
)

func (k Kind) String() string {
	switch k {
	case KindEquals:
		return "equals"
	case KindDoesNotEqual:
		return "doesNotEqual"
	case KindRegex:
		return "regex"
	case KindContains:
		return "contains"
	default:
		return "unknown"
	}
}

// Entry is one declared key of a Contains matcher.
type Entry struct {
	Key     string
	Matcher *Matcher
}

// Matcher is a structural predicate over values.
type Matcher struct {
	kind     Kind
	expected value.Value
	pattern  string
	re       *regexp.Regexp
	entries  []Entry
}

type Result struct {
	Valid  bool
	Reason string
}

func valid() Result {
	return Result{Valid: true}
}

func invalid(format string, args ...any) Result {
	return Result{Reason: fmt.Sprintf(format, args...)}
}

func Equals(expected value.Value) *Matcher {
	return &Matcher{kind: KindEquals, expected: expected}
}

func DoesNotEqual(expected value.Value) *Matcher {
	return &Matcher{kind: KindDoesNotEqual, expected: expected}
}

// Regex matches the display string of a value.
func Regex(pattern string) (*Matcher, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errs.Decoding(fmt.Sprintf("invalid regex %q", pattern), err)
	}
	return &Matcher{kind: KindRegex, pattern: pattern, re: re}, nil
}

// Contains checks the declared entries in order.
func Contains(entries ...Entry) *Matcher {
	return &Matcher{kind: KindContains, entries: entries}
}

// New builds a matcher from a declared value.
func New(v value.Value) (*Matcher, error) {
	switch v.Kind() {
	case value.KindString:
		s, _ := v.AsString()
		trimmed := strings.TrimSpace(s)
		if m := regexSyntax.FindStringSubmatch(trimmed); m != nil {
			return Regex(m[1])
		}
		if m := doesNotEqualSyntax.FindStringSubmatch(trimmed); m != nil {
			expected, err := value.ParseYAML(m[1])
			if err != nil {
				return nil, errs.Decoding(fmt.Sprintf("invalid value in %q", trimmed), err)
			}
			return DoesNotEqual(expected), nil
		}
		return Equals(v), nil
	case value.KindDictionary:
		d, _ := v.AsDictionary()
		entries := make([]Entry, 0, d.Len())
		var err error
		d.Each(func(key string, item value.Value) bool {
			var m *Matcher
			m, err = New(item)
			if err != nil {
				err = fmt.Errorf("key '%s': %w", key, err)
				return false
			}
			entries = append(entries, Entry{Key: key, Matcher: m})
			return true
		})
		if err != nil {
			return nil, err
		}
		return Contains(entries...), nil
	default:
		return Equals(v), nil
	}
}

// MustNew is like New but panics on error.
func MustNew(v value.Value) *Matcher {
	m, err := New(v)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Matcher) Kind() Kind { return m.kind }

// Expected is the operand of Equals and DoesNotEqual.
func (m *Matcher) Expected() value.Value { return m.expected }

func (m *Matcher) Pattern() string { return m.pattern }

func (m *Matcher) Entries() []Entry { return m.entries }

// Validate checks v against the matcher.
func (m *Matcher) Validate(v value.Value) Result {
	switch m.kind {
	case KindEquals:
		if value.Equal(v, m.expected) {
			return valid()
		}
		return invalid("(%s) is not equal to (%s)", v, m.expected)
	case KindDoesNotEqual:
		if !value.Equal(v, m.expected) {
			return valid()
		}
		return invalid("(%s) is equal to (%s)", v, m.expected)
	case KindRegex:
		if m.re.MatchString(v.String()) {
			return valid()
		}
		return invalid("(%s) does not match (%s)", v, m.pattern)
	case KindContains:
		return m.contains(v)
	}
	return invalid("unknown matcher")
}

func (m *Matcher) contains(v value.Value) Result {
	switch v.Kind() {
	case value.KindDictionary:
		d, _ := v.AsDictionary()
		for _, e := range m.entries {
			item, ok := d.Get(e.Key)
			if !ok {
				return invalid("key '%s' not found", e.Key)
			}
			if r := e.Matcher.Validate(item); !r.Valid {
				return invalid("key '%s' validation error: %s", e.Key, r.Reason)
			}
		}
		return valid()
	case value.KindArray:
		items, _ := v.AsArray()
		for _, e := range m.entries {
			n, err := strconv.Atoi(strings.TrimSpace(e.Key))
			if err != nil {
				return invalid("index '%s' is not an integer", e.Key)
			}
			idx, ok := value.Index(len(items), n)
			if !ok {
				return invalid("index '%s' out of bounds", e.Key)
			}
			if r := e.Matcher.Validate(items[idx]); !r.Valid {
				return invalid("index '%s' validation error: %s", e.Key, r.Reason)
			}
		}
		return valid()
	default:
		return invalid("(%s) is a %s, expected a dictionary or an array", v, v.Kind())
	}
}

// FoldKeys returns a copy of a Contains matcher whose top-level keys are
// lower-cased. Other matchers are returned as is.
func (m *Matcher) FoldKeys() *Matcher {
	if m.kind != KindContains {
		return m
	}
	entries := make([]Entry, len(m.entries))
	for i, e := range m.entries {
		entries[i] = Entry{Key: strings.ToLower(e.Key), Matcher: e.Matcher}
	}
	return Contains(entries...)
}

// Substitute returns a copy of m whose expected string leaves have been
// passed through the template engine. Regex patterns are left alone.
func (m *Matcher) Substitute(r *env.Resolver, scope env.Scope) (*Matcher, error) {
	switch m.kind {
	case KindEquals, KindDoesNotEqual:
		expected, err := r.SubstituteValue(m.expected, scope)
		if err != nil {
			return nil, err
		}
		return &Matcher{kind: m.kind, expected: expected}, nil
	case KindContains:
		entries := make([]Entry, len(m.entries))
		for i, e := range m.entries {
			sub, err := e.Matcher.Substitute(r, scope)
			if err != nil {
				return nil, err
			}
			entries[i] = Entry{Key: e.Key, Matcher: sub}
		}
		return Contains(entries...), nil
	default:
		return m, nil
	}
}

func (m *Matcher) String() string {
	switch m.kind {
	case KindEquals:
		return m.expected.String()
	case KindDoesNotEqual:
		return ".doesNotEqual(" + m.expected.String() + ")"
	case KindRegex:
		return ".regex(" + m.pattern + ")"
	default:
		parts := make([]string, len(m.entries))
		for i, e := range m.entries {
			parts[i] = e.Key + ": " + e.Matcher.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
}
