package parser

import (
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/abdul-hamid-achik/rester/packages/matcher"
)

type Mode int

const (
	ModeSequential Mode = iota
	ModeRandom
)

func (m Mode) String() string {
	if m == ModeRandom {
		return "random"
	}
	return "sequential"
}

type Restfile struct {
	Path      string
	Variables *value.Dictionary
	Requests  *Requests
	Setup     *Requests
	Restfiles []string
	Mode      Mode
	// ModeSet records whether the document declared a mode explicitly.
	ModeSet bool
}

func NewRestfile(path string) *Restfile {
	return &Restfile{
		Path:      path,
		Variables: value.NewDictionary(),
		Requests:  NewRequests(),
		Setup:     NewRequests(),
	}
}

type Request struct {
	Name       string
	Method     string
	URL        string
	Query      *value.Dictionary
	Headers    []*Header
	Body       *Body
	Delay      value.Value
	Log        *LogDirective
	Validation *Validation
	Variables  *value.Dictionary
	When       []*Condition
	Skip       value.Value
	Line       int
}

type Header struct {
	Key   string
	Value string
	Line  int
}

type BodyType int

const (
	BodyNone BodyType = iota
	BodyJSON
	BodyForm
	BodyMultipart
	BodyText
	BodyFile
)

func (t BodyType) String() string {
	switch t {
	case BodyJSON:
		return "json"
	case BodyForm:
		return "form"
	case BodyMultipart:
		return "multipart"
	case BodyText:
		return "text"
	case BodyFile:
		return "file"
	default:
		return "none"
	}
}

// Body holds the declared payload. Value is a dictionary for form and
// multipart bodies, any value for json, and a string for text and file
// (the file path, already unwrapped from `.file(...)`).
type Body struct {
	Type  BodyType
	Value value.Value
	Line  int
}

type Validation struct {
	Status  *matcher.Matcher
	Headers *matcher.Matcher
	JSON    *matcher.Matcher
	Schema  string
}

// Empty reports whether nothing is validated.
func (v *Validation) Empty() bool {
	return v == nil || (v.Status == nil && v.Headers == nil && v.JSON == nil && v.Schema == "")
}

// LogDirective selects what is logged after a response: everything, or
// the listed key paths resolved against the response snapshot.
type LogDirective struct {
	All   bool
	Paths []string
}

// Condition is one `when` entry: the value at Path in the current scope
// must satisfy Matcher for the request to run.
type Condition struct {
	Path    string
	Matcher *matcher.Matcher
}

var fileReferencePattern = regexp.MustCompile(`^\.file\((.*)\)$`)

// ParseFileReference extracts the path of a `.file(path)` reference.
func ParseFileReference(s string) (string, bool) {
	m := fileReferencePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	path := strings.TrimSpace(m[1])
	if path == "" {
		return "", false
	}
	return path, true
}

// Requests is an ordered list of requests with a name index.
type Requests struct {
	list  []*Request
	index map[string]int
}

func NewRequests() *Requests {
	return &Requests{index: make(map[string]int)}
}

// Add appends r. Names must be unique.
func (rs *Requests) Add(r *Request) error {
	if _, ok := rs.index[r.Name]; ok {
		return errs.Decodingf("line %d: duplicate request name %q", r.Line, r.Name)
	}
	rs.index[r.Name] = len(rs.list)
	rs.list = append(rs.list, r)
	return nil
}

func (rs *Requests) Get(name string) (*Request, error) {
	i, ok := rs.index[name]
	if !ok {
		return nil, errs.NoSuchRequest(name)
	}
	return rs.list[i], nil
}

func (rs *Requests) Has(name string) bool {
	_, ok := rs.index[name]
	return ok
}

// All returns the requests in declaration order.
func (rs *Requests) All() []*Request {
	out := make([]*Request, len(rs.list))
	copy(out, rs.list)
	return out
}

func (rs *Requests) Names() []string {
	out := make([]string, len(rs.list))
	for i, r := range rs.list {
		out[i] = r.Name
	}
	return out
}

func (rs *Requests) Len() int {
	return len(rs.list)
}

// Select keeps the named requests, in declaration order.
func (rs *Requests) Select(names []string) (*Requests, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		if !rs.Has(name) {
			return nil, errs.NoSuchRequest(name)
		}
		wanted[name] = true
	}
	out := NewRequests()
	for _, r := range rs.list {
		if wanted[r.Name] {
			_ = out.Add(r)
		}
	}
	return out, nil
}
