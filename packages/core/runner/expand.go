package runner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/parser"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/abdul-hamid-achik/rester/packages/core/variables"
	"github.com/abdul-hamid-achik/rester/packages/http"
	"github.com/abdul-hamid-achik/rester/packages/matcher"
	"github.com/spf13/afero"
)

// Expand substitutes every templated field of req against scope and
// returns the request ready for dispatch along with its delay.
func (r *Runner) Expand(req *parser.Request, scope *variables.Scope) (*http.Request, time.Duration, error) {
	url, err := r.resolver.Substitute(req.URL, scope)
	if err != nil {
		return nil, 0, fmt.Errorf("url: %w", err)
	}
	out := http.NewRequest(req.Method, url)

	if req.Query != nil {
		var qerr error
		req.Query.Each(func(key string, v value.Value) bool {
			var sub value.Value
			sub, qerr = r.resolver.SubstituteValue(v, scope)
			if qerr != nil {
				qerr = fmt.Errorf("query %q: %w", key, qerr)
				return false
			}
			out.AddQueryParam(key, text(sub))
			return true
		})
		if qerr != nil {
			return nil, 0, qerr
		}
	}

	for _, h := range req.Headers {
		v, err := r.resolver.Substitute(h.Value, scope)
		if err != nil {
			return nil, 0, fmt.Errorf("header %q: %w", h.Key, err)
		}
		out.SetHeader(h.Key, v)
	}

	if req.Body != nil && req.Body.Type != parser.BodyNone {
		sub, err := r.resolver.SubstituteValue(req.Body.Value, scope)
		if err != nil {
			return nil, 0, fmt.Errorf("body: %w", err)
		}
		data, contentType, err := r.encoder.Encode(&parser.Body{Type: req.Body.Type, Value: sub, Line: req.Body.Line})
		if err != nil {
			return nil, 0, fmt.Errorf("body: %w", err)
		}
		out.SetBody(data, contentType)
	}

	target := out.BuildURL()
	if err := http.ValidateURL(target); err != nil {
		return nil, 0, errs.InvalidURL(target, err)
	}

	delay, err := r.delay(req.Delay, scope)
	if err != nil {
		return nil, 0, err
	}
	return out, delay, nil
}

// delay evaluates a delay in seconds.
func (r *Runner) delay(v value.Value, scope *variables.Scope) (time.Duration, error) {
	if v.IsNull() {
		return 0, nil
	}
	sub, err := r.resolver.SubstituteValue(v, scope)
	if err != nil {
		return 0, fmt.Errorf("delay: %w", err)
	}

	seconds, ok := sub.AsNumber()
	if !ok {
		s, _ := sub.AsString()
		seconds, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, errs.Internal("delay %q is not a number of seconds", sub)
		}
	}
	if seconds < 0 {
		return 0, errs.Internal("delay %s is negative", sub)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// shouldSkip evaluates `skip` and `when` against scope. A `when` entry
// that cannot be evaluated skips the request.
func (r *Runner) shouldSkip(req *parser.Request, scope *variables.Scope) (bool, string) {
	if !req.Skip.IsNull() {
		sub, err := r.resolver.SubstituteValue(req.Skip, scope)
		if err == nil && truthy(sub) {
			return true, "skip: " + sub.String()
		}
	}

	for _, cond := range req.When {
		actual, err := scope.Lookup(cond.Path)
		if err != nil {
			return true, fmt.Sprintf("when %s: %v", cond.Path, err)
		}
		m, err := cond.Matcher.Substitute(r.resolver, scope)
		if err != nil {
			return true, fmt.Sprintf("when %s: %v", cond.Path, err)
		}
		if result := m.Validate(actual); !result.Valid {
			return true, fmt.Sprintf("when %s: %s", cond.Path, result.Reason)
		}
	}
	return false, ""
}

func truthy(v value.Value) bool {
	if b, ok := v.AsBool(); ok {
		return b
	}
	if n, ok := v.AsNumber(); ok {
		return n != 0
	}
	if s, ok := v.AsString(); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		return err == nil && b
	}
	return false
}

// validate checks every declared matcher. The first failure wins.
func (r *Runner) validate(req *parser.Request, resp *http.Response, body value.Value, scope *variables.Scope) (string, bool) {
	v := req.Validation
	if v.Empty() {
		return "", true
	}

	checks := []struct {
		name    string
		matcher *matcher.Matcher
		actual  value.Value
	}{
		{"status", v.Status, value.Int(int64(resp.StatusCode))},
		{"headers", v.Headers, value.Dict(resp.FoldedHeaderValues())},
		{"json", v.JSON, body},
	}
	for _, c := range checks {
		if c.matcher == nil {
			continue
		}
		m, err := c.matcher.Substitute(r.resolver, scope)
		if err != nil {
			return fmt.Sprintf("%s: %v", c.name, err), false
		}
		if c.name == "headers" {
			m = m.FoldKeys()
		}
		if result := m.Validate(c.actual); !result.Valid {
			return fmt.Sprintf("%s: %s", c.name, result.Reason), false
		}
	}

	if v.Schema != "" {
		schema, err := r.readSchema(v.Schema)
		if err != nil {
			return fmt.Sprintf("schema: %v", err), false
		}
		if result := matcher.ValidateSchema(schema, body); !result.Valid {
			return fmt.Sprintf("schema: %s", result.Reason), false
		}
	}
	return "", true
}

func (r *Runner) readSchema(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && r.baseDir != "" {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.FileNotFound(path, err)
		}
		return nil, err
	}
	return data, nil
}

// text renders a query value: scalars as display strings, containers as
// JSON.
func text(v value.Value) string {
	switch v.Kind() {
	case value.KindArray, value.KindDictionary:
		if data, err := v.MarshalJSON(); err == nil {
			return string(data)
		}
	}
	return v.String()
}
