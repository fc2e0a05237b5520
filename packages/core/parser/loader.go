package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"
)

// ParseFile reads and parses a single document without loading its
// nested restfiles.
func ParseFile(fs afero.Fs, path string) (*Restfile, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.FileNotFound(path, err)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(content, path)
}

// Load parses path and merges its nested restfiles into one document.
//
// Nested documents are loaded relative to the file that references them
// and merged in reference order before the including document:
//   - variables: last wins, so the including document overrides
//   - requests and setup: concatenated, nested first; a name declared
//     twice is a decoding error
//   - mode: the including document's mode wins if declared, otherwise
//     the first nested document declaring one
//
// Every missing or broken nested reference is reported, not just the
// first.
func Load(fs afero.Fs, path string) (*Restfile, error) {
	l := &loader{fs: fs}
	return l.load(filepath.Clean(path), nil)
}

type loader struct {
	fs afero.Fs
}

func (l *loader) load(path string, stack []string) (*Restfile, error) {
	for _, seen := range stack {
		if seen == path {
			chain := append(append([]string{}, stack...), path)
			return nil, errs.Decodingf("restfile cycle: %s", strings.Join(chain, " -> "))
		}
	}

	file, err := ParseFile(l.fs, path)
	if err != nil {
		return nil, err
	}
	if len(file.Restfiles) == 0 {
		return file, nil
	}

	stack = append(stack, path)
	var result *multierror.Error
	var nested []*Restfile
	for _, ref := range file.Restfiles {
		refPath := ref
		if !filepath.IsAbs(refPath) {
			refPath = filepath.Join(filepath.Dir(path), refPath)
		}
		child, err := l.load(filepath.Clean(refPath), stack)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: restfile %q: %w", path, ref, err))
			continue
		}
		nested = append(nested, child)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}

	return merge(file, nested)
}

func merge(root *Restfile, nested []*Restfile) (*Restfile, error) {
	out := NewRestfile(root.Path)
	out.Restfiles = root.Restfiles
	out.Mode, out.ModeSet = root.Mode, root.ModeSet

	for _, src := range append(nested, root) {
		src.Variables.Each(func(name string, v value.Value) bool {
			out.Variables.Set(name, v)
			return true
		})
		for _, r := range src.Setup.All() {
			if err := out.Setup.Add(r); err != nil {
				return nil, errs.Decodingf("%s: setup request %q is declared more than once", root.Path, r.Name)
			}
		}
		for _, r := range src.Requests.All() {
			if err := out.Requests.Add(r); err != nil {
				return nil, errs.Decodingf("%s: request %q is declared more than once", root.Path, r.Name)
			}
		}
		if !out.ModeSet && src.ModeSet {
			out.Mode, out.ModeSet = src.Mode, true
		}
	}
	return out, nil
}
