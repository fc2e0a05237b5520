package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/abdul-hamid-achik/rester/packages/matcher"
	"gopkg.in/yaml.v3"
)

var allowedMethods = map[string]bool{
	"GET":     true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"HEAD":    true,
	"OPTIONS": true,
}

// Parse decodes a single document. Nested restfiles are recorded but not
// loaded; see Load.
func Parse(input []byte, path string) (*Restfile, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(input, &doc); err != nil {
		return nil, errs.Decoding(path, err)
	}

	file := NewRestfile(path)
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return file, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.ShortTag() == "!!null" {
		return file, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, decodeErr(path, root, "document must be a mapping")
	}

	p := &parser{path: path}
	if err := p.parseRestfile(root, file); err != nil {
		return nil, err
	}
	return file, nil
}

type parser struct {
	path string
}

func decodeErr(path string, node *yaml.Node, format string, args ...any) error {
	return errs.Decodingf("%s:%d: %s", path, node.Line, fmt.Sprintf(format, args...))
}

func (p *parser) errorf(node *yaml.Node, format string, args ...any) error {
	return decodeErr(p.path, node, format, args...)
}

// pairs walks a mapping node in order.
func (p *parser) pairs(node *yaml.Node, fn func(key string, keyNode, val *yaml.Node) error) error {
	if node.Kind != yaml.MappingNode {
		return p.errorf(node, "expected a mapping")
	}
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, val := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return p.errorf(keyNode, "mapping keys must be scalars")
		}
		if seen[keyNode.Value] {
			return p.errorf(keyNode, "duplicate key %q", keyNode.Value)
		}
		seen[keyNode.Value] = true
		if err := fn(keyNode.Value, keyNode, val); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) parseRestfile(root *yaml.Node, file *Restfile) error {
	return p.pairs(root, func(key string, keyNode, val *yaml.Node) error {
		switch key {
		case "variables":
			d, err := p.dictionary(val)
			if err != nil {
				return err
			}
			file.Variables = d
		case "requests":
			return p.parseRequests(val, file.Requests)
		case "set_up", "setup":
			return p.parseRequests(val, file.Setup)
		case "restfiles":
			paths, err := p.strings(val)
			if err != nil {
				return err
			}
			file.Restfiles = paths
		case "mode":
			switch strings.ToLower(strings.TrimSpace(val.Value)) {
			case "sequential":
				file.Mode = ModeSequential
			case "random":
				file.Mode = ModeRandom
			default:
				return p.errorf(val, "unknown mode %q (want sequential or random)", val.Value)
			}
			file.ModeSet = true
		default:
			return p.errorf(keyNode, "unknown key %q", key)
		}
		return nil
	})
}

func (p *parser) parseRequests(node *yaml.Node, into *Requests) error {
	if isNull(node) {
		return nil
	}
	return p.pairs(node, func(name string, keyNode, val *yaml.Node) error {
		req, err := p.parseRequest(name, keyNode, val)
		if err != nil {
			return err
		}
		if err := into.Add(req); err != nil {
			return p.errorf(keyNode, "duplicate request name %q", name)
		}
		return nil
	})
}

func (p *parser) parseRequest(name string, keyNode, node *yaml.Node) (*Request, error) {
	req := &Request{
		Name:   name,
		Method: "GET",
		Line:   keyNode.Line,
	}
	if node.Kind != yaml.MappingNode {
		return nil, p.errorf(node, "request %q must be a mapping", name)
	}

	err := p.pairs(node, func(key string, keyNode, val *yaml.Node) error {
		var err error
		switch key {
		case "url":
			req.URL, err = p.scalar(val)
		case "method":
			var method string
			method, err = p.scalar(val)
			method = strings.ToUpper(strings.TrimSpace(method))
			if err == nil && !allowedMethods[method] {
				err = p.errorf(val, "unsupported method %q", val.Value)
			}
			req.Method = method
		case "query":
			req.Query, err = p.dictionary(val)
		case "headers":
			req.Headers, err = p.headers(val)
		case "body":
			req.Body, err = p.body(val)
		case "delay":
			req.Delay, err = p.value(val)
		case "log":
			req.Log, err = p.log(val)
		case "validation":
			req.Validation, err = p.validation(val)
		case "variables":
			req.Variables, err = p.dictionary(val)
		case "when":
			req.When, err = p.conditions(val)
		case "skip":
			req.Skip, err = p.value(val)
		default:
			err = p.errorf(keyNode, "request %q: unknown key %q", name, key)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.URL) == "" {
		return nil, p.errorf(keyNode, "request %q: url is required", name)
	}
	return req, nil
}

func (p *parser) headers(node *yaml.Node) ([]*Header, error) {
	var headers []*Header
	err := p.pairs(node, func(key string, keyNode, val *yaml.Node) error {
		v, err := p.value(val)
		if err != nil {
			return err
		}
		if v.Kind() == value.KindArray || v.Kind() == value.KindDictionary {
			return p.errorf(val, "header %q must be a scalar", key)
		}
		headers = append(headers, &Header{Key: key, Value: v.String(), Line: keyNode.Line})
		return nil
	})
	return headers, err
}

func (p *parser) body(node *yaml.Node) (*Body, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return nil, p.errorf(node, "body must have exactly one of json, form, multipart, text or file")
	}
	keyNode, val := node.Content[0], node.Content[1]
	body := &Body{Line: keyNode.Line}

	v, err := p.value(val)
	if err != nil {
		return nil, err
	}

	switch keyNode.Value {
	case "json":
		body.Type = BodyJSON
	case "form":
		body.Type = BodyForm
	case "multipart":
		body.Type = BodyMultipart
	case "text":
		body.Type = BodyText
	case "file":
		body.Type = BodyFile
	default:
		return nil, p.errorf(keyNode, "unknown body type %q", keyNode.Value)
	}

	switch body.Type {
	case BodyForm, BodyMultipart:
		if v.IsNull() {
			v = value.Dict(nil)
		}
		if v.Kind() != value.KindDictionary {
			return nil, p.errorf(val, "%s body must be a mapping", body.Type)
		}
	case BodyText:
		if v.Kind() == value.KindArray || v.Kind() == value.KindDictionary {
			return nil, p.errorf(val, "text body must be a scalar")
		}
		v = value.String(v.String())
	case BodyFile:
		s, _ := v.AsString()
		path, ok := ParseFileReference(s)
		if !ok {
			return nil, p.errorf(val, "file body must be .file(path), got %q", val.Value)
		}
		v = value.String(path)
	}
	body.Value = v
	return body, nil
}

func (p *parser) log(node *yaml.Node) (*LogDirective, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.ShortTag() == "!!bool" {
			on, err := strconv.ParseBool(node.Value)
			if err != nil {
				return nil, p.errorf(node, "invalid log flag %q", node.Value)
			}
			if !on {
				return nil, nil
			}
			return &LogDirective{All: true}, nil
		}
		if node.ShortTag() == "!!null" {
			return nil, nil
		}
		return &LogDirective{Paths: []string{node.Value}}, nil
	case yaml.SequenceNode:
		paths, err := p.strings(node)
		if err != nil {
			return nil, err
		}
		return &LogDirective{Paths: paths}, nil
	default:
		return nil, p.errorf(node, "log must be a bool, a key path or a list of key paths")
	}
}

func (p *parser) validation(node *yaml.Node) (*Validation, error) {
	v := &Validation{}
	err := p.pairs(node, func(key string, keyNode, val *yaml.Node) error {
		if key == "schema" {
			s, err := p.scalar(val)
			if err != nil {
				return err
			}
			v.Schema = strings.TrimSpace(s)
			if path, ok := ParseFileReference(v.Schema); ok {
				v.Schema = path
			}
			return nil
		}

		m, err := p.matcher(val)
		if err != nil {
			return err
		}
		switch key {
		case "status":
			v.Status = m
		case "headers":
			v.Headers = m
		case "json":
			v.JSON = m
		default:
			return p.errorf(keyNode, "unknown validation key %q", key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (p *parser) conditions(node *yaml.Node) ([]*Condition, error) {
	var conds []*Condition
	err := p.pairs(node, func(key string, keyNode, val *yaml.Node) error {
		if _, err := value.ParseKeyPath(key); err != nil {
			return p.errorf(keyNode, "when: %v", err)
		}
		m, err := p.matcher(val)
		if err != nil {
			return err
		}
		conds = append(conds, &Condition{Path: key, Matcher: m})
		return nil
	})
	return conds, err
}

func (p *parser) matcher(node *yaml.Node) (*matcher.Matcher, error) {
	v, err := p.value(node)
	if err != nil {
		return nil, err
	}
	m, err := matcher.New(v)
	if err != nil {
		return nil, p.errorf(node, "%v", err)
	}
	return m, nil
}

func (p *parser) value(node *yaml.Node) (value.Value, error) {
	v, err := value.FromYAML(node)
	if err != nil {
		return value.Null(), errs.Decoding(p.path, err)
	}
	return v, nil
}

func (p *parser) dictionary(node *yaml.Node) (*value.Dictionary, error) {
	if isNull(node) {
		return value.NewDictionary(), nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, p.errorf(node, "expected a mapping")
	}
	v, err := p.value(node)
	if err != nil {
		return nil, err
	}
	d, _ := v.AsDictionary()
	return d, nil
}

func (p *parser) scalar(node *yaml.Node) (string, error) {
	if node.Kind != yaml.ScalarNode {
		return "", p.errorf(node, "expected a scalar")
	}
	return node.Value, nil
}

func (p *parser) strings(node *yaml.Node) ([]string, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, p.errorf(node, "expected a list")
	}
	out := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		s, err := p.scalar(item)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null"
}
