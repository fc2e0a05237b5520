package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/parser"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/spf13/afero"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"
	ContentTypeText = "text/plain; charset=utf-8"
)

// BodyEncoder turns a resolved body into bytes. File references are read
// through fs, relative to baseDir.
type BodyEncoder struct {
	fs      afero.Fs
	baseDir string
}

func NewBodyEncoder(fs afero.Fs, baseDir string) *BodyEncoder {
	return &BodyEncoder{fs: fs, baseDir: baseDir}
}

// Encode returns the payload and its content type. A nil body encodes to
// nothing.
func (e *BodyEncoder) Encode(body *parser.Body) ([]byte, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch body.Type {
	case parser.BodyNone:
		return nil, "", nil
	case parser.BodyJSON:
		data, err := body.Value.MarshalJSON()
		if err != nil {
			return nil, "", errs.Internal("encoding json body: %v", err)
		}
		return data, ContentTypeJSON, nil
	case parser.BodyForm:
		d, ok := body.Value.AsDictionary()
		if !ok {
			return nil, "", errs.Internal("form body is a %s, not a dictionary", body.Value.Kind())
		}
		return []byte(encodeForm(d)), ContentTypeForm, nil
	case parser.BodyMultipart:
		d, ok := body.Value.AsDictionary()
		if !ok {
			return nil, "", errs.Internal("multipart body is a %s, not a dictionary", body.Value.Kind())
		}
		return e.multipart(d)
	case parser.BodyText:
		return []byte(body.Value.String()), ContentTypeText, nil
	case parser.BodyFile:
		path, _ := body.Value.AsString()
		data, err := e.readFile(path)
		if err != nil {
			return nil, "", err
		}
		return data, contentTypeFor(path), nil
	default:
		return nil, "", errs.Internal("unknown body type %d", body.Type)
	}
}

func encodeForm(d *value.Dictionary) string {
	parts := make([]string, 0, d.Len())
	d.Each(func(key string, v value.Value) bool {
		parts = append(parts, neturl.QueryEscape(key)+"="+neturl.QueryEscape(fieldString(v)))
		return true
	})
	return strings.Join(parts, "&")
}

func (e *BodyEncoder) multipart(d *value.Dictionary) ([]byte, string, error) {
	if d.Len() == 0 {
		return nil, "", errs.Internal("multipart body has no parameters")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	var err error
	d.Each(func(name string, v value.Value) bool {
		s, isString := v.AsString()
		if path, ok := parser.ParseFileReference(s); isString && ok {
			var data []byte
			data, err = e.readFile(path)
			if err != nil {
				return false
			}
			var part io.Writer
			part, err = writer.CreateFormFile(name, filepath.Base(path))
			if err != nil {
				return false
			}
			_, err = part.Write(data)
			return err == nil
		}
		err = writer.WriteField(name, fieldString(v))
		return err == nil
	})
	if err != nil {
		return nil, "", err
	}

	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}

func (e *BodyEncoder) readFile(path string) ([]byte, error) {
	resolved := path
	if !filepath.IsAbs(resolved) && e.baseDir != "" {
		resolved = filepath.Join(e.baseDir, resolved)
	}
	if err := validatePathWithinBase(resolved, e.baseDir); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(e.fs, resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errs.FileNotFound(resolved, err)
		}
		return nil, fmt.Errorf("reading %s: %w", resolved, err)
	}
	return data, nil
}

// fieldString renders form and multipart values: scalars as text,
// containers as JSON.
func fieldString(v value.Value) string {
	switch v.Kind() {
	case value.KindArray, value.KindDictionary:
		data, err := v.MarshalJSON()
		if err == nil {
			return string(data)
		}
	}
	return v.String()
}

func contentTypeFor(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// validatePathWithinBase checks that the resolved path stays within the base directory
// to prevent path traversal attacks
func validatePathWithinBase(path, baseDir string) error {
	if baseDir == "" {
		return nil
	}

	cleanBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base directory: %v", err)
	}

	cleanPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %v", err)
	}

	if !strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator)) && cleanPath != cleanBase {
		return fmt.Errorf("path traversal detected: %s is outside allowed directory %s", path, baseDir)
	}

	return nil
}
