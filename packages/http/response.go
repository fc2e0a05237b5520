package http

import (
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/value"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// JSON parses the body. It reports false when the body is empty or not
// valid JSON, whatever the declared content type.
func (r *Response) JSON() (value.Value, bool) {
	if len(strings.TrimSpace(string(r.Body))) == 0 {
		return value.Null(), false
	}
	v, err := value.FromJSON(r.Body)
	if err != nil {
		return value.Null(), false
	}
	return v, true
}

// HeaderValues returns the headers as a dictionary sorted by name.
func (r *Response) HeaderValues() *value.Dictionary {
	keys := make([]string, 0, len(r.Headers))
	for k := range r.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	d := value.NewDictionary()
	for _, k := range keys {
		d.Set(k, value.String(r.Headers[k]))
	}
	return d
}

// FoldedHeaderValues is HeaderValues with lower-cased names.
func (r *Response) FoldedHeaderValues() *value.Dictionary {
	d := value.NewDictionary()
	r.HeaderValues().Each(func(k string, v value.Value) bool {
		d.Set(strings.ToLower(k), v)
		return true
	})
	return d
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
