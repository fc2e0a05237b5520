package http

import (
	neturl "net/url"
	"strings"
)

type Header struct {
	Key   string
	Value string
}

type QueryParam struct {
	Key   string
	Value string
}

// Request is a fully resolved request, ready to send.
type Request struct {
	Method      string
	URL         string
	Headers     []Header
	QueryParams []QueryParam
	Body        []byte
	ContentType string
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: method,
		URL:    requestURL,
	}
}

// SetHeader replaces any header with the same (case-insensitive) name.
func (r *Request) SetHeader(key, value string) *Request {
	for i, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			r.Headers[i].Value = value
			return r
		}
	}
	r.Headers = append(r.Headers, Header{Key: key, Value: value})
	return r
}

func (r *Request) Header(key string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

func (r *Request) SetBody(body []byte, contentType string) *Request {
	r.Body = body
	r.ContentType = contentType
	return r
}

func (r *Request) AddQueryParam(key, value string) *Request {
	r.QueryParams = append(r.QueryParams, QueryParam{Key: key, Value: value})
	return r
}

// BuildURL appends the query parameters, in order, to any query already
// present in the URL.
func (r *Request) BuildURL() string {
	if len(r.QueryParams) == 0 {
		return r.URL
	}

	u, err := neturl.Parse(r.URL)
	if err != nil {
		return r.URL
	}

	parts := make([]string, 0, len(r.QueryParams)+1)
	if u.RawQuery != "" {
		parts = append(parts, u.RawQuery)
	}
	for _, qp := range r.QueryParams {
		parts = append(parts, neturl.QueryEscape(qp.Key)+"="+neturl.QueryEscape(qp.Value))
	}
	u.RawQuery = strings.Join(parts, "&")
	return u.String()
}
