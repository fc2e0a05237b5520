package runner

import (
	"context"
	"math/rand/v2"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/env"
	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/parser"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/abdul-hamid-achik/rester/packages/core/variables"
	"github.com/abdul-hamid-achik/rester/packages/http"
	"github.com/abdul-hamid-achik/rester/packages/stats"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a test server that answers by path and remembers every
// request it saw.
type recorder struct {
	mu       sync.Mutex
	requests []*nethttp.Request
	bodies   map[string]string
}

func newRecorder(t *testing.T, bodies map[string]string) (*recorder, *httptest.Server) {
	t.Helper()
	rec := &recorder{bodies: bodies}
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		rec.mu.Lock()
		rec.requests = append(rec.requests, r)
		rec.mu.Unlock()

		if r.URL.Path == "/slow" {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		body, ok := rec.bodies[r.URL.Path]
		if !ok {
			w.WriteHeader(nethttp.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return rec, server
}

func (rec *recorder) paths() []string {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]string, len(rec.requests))
	for i, r := range rec.requests {
		out[i] = r.URL.Path
	}
	return out
}

func parse(t *testing.T, doc string) *parser.Restfile {
	t.Helper()
	file, err := parser.Parse([]byte(doc), "test.yml")
	require.NoError(t, err)
	return file
}

func newRunner(base string, opts ...Option) *Runner {
	resolver := env.NewResolver(env.Environment{"BASE": base})
	return New(http.NewClient(), append([]Option{WithResolver(resolver), WithTimeout(time.Second)}, opts...)...)
}

func TestRunner_PassesDataBetweenRequests(t *testing.T) {
	rec, server := newRecorder(t, map[string]string{
		"/values":    `{"values":["a",42,"c"]}`,
		"/values/42": `{"ok":true}`,
	})

	file := parse(t, `
requests:
  first:
    url: ${BASE}/values
  second:
    url: ${BASE}/values/${first.json.values[1]}
    validation:
      status: 200
      json:
        ok: true
`)

	result, err := newRunner(server.URL).NewSession(file).Run(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, []string{"/values", "/values/42"}, rec.paths())
	assert.Equal(t, 2, result.Passed)
	assert.True(t, result.Valid())
	assert.NotEmpty(t, result.ID)
}

func TestRunner_DeclaredOrder(t *testing.T) {
	rec, server := newRecorder(t, map[string]string{"/1": `{}`, "/2": `{}`, "/3": `{}`})

	file := parse(t, `
requests:
  first:
    url: ${BASE}/1
  second:
    url: ${BASE}/2
  3rd:
    url: ${BASE}/3
`)

	var before, after []string
	r := newRunner(server.URL, WithHooks(Hooks{
		Before: func(name string) { before = append(before, name) },
		After:  func(res *RequestResult) { after = append(after, res.Name) },
	}))

	result, err := r.NewSession(file).Run(context.Background(), true)
	require.NoError(t, err)

	expected := []string{"first", "second", "3rd"}
	assert.Equal(t, expected, before)
	assert.Equal(t, expected, after)
	assert.Equal(t, []string{"/1", "/2", "/3"}, rec.paths())
	names := make([]string, len(result.Results))
	for i, res := range result.Results {
		names[i] = res.Name
	}
	assert.Equal(t, expected, names)
}

func TestRunner_ValidationFailureDoesNotAbort(t *testing.T) {
	rec, server := newRecorder(t, map[string]string{"/a": `{"id":1}`, "/b": `{}`})

	file := parse(t, `
requests:
  a:
    url: ${BASE}/a
    validation:
      status: 201
  b:
    url: ${BASE}/b
`)

	result, err := newRunner(server.URL).NewSession(file).Run(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, rec.paths(), 2)
	require.Len(t, result.Results, 2)
	assert.Equal(t, StatusFailed, result.Results[0].Status)
	assert.Equal(t, "status: (200) is not equal to (201)", result.Results[0].Reason)
	assert.Equal(t, StatusPassed, result.Results[1].Status)
	assert.False(t, result.Valid())
}

func TestRunner_TimeoutAbortsSequence(t *testing.T) {
	rec, server := newRecorder(t, map[string]string{"/after": `{}`})

	file := parse(t, `
requests:
  slow:
    url: ${BASE}/slow
  after:
    url: ${BASE}/after
`)

	r := newRunner(server.URL, WithTimeout(50*time.Millisecond))
	result, err := r.NewSession(file).Run(context.Background(), true)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrTimeout)
	assert.NotErrorIs(t, err, errs.ErrCancelled)
	assert.Empty(t, result.Results)
	assert.Equal(t, []string{"/slow"}, rec.paths())
}

func TestRunner_ContextCancelled(t *testing.T) {
	_, server := newRecorder(t, nil)

	file := parse(t, "requests:\n  slow:\n    url: ${BASE}/slow\n")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := newRunner(server.URL).NewSession(file).Run(ctx, true)
	assert.ErrorIs(t, err, errs.ErrCancelled)
}

func TestRunner_Variables(t *testing.T) {
	_, server := newRecorder(t, map[string]string{
		"/login": `{"token":"abc","user":{"id":7}}`,
		"/items": `{"id":3}`,
	})

	file := parse(t, `
variables:
  seen: []
requests:
  login:
    url: ${BASE}/login
    variables:
      userId: .json.user.id
  item:
    url: ${BASE}/items
    headers:
      Authorization: Bearer ${token}
    variables:
      last: .json.id
      seen: .append(last)
`)

	r := newRunner(server.URL)
	scope := r.ExpandVariables(file.Variables)
	results, err := r.RunSequence(context.Background(), file.Requests.All(), scope, false)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[1].Passed(), results[1].Reason)

	token, _ := scope.Get("token")
	assert.Equal(t, value.String("abc"), token, "top-level json fields are merged")

	userID, err := scope.Lookup("login.userId")
	require.NoError(t, err)
	assert.Equal(t, value.Int(7), userID)

	status, err := scope.Lookup("login.status")
	require.NoError(t, err)
	assert.Equal(t, value.Int(200), status)

	seen, _ := scope.Get("seen")
	assert.Equal(t, value.Array(value.Int(3)), seen)
	snapshotSeen, err := scope.Lookup("item.seen")
	require.NoError(t, err)
	assert.Equal(t, value.Array(value.Int(3)), snapshotSeen)
}

func TestRunner_UnresolvableDeclarationFails(t *testing.T) {
	_, server := newRecorder(t, map[string]string{"/a": `{"items":[]}`})

	file := parse(t, "requests:\n  a:\n    url: ${BASE}/a\n    variables:\n      first: .json.items[0]\n")
	r := newRunner(server.URL)
	scope := variables.New()
	results, err := r.RunSequence(context.Background(), file.Requests.All(), scope, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, "variables:")
	assert.True(t, scope.Has("a"), "snapshot is stored anyway")
}

func TestRunner_SkipAndWhen(t *testing.T) {
	rec, server := newRecorder(t, map[string]string{"/a": `{"enabled":false}`, "/b": `{}`, "/c": `{}`})

	file := parse(t, `
requests:
  a:
    url: ${BASE}/a
  b:
    url: ${BASE}/b
    when:
      enabled: true
  c:
    url: ${BASE}/c
    skip: ${SKIP_C}
`)

	resolver := env.NewResolver(env.Environment{"BASE": server.URL, "SKIP_C": "true"})
	r := New(http.NewClient(), WithResolver(resolver))
	result, err := r.NewSession(file).Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, []string{"/a"}, rec.paths())
	require.Len(t, result.Results, 3)
	assert.Equal(t, StatusSkipped, result.Results[1].Status)
	assert.Contains(t, result.Results[1].Reason, "when enabled")
	assert.Equal(t, StatusSkipped, result.Results[2].Status)
	assert.Equal(t, 2, result.Skipped)
	assert.True(t, result.Valid())
}

func TestSession_SetupRunsOnce(t *testing.T) {
	rec, server := newRecorder(t, map[string]string{
		"/login": `{"token":"abc"}`,
		"/me":    `{}`,
	})

	file := parse(t, `
set_up:
  login:
    url: ${BASE}/login
requests:
  me:
    url: ${BASE}/me
    headers:
      Authorization: Bearer ${token}
`)

	session := newRunner(server.URL).NewSession(file)
	first, err := session.Run(context.Background(), true)
	require.NoError(t, err)
	assert.True(t, first.Results[0].Setup)

	second, err := session.Run(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, second.Results, 1)
	assert.False(t, second.Results[0].Setup)

	assert.Equal(t, []string{"/login", "/me", "/me"}, rec.paths())
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, "Bearer abc", rec.requests[2].Header.Get("Authorization"))
}

func TestSession_RandomMode(t *testing.T) {
	rec, server := newRecorder(t, map[string]string{"/a": `{}`, "/b": `{}`, "/c": `{}`})

	file := parse(t, `
mode: random
requests:
  a:
    url: ${BASE}/a
  b:
    url: ${BASE}/b
  c:
    url: ${BASE}/c
`)

	session := newRunner(server.URL, WithRand(rand.New(rand.NewPCG(1, 2)))).NewSession(file)
	for i := 0; i < 5; i++ {
		result, err := session.Run(context.Background(), i == 0)
		require.NoError(t, err)
		require.Len(t, result.Results, 1)
		assert.Contains(t, []string{"a", "b", "c"}, result.Results[0].Name)
	}
	assert.Len(t, rec.paths(), 5)
}

func TestRunner_StatsAndLogs(t *testing.T) {
	_, server := newRecorder(t, map[string]string{"/a": `{"items":[1,2,3]}`})

	file := parse(t, `
requests:
  a:
    url: ${BASE}/a
    log:
      - status
      - json.items[-1]
      - json.missing
  fails:
    url: ${BASE}/a
    validation:
      status: 500
`)

	agg := stats.NewAggregator()
	result, err := newRunner(server.URL, WithStats(agg)).NewSession(file).Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, agg.Names(), "only successes are recorded")

	logs := result.Results[0].Logs
	require.Len(t, logs, 3)
	assert.Equal(t, value.Int(200), logs[0].Value)
	assert.Equal(t, value.Int(3), logs[1].Value)
	assert.ErrorIs(t, logs[2].Err, value.ErrFieldNotFound)
}

func TestRunner_SchemaValidation(t *testing.T) {
	_, server := newRecorder(t, map[string]string{"/a": `{"id":"nope"}`})

	fs := afero.NewMemMapFs()
	schema := `{"type":"object","properties":{"id":{"type":"integer"}},"required":["id"]}`
	require.NoError(t, afero.WriteFile(fs, "/suite/schema.json", []byte(schema), 0644))

	file := parse(t, "requests:\n  a:\n    url: ${BASE}/a\n    validation:\n      schema: schema.json\n")
	result, err := newRunner(server.URL, WithFileSystem(fs, "/suite")).NewSession(file).Run(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	assert.Equal(t, StatusFailed, result.Results[0].Status)
	assert.True(t, strings.HasPrefix(result.Results[0].Reason, "schema: "))
}

func TestExpand(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := newRunner("http://api.test", WithFileSystem(fs, "/suite"))

	file := parse(t, `
requests:
  post:
    url: ${BASE}/items
    method: post
    query:
      page: ${page}
      tags: [a, b]
    headers:
      X-Page: ${page}
      Content-Type: application/vnd.api+json
    body:
      json:
        page: ${page}
        name: n-${page}
    delay: ${wait}
`)
	req, _ := file.Requests.Get("post")
	scope := variables.New()
	scope.Set("page", value.Int(2))
	scope.Set("wait", value.Double(0.25))

	out, delay, err := r.Expand(req, scope)
	require.NoError(t, err)
	assert.Equal(t, "POST", out.Method)
	assert.Equal(t, `http://api.test/items?page=2&tags=%5B%22a%22%2C%22b%22%5D`, out.BuildURL())
	assert.Equal(t, "2", out.Header("X-Page"))
	assert.Equal(t, `{"page":2,"name":"n-2"}`, string(out.Body))
	assert.Equal(t, 250*time.Millisecond, delay)
}

func TestExpand_Errors(t *testing.T) {
	r := newRunner("http://api.test")
	scope := variables.New()

	_, _, err := r.Expand(&parser.Request{Name: "x", Method: "GET", URL: "${BASE}/${nope}"}, scope)
	assert.ErrorIs(t, err, errs.ErrUndefinedVariable)

	_, _, err = r.Expand(&parser.Request{Name: "x", Method: "GET", URL: "not a url"}, scope)
	assert.ErrorIs(t, err, errs.ErrInvalidURL)

	_, _, err = r.Expand(&parser.Request{Name: "x", Method: "GET", URL: "${BASE}", Delay: value.String("soon")}, scope)
	assert.ErrorIs(t, err, errs.ErrInternal)
}

func TestExpandVariables(t *testing.T) {
	r := newRunner("http://api.test")
	declared := value.DictionaryOf(
		"host", "${BASE}",
		"url", "${host}/v1",
		"count", "${n}",
		"broken", "${later}",
		"later", 1,
	)
	declared.Set("n", value.Int(3))

	scope := r.ExpandVariables(declared)
	assert.Equal(t, []string{"host", "url", "count", "broken", "later", "n"}, scope.Names())

	url, _ := scope.Get("url")
	assert.Equal(t, value.String("http://api.test/v1"), url)
	broken, _ := scope.Get("broken")
	assert.Equal(t, value.String("${later}"), broken, "only earlier declarations are visible")
	count, _ := scope.Get("count")
	assert.Equal(t, value.String("${n}"), count)
}

func TestRunner_MergeOrder(t *testing.T) {
	_, server := newRecorder(t, map[string]string{
		"/first": `{"first":"fromBody","x":1,"id":9}`,
	})

	file := parse(t, `
requests:
  first:
    url: ${BASE}/first
    variables:
      id: .json.x
`)

	r := newRunner(server.URL)
	scope := variables.New()
	results, err := r.RunSequence(context.Background(), file.Requests.All(), scope, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed(), results[0].Reason)

	first, _ := scope.Get("first")
	assert.Equal(t, value.String("fromBody"), first, "body fields are merged after the snapshot")

	id, _ := scope.Get("id")
	assert.Equal(t, value.Int(1), id, "declarations beat body fields")

	x, _ := scope.Get("x")
	assert.Equal(t, value.Int(1), x)
}

func TestRunner_HeaderValidationIgnoresCase(t *testing.T) {
	_, server := newRecorder(t, map[string]string{"/a": `{}`})

	file := parse(t, `
requests:
  lower:
    url: ${BASE}/a
    validation:
      headers:
        content-type: .regex(json)
  canonical:
    url: ${BASE}/a
    validation:
      headers:
        Content-Type: application/json
  missing:
    url: ${BASE}/a
    validation:
      headers:
        x-request-id: .regex(.+)
`)

	results, err := newRunner(server.URL).RunSequence(context.Background(), file.Requests.All(), variables.New(), false)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.True(t, results[0].Passed(), results[0].Reason)
	assert.True(t, results[1].Passed(), results[1].Reason)
	assert.Equal(t, StatusFailed, results[2].Status)
	assert.Contains(t, results[2].Reason, "headers: key 'x-request-id' not found")
}
