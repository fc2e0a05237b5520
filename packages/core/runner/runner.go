package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/env"
	"github.com/abdul-hamid-achik/rester/packages/core/errs"
	"github.com/abdul-hamid-achik/rester/packages/core/parser"
	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/abdul-hamid-achik/rester/packages/core/variables"
	"github.com/abdul-hamid-achik/rester/packages/http"
	"github.com/abdul-hamid-achik/rester/packages/stats"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"k8s.io/utils/clock"
)

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 5 * time.Second

// Transport sends a resolved request. *http.Client implements it.
type Transport interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Hooks are invoked around every request of a sequence. Skipped requests
// only see After.
type Hooks struct {
	Before func(name string)
	After  func(result *RequestResult)
}

type Runner struct {
	transport Transport
	resolver  *env.Resolver
	encoder   *http.BodyEncoder
	fs        afero.Fs
	baseDir   string
	stats     *stats.Aggregator
	hooks     Hooks
	log       *logrus.Entry
	clock     clock.Clock
	rand      *rand.Rand
	timeout   time.Duration
}

type Option func(*Runner)

func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		r.timeout = d
	}
}

func WithResolver(resolver *env.Resolver) Option {
	return func(r *Runner) {
		r.resolver = resolver
	}
}

// WithFileSystem sets where `.file(...)` bodies and schemas are read
// from. Relative paths resolve against baseDir.
func WithFileSystem(fs afero.Fs, baseDir string) Option {
	return func(r *Runner) {
		r.fs = fs
		r.baseDir = baseDir
	}
}

func WithStats(agg *stats.Aggregator) Option {
	return func(r *Runner) {
		r.stats = agg
	}
}

func WithHooks(hooks Hooks) Option {
	return func(r *Runner) {
		r.hooks = hooks
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(r *Runner) {
		r.log = log
	}
}

func WithClock(c clock.Clock) Option {
	return func(r *Runner) {
		r.clock = c
	}
}

// WithRand sets the source used to sample requests in random mode.
func WithRand(rng *rand.Rand) Option {
	return func(r *Runner) {
		r.rand = rng
	}
}

func New(transport Transport, opts ...Option) *Runner {
	r := &Runner{
		transport: transport,
		fs:        afero.NewOsFs(),
		log:       logrus.NewEntry(logrus.StandardLogger()),
		clock:     clock.RealClock{},
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.resolver == nil {
		r.resolver = env.NewResolver(env.FromOS())
	}
	if r.rand == nil {
		r.rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	r.encoder = http.NewBodyEncoder(r.fs, r.baseDir)
	return r
}

// ExpandVariables evaluates document variables in declaration order.
// Each value may reference the ones declared before it and the
// environment; a value that cannot be expanded is kept verbatim.
func (r *Runner) ExpandVariables(declared *value.Dictionary) *variables.Scope {
	scope := variables.New()
	declared.Each(func(name string, v value.Value) bool {
		expanded, err := r.resolver.SubstituteValue(v, scope)
		if err != nil {
			r.log.WithField("variable", name).WithError(err).Debug("keeping variable unexpanded")
			expanded = v
		}
		scope.Set(name, expanded)
		return true
	})
	return scope
}

// RunSequence runs requests in order against scope. Validation failures
// are recorded and the sequence continues; the first timeout, transport
// or expansion error stops it and is returned with the results so far.
func (r *Runner) RunSequence(ctx context.Context, requests []*parser.Request, scope *variables.Scope, setup bool) ([]*RequestResult, error) {
	var results []*RequestResult
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return results, errs.Cancelled(err)
		}

		if skip, reason := r.shouldSkip(req, scope); skip {
			r.log.WithField("request", req.Name).WithField("reason", reason).Info("skipping request")
			res := &RequestResult{Name: req.Name, Setup: setup, Status: StatusSkipped, Reason: reason}
			r.after(res)
			results = append(results, res)
			continue
		}

		if r.hooks.Before != nil {
			r.hooks.Before(req.Name)
		}

		res, err := r.execute(ctx, req, scope)
		if err != nil {
			return results, err
		}
		res.Setup = setup
		r.after(res)
		results = append(results, res)
	}
	return results, nil
}

// Sample picks one request uniformly at random.
func (r *Runner) Sample(requests []*parser.Request) []*parser.Request {
	if len(requests) == 0 {
		return nil
	}
	return []*parser.Request{requests[r.rand.IntN(len(requests))]}
}

func (r *Runner) after(res *RequestResult) {
	if r.hooks.After != nil {
		r.hooks.After(res)
	}
}

type outcome struct {
	resp *http.Response
	err  error
}

func (r *Runner) execute(ctx context.Context, req *parser.Request, scope *variables.Scope) (*RequestResult, error) {
	expanded, delay, err := r.Expand(req, scope)
	if err != nil {
		return nil, fmt.Errorf("request %q: %w", req.Name, err)
	}

	log := r.log.WithFields(logrus.Fields{
		"request": req.Name,
		"method":  expanded.Method,
		"url":     expanded.BuildURL(),
	})

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// buffered so an abandoned request never blocks
	done := make(chan outcome, 1)
	go func() {
		if delay > 0 {
			select {
			case <-reqCtx.Done():
				done <- outcome{err: reqCtx.Err()}
				return
			case <-r.clock.After(delay):
			}
		}
		resp, err := r.transport.Do(reqCtx, expanded)
		done <- outcome{resp: resp, err: err}
	}()

	var expired <-chan time.Time
	limit := r.timeout + delay
	if r.timeout > 0 {
		timer := r.clock.NewTimer(limit)
		defer timer.Stop()
		expired = timer.C()
	}

	var out outcome
	select {
	case <-ctx.Done():
		return nil, errs.Cancelled(ctx.Err())
	case <-expired:
		log.WithField("timeout", limit).Warn("request timed out")
		return nil, errs.Timeout(req.Name, limit)
	case out = <-done:
	}
	if out.err != nil {
		if ctx.Err() != nil || errors.Is(out.err, context.Canceled) {
			return nil, errs.Cancelled(out.err)
		}
		return nil, fmt.Errorf("request %q: %w", req.Name, out.err)
	}

	resp := out.resp
	log.WithField("status", resp.StatusCode).WithField("duration", resp.Duration).Debug("request completed")

	res := &RequestResult{
		Name:     req.Name,
		Status:   StatusPassed,
		Method:   expanded.Method,
		URL:      expanded.BuildURL(),
		Duration: resp.Duration,
		Response: resp,
	}

	body, _ := resp.JSON()
	if reason, ok := r.validate(req, resp, body, scope); !ok {
		res.Status, res.Reason = StatusFailed, reason
	}

	snapshot, err := r.merge(req, resp, body, scope)
	if err != nil && res.Status == StatusPassed {
		res.Status, res.Reason = StatusFailed, fmt.Sprintf("variables: %v", err)
	}

	if req.Log != nil {
		res.Logs = logLines(req.Log, snapshot)
	}
	if res.Status == StatusPassed && r.stats != nil {
		r.stats.Record(req.Name, resp.Duration)
	}
	return res, nil
}

// merge folds a response into scope: the request's resolved
// declarations, then the snapshot under the request's name, then the
// top-level fields of a JSON object body. Declarations are written again
// over body fields of the same name. The snapshot is stored even when the
// declarations fail to resolve.
func (r *Runner) merge(req *parser.Request, resp *http.Response, body value.Value, scope *variables.Scope) (value.Value, error) {
	snapshot := value.NewDictionary()
	snapshot.Set("status", value.Int(int64(resp.StatusCode)))
	snapshot.Set("headers", value.Dict(resp.HeaderValues()))
	snapshot.Set("json", body)

	declared, err := r.declare(req, body, scope)
	if declared != nil {
		for _, name := range declared.Names() {
			v, _ := declared.Get(name)
			snapshot.Set(name, v)
		}
	}
	scope.Set(req.Name, value.Dict(snapshot))

	if d, ok := body.AsDictionary(); ok {
		scope.MergeDictionary(d, variables.LastWins)
		if declared != nil {
			for _, name := range declared.Names() {
				if d.Has(name) {
					v, _ := declared.Get(name)
					scope.Set(name, v)
				}
			}
		}
	}
	return value.Dict(snapshot), err
}

// declare resolves and applies the request's variables. The returned
// scope holds the final value of every declaration, or nil when they
// could not be applied.
func (r *Runner) declare(req *parser.Request, body value.Value, scope *variables.Scope) (*variables.Scope, error) {
	if req.Variables == nil || req.Variables.Len() == 0 {
		return nil, nil
	}

	substituted, err := r.resolver.SubstituteValue(value.Dict(req.Variables), scope)
	if err != nil {
		return nil, err
	}
	d, _ := substituted.AsDictionary()

	declared, err := variables.FromDictionary(d).ResolveJSONReferences(body)
	if err != nil {
		return nil, err
	}
	if err := scope.Apply(declared); err != nil {
		return nil, err
	}
	return declared, nil
}

func logLines(directive *parser.LogDirective, snapshot value.Value) []LogLine {
	paths := directive.Paths
	if directive.All {
		paths = []string{"status", "headers", "json"}
	}

	lines := make([]LogLine, 0, len(paths))
	for _, p := range paths {
		v, err := snapshot.Lookup(p)
		lines = append(lines, LogLine{Path: p, Value: v, Err: err})
	}
	return lines
}
