package runner

import (
	"context"

	"github.com/abdul-hamid-achik/rester/packages/core/loop"
	"github.com/abdul-hamid-achik/rester/packages/core/parser"
	"github.com/abdul-hamid-achik/rester/packages/core/variables"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Session runs one Restfile repeatedly. Setup requests run on the first
// run only; the scope they leave behind seeds every later run.
type Session struct {
	runner *Runner
	file   *parser.Restfile
	seed   *variables.Scope
}

func (r *Runner) NewSession(file *parser.Restfile) *Session {
	return &Session{runner: r, file: file}
}

// Run executes one pass over the document. first marks the first
// iteration of a loop. The returned result holds everything executed
// before an error.
func (s *Session) Run(ctx context.Context, first bool) (*RunResult, error) {
	r := s.runner
	start := r.clock.Now()
	result := &RunResult{ID: uuid.NewString(), File: s.file.Path}
	log := r.log.WithField("run", result.ID)
	log.WithField("first", first).Debug("starting run")

	defer func() {
		result.Duration = r.clock.Since(start)
	}()

	var scope *variables.Scope
	if first || s.seed == nil {
		scope = r.ExpandVariables(s.file.Variables)
		if s.file.Setup.Len() > 0 {
			results, err := r.withLogger(log).RunSequence(ctx, s.file.Setup.All(), scope, true)
			result.add(results...)
			if err != nil {
				return result, err
			}
		}
		s.seed = scope.Clone()
	} else {
		scope = s.seed.Clone()
	}

	requests := s.file.Requests.All()
	if s.file.Mode == parser.ModeRandom {
		requests = r.Sample(requests)
	}

	results, err := r.withLogger(log).RunSequence(ctx, requests, scope, false)
	result.add(results...)
	return result, err
}

// Iterate adapts Run to the loop controller, handing every result to
// report.
func (s *Session) Iterate(report func(*RunResult)) loop.Work {
	return func(ctx context.Context, first bool) (bool, error) {
		result, err := s.Run(ctx, first)
		if report != nil && result != nil {
			report(result)
		}
		return result.Valid(), err
	}
}

func (r *Runner) withLogger(log *logrus.Entry) *Runner {
	cp := *r
	cp.log = log
	return &cp
}
