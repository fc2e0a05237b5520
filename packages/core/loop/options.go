package loop

import "time"

// Options are the optional loop inputs, usually straight from flags.
type Options struct {
	Count    *int
	Duration *time.Duration
	Delay    *time.Duration
}

// Parameters is a resolved loop policy.
type Parameters struct {
	Iteration Iteration
	Delay     time.Duration
}

// Conflicting reports whether both a count and a duration were given.
// The count wins; callers should warn.
func (o Options) Conflicting() bool {
	return o.Count != nil && o.Duration != nil
}

// Parameters resolves the options against now. It returns nil when no
// option is set, meaning a single run.
func (o Options) Parameters(now time.Time) *Parameters {
	if o.Count == nil && o.Duration == nil && o.Delay == nil {
		return nil
	}

	params := &Parameters{Iteration: Forever()}
	switch {
	case o.Count != nil:
		params.Iteration = Times(*o.Count)
	case o.Duration != nil:
		params.Iteration = Until(now.Add(*o.Duration))
	}
	if o.Delay != nil {
		params.Delay = *o.Delay
	}
	return params
}
