package loop

import (
	"fmt"
	"time"
)

type Kind int

const (
	KindForever Kind = iota
	KindUntil
	KindTimes
)

// Iteration is the stopping policy of a loop. Only the controller
// mutates it.
type Iteration struct {
	kind      Kind
	deadline  time.Time
	remaining int
}

func Forever() Iteration {
	return Iteration{kind: KindForever}
}

func Until(deadline time.Time) Iteration {
	return Iteration{kind: KindUntil, deadline: deadline}
}

func Times(n int) Iteration {
	return Iteration{kind: KindTimes, remaining: n}
}

func (i Iteration) Kind() Kind { return i.kind }
func (i Iteration) Deadline() time.Time { return i.deadline }
func (i Iteration) Remaining() int { return i.remaining }

// Done reports whether the loop should stop at time now.
func (i Iteration) Done(now time.Time) bool {
	switch i.kind {
	case KindUntil:
		return now.After(i.deadline)
	case KindTimes:
		return i.remaining <= 0
	default:
		return false
	}
}

// Increment counts one finished iteration.
func (i *Iteration) Increment() {
	if i.kind == KindTimes {
		i.remaining--
	}
}

func (i Iteration) String() string {
	switch i.kind {
	case KindUntil:
		return fmt.Sprintf("until %s", i.deadline.Format(time.RFC3339))
	case KindTimes:
		return fmt.Sprintf("%d times", i.remaining)
	default:
		return "forever"
	}
}
