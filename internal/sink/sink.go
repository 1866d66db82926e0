// Package sink writes one value to an ordered list of destinations under a
// failure policy.
package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crypto-dashboard/internal/logging"
)

// Sink is a single write destination
type Sink[T any] interface {
	Name() string
	Write(ctx context.Context, v T) error
}

// Reverter is implemented by sinks that can undo a successful Write
type Reverter[T any] interface {
	Revert(ctx context.Context, v T) error
}

// ErrNotRevertible is returned by a Reverter that has nothing to undo with.
// The sink keeps its write and is not reported as reverted.
var ErrNotRevertible = errors.New("sink cannot revert")

// Policy decides how a Writer reacts to a failing sink
type Policy int

const (
	// BestEffort attempts every sink and collects the failures
	BestEffort Policy = iota
	// AllOrNothing stops at the first failure and reverts the sinks already
	// written, in reverse order
	AllOrNothing
)

func (p Policy) String() string {
	switch p {
	case BestEffort:
		return "best_effort"
	case AllOrNothing:
		return "all_or_nothing"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Outcome is the result of one sink
type Outcome struct {
	Sink      string
	Attempted bool
	Err       error
	Reverted  bool
	RevertErr error
	Duration  time.Duration
}

// Report lists the outcome of every sink in order
type Report struct {
	Policy   Policy
	Outcomes []Outcome
}

// OK reports whether every sink was written
func (r Report) OK() bool {
	for _, o := range r.Outcomes {
		if !o.Attempted || o.Err != nil {
			return false
		}
	}
	return true
}

// Succeeded returns the names of the sinks that hold the value
func (r Report) Succeeded() []string {
	var names []string
	for _, o := range r.Outcomes {
		if o.Attempted && o.Err == nil && !o.Reverted {
			names = append(names, o.Sink)
		}
	}
	return names
}

// Err joins every sink failure, or returns nil
func (r Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", o.Sink, o.Err))
		}
		if o.RevertErr != nil {
			errs = append(errs, fmt.Errorf("%s revert: %w", o.Sink, o.RevertErr))
		}
	}
	return errors.Join(errs...)
}

// Writer writes to its sinks in order
type Writer[T any] struct {
	sinks  []Sink[T]
	policy Policy
}

// NewWriter creates a writer over sinks
func NewWriter[T any](policy Policy, sinks ...Sink[T]) *Writer[T] {
	return &Writer[T]{sinks: sinks, policy: policy}
}

// Write writes v to every sink according to the policy
func (w *Writer[T]) Write(ctx context.Context, v T) Report {
	logger := logging.FromContext(ctx).WithField("policy", w.policy.String())
	report := Report{Policy: w.policy, Outcomes: make([]Outcome, len(w.sinks))}

	for i, s := range w.sinks {
		report.Outcomes[i].Sink = s.Name()
	}

	for i, s := range w.sinks {
		start := time.Now()
		err := s.Write(ctx, v)

		out := &report.Outcomes[i]
		out.Attempted = true
		out.Err = err
		out.Duration = time.Since(start)

		if err == nil {
			continue
		}

		logger.WithField("sink", s.Name()).WithError(err).Error("Sink write failed")

		if w.policy == AllOrNothing {
			w.revert(ctx, v, report.Outcomes[:i])
			return report
		}
	}

	return report
}

// revert undoes written sinks in reverse order
func (w *Writer[T]) revert(ctx context.Context, v T, written []Outcome) {
	for i := len(written) - 1; i >= 0; i-- {
		r, ok := w.sinks[i].(Reverter[T])
		if !ok {
			continue
		}
		out := &written[i]
		err := r.Revert(ctx, v)
		if errors.Is(err, ErrNotRevertible) {
			continue
		}
		if err != nil {
			out.RevertErr = err
			logging.FromContext(ctx).WithField("sink", out.Sink).WithError(err).Error("Sink revert failed")
			continue
		}
		out.Reverted = true
	}
}

// Func adapts a function to a Sink
type Func[T any] struct {
	SinkName string
	WriteFn  func(ctx context.Context, v T) error
	RevertFn func(ctx context.Context, v T) error
}

// Name implements Sink
func (f Func[T]) Name() string { return f.SinkName }

// Write implements Sink
func (f Func[T]) Write(ctx context.Context, v T) error { return f.WriteFn(ctx, v) }

// Revert implements Reverter. A Func without RevertFn returns ErrNotRevertible.
func (f Func[T]) Revert(ctx context.Context, v T) error {
	if f.RevertFn == nil {
		return ErrNotRevertible
	}
	return f.RevertFn(ctx, v)
}
