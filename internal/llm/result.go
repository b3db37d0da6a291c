package llm

import "fmt"

// Result is either a genuine value (Ok) or a substituted default together
// with the reason the real value could not be produced (Fallback).
type Result[T any] struct {
	Value    T
	Degraded bool
	Reason   error
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func Fallback[T any](v T, reason error) Result[T] {
	if reason == nil {
		reason = fmt.Errorf("unspecified failure")
	}
	return Result[T]{Value: v, Degraded: true, Reason: reason}
}

func (r Result[T]) IsFallback() bool { return r.Degraded }

// Unwrap returns the value and, for a fallback, the reason.
func (r Result[T]) Unwrap() (T, error) {
	if r.Degraded {
		return r.Value, r.Reason
	}
	return r.Value, nil
}

func (r Result[T]) String() string {
	if r.Degraded {
		return fmt.Sprintf("fallback(%v)", r.Reason)
	}
	return "ok"
}
