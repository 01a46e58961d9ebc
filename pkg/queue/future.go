package queue

import (
	"context"
)

// future is a single-assignment result placeholder. It is installed in a cache
// before the creation call runs so that concurrent callers for the same key
// converge on one result.
type future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *future[T] {
	return &future[T]{
		done: make(chan struct{}),
	}
}

// resolve must be called exactly once.
func (f *future[T]) resolve(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// await blocks until the future is resolved or ctx ends. Giving up on ctx does
// not cancel the pending creation.
func (f *future[T]) await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T

		return zero, ctx.Err()
	}
}

// peek returns the resolved value without blocking.
func (f *future[T]) peek() (T, bool) {
	select {
	case <-f.done:
		if f.err != nil {
			var zero T

			return zero, false
		}

		return f.value, true
	default:
		var zero T

		return zero, false
	}
}
