package service

import (
	"time"

	"github.com/openvitals/healthstore/pkg/types"
)

// Future carries the result of one submitted operation, resolved exactly
// once with either a value or a typed error.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// run executes fn off the caller's goroutine and returns its future.
func run[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		f.val, f.err = fn()
		close(f.done)
	}()
	return f
}

// Get blocks until the operation completes.
func (f *Future[T]) Get() (T, error) {
	<-f.done
	return f.val, f.err
}

// Wait blocks up to d. On timeout only the wait is abandoned with
// ErrWaitTimeout; the underlying transaction still runs to completion or
// rollback on its own.
func (f *Future[T]) Wait(d time.Duration) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-time.After(d):
		var zero T
		return zero, types.ErrWaitTimeout
	}
}
