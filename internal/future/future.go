package future

import (
	"context"
	"sync"
	"sync/atomic"
)

// Future is a value of type T (or an error) that becomes available at some
// point in the future.
//
// The zero-value is an unresolved future.
type Future[T any] struct {
	done     uint32     // atomic bool, fast path, protects value and err
	m        sync.Mutex // slow path, protects value, err and resolved channel
	value    T
	err      error
	resolved chan struct{}
}

// Await blocks until the future is resolved, then returns the value and error
// it was resolved with.
//
// It returns ctx.Err() if ctx is canceled before the future is resolved.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	if atomic.LoadUint32(&f.done) == 1 {
		return f.value, f.err
	}

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-f.Done():
		return f.value, f.err
	}
}

// Done returns a channel that is closed when the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	f.m.Lock()
	defer f.m.Unlock()

	if f.resolved == nil {
		f.resolved = make(chan struct{})

		// The future was resolved before anyone asked for the channel, so
		// there is nobody left to close it.
		if f.done == 1 {
			close(f.resolved)
		}
	}

	return f.resolved
}

// IsResolved returns true if the future has been resolved.
func (f *Future[T]) IsResolved() bool {
	return atomic.LoadUint32(&f.done) == 1
}

// Resolve wakes any blocked calls to Await() and causes them to return v and
// err.
//
// Only the first call has any effect. It returns false if the future was
// already resolved.
func (f *Future[T]) Resolve(v T, err error) bool {
	f.m.Lock()
	defer f.m.Unlock()

	if f.done == 1 {
		return false
	}

	f.value = v
	f.err = err
	atomic.StoreUint32(&f.done, 1)

	if f.resolved != nil {
		close(f.resolved)
	}

	return true
}
