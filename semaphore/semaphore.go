package semaphore

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Semaphore limits the number of stream executors that run concurrently.
//
// The zero-value imposes no limit.
type Semaphore struct {
	n   int
	sem *semaphore.Weighted
}

// New returns a semaphore that allows n executors to run concurrently.
//
// If n is non-positive the semaphore imposes no limit.
func New(n int) Semaphore {
	if n <= 0 {
		return Semaphore{}
	}

	return Semaphore{
		n,
		semaphore.NewWeighted(int64(n)),
	}
}

// Limit returns the number of executors that can run concurrently.
//
// It returns 0 if there is no limit.
func (s Semaphore) Limit() int {
	if s.sem == nil {
		return 0
	}

	return s.n
}

// Acquire blocks until it is ok for the caller to start an executor, or until
// ctx is canceled.
//
// On success it returns a function that must be called exactly once when the
// executor returns.
func (s Semaphore) Acquire(ctx context.Context) (release func(), err error) {
	if s.sem == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return func() {}, nil
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	return func() { s.sem.Release(1) }, nil
}
