package sharedstream

import (
	"sync"
	"sync/atomic"

	"github.com/dogmatiq/sharedstream/internal/future"
)

// Subscriber is a set of optional hooks invoked as a shared stream makes
// progress.
//
// A subscriber observes OnStart, then zero or more calls to OnData in the
// order the events were emitted, then exactly one of OnSuccess or OnError,
// then OnComplete. Hooks for a single subscriber are never called
// concurrently. Hooks may call back into the manager, including subscribing
// to the same key.
//
// A panic within a hook is recovered and logged. It does not affect delivery
// to other subscribers.
type Subscriber[E any] struct {
	// OnStart is called once the executor signals that the stream has
	// started. Subscribers that join a stream that has already started have
	// OnStart called immediately. Subscribers that join before the start
	// signal receive OnStart together with every other subscriber, when the
	// executor signals it.
	OnStart func()

	// OnData is called for each event emitted by the executor. Subscribers
	// that join late receive all previously emitted events first.
	OnData func(E)

	// OnError is called if the executor fails.
	OnError func(error)

	// OnSuccess is called with the complete list of events if the executor
	// succeeds.
	OnSuccess func([]E)

	// OnComplete is called once after OnSuccess or OnError, or when the
	// subscription is canceled via Handle.Cancel().
	OnComplete func()
}

// subscription is a subscriber attached to a specific stream entry.
type subscription[E any] struct {
	id       uint64
	entry    *entry[E]
	hooks    Subscriber[E]
	canceler Canceler

	// deliver serializes calls to the subscriber's hooks. It must always be
	// released via Manager.unlock().
	deliver sync.Mutex

	detached  atomic.Bool // no more hooks are called once set
	canceled  atomic.Bool // Cancel() has been called
	completed atomic.Bool // OnComplete has been requested
	pending   atomic.Bool // OnComplete is requested but not yet called

	// outcome is the result that settles the handle once OnComplete has been
	// called. It is written before pending is set.
	outcome outcome[E]
	result  future.Future[[]E]
}

// outcome is the result of a subscription.
type outcome[E any] struct {
	events []E
	err    error
}

// detach marks the subscription as detached.
//
// It returns false if it was already detached.
func (s *subscription[E]) detach() bool {
	return s.detached.CompareAndSwap(false, true)
}
