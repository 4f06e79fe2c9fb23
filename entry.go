package sharedstream

import (
	"context"
	"sync"
)

// entry is a single execution of a shared stream.
type entry[E any] struct {
	key    string
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	// prev is the previous execution of the same key, if it was torn down
	// before its executor returned. This entry's executor is not started until
	// prev.done is closed.
	prev *entry[E]

	// done is closed when the executor goroutine has exited.
	done chan struct{}

	// emit serializes fan-out so that all subscribers observe the same order.
	emit sync.Mutex

	// The remaining fields are protected by Manager.m.
	events      []E
	subscribers map[uint64]*subscription[E]
	started     bool // the start signal has been delivered
	closed      bool // the entry has been removed, no more events are delivered
	exited      bool // the executor goroutine has exited
}

// snapshot returns the currently attached subscribers.
//
// It must be called while Manager.m is held.
func (e *entry[E]) snapshot() []*subscription[E] {
	subs := make([]*subscription[E], 0, len(e.subscribers))
	for _, s := range e.subscribers {
		subs = append(subs, s)
	}
	return subs
}
