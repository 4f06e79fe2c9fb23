package sharedstream

import (
	"context"

	"github.com/dogmatiq/dodeca/logging"
)

// Executor is a function that produces the events for a shared stream.
//
// It is called at most once per stream, on its own goroutine. It reports
// progress via em and returns the complete, ordered list of events on
// success. If the returned slice is nil the events reported via em are used
// instead.
//
// ctx is canceled when the stream is no longer required, the executor should
// return promptly when this occurs.
type Executor[E any] func(ctx context.Context, em *Emitter[E]) ([]E, error)

// Canceler is a function that performs out-of-band cleanup when a stream is
// canceled via Handle.Cancel(), such as asking a remote peer to stop
// producing events.
type Canceler func(ctx context.Context) error

// Emitter is used by an Executor to report progress to the subscribers of a
// shared stream.
//
// It is safe to call its methods from multiple goroutines, however the order
// of events is only well-defined for calls made from a single goroutine.
type Emitter[E any] struct {
	manager *Manager[E]
	entry   *entry[E]
	logger  logging.Logger
}

// Start signals that the stream has started.
//
// It is called implicitly by the first call to Data() if the executor does not
// call it explicitly. Only the first call has any effect.
func (em *Emitter[E]) Start() {
	em.manager.start(em.entry)
}

// Data records ev in the stream's history and delivers it to all attached
// subscribers.
//
// It has no effect once the stream has been torn down.
func (em *Emitter[E]) Data(ev E) {
	em.manager.data(em.entry, ev)
}

// Key returns the key of the stream.
func (em *Emitter[E]) Key() string {
	return em.entry.key
}

// StreamID returns the unique identifier of this execution of the stream.
func (em *Emitter[E]) StreamID() string {
	return em.entry.id
}

// Logger returns a logger that identifies the stream in each message.
func (em *Emitter[E]) Logger() logging.Logger {
	return em.logger
}
