package sharedstream

import (
	"context"
	"fmt"

	"github.com/dogmatiq/linger"
	"github.com/dogmatiq/sharedstream/internal/streamlog"
)

// Handle is a subscriber's view of a shared stream.
type Handle[E any] struct {
	manager *Manager[E]
	sub     *subscription[E]
}

// Key returns the key of the stream.
func (h *Handle[E]) Key() string {
	return h.sub.entry.key
}

// StreamID returns the unique identifier of the execution of the stream that
// this handle is attached to.
func (h *Handle[E]) StreamID() string {
	return h.sub.entry.id
}

// Wait blocks until the handle is settled, or ctx is canceled.
//
// Every handle attached to the same execution settles with the same result: the
// events and error returned by the executor.
//
// The handle does not settle until the subscriber's OnComplete hook, if it is
// called, has returned. Calling Wait() from within OnComplete blocks until ctx
// is canceled.
//
// If the handle is detached via Unsubscribe() or Cancel() before the executor
// returns, it settles with a nil slice and nil error. If the stream
// is closed before the executor returns, the error is ErrStreamClosed.
func (h *Handle[E]) Wait(ctx context.Context) ([]E, error) {
	return h.sub.result.Await(ctx)
}

// Done returns a channel that is closed when the handle is settled.
func (h *Handle[E]) Done() <-chan struct{} {
	return h.sub.result.Done()
}

// Unsubscribe detaches this subscriber from the stream without calling any of
// its hooks.
//
// If this was the last subscriber the executor's context is canceled and the
// stream is removed. It is a no-op if the handle is already settled.
func (h *Handle[E]) Unsubscribe() {
	if h.manager.unsubscribe(h.sub, "unsubscribed") {
		h.sub.result.Resolve(nil, nil)
	}
}

// Cancel invokes the canceler that was passed to Subscribe(), then detaches
// this subscriber from the stream and calls its OnComplete hook.
//
// If this was the last subscriber the executor's context is canceled and the
// stream is removed.
//
// The canceler is given at most Manager.CancelTimeout to return. Its error,
// if any, is logged and returned; the subscriber is detached regardless.
//
// The handle settles after OnComplete has returned. If Cancel() is called from
// within one of this subscriber's hooks, OnComplete is deferred until that hook
// returns, and so is the handle's settlement.
//
// Only the first call has any effect, and only if the handle has not already
// settled. Subsequent calls return nil.
func (h *Handle[E]) Cancel(ctx context.Context) error {
	s := h.sub
	m := h.manager

	if !s.canceled.CompareAndSwap(false, true) {
		return nil
	}

	if s.detached.Load() {
		return nil
	}

	var err error
	if s.canceler != nil {
		err = m.callCanceler(ctx, s)
	}

	if m.unsubscribe(s, "canceled") {
		m.complete(s, nil, nil)
	}

	return err
}

// Disconnect forcibly closes the stream this handle is attached to, detaching
// every subscriber. See Manager.CloseStream().
//
// It is a no-op if that execution of the stream has already been removed.
func (h *Handle[E]) Disconnect() {
	h.manager.closeEntry(h.sub.entry, "disconnected")
}

// callCanceler invokes s.canceler, recovering from any panic.
func (m *Manager[E]) callCanceler(ctx context.Context, s *subscription[E]) (err error) {
	ctx, cancel := linger.ContextWithTimeout(
		ctx,
		m.CancelTimeout,
		DefaultCancelTimeout,
	)
	defer cancel()

	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("canceler panicked: %v", v)
		}

		if err != nil {
			streamlog.LogCancelerError(m.Logger, s.entry.key, s.entry.id, s.id, err)
		}
	}()

	return s.canceler(ctx)
}
