package sharedstream

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/sharedstream/internal/streamlog"
	"github.com/dogmatiq/sharedstream/internal/x/loggingx"
	"github.com/dogmatiq/sharedstream/semaphore"
	"github.com/google/uuid"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ErrStreamClosed is returned by Handle.Wait() when the stream was closed via
// Manager.CloseStream(), Manager.CloseAllStreams() or Handle.Disconnect()
// before its executor returned.
var ErrStreamClosed = errors.New("stream closed")

// Manager shares executions of event-producing operations between
// subscribers, keyed by a string.
//
// The zero-value is ready to use. A manager must not be copied after first
// use.
type Manager[E any] struct {
	// Logger is the target for log messages from the manager.
	// If it is nil, logging.DefaultLogger is used.
	Logger logging.Logger

	// Semaphore limits the number of executors that run concurrently across
	// all keys. The zero-value imposes no limit.
	Semaphore semaphore.Semaphore

	// CancelTimeout is the maximum time allowed for a Canceler to return.
	// If it is non-positive, DefaultCancelTimeout is used.
	CancelTimeout time.Duration

	m        sync.Mutex
	nextID   uint64
	entries  map[string]*entry[E]
	draining map[string]*entry[E] // removed entries with a running executor
}

// Subscribe attaches s to the stream identified by key.
//
// If the stream is already running, s immediately receives OnStart (if the
// executor has signaled the start of the stream) followed by every event
// emitted so far, before Subscribe() returns. x is not called.
//
// Otherwise a new stream is created and x is started on its own goroutine.
//
// c is an optional canceler invoked by Handle.Cancel().
//
// It panics if key is empty or x is nil.
func (m *Manager[E]) Subscribe(
	key string,
	s Subscriber[E],
	x Executor[E],
	c Canceler,
) *Handle[E] {
	if key == "" {
		panic("stream key must not be empty")
	}

	if x == nil {
		panic("executor must not be nil")
	}

	m.m.Lock()
	m.init()

	e, exists := m.entries[key]
	if !exists {
		e = m.newEntry(key)
	}

	m.nextID++
	sub := &subscription[E]{
		id:       m.nextID,
		entry:    e,
		hooks:    s,
		canceler: c,
	}
	e.subscribers[sub.id] = sub

	// Acquire the delivery lock before the manager lock is released so that
	// the replay below happens-before any event delivered by the executor.
	sub.deliver.Lock()
	started := e.started
	replay := slices.Clone(e.events)

	if !exists {
		go m.run(e, x)
	}

	m.m.Unlock()

	if started && !sub.detached.Load() {
		m.call(sub, "OnStart", func() {
			if sub.hooks.OnStart != nil {
				sub.hooks.OnStart()
			}
		})
	}

	for _, ev := range replay {
		if sub.detached.Load() {
			break
		}

		m.call(sub, "OnData", func() {
			if sub.hooks.OnData != nil {
				sub.hooks.OnData(ev)
			}
		})
	}

	m.unlock(sub)

	streamlog.LogJoin(m.Logger, e.key, e.id, sub.id, len(replay))

	return &Handle[E]{m, sub}
}

// StreamEvents returns the events emitted so far by the stream identified by
// key.
//
// It returns an empty slice if the stream is not active.
func (m *Manager[E]) StreamEvents(key string) []E {
	m.m.Lock()
	defer m.m.Unlock()

	if e, ok := m.entries[key]; ok {
		return slices.Clone(e.events)
	}

	return []E{}
}

// IsStreamActive returns true if there is a stream with the given key.
func (m *Manager[E]) IsStreamActive(key string) bool {
	m.m.Lock()
	defer m.m.Unlock()

	_, ok := m.entries[key]
	return ok
}

// SubscriberCount returns the number of subscribers attached to the stream
// identified by key.
//
// It returns 0 if the stream is not active.
func (m *Manager[E]) SubscriberCount(key string) int {
	m.m.Lock()
	defer m.m.Unlock()

	if e, ok := m.entries[key]; ok {
		return len(e.subscribers)
	}

	return 0
}

// ActiveKeys returns the keys of all active streams, in lexical order.
func (m *Manager[E]) ActiveKeys() []string {
	m.m.Lock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	m.m.Unlock()

	slices.Sort(keys)
	return keys
}

// CloseStream forcibly removes the stream identified by key.
//
// The executor's context is canceled and all subscribers are detached without
// any further calls to their hooks. Their handles' Wait() method returns
// ErrStreamClosed.
func (m *Manager[E]) CloseStream(key string) {
	m.m.Lock()
	e, ok := m.entries[key]
	m.m.Unlock()

	if ok {
		m.closeEntry(e, "stream closed")
	}
}

// CloseAllStreams calls CloseStream() for every active stream.
func (m *Manager[E]) CloseAllStreams() {
	for _, k := range m.ActiveKeys() {
		m.CloseStream(k)
	}
}

// Shutdown closes all streams, then waits for every executor to return.
//
// It returns an error describing each executor that had not returned by the
// time ctx was canceled.
func (m *Manager[E]) Shutdown(ctx context.Context) error {
	m.CloseAllStreams()

	m.m.Lock()
	running := make([]*entry[E], 0, len(m.draining))
	for _, e := range m.draining {
		running = append(running, e)
	}
	m.m.Unlock()

	var (
		g   errgroup.Group
		mu  sync.Mutex
		err error
	)

	for _, e := range running {
		e := e // capture loop variable
		g.Go(func() error {
			select {
			case <-e.done:
			case <-ctx.Done():
				mu.Lock()
				err = multierr.Append(
					err,
					fmt.Errorf("executor for stream '%s' did not return: %w", e.key, ctx.Err()),
				)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait() // errors are collected in err
	return err
}

// newEntry returns a new entry for the given key and adds it to m.entries.
//
// It must be called while m.m is held.
func (m *Manager[E]) newEntry(key string) *entry[E] {
	ctx, cancel := context.WithCancel(context.Background())

	e := &entry[E]{
		key:         key,
		id:          uuid.NewString(),
		ctx:         ctx,
		cancel:      cancel,
		prev:        m.draining[key],
		done:        make(chan struct{}),
		subscribers: map[uint64]*subscription[E]{},
	}

	m.entries[key] = e

	return e
}

// remove removes e from m.entries and cancels its executor.
//
// It must be called while m.m is held.
func (m *Manager[E]) remove(e *entry[E]) {
	e.closed = true
	e.cancel()
	e.events = nil
	e.subscribers = map[uint64]*subscription[E]{}

	if m.entries[e.key] == e {
		delete(m.entries, e.key)
	}

	if !e.exited {
		m.draining[e.key] = e
	}
}

// run executes x for e, then delivers the result to e's subscribers.
func (m *Manager[E]) run(e *entry[E], x Executor[E]) {
	defer close(e.done)

	// The previous execution for the same key must exit first, even if this
	// entry has already been removed, so that done channels form a chain.
	if e.prev != nil {
		<-e.prev.done
	}

	events, err := m.execute(e, x)
	m.settle(e, events, err)

	m.m.Lock()
	e.exited = true
	if m.draining[e.key] == e {
		delete(m.draining, e.key)
	}
	m.m.Unlock()
}

// execute calls x once the semaphore allows it.
func (m *Manager[E]) execute(e *entry[E], x Executor[E]) (events []E, err error) {
	release, err := m.Semaphore.Acquire(e.ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("executor panicked: %v", v)
		}
	}()

	streamlog.LogStart(m.Logger, e.key, e.id)

	return x(
		e.ctx,
		&Emitter[E]{
			manager: m,
			entry:   e,
			logger: loggingx.WithPrefix(
				m.Logger,
				"[%s %s] ",
				e.key,
				streamlog.FormatID(e.id),
			),
		},
	)
}

// start delivers the start signal to e's subscribers.
func (m *Manager[E]) start(e *entry[E]) {
	e.emit.Lock()
	defer e.emit.Unlock()

	m.m.Lock()
	if e.closed || e.started {
		m.m.Unlock()
		return
	}
	e.started = true
	subs := e.snapshot()
	m.m.Unlock()

	for _, s := range subs {
		m.deliverStart(s)
	}
}

// data records ev and delivers it to e's subscribers.
func (m *Manager[E]) data(e *entry[E], ev E) {
	e.emit.Lock()
	defer e.emit.Unlock()

	m.m.Lock()
	if e.closed {
		m.m.Unlock()
		return
	}
	implicitStart := !e.started
	e.started = true
	e.events = append(e.events, ev)
	subs := e.snapshot()
	m.m.Unlock()

	for _, s := range subs {
		if implicitStart {
			m.deliverStart(s)
		}

		m.deliver(s, "OnData", func() {
			if s.hooks.OnData != nil {
				s.hooks.OnData(ev)
			}
		})
	}
}

// settle delivers the result of the executor to e's subscribers and removes
// e.
//
// If e has already been removed, the subscribers' handles have already been
// resolved and there is nobody left to notify.
func (m *Manager[E]) settle(e *entry[E], events []E, err error) {
	e.emit.Lock()
	defer e.emit.Unlock()

	m.m.Lock()
	if e.closed {
		m.m.Unlock()
		streamlog.LogTeardown(m.Logger, e.key, e.id, "executor returned after stream was removed")
		return
	}

	if events == nil && err == nil {
		events = e.events
	}

	subs := e.snapshot()
	m.remove(e)
	m.m.Unlock()

	streamlog.LogSettle(m.Logger, e.key, e.id, len(events), err)

	for _, s := range subs {
		result := slices.Clone(events)

		if err != nil {
			m.deliver(s, "OnError", func() {
				if s.hooks.OnError != nil {
					s.hooks.OnError(err)
				}
			})
		} else {
			m.deliver(s, "OnSuccess", func() {
				if s.hooks.OnSuccess != nil {
					s.hooks.OnSuccess(result)
				}
			})
		}

		if s.detach() {
			m.complete(s, result, err)
		}
	}
}

// closeEntry removes e, detaching its subscribers without calling their hooks.
func (m *Manager[E]) closeEntry(e *entry[E], why string) {
	m.m.Lock()
	if e.closed {
		m.m.Unlock()
		return
	}
	subs := e.snapshot()
	m.remove(e)
	m.m.Unlock()

	for _, s := range subs {
		if s.detach() {
			s.result.Resolve(nil, ErrStreamClosed)
		}
	}

	streamlog.LogTeardown(m.Logger, e.key, e.id, why)
}

// unsubscribe detaches s from its stream. The stream is removed if no
// subscribers remain.
//
// It returns false if s was already detached. Otherwise the caller is
// responsible for settling s.result.
func (m *Manager[E]) unsubscribe(s *subscription[E], why string) bool {
	if !s.detach() {
		return false
	}

	e := s.entry

	m.m.Lock()
	delete(e.subscribers, s.id)
	remaining := len(e.subscribers)
	teardown := !e.closed && remaining == 0
	if teardown {
		m.remove(e)
	}
	m.m.Unlock()

	streamlog.LogLeave(m.Logger, e.key, e.id, s.id, why, remaining)
	if teardown {
		streamlog.LogTeardown(m.Logger, e.key, e.id, "no subscribers remaining")
	}

	return true
}

// deliverStart calls s.OnStart.
func (m *Manager[E]) deliverStart(s *subscription[E]) {
	m.deliver(s, "OnStart", func() {
		if s.hooks.OnStart != nil {
			s.hooks.OnStart()
		}
	})
}

// deliver calls fn, which invokes one of s's hooks, unless s is detached.
func (m *Manager[E]) deliver(s *subscription[E], hook string, fn func()) {
	s.deliver.Lock()
	defer m.unlock(s)

	if !s.detached.Load() {
		m.call(s, hook, fn)
	}
}

// complete arranges for s.OnComplete to be called exactly once, after which
// s.result is settled with the given events and error.
//
// If another call is currently being delivered to s, possibly on this same
// goroutine, OnComplete is called when that delivery finishes.
func (m *Manager[E]) complete(s *subscription[E], events []E, err error) {
	if !s.completed.CompareAndSwap(false, true) {
		return
	}

	s.outcome = outcome[E]{events, err}
	s.pending.Store(true)

	if s.deliver.TryLock() {
		m.unlock(s)
	}
}

// unlock releases s.deliver, first calling OnComplete if it is pending.
func (m *Manager[E]) unlock(s *subscription[E]) {
	for {
		if s.pending.CompareAndSwap(true, false) {
			m.call(s, "OnComplete", func() {
				if s.hooks.OnComplete != nil {
					s.hooks.OnComplete()
				}
			})

			s.result.Resolve(s.outcome.events, s.outcome.err)
		}

		s.deliver.Unlock()

		// complete() may have been called after the check above but before
		// the unlock, in which case its TryLock() failed and it is up to us.
		if !s.pending.Load() || !s.deliver.TryLock() {
			return
		}
	}
}

// call invokes fn, recovering from and logging any panic.
func (m *Manager[E]) call(s *subscription[E], hook string, fn func()) {
	defer func() {
		if v := recover(); v != nil {
			streamlog.LogPanic(m.Logger, s.entry.key, s.entry.id, s.id, hook, v)
		}
	}()

	fn()
}

func (m *Manager[E]) init() {
	if m.entries == nil {
		m.entries = map[string]*entry[E]{}
		m.draining = map[string]*entry[E]{}
	}
}
