package sharedstream

import (
	"time"

	"github.com/dogmatiq/dodeca/logging"
	"github.com/dogmatiq/sharedstream/semaphore"
)

var (
	// DefaultCancelTimeout is the default maximum time allowed for a Canceler
	// to return.
	//
	// It is overridden by the WithCancelTimeout() option.
	DefaultCancelTimeout = 10 * time.Second

	// DefaultLogger is the default target for log messages produced by the
	// manager.
	//
	// It is overridden by the WithLogger() option.
	DefaultLogger = logging.DefaultLogger
)

// Option configures the behavior of a manager created by New().
type Option func(*managerOptions)

// WithLogger returns an option that sets the target for log messages
// produced by the manager.
//
// If this option is omitted or l is nil, DefaultLogger is used.
func WithLogger(l logging.Logger) Option {
	return func(opts *managerOptions) {
		opts.Logger = l
	}
}

// WithConcurrencyLimit returns an option that limits the number of executors
// that run at the same time, across all keys.
//
// If this option is omitted or n is zero there is no limit.
func WithConcurrencyLimit(n uint) Option {
	return func(opts *managerOptions) {
		opts.ConcurrencyLimit = n
	}
}

// WithCancelTimeout returns an option that sets the maximum time allowed for
// a Canceler to return.
//
// If this option is omitted or d is zero DefaultCancelTimeout is used.
func WithCancelTimeout(d time.Duration) Option {
	if d < 0 {
		panic("duration must not be negative")
	}

	return func(opts *managerOptions) {
		opts.CancelTimeout = d
	}
}

// New returns a new manager configured with the given options.
func New[E any](options ...Option) *Manager[E] {
	opts := resolveOptions(options)

	return &Manager[E]{
		Logger:        opts.Logger,
		Semaphore:     semaphore.New(int(opts.ConcurrencyLimit)),
		CancelTimeout: opts.CancelTimeout,
	}
}

// managerOptions is a container for a fully-resolved set of manager options.
type managerOptions struct {
	Logger           logging.Logger
	ConcurrencyLimit uint
	CancelTimeout    time.Duration
}

// resolveOptions returns a fully-populated set of options built from the
// given set of option functions.
func resolveOptions(options []Option) *managerOptions {
	opts := &managerOptions{}

	for _, o := range options {
		o(opts)
	}

	if opts.Logger == nil {
		opts.Logger = DefaultLogger
	}

	if opts.CancelTimeout == 0 {
		opts.CancelTimeout = DefaultCancelTimeout
	}

	return opts
}
