package sharedstream

// DefaultManager is a process-wide manager for callers that do not need to
// manage their own instance.
//
// Library code should accept a *Manager explicitly rather than rely on
// DefaultManager.
var DefaultManager = &Manager[any]{}

// Subscribe calls DefaultManager.Subscribe().
func Subscribe(
	key string,
	s Subscriber[any],
	x Executor[any],
	c Canceler,
) *Handle[any] {
	return DefaultManager.Subscribe(key, s, x, c)
}

// CloseAllStreams calls DefaultManager.CloseAllStreams().
func CloseAllStreams() {
	DefaultManager.CloseAllStreams()
}
