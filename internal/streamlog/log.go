package streamlog

import (
	"fmt"

	"github.com/dogmatiq/dodeca/logging"
)

// LogStart logs a debug message indicating that the executor for a stream is
// being started.
func LogStart(log logging.Logger, key, id string) {
	if !logging.IsDebug(log) {
		return
	}

	logging.DebugString(
		log,
		Line{
			Key:      key,
			StreamID: id,
			Primary:  StartIcon,
			Text:     []string{"executor started"},
		}.String(),
	)
}

// LogJoin logs a debug message indicating that a subscriber has attached to
// a stream.
//
// n is the number of buffered events that were replayed to the subscriber.
func LogJoin(log logging.Logger, key, id string, sub uint64, n int) {
	if !logging.IsDebug(log) {
		return
	}

	icon := Icon("")
	text := "subscriber attached"
	if n > 0 {
		icon = ReplayIcon
		text = fmt.Sprintf("subscriber attached, replayed %d event(s)", n)
	}

	logging.DebugString(
		log,
		Line{
			Key:        key,
			StreamID:   id,
			Subscriber: sub,
			Primary:    JoinIcon,
			Secondary:  icon,
			Text:       []string{text},
		}.String(),
	)
}

// LogLeave logs a debug message indicating that a subscriber has detached
// from a stream.
//
// remaining is the number of subscribers still attached.
func LogLeave(log logging.Logger, key, id string, sub uint64, why string, remaining int) {
	if !logging.IsDebug(log) {
		return
	}

	logging.DebugString(
		log,
		Line{
			Key:        key,
			StreamID:   id,
			Subscriber: sub,
			Primary:    LeaveIcon,
			Text: []string{
				why,
				fmt.Sprintf("%d subscriber(s) remaining", remaining),
			},
		}.String(),
	)
}

// LogSettle logs a message indicating that the executor for a stream has
// returned.
//
// Failures are always logged, success is only logged in debug mode.
func LogSettle(log logging.Logger, key, id string, n int, err error) {
	if err != nil {
		logging.LogString(
			log,
			Line{
				Key:       key,
				StreamID:  id,
				Primary:   StopIcon,
				Secondary: ErrorIcon,
				Text:      []string{"executor failed", err.Error()},
			}.String(),
		)
		return
	}

	if !logging.IsDebug(log) {
		return
	}

	logging.DebugString(
		log,
		Line{
			Key:      key,
			StreamID: id,
			Primary:  StopIcon,
			Text:     []string{fmt.Sprintf("executor succeeded with %d event(s)", n)},
		}.String(),
	)
}

// LogTeardown logs a debug message indicating that a stream has been removed
// before its executor returned.
func LogTeardown(log logging.Logger, key, id string, why string) {
	if !logging.IsDebug(log) {
		return
	}

	logging.DebugString(
		log,
		Line{
			Key:      key,
			StreamID: id,
			Primary:  StopIcon,
			Text:     []string{why},
		}.String(),
	)
}

// LogPanic logs a message indicating that a subscriber's callback panicked.
func LogPanic(log logging.Logger, key, id string, sub uint64, hook string, v interface{}) {
	logging.LogString(
		log,
		Line{
			Key:        key,
			StreamID:   id,
			Subscriber: sub,
			Primary:    ErrorIcon,
			Text:       []string{hook + " panicked", fmt.Sprint(v)},
		}.String(),
	)
}

// LogCancelerError logs a message indicating that a canceler returned an
// error.
func LogCancelerError(log logging.Logger, key, id string, sub uint64, err error) {
	logging.LogString(
		log,
		Line{
			Key:        key,
			StreamID:   id,
			Subscriber: sub,
			Primary:    LeaveIcon,
			Secondary:  ErrorIcon,
			Text:       []string{"canceler failed", err.Error()},
		}.String(),
	)
}
