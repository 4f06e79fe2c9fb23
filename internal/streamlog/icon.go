package streamlog

import (
	"fmt"
	"io"

	"github.com/dogmatiq/iago/must"
)

const (
	// KeyIcon is the icon shown directly before a stream key. It is the
	// "key" symbol from the miscellaneous technical block.
	KeyIcon Icon = "⚿"

	// StreamIDIcon is the icon shown directly before a stream generation ID.
	// It is an "equals sign", indicating that this stream "has exactly" the
	// displayed ID.
	StreamIDIcon Icon = "="

	// SubscriberIcon is the icon shown directly before a subscriber ID. It is
	// the mathematical "member of set" symbol, indicating that the subscriber
	// belongs to the set of subscribers attached to the stream.
	SubscriberIcon Icon = "⋲"

	// StartIcon is the icon shown when an executor is started. It is a
	// right-pointing triangle, the universal "play" symbol.
	StartIcon Icon = "▶"

	// JoinIcon is the icon shown when a subscriber joins a stream that is
	// already running. It is a rightward arrow with a hook, suggesting that
	// the subscriber is "hooked on" to something already in motion.
	JoinIcon Icon = "↪"

	// ReplayIcon is shown alongside JoinIcon when buffered events are replayed
	// to the new subscriber.
	ReplayIcon Icon = "↻"

	// LeaveIcon is the icon shown when a subscriber detaches from a stream.
	LeaveIcon Icon = "↩"

	// StopIcon is the icon shown when a stream is torn down. It is a square,
	// the universal "stop" symbol.
	StopIcon Icon = "■"

	// ErrorIcon is the icon shown when logging information about an error.
	// It is a heavy cross, indicating a failure.
	ErrorIcon Icon = "✖"

	// SeparatorIcon is an icon used to separate strings of unrelated text inside a
	// log message. It is a large bullet, intended to have a large visual impact.
	SeparatorIcon Icon = "●"
)

// Icon is a unicode symbol used as an icon in log messages.
type Icon string

func (i Icon) String() string {
	return string(i)
}

// WriteTo writes a string representation of the icon to w.
// If i is the zero-value, a single space is rendered.
func (i Icon) WriteTo(w io.Writer) (int64, error) {
	s := i.String()
	if i == "" {
		s = " "
	}

	n, err := io.WriteString(w, s)
	return int64(n), err
}

// WithLabel return an IconWithLabel containing this icon and the given label.
func (i Icon) WithLabel(f string, v ...interface{}) IconWithLabel {
	return IconWithLabel{
		i,
		formatLabel(fmt.Sprintf(f, v...)),
	}
}

// WithID return an IconWithLabel containing this icon and an ID as its label.
//
// The id is formatted using FormatID().
func (i Icon) WithID(id string) IconWithLabel {
	return i.WithLabel("%s", FormatID(id))
}

// IconWithLabel is a container for an icon and its associated text label.
type IconWithLabel struct {
	Icon  Icon
	Label string
}

func (i IconWithLabel) String() string {
	return i.Icon.String() + " " + i.Label
}

// WriteTo writes a string representation of the icon and its label to w.
func (i IconWithLabel) WriteTo(w io.Writer) (_ int64, err error) {
	defer must.Recover(&err)

	n := must.WriteTo(w, i.Icon)
	n += must.Write(w, space1)
	n += must.WriteString(w, i.Label)

	return int64(n), err
}

// formatLabel formats a label for display.
func formatLabel(label string) string {
	if label == "" {
		return "-"
	}

	return label
}

// FormatID formats a stream ID for logging.
//
// If the ID appears to be a UUID, only the first 8 characters are shown.
// Otherwise, the ID is displayed in-full.
func FormatID(id string) string {
	if len(id) == 36 && id[8] == '-' {
		return id[:8]
	}

	return id
}
