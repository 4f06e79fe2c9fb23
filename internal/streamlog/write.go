package streamlog

import (
	"io"
	"strings"

	"github.com/dogmatiq/iago/must"
)

// Line is a log message about a single execution of a stream.
type Line struct {
	// Key is the key of the stream.
	Key string

	// StreamID is the ID of the stream execution. It is formatted using
	// FormatID().
	StreamID string

	// Subscriber is the ID of the subscriber that the message is about, if
	// any. Subscriber IDs start at 1, zero means the message is about the
	// stream as a whole.
	Subscriber uint64

	// Primary and Secondary describe the event being logged. A zero-value icon
	// is rendered as a space so that the text of consecutive lines is aligned.
	Primary, Secondary Icon

	// Text is the human-readable part of the message. Empty strings are
	// skipped, the rest are joined by SeparatorIcon.
	Text []string
}

// String returns the log line as a string.
func (l Line) String() string {
	w := &strings.Builder{}
	l.mustWriteTo(w)
	return w.String()
}

// WriteTo writes the log line to w.
func (l Line) WriteTo(w io.Writer) (n int64, err error) {
	defer must.Recover(&err)
	n = int64(l.mustWriteTo(w))
	return
}

// labels returns the identifying icons for the line.
func (l Line) labels() []IconWithLabel {
	labels := []IconWithLabel{
		KeyIcon.WithLabel("%s", l.Key),
		StreamIDIcon.WithID(l.StreamID),
	}

	if l.Subscriber != 0 {
		labels = append(labels, SubscriberIcon.WithLabel("%d", l.Subscriber))
	}

	return labels
}

func (l Line) mustWriteTo(w io.Writer) (n int) {
	for _, v := range l.labels() {
		n += must.WriteTo(w, v)
		n += must.Write(w, space2)
	}

	n += must.WriteTo(w, l.Primary)
	n += must.Write(w, space1)
	n += must.WriteTo(w, l.Secondary)
	n += must.Write(w, space1)

	i := 0
	for _, v := range l.Text {
		if v == "" {
			continue
		}

		n += must.Write(w, space1)

		if i > 0 {
			n += must.WriteTo(w, SeparatorIcon)
			n += must.Write(w, space1)
		}

		n += must.WriteString(w, v)
		i++
	}

	return
}

var (
	space1 = []byte{' '}
	space2 = []byte{' ', ' '}
)
