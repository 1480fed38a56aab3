package clipstream

import (
	"errors"
	"fmt"
)

// ErrNoMatchingFormat is published when a clipboard change advertised
// formats, but none of them is supported or monitored.
var ErrNoMatchingFormat = errors.New("no matching clipboard format")

// ErrStreamClosed is returned by Stream.Next once the stream has terminated,
// either because it was closed or because its listener was.
var ErrStreamClosed = errors.New("clipboard stream closed")

// MonitorError is published exactly once when the change-notification
// mechanism itself breaks. The observer does not recover: after a
// MonitorError the stream carries no further items from that listener.
type MonitorError struct {
	Err error
}

func (e *MonitorError) Error() string {
	return fmt.Sprintf("clipboard monitoring failed: %v", e.Err)
}

func (e *MonitorError) Unwrap() error { return e.Err }

// ReadError reports that one format could not be transferred during a single
// change. The observer keeps running; later changes are unaffected.
type ReadError struct {
	Format string // format or tier name, when known
	Err    error
}

func (e *ReadError) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("reading clipboard format %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("reading clipboard: %v", e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Flow sentinels used by platform readers to classify a tier probe. They
// never escape to subscribers.
var (
	errFormatAbsent = errors.New("format not offered")
	errEmptyContent = errors.New("empty content")
	errSizeExceeded = errors.New("size limit exceeded")
)
