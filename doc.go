// Package clipstream watches the operating system clipboard and delivers
// every change as a typed Body to any number of concurrent subscribers.
//
// A Listener runs one dedicated OS thread against the native clipboard
// subsystem (X11 selections via XFixes ownership events, the Win32
// clipboard sequence number, the NSPasteboard change count) and reduces
// each change to the single highest-priority representation:
// caller-registered custom formats first, then PNG, raw DIB/TIFF images
// (normalized to 8-bit RGB), file lists, HTML and plain text.
//
//	l, err := clipstream.Listen(clipstream.Options{})
//	if err != nil {
//		// clipboard subsystem unavailable
//	}
//	defer l.Close()
//
//	st := l.NewStream(16)
//	defer st.Close()
//	for {
//		body, err := st.Next(ctx)
//		if errors.Is(err, clipstream.ErrStreamClosed) {
//			break
//		}
//		...
//	}
//
// Subscribers never slow the observer down: each stream owns a bounded
// queue and results are dropped, not buffered, when it is full. An optional
// Gatekeeper predicate can veto changes (for example ones carrying the
// Windows clipboard privacy markers) before any content is read.
package clipstream
