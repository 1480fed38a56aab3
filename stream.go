package clipstream

import (
	"context"
	"sync"
)

// Stream delivers clipboard results to one subscriber. Each stream owns a
// bounded queue filled by the observer thread; consuming is independent of
// every other stream.
type Stream struct {
	id    streamID
	ch    chan Result
	owner *bodySenders
	once  sync.Once
}

// Next blocks until the next clipboard result, the context is done, or the
// stream terminates. Per-cycle failures published by the observer come back
// as err with a nil body; ErrStreamClosed reports termination.
func (s *Stream) Next(ctx context.Context) (*Body, error) {
	select {
	case r, ok := <-s.ch:
		if !ok {
			return nil, ErrStreamClosed
		}
		return r.Body, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// C exposes the stream's receive channel for select-based consumers. The
// channel closes when the stream or its listener is closed; buffered items
// remain readable until then.
func (s *Stream) C() <-chan Result { return s.ch }

// Close detaches the stream from its listener and discards anything still
// buffered. Further Next calls return ErrStreamClosed. Close is idempotent;
// a closed stream cannot be reattached, subscribe again for a fresh one.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.owner.unregister(s.id)
		for range s.ch {
		}
	})
}
