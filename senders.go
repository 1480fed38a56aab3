package clipstream

import (
	"sync"

	"go.uber.org/zap"
)

// Result is one delivery to a subscriber: a clipboard body, or the error
// that cycle produced instead.
type Result struct {
	Body *Body
	Err  error
}

type streamID uint64

// bodySenders fans published results out to every registered stream queue.
// A single mutex guards the registry; ids grow monotonically and are never
// reused within a process.
type bodySenders struct {
	log *zap.Logger

	mu     sync.Mutex
	nextID streamID
	queues map[streamID]chan Result
	closed bool
}

func newBodySenders(log *zap.Logger) *bodySenders {
	return &bodySenders{log: log, queues: make(map[streamID]chan Result)}
}

// register creates a bounded queue and adds it to the registry. The buffer
// is clamped to at least one slot. After closeAll, register hands back an
// already-closed queue so late subscribers terminate instead of hanging.
func (b *bodySenders) register(buffer int) (streamID, chan Result) {
	if buffer < 1 {
		buffer = 1
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Result, buffer)
	if b.closed {
		close(ch)
		return id, ch
	}
	b.queues[id] = ch
	return id, ch
}

// unregister removes one queue and closes it. Removal and close happen under
// the same lock sendAll holds, so the publisher can never send on a closed
// channel.
func (b *bodySenders) unregister(id streamID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.queues[id]
	if !ok {
		return
	}
	delete(b.queues, id)
	close(ch)
}

// sendAll delivers r to every registered queue without blocking: when a
// queue is full the result is dropped for that subscriber and a diagnostic
// is recorded. Slow consumers lose updates; they never stall the observer
// thread.
func (b *bodySenders) sendAll(r Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, ch := range b.queues {
		select {
		case ch <- r:
		default:
			b.log.Warn("subscriber queue full, dropping clipboard update",
				zap.Uint64("stream", uint64(id)))
		}
	}
}

// closeAll terminates every registered queue. Only call after the observer
// thread has stopped publishing.
func (b *bodySenders) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.queues {
		delete(b.queues, id)
		close(ch)
	}
}

func (b *bodySenders) publishBody(body *Body) { b.sendAll(Result{Body: body}) }

func (b *bodySenders) publishErr(err error) { b.sendAll(Result{Err: err}) }
