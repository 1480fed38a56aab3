package clipstream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	zapobserver "go.uber.org/zap/zaptest/observer"
)

func TestBodySenders_FanOut(t *testing.T) {
	b := newBodySenders(zap.NewNop())
	_, ch1 := b.register(4)
	_, ch2 := b.register(4)

	body := newTextBody("hello")
	b.publishBody(body)

	r1 := <-ch1
	r2 := <-ch2
	assert.Same(t, body, r1.Body)
	assert.Same(t, body, r2.Body)
}

func TestBodySenders_PublishErr(t *testing.T) {
	b := newBodySenders(zap.NewNop())
	_, ch := b.register(1)

	fail := errors.New("read failed")
	b.publishErr(fail)

	r := <-ch
	assert.Nil(t, r.Body)
	assert.ErrorIs(t, r.Err, fail)
}

func TestBodySenders_DropOnFull(t *testing.T) {
	core, logs := zapobserver.New(zapcore.WarnLevel)
	b := newBodySenders(zap.New(core))
	id, ch := b.register(1)

	b.publishBody(newTextBody("first"))
	b.publishBody(newTextBody("second"))

	r := <-ch
	assert.Equal(t, "first", r.Body.Text)
	select {
	case r := <-ch:
		t.Fatalf("expected second update to be dropped, got %v", r)
	default:
	}

	entries := logs.FilterMessage("subscriber queue full, dropping clipboard update").All()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(id), entries[0].ContextMap()["stream"])
}

func TestBodySenders_DropIsPerStream(t *testing.T) {
	b := newBodySenders(zap.NewNop())
	_, full := b.register(1)
	_, roomy := b.register(4)

	b.publishBody(newTextBody("first"))
	b.publishBody(newTextBody("second"))

	assert.Len(t, full, 1, "the full queue kept only the first update")
	assert.Len(t, roomy, 2, "a slow sibling never costs other subscribers updates")
}

func TestBodySenders_Unregister(t *testing.T) {
	b := newBodySenders(zap.NewNop())
	id, ch := b.register(1)

	b.unregister(id)
	b.publishBody(newTextBody("after"))

	_, ok := <-ch
	assert.False(t, ok, "unregister closes the queue")

	// A second unregister of the same id is a no-op.
	b.unregister(id)
}

func TestBodySenders_CloseAll(t *testing.T) {
	b := newBodySenders(zap.NewNop())
	_, ch1 := b.register(1)
	_, ch2 := b.register(1)

	b.closeAll()

	_, ok := <-ch1
	assert.False(t, ok)
	_, ok = <-ch2
	assert.False(t, ok)

	// Late subscribers get a terminated queue instead of one nobody will
	// ever close.
	_, late := b.register(1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestBodySenders_BufferClamped(t *testing.T) {
	b := newBodySenders(zap.NewNop())
	_, ch := b.register(0)

	b.publishBody(newTextBody("fits"))
	r := <-ch
	assert.Equal(t, "fits", r.Body.Text)
}
