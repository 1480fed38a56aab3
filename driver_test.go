package clipstream

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedObserver struct {
	cycleFn func() error
	cycles  atomic.Int64
	closed  atomic.Bool
}

func (o *scriptedObserver) cycle() error {
	o.cycles.Add(1)
	if o.cycleFn != nil {
		return o.cycleFn()
	}
	return nil
}

func (o *scriptedObserver) close() { o.closed.Store(true) }

func TestStartDriver_InitFailure(t *testing.T) {
	boom := errors.New("no display")
	factory := func() (observer, error) { return nil, boom }

	drv, err := startDriver(factory, newBodySenders(zap.NewNop()), time.Millisecond, zap.NewNop())
	assert.Nil(t, drv)
	assert.ErrorIs(t, err, boom, "construction failures surface synchronously")
}

func TestDriver_CyclesAndShutdown(t *testing.T) {
	obs := &scriptedObserver{}
	factory := func() (observer, error) { return obs, nil }

	drv, err := startDriver(factory, newBodySenders(zap.NewNop()), time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return obs.cycles.Load() >= 3 },
		time.Second, time.Millisecond, "the loop keeps polling")

	drv.shutdown()
	assert.True(t, obs.closed.Load(), "shutdown releases the observer")

	after := obs.cycles.Load()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, after, obs.cycles.Load(), "no cycles run once shutdown returns")
}

func TestDriver_FatalCycleEndsLoop(t *testing.T) {
	inner := errors.New("connection reset")
	obs := &scriptedObserver{cycleFn: func() error { return inner }}
	factory := func() (observer, error) { return obs, nil }

	senders := newBodySenders(zap.NewNop())
	_, ch := senders.register(4)

	drv, err := startDriver(factory, senders, time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	r := <-ch
	require.Error(t, r.Err)

	var monErr *MonitorError
	require.ErrorAs(t, r.Err, &monErr)
	assert.ErrorIs(t, r.Err, inner)

	<-drv.done
	assert.True(t, obs.closed.Load())
	assert.Equal(t, int64(1), obs.cycles.Load(), "the loop ends on the first fatal cycle")
	assert.Empty(t, ch, "exactly one terminal error is published")

	// Joining an already-dead loop returns immediately.
	drv.shutdown()
}
