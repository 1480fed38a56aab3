package clipstream

import (
	"runtime"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// observer is one platform's clipboard loop body. cycle runs on the driver
// thread once per interval; a non-nil return means change detection itself
// broke and the loop must end for good.
type observer interface {
	cycle() error
	close()
}

// observerFactory constructs the platform observer on the driver thread.
// Native clipboard handles are not safely transferable between threads on
// every platform, so construction has to happen inside the thread that will
// use them.
type observerFactory func() (observer, error)

// driver owns the dedicated OS thread running a platform observer.
type driver struct {
	interval time.Duration
	senders  *bodySenders
	log      *zap.Logger

	stop atomic.Bool
	done chan struct{}
}

// startDriver spawns the observer thread and blocks until it reports
// provider construction success or failure. On failure the error is
// returned synchronously and no loop is left running.
func startDriver(factory observerFactory, senders *bodySenders, interval time.Duration, log *zap.Logger) (*driver, error) {
	d := &driver{
		interval: interval,
		senders:  senders,
		log:      log,
		done:     make(chan struct{}),
	}
	ready := make(chan error)
	go d.run(factory, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return d, nil
}

func (d *driver) run(factory observerFactory, ready chan<- error) {
	defer close(d.done)

	// Never unlocked: when the goroutine returns, the runtime retires the
	// thread along with any thread-affine native state.
	runtime.LockOSThread()

	obs, err := factory()
	if err != nil {
		ready <- err
		return
	}
	ready <- nil
	defer obs.close()

	d.log.Debug("clipboard observer running", zap.Duration("interval", d.interval))
	for !d.stop.Load() {
		if err := obs.cycle(); err != nil {
			d.log.Error("clipboard monitoring failed", zap.Error(err))
			d.senders.publishErr(&MonitorError{Err: err})
			return
		}
		time.Sleep(d.interval)
	}
	d.log.Debug("clipboard observer stopped")
}

// shutdown stops the loop and joins the thread. When it returns, no observer
// activity remains and the native handle has been released.
func (d *driver) shutdown() {
	d.stop.Store(true)
	<-d.done
}
