package clipstream

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the poll cadence used when Options.Interval is unset.
const DefaultInterval = 200 * time.Millisecond

// Options configures a Listener. The zero value observes the clipboard with
// default cadence, no custom formats, no size limits and no gatekeeper.
type Options struct {
	// Interval is the poll/notification cadence of the observer loop.
	// Defaults to DefaultInterval.
	Interval time.Duration

	// CustomFormats lists native format names to monitor with top priority;
	// earlier entries beat later ones. Names are registered or interned with
	// the platform when the listener starts.
	CustomFormats []string

	// MaxSize caps custom payloads in bytes, and image payloads too unless
	// MaxImageSize overrides it. Zero means unlimited. Text and HTML are
	// never size-gated.
	MaxSize int64

	// MaxImageSize caps PNG and raw-image payloads in bytes. Zero falls back
	// to MaxSize.
	MaxImageSize int64

	// Gatekeeper, when set, can veto each detected change before any content
	// is read.
	Gatekeeper Gatekeeper

	// Logger receives diagnostics. Defaults to zap.NewNop().
	Logger *zap.Logger
}

// observerConfig is the resolved option set handed to a platform observer.
type observerConfig struct {
	customNames  []string
	maxSize      int64
	maxImageSize int64
	gatekeeper   Gatekeeper
	log          *zap.Logger
	senders      *bodySenders
}

// Listener observes the native clipboard on a dedicated OS thread and fans
// every change out to its subscriber streams.
type Listener struct {
	senders *bodySenders
	drv     *driver
	log     *zap.Logger
	once    sync.Once
}

// Listen attaches to the native clipboard and starts observing. The call
// blocks until the platform provider is constructed inside the observer
// thread; construction failures are returned here with no background work
// left behind.
func Listen(opts Options) (*Listener, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	maxImage := opts.MaxImageSize
	if maxImage == 0 {
		maxImage = opts.MaxSize
	}

	senders := newBodySenders(log)
	cfg := &observerConfig{
		customNames:  opts.CustomFormats,
		maxSize:      opts.MaxSize,
		maxImageSize: maxImage,
		gatekeeper:   opts.Gatekeeper,
		log:          log,
		senders:      senders,
	}

	factory := func() (observer, error) { return newPlatformObserver(cfg) }
	drv, err := startDriver(factory, senders, interval, log)
	if err != nil {
		return nil, fmt.Errorf("clipstream: %w", err)
	}

	log.Info("clipboard listener started",
		zap.Duration("interval", interval),
		zap.Strings("custom_formats", opts.CustomFormats))
	return &Listener{senders: senders, drv: drv, log: log}, nil
}

// NewStream subscribes to clipboard changes. buffer is the queue capacity
// (clamped to at least 1); when the queue is full, further results are
// dropped for this stream until it catches up.
func (l *Listener) NewStream(buffer int) *Stream {
	id, ch := l.senders.register(buffer)
	return &Stream{id: id, ch: ch, owner: l.senders}
}

// Close stops the observer thread, waits for it to exit, and terminates
// every stream. Idempotent.
func (l *Listener) Close() {
	l.once.Do(func() {
		l.drv.shutdown()
		l.senders.closeAll()
		l.log.Info("clipboard listener closed")
	})
}
