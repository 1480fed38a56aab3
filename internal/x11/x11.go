//go:build linux
// +build linux

// Package x11 is the X protocol layer under the linux clipboard observer:
// connection and hidden-window setup, atom interning with a bidirectional
// cache, XFixes selection-ownership notifications, and the property
// machinery (direct and INCR) behind selection transfers.
package x11

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xfixes"
	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"
)

// Transfer outcomes callers classify.
var (
	ErrTimeout  = errors.New("x11: selection transfer timed out")
	ErrRefused  = errors.New("x11: owner refused conversion")
	ErrTooLarge = errors.New("x11: transfer exceeds size limit")
)

const (
	// stageTimeout bounds every wait inside a selection transfer. A stage
	// that overruns it is a failed read, not a retry.
	stageTimeout = 3 * time.Second

	// eventPollPause is the sleep between event-queue polls while waiting
	// for a transfer stage.
	eventPollPause = 20 * time.Millisecond

	// maxPropLen is GetProperty's length argument, counted in 32-bit units.
	maxPropLen = 0x1FFFFFFF
)

// Conn wraps an X connection with the selection-transfer state the observer
// needs: a hidden requestor window and two property slots, one for data and
// one for metadata probes (TARGETS, LENGTH).
type Conn struct {
	x      *xgb.Conn
	window xproto.Window
	log    *zap.Logger

	atoms     map[string]xproto.Atom
	atomNames map[xproto.Atom]string

	dataProp xproto.Atom
	metaProp xproto.Atom

	clipboard xproto.Atom
	targets   xproto.Atom
	length    xproto.Atom
	incr      xproto.Atom
}

// Connect opens a display connection, creates the hidden transfer window and
// initializes the XFixes extension. An empty display uses $DISPLAY.
func Connect(display string, log *zap.Logger) (*Conn, error) {
	x, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connecting to display: %w", err)
	}

	c := &Conn{
		x:         x,
		log:       log,
		atoms:     make(map[string]xproto.Atom),
		atomNames: make(map[xproto.Atom]string),
	}

	screen := xproto.Setup(x).DefaultScreen(x)
	wid, err := xproto.NewWindowId(x)
	if err != nil {
		x.Close()
		return nil, fmt.Errorf("allocating window id: %w", err)
	}
	c.window = wid

	// Never mapped; it only receives transfer properties and their
	// PropertyNotify events.
	err = xproto.CreateWindowChecked(x, screen.RootDepth, wid, screen.Root,
		0, 0, 1, 1, 0,
		xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		x.Close()
		return nil, fmt.Errorf("creating transfer window: %w", err)
	}

	base := []struct {
		name string
		dst  *xproto.Atom
	}{
		{"CLIPBOARD", &c.clipboard},
		{"TARGETS", &c.targets},
		{"LENGTH", &c.length},
		{"INCR", &c.incr},
		{"CLIPSTREAM_DATA", &c.dataProp},
		{"CLIPSTREAM_META", &c.metaProp},
	}
	for _, b := range base {
		a, err := c.Atom(b.name)
		if err != nil {
			x.Close()
			return nil, err
		}
		*b.dst = a
	}

	if err := xfixes.Init(x); err != nil {
		x.Close()
		return nil, fmt.Errorf("initializing xfixes: %w", err)
	}
	if _, err := xfixes.QueryVersion(x, 5, 0).Reply(); err != nil {
		x.Close()
		return nil, fmt.Errorf("negotiating xfixes version: %w", err)
	}

	return c, nil
}

// Close shuts the display connection down.
func (c *Conn) Close() { c.x.Close() }

// Clipboard returns the CLIPBOARD selection atom.
func (c *Conn) Clipboard() xproto.Atom { return c.clipboard }

// Length returns the LENGTH atom owners advertise when they answer size
// probes.
func (c *Conn) Length() xproto.Atom { return c.length }

// Atom interns name, consulting the cache first.
func (c *Conn) Atom(name string) (xproto.Atom, error) {
	if a, ok := c.atoms[name]; ok {
		return a, nil
	}
	reply, err := xproto.InternAtom(c.x, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("interning atom %q: %w", name, err)
	}
	c.atoms[name] = reply.Atom
	c.atomNames[reply.Atom] = name
	return reply.Atom, nil
}

// AtomName resolves an atom back to its name, consulting the cache first.
func (c *Conn) AtomName(a xproto.Atom) (string, error) {
	if n, ok := c.atomNames[a]; ok {
		return n, nil
	}
	reply, err := xproto.GetAtomName(c.x, a).Reply()
	if err != nil {
		return "", fmt.Errorf("resolving atom %d: %w", uint32(a), err)
	}
	c.atomNames[a] = reply.Name
	c.atoms[reply.Name] = a
	return reply.Name, nil
}

// WatchSelection subscribes to ownership changes of sel via XFixes.
func (c *Conn) WatchSelection(sel xproto.Atom) error {
	err := xfixes.SelectSelectionInputChecked(c.x, c.window, sel,
		xfixes.SelectionEventMaskSetSelectionOwner).Check()
	if err != nil {
		return fmt.Errorf("selecting selection input: %w", err)
	}
	return nil
}

// PollOwnerChanges drains the event queue and reports whether any ownership
// change for sel arrived. Protocol errors are logged and skipped; they
// concern individual requests, not the notification channel.
func (c *Conn) PollOwnerChanges(sel xproto.Atom) bool {
	changed := false
	for {
		ev, xerr := c.x.PollForEvent()
		if ev == nil && xerr == nil {
			return changed
		}
		if xerr != nil {
			c.log.Debug("x11 protocol error", zap.String("error", xerr.Error()))
			continue
		}
		if se, ok := ev.(xfixes.SelectionNotifyEvent); ok && se.Selection == sel {
			changed = true
		}
	}
}

// Alive performs a round trip so a dead connection surfaces as an error; the
// event queue alone cannot distinguish silence from disconnection.
func (c *Conn) Alive() error {
	if _, err := xproto.GetSelectionOwner(c.x, c.clipboard).Reply(); err != nil {
		return fmt.Errorf("x11 connection lost: %w", err)
	}
	return nil
}

// Targets lists the formats the current owner advertises for sel.
func (c *Conn) Targets(sel xproto.Atom) ([]xproto.Atom, error) {
	raw, err := c.convert(sel, c.targets, c.metaProp, 0)
	if err != nil {
		return nil, err
	}
	atoms := make([]xproto.Atom, 0, len(raw)/4)
	for i := 0; i+4 <= len(raw); i += 4 {
		atoms = append(atoms, xproto.Atom(xgb.Get32(raw[i:])))
	}
	return atoms, nil
}

// SizeHint asks the owner for the LENGTH of the selection, a cheap byte
// count many owners answer without staging the payload. ok is false when
// the owner does not support the probe.
func (c *Conn) SizeHint(sel xproto.Atom) (size int64, ok bool) {
	raw, err := c.convert(sel, c.length, c.metaProp, 0)
	if err != nil || len(raw) < 4 {
		return 0, false
	}
	return int64(xgb.Get32(raw)), true
}

// ReadTarget transfers one format of sel. limit > 0 bounds the accepted
// payload: oversize direct transfers are rejected before the copy, oversize
// INCR transfers are drained to their terminator and dropped. Both report
// ErrTooLarge.
func (c *Conn) ReadTarget(sel, target xproto.Atom, limit int64) ([]byte, error) {
	return c.convert(sel, target, c.dataProp, limit)
}

func (c *Conn) convert(sel, target, prop xproto.Atom, limit int64) ([]byte, error) {
	cookie := xproto.ConvertSelectionChecked(c.x, c.window, sel, target, prop,
		xproto.TimeCurrentTime)
	if err := cookie.Check(); err != nil {
		return nil, fmt.Errorf("requesting conversion: %w", err)
	}

	notify, err := c.waitSelectionNotify(sel, target, cookie.Sequence)
	if err != nil {
		return nil, err
	}
	if notify.Property == xproto.AtomNone {
		return nil, ErrRefused
	}

	// Peek the staged property's type and size without consuming it.
	peek, err := xproto.GetProperty(c.x, false, c.window, prop,
		xproto.GetPropertyTypeAny, 0, 0).Reply()
	if err != nil {
		return nil, fmt.Errorf("peeking property: %w", err)
	}

	if peek.Type == c.incr {
		return c.readIncr(prop, limit)
	}

	if limit > 0 && int64(peek.BytesAfter) > limit {
		// Consume the staged property anyway so no server-side state leaks.
		if err := c.deleteProp(prop); err != nil {
			return nil, err
		}
		return nil, ErrTooLarge
	}

	reply, err := xproto.GetProperty(c.x, false, c.window, prop,
		xproto.GetPropertyTypeAny, 0, maxPropLen).Reply()
	if err != nil {
		return nil, fmt.Errorf("reading property: %w", err)
	}
	// Direct transfers are deleted explicitly once read.
	if err := c.deleteProp(prop); err != nil {
		return nil, err
	}
	data := make([]byte, len(reply.Value))
	copy(data, reply.Value)
	return data, nil
}

// readIncr runs the incremental transfer protocol: ack the INCR marker by
// deleting it, then consume chunks as the owner stages them, until a
// zero-length chunk terminates the transfer.
func (c *Conn) readIncr(prop xproto.Atom, limit int64) ([]byte, error) {
	if err := c.deleteProp(prop); err != nil {
		return nil, err
	}

	var buf []byte
	discard := false
	for {
		if err := c.waitPropertyNew(prop); err != nil {
			return nil, err
		}
		reply, err := xproto.GetProperty(c.x, true, c.window, prop,
			xproto.GetPropertyTypeAny, 0, maxPropLen).Reply()
		if err != nil {
			return nil, fmt.Errorf("reading incr chunk: %w", err)
		}
		if reply.ValueLen == 0 {
			if discard {
				return nil, ErrTooLarge
			}
			return buf, nil
		}
		if discard {
			continue
		}
		buf = append(buf, reply.Value...)
		if limit > 0 && int64(len(buf)) > limit {
			// Keep consuming so the owner terminates cleanly, drop the data.
			buf = nil
			discard = true
		}
	}
}

// waitSelectionNotify polls until the owner's SelectionNotify answering the
// conversion issued at seq arrives. Unrelated events queued meanwhile are
// dropped; a missed ownership change is re-detected on its own notification
// the next cycle.
func (c *Conn) waitSelectionNotify(sel, target xproto.Atom, seq uint16) (xproto.SelectionNotifyEvent, error) {
	deadline := time.Now().Add(stageTimeout)
	for {
		ev, xerr := c.x.PollForEvent()
		if ev == nil && xerr == nil {
			if time.Now().After(deadline) {
				return xproto.SelectionNotifyEvent{}, ErrTimeout
			}
			time.Sleep(eventPollPause)
			continue
		}
		if xerr != nil {
			c.log.Debug("x11 protocol error", zap.String("error", xerr.Error()))
			continue
		}
		if se, ok := ev.(xproto.SelectionNotifyEvent); ok &&
			answersConversion(se, c.window, sel, target, seq) {
			return se, nil
		}
	}
}

// answersConversion reports whether se answers the conversion issued at seq
// for target. An event with an older sequence number is the owner's late
// reply to a conversion that already timed out; handing it to the current
// wait would resolve this change against the previous request's staging.
// Sequence numbers wrap at 16 bits, so age is judged by signed distance.
func answersConversion(se xproto.SelectionNotifyEvent, window xproto.Window, sel, target xproto.Atom, seq uint16) bool {
	if se.Requestor != window || se.Selection != sel || se.Target != target {
		return false
	}
	return int16(se.Sequence-seq) >= 0
}

// waitPropertyNew polls until the owner stages the next chunk into prop.
func (c *Conn) waitPropertyNew(prop xproto.Atom) error {
	deadline := time.Now().Add(stageTimeout)
	for {
		ev, xerr := c.x.PollForEvent()
		if ev == nil && xerr == nil {
			if time.Now().After(deadline) {
				return ErrTimeout
			}
			time.Sleep(eventPollPause)
			continue
		}
		if xerr != nil {
			c.log.Debug("x11 protocol error", zap.String("error", xerr.Error()))
			continue
		}
		if pe, ok := ev.(xproto.PropertyNotifyEvent); ok &&
			pe.Window == c.window && pe.Atom == prop && pe.State == xproto.PropertyNewValue {
			return nil
		}
	}
}

func (c *Conn) deleteProp(prop xproto.Atom) error {
	if err := xproto.DeletePropertyChecked(c.x, c.window, prop).Check(); err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}
	return nil
}
