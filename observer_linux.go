//go:build linux
// +build linux

package clipstream

import (
	"errors"
	"net/url"
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"go.uber.org/zap"

	"github.com/berrythewa/clipstream/internal/x11"
)

// Targets that describe the selection rather than carry content; they never
// enter the catalog.
var x11MetaTargets = []string{"TIMESTAMP", "TARGETS", "MULTIPLE", "SAVE_TARGETS"}

// Text targets in preference order: the MIME forms first, then the
// conventional UTF8_STRING. All three carry the same UTF-8 payload.
var x11TextTargets = []string{
	"text/plain;charset=utf-8",
	"text/plain;charset=UTF-8",
	"UTF8_STRING",
}

// x11Observer watches the CLIPBOARD selection through XFixes ownership
// notifications and resolves each change over the selection-conversion
// protocol. X11 carries images as encoded PNG, so the raw-image tier is
// never offered here.
type x11Observer struct {
	conn    *x11.Conn
	sel     xproto.Atom
	log     *zap.Logger
	senders *bodySenders
	extract *extractor

	// catalog is the advertised-format snapshot of the change being
	// resolved; tier reads consult it.
	catalog *Formats

	pngAtom   xproto.Atom
	uriAtom   xproto.Atom
	htmlAtom  xproto.Atom
	textAtoms []xproto.Atom
	ignored   map[xproto.Atom]struct{}
}

func newPlatformObserver(cfg *observerConfig) (observer, error) {
	conn, err := x11.Connect("", cfg.log)
	if err != nil {
		return nil, err
	}

	o := &x11Observer{
		conn:    conn,
		sel:     conn.Clipboard(),
		log:     cfg.log,
		senders: cfg.senders,
		ignored: make(map[xproto.Atom]struct{}, len(x11MetaTargets)),
	}

	if err := conn.WatchSelection(o.sel); err != nil {
		conn.Close()
		return nil, err
	}

	customs := make([]Format, 0, len(cfg.customNames))
	for _, name := range cfg.customNames {
		a, err := conn.Atom(name)
		if err != nil {
			conn.Close()
			return nil, err
		}
		customs = append(customs, Format{Name: name, ID: uint32(a)})
	}

	for _, name := range x11MetaTargets {
		a, err := conn.Atom(name)
		if err != nil {
			conn.Close()
			return nil, err
		}
		o.ignored[a] = struct{}{}
	}
	for _, name := range x11TextTargets {
		a, err := conn.Atom(name)
		if err != nil {
			conn.Close()
			return nil, err
		}
		o.textAtoms = append(o.textAtoms, a)
	}

	wellKnown := []struct {
		name string
		dst  *xproto.Atom
	}{
		{"image/png", &o.pngAtom},
		{"text/uri-list", &o.uriAtom},
		{"text/html", &o.htmlAtom},
	}
	for _, w := range wellKnown {
		a, err := conn.Atom(w.name)
		if err != nil {
			conn.Close()
			return nil, err
		}
		*w.dst = a
	}

	o.extract = &extractor{
		customs:      customs,
		maxSize:      cfg.maxSize,
		maxImageSize: cfg.maxImageSize,
		gatekeeper:   cfg.gatekeeper,
		log:          cfg.log,
	}

	cfg.log.Debug("x11 clipboard observer ready",
		zap.Strings("custom_formats", cfg.customNames))
	return o, nil
}

// cycle drains queued ownership notifications and resolves the current
// content when any arrived. Quiet cycles probe the connection instead, so a
// dead display server surfaces as a monitor failure rather than silence.
func (o *x11Observer) cycle() error {
	if !o.conn.PollOwnerChanges(o.sel) {
		return o.conn.Alive()
	}
	o.handleChange()
	return nil
}

func (o *x11Observer) close() { o.conn.Close() }

func (o *x11Observer) handleChange() {
	targets, err := o.conn.Targets(o.sel)
	if err != nil && !errors.Is(err, x11.ErrRefused) {
		// Refusal means the owner vanished or holds nothing; anything else
		// is a failed read of this change.
		o.log.Warn("listing selection targets failed", zap.Error(err))
		o.senders.publishErr(&ReadError{Format: "TARGETS", Err: err})
		return
	}

	catalog := newFormats(len(targets))
	for _, a := range targets {
		if _, skip := o.ignored[a]; skip {
			continue
		}
		name, err := o.conn.AtomName(a)
		if err != nil {
			o.log.Debug("dropping unresolvable target",
				zap.Uint32("atom", uint32(a)), zap.Error(err))
			continue
		}
		catalog.add(Format{Name: name, ID: uint32(a)})
	}
	o.catalog = catalog

	body, err := o.extract.resolve(o, &Context{formats: catalog, reader: o})
	switch {
	case err != nil:
		o.senders.publishErr(err)
	case body != nil:
		o.log.Debug("clipboard change resolved", zap.String("kind", string(body.Kind)))
		o.senders.publishBody(body)
	}
}

// readGated transfers one target, translating transport outcomes into the
// extraction flow sentinels. Limited reads ask the owner for LENGTH first
// when it advertises that target; owners without it are still bounded by the
// transfer-time checks.
func (o *x11Observer) readGated(target xproto.Atom, limit int64) ([]byte, error) {
	if sizeHintUsable(o.catalog, uint32(o.conn.Length()), limit) {
		if n, ok := o.conn.SizeHint(o.sel); ok {
			if n == 0 {
				return nil, errEmptyContent
			}
			if n > limit {
				return nil, errSizeExceeded
			}
		}
	}
	data, err := o.conn.ReadTarget(o.sel, target, limit)
	if err != nil {
		if errors.Is(err, x11.ErrTooLarge) {
			return nil, errSizeExceeded
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptyContent
	}
	return data, nil
}

func (o *x11Observer) customData(f Format, limit int64) ([]byte, error) {
	if !o.catalog.ContainsID(f.ID) {
		return nil, errFormatAbsent
	}
	return o.readGated(xproto.Atom(f.ID), limit)
}

func (o *x11Observer) pngData(limit int64) ([]byte, error) {
	if !o.catalog.ContainsID(uint32(o.pngAtom)) {
		return nil, errFormatAbsent
	}
	return o.readGated(o.pngAtom, limit)
}

func (o *x11Observer) rawImage(int64) ([]byte, int, int, error) {
	return nil, 0, 0, errFormatAbsent
}

func (o *x11Observer) fileList() ([]string, error) {
	if !o.catalog.ContainsID(uint32(o.uriAtom)) {
		return nil, errFormatAbsent
	}
	data, err := o.readGated(o.uriAtom, 0)
	if err != nil {
		return nil, err
	}
	paths := parseURIList(data)
	if len(paths) == 0 {
		return nil, errEmptyContent
	}
	return paths, nil
}

func (o *x11Observer) htmlText() (string, error) {
	if !o.catalog.ContainsID(uint32(o.htmlAtom)) {
		return "", errFormatAbsent
	}
	data, err := o.readGated(o.htmlAtom, 0)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (o *x11Observer) plainText() (string, error) {
	for _, a := range o.textAtoms {
		if !o.catalog.ContainsID(uint32(a)) {
			continue
		}
		data, err := o.readGated(a, 0)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return "", errFormatAbsent
}

// readFormat serves gatekeeper reads; limits never apply there.
func (o *x11Observer) readFormat(f Format, limit int64) ([]byte, error) {
	return o.conn.ReadTarget(o.sel, xproto.Atom(f.ID), limit)
}

// sizeHintUsable reports whether a limited read should ask the owner for
// LENGTH before transferring. The probe is a conversion like any other, so
// it only goes out to owners that advertise the target.
func sizeHintUsable(catalog *Formats, lengthID uint32, limit int64) bool {
	return limit > 0 && catalog.ContainsID(lengthID)
}

// parseURIList converts a text/uri-list payload to local paths. Comment
// lines, non-file URIs and entries whose percent-escapes do not decode are
// dropped.
func parseURIList(data []byte) []string {
	var paths []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "file://") {
			continue
		}
		p, err := url.PathUnescape(strings.TrimPrefix(line, "file://"))
		if err != nil {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}
