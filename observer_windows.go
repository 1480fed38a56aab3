//go:build windows
// +build windows

package clipstream

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/berrythewa/clipstream/internal/rawimage"
	"github.com/berrythewa/clipstream/internal/win32"
)

// win32Observer polls the session's clipboard sequence number and resolves
// each change with the clipboard held open, so every read of one change sees
// the same snapshot.
type win32Observer struct {
	log     *zap.Logger
	senders *bodySenders
	extract *extractor

	catalog *Formats
	lastSeq uint32

	pngID  uint32
	htmlID uint32
}

func newPlatformObserver(cfg *observerConfig) (observer, error) {
	pngID, err := win32.RegisterFormat("PNG")
	if err != nil {
		return nil, err
	}
	htmlID, err := win32.RegisterFormat("HTML Format")
	if err != nil {
		return nil, err
	}

	customs := make([]Format, 0, len(cfg.customNames))
	for _, name := range cfg.customNames {
		id, err := win32.RegisterFormat(name)
		if err != nil {
			return nil, err
		}
		customs = append(customs, Format{Name: name, ID: id})
	}

	o := &win32Observer{
		log:     cfg.log,
		senders: cfg.senders,
		lastSeq: win32.SequenceNumber(),
		pngID:   pngID,
		htmlID:  htmlID,
	}
	o.extract = &extractor{
		customs:      customs,
		maxSize:      cfg.maxSize,
		maxImageSize: cfg.maxImageSize,
		gatekeeper:   cfg.gatekeeper,
		log:          cfg.log,
	}

	cfg.log.Debug("win32 clipboard observer ready",
		zap.Uint32("sequence", o.lastSeq),
		zap.Strings("custom_formats", cfg.customNames))
	return o, nil
}

// cycle compares the clipboard sequence number against the last seen value.
// Reading the counter needs no clipboard access and cannot fail, so the
// windows observer has no fatal monitor path.
func (o *win32Observer) cycle() error {
	seq := win32.SequenceNumber()
	if seq == o.lastSeq {
		return nil
	}
	o.lastSeq = seq
	o.handleChange()
	return nil
}

func (o *win32Observer) close() {}

func (o *win32Observer) handleChange() {
	if err := win32.Open(); err != nil {
		o.log.Warn("opening clipboard failed", zap.Error(err))
		o.senders.publishErr(&ReadError{Format: "clipboard", Err: err})
		return
	}
	defer win32.Close()

	ids, err := win32.Formats()
	if err != nil {
		o.log.Warn("enumerating clipboard formats failed", zap.Error(err))
		o.senders.publishErr(&ReadError{Format: "clipboard", Err: err})
		return
	}

	catalog := newFormats(len(ids))
	for _, id := range ids {
		catalog.add(Format{Name: win32.FormatName(id), ID: id})
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

// readGated copies one format's payload, translating outcomes into the
// extraction flow sentinels. GlobalSize is exact, so the pre-copy gate is
// authoritative here.
func (o *win32Observer) readGated(id uint32, limit int64) ([]byte, error) {
	if limit > 0 {
		if n, ok := win32.DataSize(id); ok && n > limit {
			return nil, errSizeExceeded
		}
	}
	data, err := win32.Data(id)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptyContent
	}
	return data, nil
}

func (o *win32Observer) customData(f Format, limit int64) ([]byte, error) {
	if !o.catalog.ContainsID(f.ID) {
		return nil, errFormatAbsent
	}
	return o.readGated(f.ID, limit)
}

func (o *win32Observer) pngData(limit int64) ([]byte, error) {
	if !o.catalog.ContainsID(o.pngID) {
		return nil, errFormatAbsent
	}
	return o.readGated(o.pngID, limit)
}

// rawImage decodes the device-independent bitmap variants: CF_DIBV5 when
// present, CF_DIB otherwise. A DIBV5 payload that will not decode falls
// back to CF_DIB before the tier reports failure; oversize payloads skip
// the tier outright.
func (o *win32Observer) rawImage(limit int64) ([]byte, int, int, error) {
	hasV5 := o.catalog.ContainsID(win32.CFDIBV5)
	hasDIB := o.catalog.ContainsID(win32.CFDIB)
	if !hasV5 && !hasDIB {
		return nil, 0, 0, errFormatAbsent
	}

	if hasV5 {
		img, err := o.decodeDIB(win32.CFDIBV5, limit)
		if err == nil {
			return img.Pix, img.Width, img.Height, nil
		}
		if errors.Is(err, errSizeExceeded) || !hasDIB {
			return nil, 0, 0, err
		}
		o.log.Debug("CF_DIBV5 unusable, trying CF_DIB", zap.Error(err))
	}

	img, err := o.decodeDIB(win32.CFDIB, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	return img.Pix, img.Width, img.Height, nil
}

func (o *win32Observer) decodeDIB(id uint32, limit int64) (*rawimage.Image, error) {
	data, err := o.readGated(id, limit)
	if err != nil {
		return nil, err
	}
	return rawimage.DecodeDIB(data)
}

func (o *win32Observer) fileList() ([]string, error) {
	if !o.catalog.ContainsID(win32.CFHDrop) {
		return nil, errFormatAbsent
	}
	paths, err := win32.FileList()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, errEmptyContent
	}
	return paths, nil
}

func (o *win32Observer) htmlText() (string, error) {
	if !o.catalog.ContainsID(o.htmlID) {
		return "", errFormatAbsent
	}
	data, err := o.readGated(o.htmlID, 0)
	if err != nil {
		return "", err
	}
	// Global blocks are often NUL-padded past the payload.
	data = bytes.TrimRight(data, "\x00")
	if len(data) == 0 {
		return "", errEmptyContent
	}
	return parseCFHTML(data), nil
}

func (o *win32Observer) plainText() (string, error) {
	// CF_UNICODETEXT covers CF_TEXT owners too; the system synthesizes it.
	if !o.catalog.ContainsID(win32.CFUnicodeText) {
		return "", errFormatAbsent
	}
	data, err := o.readGated(win32.CFUnicodeText, 0)
	if err != nil {
		return "", err
	}
	text := win32.Text(data)
	if text == "" {
		return "", errEmptyContent
	}
	return text, nil
}

// readFormat serves gatekeeper reads. It runs while handleChange holds the
// clipboard open.
func (o *win32Observer) readFormat(f Format, limit int64) ([]byte, error) {
	if limit > 0 {
		if n, ok := win32.DataSize(f.ID); ok && n > limit {
			return nil, errSizeExceeded
		}
	}
	return win32.Data(f.ID)
}

// parseCFHTML extracts the fragment from a CF_HTML payload. The format
// prefixes the document with byte-offset headers; the fragment offsets are
// preferred, the document offsets are the fallback, and a payload whose
// headers cannot be parsed is returned whole.
func parseCFHTML(data []byte) string {
	text := string(data)
	if start, end, ok := cfHTMLRange(text, "StartFragment:", "EndFragment:"); ok {
		return text[start:end]
	}
	if start, end, ok := cfHTMLRange(text, "StartHTML:", "EndHTML:"); ok {
		return text[start:end]
	}
	return text
}

func cfHTMLRange(text, startKey, endKey string) (start, end int, ok bool) {
	start, ok = cfHTMLOffset(text, startKey)
	if !ok {
		return 0, 0, false
	}
	end, ok = cfHTMLOffset(text, endKey)
	if !ok || start < 0 || end < start || end > len(text) {
		return 0, 0, false
	}
	return start, end, true
}

func cfHTMLOffset(text, key string) (int, bool) {
	i := strings.Index(text, key)
	if i < 0 {
		return 0, false
	}
	rest := text[i+len(key):]
	if j := strings.IndexAny(rest, "\r\n"); j >= 0 {
		rest = rest[:j]
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}
