//go:build darwin && cgo
// +build darwin,cgo

package clipstream

import (
	"errors"

	"go.uber.org/zap"

	"github.com/berrythewa/clipstream/internal/pasteboard"
	"github.com/berrythewa/clipstream/internal/rawimage"
)

// Pasteboard type identifiers for the built-in tiers. Raw images travel as
// TIFF on macOS.
const (
	utiPNG     = "public.png"
	utiTIFF    = "public.tiff"
	utiHTML    = "public.html"
	utiText    = "public.utf8-plain-text"
	utiFileURL = "public.file-url"
)

// darwinObserver polls NSPasteboard's change counter and resolves each
// change through typed payload reads. Format ids are process-local intern
// ids; the pasteboard itself knows formats by name only.
type darwinObserver struct {
	log     *zap.Logger
	senders *bodySenders
	extract *extractor

	catalog    *Formats
	lastChange int64

	pngID  uint32
	tiffID uint32
	htmlID uint32
	textID uint32
	fileID uint32
}

func newPlatformObserver(cfg *observerConfig) (observer, error) {
	customs := make([]Format, 0, len(cfg.customNames))
	for _, name := range cfg.customNames {
		customs = append(customs, Format{Name: name, ID: pasteboard.InternID(name)})
	}

	o := &darwinObserver{
		log:        cfg.log,
		senders:    cfg.senders,
		lastChange: pasteboard.ChangeCount(),
		pngID:      pasteboard.InternID(utiPNG),
		tiffID:     pasteboard.InternID(utiTIFF),
		htmlID:     pasteboard.InternID(utiHTML),
		textID:     pasteboard.InternID(utiText),
		fileID:     pasteboard.InternID(utiFileURL),
	}
	o.extract = &extractor{
		customs:      customs,
		maxSize:      cfg.maxSize,
		maxImageSize: cfg.maxImageSize,
		gatekeeper:   cfg.gatekeeper,
		log:          cfg.log,
	}

	cfg.log.Debug("pasteboard observer ready",
		zap.Int64("change_count", o.lastChange),
		zap.Strings("custom_formats", cfg.customNames))
	return o, nil
}

// cycle compares the pasteboard change counter against the last seen value.
// Reading the counter cannot fail, so the darwin observer has no fatal
// monitor path.
func (o *darwinObserver) cycle() error {
	n := pasteboard.ChangeCount()
	if n == o.lastChange {
		return nil
	}
	o.lastChange = n
	o.handleChange()
	return nil
}

func (o *darwinObserver) close() {}

func (o *darwinObserver) handleChange() {
	types := pasteboard.Types()
	catalog := newFormats(len(types))
	for _, t := range types {
		catalog.add(Format{Name: t, ID: pasteboard.InternID(t)})
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

// readGated copies one type's payload, translating outcomes into the
// extraction flow sentinels. A type that vanished since the catalog was
// built counts as absent; the replacing change re-resolves on its own.
func (o *darwinObserver) readGated(typ string, limit int64) ([]byte, error) {
	data, err := pasteboard.Data(typ, limit)
	if err != nil {
		switch {
		case errors.Is(err, pasteboard.ErrUnavailable):
			return nil, errFormatAbsent
		case errors.Is(err, pasteboard.ErrTooLarge):
			return nil, errSizeExceeded
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptyContent
	}
	return data, nil
}

func (o *darwinObserver) customData(f Format, limit int64) ([]byte, error) {
	if !o.catalog.ContainsID(f.ID) {
		return nil, errFormatAbsent
	}
	return o.readGated(f.Name, limit)
}

func (o *darwinObserver) pngData(limit int64) ([]byte, error) {
	if !o.catalog.ContainsID(o.pngID) {
		return nil, errFormatAbsent
	}
	return o.readGated(utiPNG, limit)
}

func (o *darwinObserver) rawImage(limit int64) ([]byte, int, int, error) {
	if !o.catalog.ContainsID(o.tiffID) {
		return nil, 0, 0, errFormatAbsent
	}
	data, err := o.readGated(utiTIFF, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	img, err := rawimage.DecodeTIFF(data)
	if err != nil {
		return nil, 0, 0, err
	}
	return img.Pix, img.Width, img.Height, nil
}

func (o *darwinObserver) fileList() ([]string, error) {
	if !o.catalog.ContainsID(o.fileID) {
		return nil, errFormatAbsent
	}
	paths := pasteboard.FilePaths()
	if len(paths) == 0 {
		return nil, errEmptyContent
	}
	return paths, nil
}

func (o *darwinObserver) htmlText() (string, error) {
	if !o.catalog.ContainsID(o.htmlID) {
		return "", errFormatAbsent
	}
	data, err := o.readGated(utiHTML, 0)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (o *darwinObserver) plainText() (string, error) {
	if !o.catalog.ContainsID(o.textID) {
		return "", errFormatAbsent
	}
	data, err := o.readGated(utiText, 0)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// readFormat serves gatekeeper reads; formats resolve by name on macOS.
func (o *darwinObserver) readFormat(f Format, limit int64) ([]byte, error) {
	return pasteboard.Data(f.Name, limit)
}
