package clipstream

import (
	"errors"

	"go.uber.org/zap"
)

// tierSource is the per-platform access layer the extraction walk drives.
// Every method observes the same snapshot the catalog was built from and
// classifies its outcome with the flow sentinels: errFormatAbsent when the
// catalog does not offer the format, errEmptyContent for zero-size payloads
// (including empty strings and empty path lists), errSizeExceeded when a
// limited read would cross its limit. Any other error is a hard read
// failure.
type tierSource interface {
	customData(f Format, limit int64) ([]byte, error)
	pngData(limit int64) ([]byte, error)
	rawImage(limit int64) (pix []byte, width, height int, err error)
	fileList() ([]string, error)
	htmlText() (string, error)
	plainText() (string, error)
}

type tierState int

const (
	tierHit tierState = iota
	tierAbsent
	tierSkipped
	tierFailed
)

func classifyTier(err error) tierState {
	switch {
	case err == nil:
		return tierHit
	case errors.Is(err, errFormatAbsent):
		return tierAbsent
	case errors.Is(err, errEmptyContent), errors.Is(err, errSizeExceeded):
		return tierSkipped
	default:
		return tierFailed
	}
}

// extractor walks the priority tiers of one clipboard snapshot: custom
// formats in caller order, then PNG, raw image, file list, HTML, plain
// text. The first tier that yields content wins and later tiers are never
// inspected.
type extractor struct {
	customs      []Format // caller order = priority order
	maxSize      int64    // limit for custom payloads; 0 = unlimited
	maxImageSize int64    // limit for both image tiers; 0 = unlimited
	gatekeeper   Gatekeeper
	log          *zap.Logger
}

// resolve picks the single representation of the current snapshot. It
// returns (nil, nil) when the change should produce no event: gatekeeper
// veto, or every offered format turned out empty or over its size limit.
// When the clipboard offers none of the known formats at all, the result is
// ErrNoMatchingFormat.
func (x *extractor) resolve(src tierSource, ctx *Context) (*Body, error) {
	if x.gatekeeper != nil && !x.gatekeeper(ctx) {
		x.log.Debug("clipboard change vetoed by gatekeeper")
		return nil, nil
	}

	skipped := false

	for _, f := range x.customs {
		data, err := src.customData(f, x.maxSize)
		switch classifyTier(err) {
		case tierHit:
			return newCustomBody(f.Name, data), nil
		case tierSkipped:
			x.log.Debug("skipping custom format", zap.String("format", f.Name), zap.NamedError("reason", err))
			skipped = true
		case tierFailed:
			return nil, &ReadError{Format: f.Name, Err: err}
		}
	}

	data, err := src.pngData(x.maxImageSize)
	switch classifyTier(err) {
	case tierHit:
		return newImageBody(data, x.imagePath(src)), nil
	case tierSkipped:
		x.log.Debug("skipping png image", zap.NamedError("reason", err))
		skipped = true
	case tierFailed:
		return nil, &ReadError{Format: "png", Err: err}
	}

	pix, width, height, err := src.rawImage(x.maxImageSize)
	switch classifyTier(err) {
	case tierHit:
		return newRawImageBody(pix, width, height, x.imagePath(src)), nil
	case tierSkipped:
		x.log.Debug("skipping raw image", zap.NamedError("reason", err))
		skipped = true
	case tierFailed:
		return nil, &ReadError{Format: "raw image", Err: err}
	}

	paths, err := src.fileList()
	switch classifyTier(err) {
	case tierHit:
		return newFileListBody(paths), nil
	case tierSkipped:
		skipped = true
	case tierFailed:
		return nil, &ReadError{Format: "file list", Err: err}
	}

	html, err := src.htmlText()
	switch classifyTier(err) {
	case tierHit:
		return newHTMLBody(html), nil
	case tierSkipped:
		skipped = true
	case tierFailed:
		return nil, &ReadError{Format: "html", Err: err}
	}

	text, err := src.plainText()
	switch classifyTier(err) {
	case tierHit:
		return newTextBody(text), nil
	case tierSkipped:
		skipped = true
	case tierFailed:
		return nil, &ReadError{Format: "text", Err: err}
	}

	if skipped {
		return nil, nil
	}
	return nil, ErrNoMatchingFormat
}

// imagePath returns the single file-list entry when the list has exactly
// one, the "copied an image file" shape where the list names the image's
// origin. Lists with more entries are never treated as an origin hint.
func (x *extractor) imagePath(src tierSource) string {
	paths, err := src.fileList()
	if err != nil || len(paths) != 1 {
		return ""
	}
	return paths[0]
}
