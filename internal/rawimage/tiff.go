package rawimage

import (
	"bytes"
	"fmt"

	"golang.org/x/image/tiff"
)

// DecodeTIFF decodes pasteboard TIFF data, the raw-image format macOS
// advertises for most copied bitmaps.
func DecodeTIFF(data []byte) (*Image, error) {
	m, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding tiff: %w", err)
	}
	return fromImage(m), nil
}
