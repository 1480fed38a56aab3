package rawimage

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"golang.org/x/image/bmp"
)

// Field offsets within a BITMAPINFOHEADER (and the V4/V5 supersets).
const (
	dibOffSize        = 0
	dibOffBitCount    = 14
	dibOffCompression = 16
	dibOffClrUsed     = 32
	dibOffMasks       = 40

	dibMinHeader  = 40
	fileHeaderLen = 14

	biRGB       = 0
	biBitfields = 3
)

// DecodeDIB decodes a clipboard DIB, the CF_DIB/CF_DIBV5 payload: a BMP
// file without its 14-byte file header. The file header is reconstructed
// around the payload so the standard decoder can run.
//
// Clipboards routinely spell uncompressed 32-bit pixels as BI_BITFIELDS
// with the masks BI_RGB implies anyway; the decoder rejects that spelling,
// so the header is patched back to BI_RGB first. Short palettes are padded
// to the full 256 entries the decoder insists on.
func DecodeDIB(data []byte) (*Image, error) {
	if len(data) < dibMinHeader {
		return nil, fmt.Errorf("dib payload too short: %d bytes", len(data))
	}
	headerSize := binary.LittleEndian.Uint32(data[dibOffSize:])
	if headerSize < dibMinHeader || uint32(len(data)) < headerSize {
		return nil, fmt.Errorf("dib header size %d out of range", headerSize)
	}

	header := make([]byte, headerSize)
	copy(header, data)
	rest := data[headerSize:]

	bitCount := binary.LittleEndian.Uint16(header[dibOffBitCount:])
	compression := binary.LittleEndian.Uint32(header[dibOffCompression:])

	if compression == biBitfields {
		var masks []byte
		if headerSize == dibMinHeader {
			// Plain info header: the masks sit between header and pixels.
			if len(rest) < 12 {
				return nil, fmt.Errorf("dib bitfields masks truncated")
			}
			masks, rest = rest[:12], rest[12:]
		} else if len(header) >= dibOffMasks+12 {
			masks = header[dibOffMasks : dibOffMasks+12]
		}
		if !canonicalMasks(masks) {
			return nil, fmt.Errorf("dib bitfields masks unsupported")
		}
		binary.LittleEndian.PutUint32(header[dibOffCompression:], biRGB)
	}

	var palette []byte
	if bitCount <= 8 {
		colors := binary.LittleEndian.Uint32(header[dibOffClrUsed:])
		if colors == 0 {
			colors = 1 << bitCount
		}
		need := int(colors) * 4
		if len(rest) < need {
			return nil, fmt.Errorf("dib palette truncated")
		}
		palette = make([]byte, 256*4)
		copy(palette, rest[:need])
		rest = rest[need:]
	}

	total := fileHeaderLen + len(header) + len(palette) + len(rest)
	var buf bytes.Buffer
	buf.Grow(total)
	buf.WriteByte('B')
	buf.WriteByte('M')
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(total))
	buf.Write(tmp[:])
	buf.Write([]byte{0, 0, 0, 0}) // reserved
	binary.LittleEndian.PutUint32(tmp[:], uint32(fileHeaderLen+len(header)+len(palette)))
	buf.Write(tmp[:])
	buf.Write(header)
	buf.Write(palette)
	buf.Write(rest)

	m, err := bmp.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decoding dib: %w", err)
	}
	return fromImage(m), nil
}

// canonicalMasks reports whether 12 bytes of RGB bitfield masks name the
// default BGRX layout, i.e. what BI_RGB would mean at the same depth.
func canonicalMasks(masks []byte) bool {
	if len(masks) < 12 {
		return false
	}
	return binary.LittleEndian.Uint32(masks[0:]) == 0x00FF0000 &&
		binary.LittleEndian.Uint32(masks[4:]) == 0x0000FF00 &&
		binary.LittleEndian.Uint32(masks[8:]) == 0x000000FF
}
