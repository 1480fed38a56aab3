package rawimage

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// testBitmap is a 2x2 image with one primary color per corner, fully opaque
// so encoders keep exact channel values.
func testBitmap() *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	m.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	m.SetNRGBA(1, 0, color.NRGBA{G: 255, A: 255})
	m.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})
	m.SetNRGBA(1, 1, color.NRGBA{R: 255, G: 255, A: 255})
	return m
}

// Row-major RGB for testBitmap: red, green / blue, yellow.
var testBitmapRGB = []byte{
	255, 0, 0, 0, 255, 0,
	0, 0, 255, 255, 255, 0,
}

func TestDecodeDIB(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, testBitmap()))

	// A clipboard DIB is the BMP payload without the 14-byte file header.
	dib := buf.Bytes()[14:]

	img, err := DecodeDIB(dib)
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, testBitmapRGB, img.Pix)
}

func putU32(b *bytes.Buffer, vs ...uint32) {
	for _, v := range vs {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], v)
		b.Write(tmp[:])
	}
}

func putU16(b *bytes.Buffer, vs ...uint16) {
	for _, v := range vs {
		var tmp [2]byte
		binary.LittleEndian.PutUint16(tmp[:], v)
		b.Write(tmp[:])
	}
}

// TestDecodeDIBBitfields covers the common screenshot shape: a plain
// 40-byte header, 32-bit pixels, BI_BITFIELDS naming the masks BI_RGB
// would imply anyway.
func TestDecodeDIBBitfields(t *testing.T) {
	var dib bytes.Buffer
	putU32(&dib, 40, 2, 2)
	putU16(&dib, 1, 32)
	putU32(&dib, 3, 32, 0, 0, 0, 0)
	putU32(&dib, 0x00FF0000, 0x0000FF00, 0x000000FF)
	// BGRX pixel rows, bottom row first.
	dib.Write([]byte{255, 0, 0, 0, 0, 255, 255, 0}) // blue, yellow
	dib.Write([]byte{0, 0, 255, 0, 0, 255, 0, 0})   // red, green

	img, err := DecodeDIB(dib.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, testBitmapRGB, img.Pix)
}

func TestDecodeDIBPaletted(t *testing.T) {
	var dib bytes.Buffer
	putU32(&dib, 40, 2, 2)
	putU16(&dib, 1, 8)
	putU32(&dib, 0, 8, 0, 0, 4, 0)
	// BGRX palette: red, green, blue, yellow.
	dib.Write([]byte{0, 0, 255, 0})
	dib.Write([]byte{0, 255, 0, 0})
	dib.Write([]byte{255, 0, 0, 0})
	dib.Write([]byte{0, 255, 255, 0})
	// Index rows padded to four bytes, bottom row first.
	dib.Write([]byte{2, 3, 0, 0})
	dib.Write([]byte{0, 1, 0, 0})

	img, err := DecodeDIB(dib.Bytes())
	require.NoError(t, err)
	assert.Equal(t, testBitmapRGB, img.Pix)
}

func TestDecodeDIBRejectsOddMasks(t *testing.T) {
	var dib bytes.Buffer
	putU32(&dib, 40, 2, 2)
	putU16(&dib, 1, 16)
	putU32(&dib, 3, 16, 0, 0, 0, 0)
	putU32(&dib, 0xF800, 0x07E0, 0x001F) // 565, not the BGRX defaults
	dib.Write(make([]byte, 16))

	_, err := DecodeDIB(dib.Bytes())
	assert.Error(t, err)
}

func TestDecodeDIBRejectsShortPayload(t *testing.T) {
	_, err := DecodeDIB([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestDecodeDIBRejectsBogusHeaderSize(t *testing.T) {
	data := make([]byte, 40)
	data[0] = 200 // claims a header larger than the payload
	_, err := DecodeDIB(data)
	assert.Error(t, err)
}

func TestDecodeTIFF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, testBitmap(), nil))

	img, err := DecodeTIFF(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 2, img.Width)
	assert.Equal(t, 2, img.Height)
	assert.Equal(t, testBitmapRGB, img.Pix)
}

func TestDecodeTIFFRejectsGarbage(t *testing.T) {
	_, err := DecodeTIFF([]byte("not a tiff"))
	assert.Error(t, err)
}
