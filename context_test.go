package clipstream

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	data      map[string][]byte
	err       error
	lastLimit int64
}

func (r *stubReader) readFormat(f Format, limit int64) ([]byte, error) {
	r.lastLimit = limit
	if r.err != nil {
		return nil, r.err
	}
	return r.data[f.Name], nil
}

func testContext(reader *stubReader, names ...string) *Context {
	catalog := newFormats(len(names))
	for i, name := range names {
		catalog.add(Format{Name: name, ID: uint32(i + 1)})
	}
	return &Context{formats: catalog, reader: reader}
}

func TestContext_HasFormat(t *testing.T) {
	ctx := testContext(&stubReader{}, "UTF8_STRING", "image/png")

	assert.True(t, ctx.HasFormat("UTF8_STRING"))
	assert.True(t, ctx.HasFormat("image/png"))
	assert.False(t, ctx.HasFormat("text/html"))
	assert.Equal(t, []string{"UTF8_STRING", "image/png"}, ctx.Formats().Names())
}

func TestContext_Data(t *testing.T) {
	reader := &stubReader{data: map[string][]byte{"image/png": []byte("payload")}}
	ctx := testContext(reader, "image/png")

	f, ok := ctx.Formats().Lookup("image/png")
	require.True(t, ok)

	data, err := ctx.Data(f)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
	assert.Zero(t, reader.lastLimit, "gatekeeper reads are never size limited")
}

func TestContext_Uint32(t *testing.T) {
	value := make([]byte, 4)
	binary.NativeEndian.PutUint32(value, 7)

	reader := &stubReader{data: map[string][]byte{
		"CanIncludeInClipboardHistory": value,
		"truncated":                    {1, 2},
	}}
	ctx := testContext(reader, "CanIncludeInClipboardHistory", "truncated")

	got, ok := ctx.Uint32("CanIncludeInClipboardHistory")
	assert.True(t, ok)
	assert.Equal(t, uint32(7), got)

	_, ok = ctx.Uint32("truncated")
	assert.False(t, ok, "fewer than four payload bytes cannot carry a marker value")

	_, ok = ctx.Uint32("missing")
	assert.False(t, ok)
}

func TestContext_Uint32ReadFailure(t *testing.T) {
	reader := &stubReader{err: errors.New("clipboard went away")}
	ctx := testContext(reader, "CanUploadToCloudClipboard")

	_, ok := ctx.Uint32("CanUploadToCloudClipboard")
	assert.False(t, ok)
}
