package clipstream

import "encoding/binary"

// Gatekeeper decides, once per clipboard change and before any content is
// read, whether the change should be processed at all. Returning false skips
// the change entirely: no event and no error reach subscribers. It runs on
// the observer thread, so it should be quick.
type Gatekeeper func(*Context) bool

// formatReader reads one format's raw payload, honoring an optional byte
// limit (0 = unlimited). Implemented by each platform observer.
type formatReader interface {
	readFormat(f Format, limit int64) ([]byte, error)
}

// Context hands a Gatekeeper a read-only view of the advertised formats plus
// on-demand access to individual payloads. Nothing is read unless the
// predicate asks for it.
type Context struct {
	formats *Formats
	reader  formatReader
}

// Formats returns the formats advertised by the current clipboard owner.
func (c *Context) Formats() *Formats { return c.formats }

// HasFormat reports whether the named format is advertised.
func (c *Context) HasFormat(name string) bool { return c.formats.Contains(name) }

// Data reads the raw payload of f. Size limits do not apply here.
func (c *Context) Data(f Format) ([]byte, error) {
	return c.reader.readFormat(f, 0)
}

// Uint32 reads the named format and interprets its first four payload bytes
// as a native-endian unsigned integer, the layout used by Windows marker
// formats such as "CanIncludeInClipboardHistory".
func (c *Context) Uint32(name string) (uint32, bool) {
	f, ok := c.formats.Lookup(name)
	if !ok {
		return 0, false
	}
	data, err := c.reader.readFormat(f, 0)
	if err != nil || len(data) < 4 {
		return 0, false
	}
	return binary.NativeEndian.Uint32(data), true
}
