package clipstream

// Format names one native clipboard format together with its platform
// handle: an X11 atom, a Win32 format id, or an interned pasteboard-type
// index. The handle is only meaningful to the provider that produced it.
type Format struct {
	Name string
	ID   uint32
}

// Formats is the ordered set of formats a clipboard owner advertised for a
// single snapshot, in native enumeration order.
type Formats struct {
	list []Format
}

func newFormats(capacity int) *Formats {
	return &Formats{list: make([]Format, 0, capacity)}
}

func (f *Formats) add(ft Format) {
	f.list = append(f.list, ft)
}

// Len reports the number of advertised formats.
func (f *Formats) Len() int { return len(f.list) }

// Contains reports whether a format with the given name is advertised.
func (f *Formats) Contains(name string) bool {
	_, ok := f.Lookup(name)
	return ok
}

// ContainsID reports whether a format with the given platform handle is
// advertised.
func (f *Formats) ContainsID(id uint32) bool {
	for _, ft := range f.list {
		if ft.ID == id {
			return true
		}
	}
	return false
}

// Lookup returns the advertised format with the given name.
func (f *Formats) Lookup(name string) (Format, bool) {
	for _, ft := range f.list {
		if ft.Name == name {
			return ft, true
		}
	}
	return Format{}, false
}

// All returns a copy of the advertised formats.
func (f *Formats) All() []Format {
	out := make([]Format, len(f.list))
	copy(out, f.list)
	return out
}

// Names returns the advertised format names, in order.
func (f *Formats) Names() []string {
	out := make([]string, len(f.list))
	for i, ft := range f.list {
		out[i] = ft.Name
	}
	return out
}
