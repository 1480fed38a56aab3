//go:build windows
// +build windows

// Package win32 wraps the clipboard slice of the Win32 API: session
// sequence numbers, format enumeration and naming, and global-memory
// payload access. Callers bracket reads with Open/Close; everything between
// sees one consistent clipboard snapshot.
package win32

import (
	"errors"
	"fmt"
	"syscall"
	"time"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32   = windows.NewLazySystemDLL("user32.dll")
	kernel32 = windows.NewLazySystemDLL("kernel32.dll")
	shell32  = windows.NewLazySystemDLL("shell32.dll")

	procOpenClipboard              = user32.NewProc("OpenClipboard")
	procCloseClipboard             = user32.NewProc("CloseClipboard")
	procEnumClipboardFormats       = user32.NewProc("EnumClipboardFormats")
	procGetClipboardFormatNameW    = user32.NewProc("GetClipboardFormatNameW")
	procRegisterClipboardFormatW   = user32.NewProc("RegisterClipboardFormatW")
	procGetClipboardData           = user32.NewProc("GetClipboardData")
	procGetClipboardSequenceNumber = user32.NewProc("GetClipboardSequenceNumber")
	procGlobalLock                 = kernel32.NewProc("GlobalLock")
	procGlobalUnlock               = kernel32.NewProc("GlobalUnlock")
	procGlobalSize                 = kernel32.NewProc("GlobalSize")
	procDragQueryFileW             = shell32.NewProc("DragQueryFileW")
)

// Predefined clipboard formats the observer cares about.
const (
	CFText        = 1
	CFDIB         = 8
	CFUnicodeText = 13
	CFHDrop       = 15
	CFDIBV5       = 17
)

// Registered format ids start here; below are the predefined CF_ range.
const registeredFormatFirst = 0xC000

// ErrFormatUnavailable reports that GetClipboardData returned no handle for
// the requested format.
var ErrFormatUnavailable = errors.New("win32: format is not available")

const (
	openAttempts   = 10
	openRetryPause = 5 * time.Millisecond
)

// Open acquires the clipboard, retrying briefly while another process holds
// it. Every successful Open must be paired with Close.
func Open() error {
	for i := 0; i < openAttempts; i++ {
		r, _, _ := procOpenClipboard.Call(0)
		if r != 0 {
			return nil
		}
		time.Sleep(openRetryPause)
	}
	return errors.New("win32: clipboard is held by another process")
}

// Close releases the clipboard.
func Close() {
	procCloseClipboard.Call()
}

// SequenceNumber returns the session's clipboard change counter. It does not
// require the clipboard to be open and never fails.
func SequenceNumber() uint32 {
	r, _, _ := procGetClipboardSequenceNumber.Call()
	return uint32(r)
}

// Formats enumerates the open clipboard's formats in their stored order,
// which is the order the owner placed them.
func Formats() ([]uint32, error) {
	var ids []uint32
	cur := uintptr(0)
	for {
		r, _, err := procEnumClipboardFormats.Call(cur)
		if r == 0 {
			if errno, ok := err.(syscall.Errno); ok && errno != 0 {
				return nil, fmt.Errorf("enumerating clipboard formats: %w", errno)
			}
			return ids, nil
		}
		ids = append(ids, uint32(r))
		cur = r
	}
}

var predefinedNames = map[uint32]string{
	1:      "CF_TEXT",
	2:      "CF_BITMAP",
	3:      "CF_METAFILEPICT",
	4:      "CF_SYLK",
	5:      "CF_DIF",
	6:      "CF_TIFF",
	7:      "CF_OEMTEXT",
	8:      "CF_DIB",
	9:      "CF_PALETTE",
	10:     "CF_PENDATA",
	11:     "CF_RIFF",
	12:     "CF_WAVE",
	13:     "CF_UNICODETEXT",
	14:     "CF_ENHMETAFILE",
	15:     "CF_HDROP",
	16:     "CF_LOCALE",
	17:     "CF_DIBV5",
	0x0080: "CF_OWNERDISPLAY",
	0x0081: "CF_DSPTEXT",
	0x0082: "CF_DSPBITMAP",
	0x0083: "CF_DSPMETAFILEPICT",
	0x008E: "CF_DSPENHMETAFILE",
}

// FormatName resolves id to a display name: the registered name for
// registered formats, the CF_ constant name for predefined ones, a hex
// placeholder otherwise.
func FormatName(id uint32) string {
	if id >= registeredFormatFirst {
		var buf [256]uint16
		n, _, _ := procGetClipboardFormatNameW.Call(uintptr(id),
			uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if n > 0 {
			return windows.UTF16ToString(buf[:n])
		}
	}
	if name, ok := predefinedNames[id]; ok {
		return name
	}
	return fmt.Sprintf("CF_0x%04X", id)
}

// RegisterFormat interns a format name with the session and returns its id.
// Registering a name twice returns the same id.
func RegisterFormat(name string) (uint32, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, fmt.Errorf("encoding format name %q: %w", name, err)
	}
	r, _, errno := procRegisterClipboardFormatW.Call(uintptr(unsafe.Pointer(p)))
	if r == 0 {
		return 0, fmt.Errorf("registering format %q: %w", name, errno)
	}
	return uint32(r), nil
}

// DataSize reports the byte size of the format's global memory block without
// copying it. ok is false when the format has no handle.
func DataSize(id uint32) (size int64, ok bool) {
	h, _, _ := procGetClipboardData.Call(uintptr(id))
	if h == 0 {
		return 0, false
	}
	n, _, _ := procGlobalSize.Call(h)
	return int64(n), true
}

// Data copies the format's payload out of its global memory block.
func Data(id uint32) ([]byte, error) {
	h, _, _ := procGetClipboardData.Call(uintptr(id))
	if h == 0 {
		return nil, ErrFormatUnavailable
	}
	size, _, _ := procGlobalSize.Call(h)
	if size == 0 {
		return nil, nil
	}
	p, _, _ := procGlobalLock.Call(h)
	if p == 0 {
		return nil, errors.New("win32: locking clipboard memory failed")
	}
	defer procGlobalUnlock.Call(h)

	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(p)), size))
	return data, nil
}

// FileList reads the CF_HDROP payload as a list of absolute paths.
// DragQueryFileW locks the drop handle itself, so none is taken here.
func FileList() ([]string, error) {
	h, _, _ := procGetClipboardData.Call(uintptr(CFHDrop))
	if h == 0 {
		return nil, ErrFormatUnavailable
	}

	const allFiles = 0xFFFFFFFF
	count, _, _ := procDragQueryFileW.Call(h, allFiles, 0, 0)
	paths := make([]string, 0, count)
	for i := uintptr(0); i < count; i++ {
		n, _, _ := procDragQueryFileW.Call(h, i, 0, 0)
		if n == 0 {
			continue
		}
		buf := make([]uint16, n+1)
		procDragQueryFileW.Call(h, i, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		paths = append(paths, windows.UTF16ToString(buf))
	}
	return paths, nil
}

// Text decodes a CF_UNICODETEXT payload: little-endian UTF-16, cut at the
// first NUL.
func Text(data []byte) string {
	u := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		c := uint16(data[i]) | uint16(data[i+1])<<8
		if c == 0 {
			break
		}
		u = append(u, c)
	}
	return string(utf16.Decode(u))
}
