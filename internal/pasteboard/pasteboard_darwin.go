//go:build darwin && cgo
// +build darwin,cgo

// Package pasteboard wraps the general NSPasteboard for the darwin clipboard
// observer: the change counter, type enumeration, payload copies with a
// pre-bridge size gate, and file-URL extraction.
package pasteboard

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa
#import <Cocoa/Cocoa.h>
#include <stdlib.h>
#include <string.h>

long clip_change_count(void) {
	@autoreleasepool {
		return (long)[[NSPasteboard generalPasteboard] changeCount];
	}
}

// clip_types returns the newline-joined type identifiers of the current
// pasteboard contents, or NULL when it is empty. Caller frees.
char *clip_types(void) {
	@autoreleasepool {
		NSArray<NSPasteboardType> *types = [[NSPasteboard generalPasteboard] types];
		if (types == nil || [types count] == 0) {
			return NULL;
		}
		return strdup([[types componentsJoinedByString:@"\n"] UTF8String]);
	}
}

// clip_data copies the payload for type into a malloc'd buffer, unless
// limit > 0 and the payload is larger. The NSData length is checked before
// any bytes are bridged. status: 0 ok, 1 absent, 2 too large, 3 no memory.
void *clip_data(const char *type, long limit, long *len, int *status) {
	@autoreleasepool {
		NSString *t = [NSString stringWithUTF8String:type];
		NSData *data = [[NSPasteboard generalPasteboard] dataForType:t];
		if (data == nil) {
			*status = 1;
			return NULL;
		}
		long n = (long)[data length];
		if (limit > 0 && n > limit) {
			*status = 2;
			return NULL;
		}
		*status = 0;
		*len = n;
		if (n == 0) {
			return NULL;
		}
		void *buf = malloc((size_t)n);
		if (buf == NULL) {
			*status = 3;
			return NULL;
		}
		memcpy(buf, [data bytes], (size_t)n);
		return buf;
	}
}

// clip_file_urls returns the newline-joined filesystem paths of the file
// URLs on the pasteboard, traversing every item. NULL when there are none.
// Caller frees.
char *clip_file_urls(void) {
	@autoreleasepool {
		NSPasteboard *pb = [NSPasteboard generalPasteboard];
		NSDictionary *opts = @{NSPasteboardURLReadingFileURLsOnlyKey: @YES};
		NSArray<NSURL *> *urls = [pb readObjectsForClasses:@[[NSURL class]] options:opts];
		if (urls == nil || [urls count] == 0) {
			return NULL;
		}
		NSMutableArray<NSString *> *paths = [NSMutableArray arrayWithCapacity:[urls count]];
		for (NSURL *u in urls) {
			if ([u isFileURL] && [u path] != nil) {
				[paths addObject:[u path]];
			}
		}
		if ([paths count] == 0) {
			return NULL;
		}
		return strdup([[paths componentsJoinedByString:@"\n"] UTF8String]);
	}
}
*/
import "C"

import (
	"errors"
	"strings"
	"sync"
	"unsafe"
)

var (
	// ErrUnavailable reports that the pasteboard holds no payload for the
	// requested type.
	ErrUnavailable = errors.New("pasteboard: type is not available")

	// ErrTooLarge reports that a payload exceeded the caller's size limit
	// and was not bridged.
	ErrTooLarge = errors.New("pasteboard: payload exceeds size limit")
)

// ChangeCount returns the pasteboard's mutation counter. It advances on
// every write, including writes that replace content with identical bytes.
func ChangeCount() int64 {
	return int64(C.clip_change_count())
}

// Types lists the type identifiers of the current contents in the order the
// owner declared them.
func Types() []string {
	c := C.clip_types()
	if c == nil {
		return nil
	}
	defer C.free(unsafe.Pointer(c))
	return strings.Split(C.GoString(c), "\n")
}

// Data copies the payload for the given type. limit > 0 rejects larger
// payloads before any bytes cross the bridge. An empty payload is a nil
// slice with a nil error.
func Data(typ string, limit int64) ([]byte, error) {
	ctyp := C.CString(typ)
	defer C.free(unsafe.Pointer(ctyp))

	var n C.long
	var status C.int
	p := C.clip_data(ctyp, C.long(limit), &n, &status)
	switch status {
	case 1:
		return nil, ErrUnavailable
	case 2:
		return nil, ErrTooLarge
	case 3:
		return nil, errors.New("pasteboard: allocating payload buffer failed")
	}
	if p == nil {
		return nil, nil
	}
	defer C.free(p)
	return C.GoBytes(p, C.int(n)), nil
}

// FilePaths lists the filesystem paths of the file URLs on the pasteboard,
// across all items.
func FilePaths() []string {
	c := C.clip_file_urls()
	if c == nil {
		return nil
	}
	defer C.free(unsafe.Pointer(c))
	return strings.Split(C.GoString(c), "\n")
}

// NSPasteboard identifies formats by string alone, so numeric format ids
// are process-local and come from an intern table.
var (
	internMu   sync.Mutex
	internIDs  = map[string]uint32{}
	internNext uint32 = 1
)

// InternID returns the process-local numeric id for a pasteboard type name.
// The same name always yields the same id within a process.
func InternID(name string) uint32 {
	internMu.Lock()
	defer internMu.Unlock()
	if id, ok := internIDs[name]; ok {
		return id
	}
	id := internNext
	internNext++
	internIDs[name] = id
	return id
}
