//go:build cgo && linux

package symbol

/*
#cgo LDFLAGS: -ldl
#define _GNU_SOURCE
#include <dlfcn.h>
#include <stdlib.h>

static void *lnm_dlsym_next(const char *name) {
	dlerror();
	return dlsym(RTLD_NEXT, name);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Next looks name up in the objects loaded after the caller's own, the
// dlsym(RTLD_NEXT, name) idiom for reaching the function being wrapped.
func Next(name string) (unsafe.Pointer, error) {
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	addr := C.lnm_dlsym_next(cname)
	if addr == nil {
		if msg := C.dlerror(); msg != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrNotFound, name, C.GoString(msg))
		}
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return addr, nil
}
