//go:build cgo && linux

package errno

/*
#include <errno.h>

static int lnm_errno_get(void) { return errno; }
static void lnm_errno_set(int value) { errno = value; }
*/
import "C"

// Thread accesses the C errno of the current OS thread.
//
// The value is thread-local: callers must be running on the thread whose
// errno they mean, which holds for code reached from a cgo callback.
type Thread struct{}

var _ Errno = Thread{}

// Get implements [Errno].
func (Thread) Get() int {
	return int(C.lnm_errno_get())
}

// Set implements [Errno].
func (Thread) Set(value int) {
	C.lnm_errno_set(C.int(value))
}
