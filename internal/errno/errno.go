// Package errno keeps instrumentation from leaking into the thread-local C
// errno seen by an interposed application.
//
// A replacement for a libc function must return with errno exactly as the
// genuine call left it. Anything the replacement does afterwards (logging,
// map updates, allocation) may touch errno, so that work runs inside
// [Preserve].
package errno

// Errno reads and writes the calling thread's C errno.
type Errno interface {
	Get() int
	Set(value int)
}

// Preserve saves errno, runs fn, then restores the saved value.
func Preserve(e Errno, fn func()) {
	saved := e.Get()
	defer e.Set(saved)
	fn()
}

// Value is an in-memory [Errno] used where no C thread state exists.
type Value struct {
	code int
}

var _ Errno = &Value{}

// Get implements [Errno].
func (v *Value) Get() int {
	return v.code
}

// Set implements [Errno].
func (v *Value) Set(value int) {
	v.code = value
}
