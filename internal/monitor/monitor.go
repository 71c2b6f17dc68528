//go:build linux

// Package monitor implements the bookkeeping behind the interposed socket
// functions.
//
// Each entry point forwards to the genuine libc function and returns its
// result unchanged. Everything else it does, before or after the call,
// runs with errno saved and restored around it.
package monitor

import (
	"syscall"
	"unsafe"

	"github.com/bassosimone/errclass"
	"github.com/bassosimone/runtimex"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/errno"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/store"
)

// Libc abstracts the genuine libc socket functions.
//
// By depending on an abstract implementation we allow for unit testing
// without a preloaded library.
type Libc interface {
	Socket(domain, typ, protocol int32) int32
	Connect(fd int32, addr unsafe.Pointer, addrlen uint32) int32
	Getaddrinfo(node, service, hints unsafe.Pointer, res *unsafe.Pointer) int32
	Close(fd int32) int32
}

// Monitor holds the state shared by all entry points.
//
// All fields are safe to modify after construction but before first use.
type Monitor struct {
	// Libc is the genuine implementation calls are forwarded to.
	Libc Libc

	// Errno is the calling thread's errno.
	Errno errno.Errno

	// Logger receives the diagnostic events.
	Logger *log.Logger

	// Sockets tracks IPv4/IPv6 socket descriptors.
	Sockets *store.MonitoredSockets

	// Resolved maps resolved IPs to hostnames.
	Resolved *store.ResolvedAddresses
}

// New returns a [*Monitor] with empty tables.
func New(libc Libc, e errno.Errno, logger *log.Logger) *Monitor {
	runtimex.Assert(libc != nil)
	runtimex.Assert(e != nil)
	if logger == nil {
		logger = log.NewNop()
	}
	return &Monitor{
		Libc:     libc,
		Errno:    e,
		Logger:   logger,
		Sockets:  store.NewMonitoredSockets(logger),
		Resolved: store.NewResolvedAddresses(logger),
	}
}

// preserve runs fn without letting it change the errno the caller sees.
func (m *Monitor) preserve(fn func()) {
	errno.Preserve(m.Errno, fn)
}

// errnoFields describes the current errno. Call it inside preserve before
// anything else can change errno.
func (m *Monitor) errnoFields() []zap.Field {
	code := syscall.Errno(m.Errno.Get())
	return []zap.Field{
		zap.String("errno", unix.ErrnoName(code)),
		zap.String("errClass", classify(code)),
	}
}

func classify(code syscall.Errno) string {
	if code == 0 {
		return ""
	}
	return errclass.New(code)
}

// isInet reports whether domain is one the monitor tracks.
func isInet(domain int32) bool {
	return domain == unix.AF_INET || domain == unix.AF_INET6
}
