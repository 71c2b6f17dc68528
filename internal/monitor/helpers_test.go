//go:build linux

package monitor

import (
	"encoding/binary"
	"net/netip"
	"unsafe"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sys/unix"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/addrinfo"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/errno"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
)

// fakeLibc stands in for the genuine libc. Failures set errno on the
// shared [errno.Value] the way the real functions set the thread's errno.
type fakeLibc struct {
	errno *errno.Value
	calls []string

	nextFD int32

	socketErrno  int
	connectRv    int32
	connectErrno int
	gaiRv        int32
	gaiErrno     int
	gaiResult    *addrinfo.Node
	closeRv      int32
	closeErrno   int
}

var _ Libc = &fakeLibc{}

func (f *fakeLibc) Socket(domain, typ, protocol int32) int32 {
	f.calls = append(f.calls, "socket")
	if f.socketErrno != 0 {
		f.errno.Set(f.socketErrno)
		return -1
	}
	fd := f.nextFD
	f.nextFD++
	return fd
}

func (f *fakeLibc) Connect(fd int32, addr unsafe.Pointer, addrlen uint32) int32 {
	f.calls = append(f.calls, "connect")
	if f.connectErrno != 0 {
		f.errno.Set(f.connectErrno)
	}
	return f.connectRv
}

func (f *fakeLibc) Getaddrinfo(node, service, hints unsafe.Pointer, res *unsafe.Pointer) int32 {
	f.calls = append(f.calls, "getaddrinfo")
	if f.gaiErrno != 0 {
		f.errno.Set(f.gaiErrno)
	}
	if f.gaiRv == 0 && res != nil {
		*res = unsafe.Pointer(f.gaiResult)
	}
	return f.gaiRv
}

func (f *fakeLibc) Close(fd int32) int32 {
	f.calls = append(f.calls, "close")
	if f.closeErrno != 0 {
		f.errno.Set(f.closeErrno)
	}
	return f.closeRv
}

// clobberCore writes a junk errno on every log write, like a logger whose
// write(2) fails would.
type clobberCore struct {
	zapcore.Core
	errno errno.Errno
}

func (c clobberCore) With(fields []zapcore.Field) zapcore.Core {
	return clobberCore{Core: c.Core.With(fields), errno: c.errno}
}

func (c clobberCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c clobberCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	c.errno.Set(int(unix.EPIPE))
	return c.Core.Write(ent, fields)
}

// newTestMonitor returns a monitor over a fake libc, with logs captured
// and every log write clobbering errno.
func newTestMonitor() (*Monitor, *fakeLibc, *observer.ObservedLogs) {
	e := &errno.Value{}
	libc := &fakeLibc{errno: e, nextFD: 3}
	core, logs := observer.New(zapcore.DebugLevel)
	m := New(libc, e, log.FromCore(clobberCore{Core: core, errno: e}))
	return m, libc, logs
}

func inet4(ip string, port uint16) (unsafe.Pointer, uint32) {
	sa := &unix.RawSockaddrInet4{Family: unix.AF_INET, Addr: netip.MustParseAddr(ip).As4()}
	binary.BigEndian.PutUint16((*[2]byte)(unsafe.Pointer(&sa.Port))[:], port)
	return unsafe.Pointer(sa), unix.SizeofSockaddrInet4
}

func inet6(ip string, port uint16) (unsafe.Pointer, uint32) {
	sa := &unix.RawSockaddrInet6{Family: unix.AF_INET6, Addr: netip.MustParseAddr(ip).As16()}
	binary.BigEndian.PutUint16((*[2]byte)(unsafe.Pointer(&sa.Port))[:], port)
	return unsafe.Pointer(sa), unix.SizeofSockaddrInet6
}

// resultList builds a getaddrinfo result list for the given addresses.
func resultList(port uint16, ips ...string) *addrinfo.Node {
	var head, tail *addrinfo.Node
	for _, ip := range ips {
		node := &addrinfo.Node{Socktype: unix.SOCK_STREAM}
		if netip.MustParseAddr(ip).Is4() {
			node.Family = unix.AF_INET
			node.Addr, node.Addrlen = inet4(ip, port)
		} else {
			node.Family = unix.AF_INET6
			node.Addr, node.Addrlen = inet6(ip, port)
		}
		if head == nil {
			head = node
		} else {
			tail.Next = node
		}
		tail = node
	}
	return head
}

func cString(s string) unsafe.Pointer {
	b := append([]byte(s), 0)
	return unsafe.Pointer(&b[0])
}

func messages(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.All() {
		out = append(out, e.Message)
	}
	return out
}

func lastEntry(logs *observer.ObservedLogs, msg string) (observer.LoggedEntry, bool) {
	entries := logs.FilterMessage(msg).All()
	if len(entries) == 0 {
		return observer.LoggedEntry{}, false
	}
	return entries[len(entries)-1], true
}
