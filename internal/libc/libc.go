//go:build cgo && linux

// Package libc calls the genuine libc socket functions through addresses
// found with dlsym(RTLD_NEXT).
package libc

/*
#include <errno.h>
#include <netdb.h>
#include <sys/socket.h>

typedef int (*lnm_socket_fn)(int, int, int);
typedef int (*lnm_connect_fn)(int, const struct sockaddr *, socklen_t);
typedef int (*lnm_getaddrinfo_fn)(const char *, const char *, const struct addrinfo *, struct addrinfo **);
typedef int (*lnm_close_fn)(int);

static int lnm_call_socket(void *fn, int domain, int type, int protocol) {
	return ((lnm_socket_fn)fn)(domain, type, protocol);
}

static int lnm_call_connect(void *fn, int fd, void *addr, unsigned int addrlen) {
	return ((lnm_connect_fn)fn)(fd, (const struct sockaddr *)addr, (socklen_t)addrlen);
}

static int lnm_call_getaddrinfo(void *fn, void *node, void *service, void *hints, void **res) {
	return ((lnm_getaddrinfo_fn)fn)((const char *)node, (const char *)service,
		(const struct addrinfo *)hints, (struct addrinfo **)res);
}

static int lnm_call_close(void *fn, int fd) {
	return ((lnm_close_fn)fn)(fd);
}

static void lnm_set_enosys(void) { errno = ENOSYS; }
*/
import "C"

import (
	"unsafe"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/symbol"
)

// eaiSystem is glibc's EAI_SYSTEM.
const eaiSystem = -11

// Genuine forwards to the libc implementations registered in a
// [symbol.Table]. A function whose symbol could not be resolved fails with
// ENOSYS.
type Genuine struct {
	table       *symbol.Table
	socket      *symbol.Symbol
	connect     *symbol.Symbol
	getaddrinfo *symbol.Symbol
	close       *symbol.Symbol
}

// New registers the four functions in a table resolving through lookup.
// Nothing is resolved until first use or [Genuine.ResolveAll].
func New(lookup symbol.Lookup, logger *log.Logger) *Genuine {
	table := symbol.NewTable(lookup, logger)
	return &Genuine{
		table:       table,
		socket:      table.Register(Socket),
		connect:     table.Register(Connect),
		getaddrinfo: table.Register(Getaddrinfo),
		close:       table.Register(Close),
	}
}

// NewNext is [New] with [symbol.Next], the lookup used when preloaded.
func NewNext(logger *log.Logger) *Genuine {
	return New(symbol.Next, logger)
}

// ResolveAll resolves every function now, reporting all failures.
func (g *Genuine) ResolveAll() error {
	return g.table.ResolveAll()
}

// Table returns the underlying symbol table.
func (g *Genuine) Table() *symbol.Table {
	return g.table
}

// Socket calls the genuine socket(2).
func (g *Genuine) Socket(domain, typ, protocol int32) int32 {
	fn := g.socket.Get()
	if fn == nil {
		C.lnm_set_enosys()
		return -1
	}
	return int32(C.lnm_call_socket(fn, C.int(domain), C.int(typ), C.int(protocol)))
}

// Connect calls the genuine connect(2).
func (g *Genuine) Connect(fd int32, addr unsafe.Pointer, addrlen uint32) int32 {
	fn := g.connect.Get()
	if fn == nil {
		C.lnm_set_enosys()
		return -1
	}
	return int32(C.lnm_call_connect(fn, C.int(fd), addr, C.uint(addrlen)))
}

// Getaddrinfo calls the genuine getaddrinfo(3).
func (g *Genuine) Getaddrinfo(node, service, hints unsafe.Pointer, res *unsafe.Pointer) int32 {
	fn := g.getaddrinfo.Get()
	if fn == nil {
		C.lnm_set_enosys()
		return eaiSystem
	}
	return int32(C.lnm_call_getaddrinfo(fn, node, service, hints, res))
}

// Close calls the genuine close(2).
func (g *Genuine) Close(fd int32) int32 {
	fn := g.close.Get()
	if fn == nil {
		C.lnm_set_enosys()
		return -1
	}
	return int32(C.lnm_call_close(fn, C.int(fd)))
}
