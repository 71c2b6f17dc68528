//go:build linux

// Package sockaddr converts raw C socket addresses into a single typed value.
//
// The C sockaddr is a tagged union: the leading family field says which
// layout follows. The family is always checked before the bytes are read
// under the IPv4 or IPv6 layout, and nothing unsafe escapes [FromRaw].
package sockaddr

import (
	"encoding/binary"
	"errors"
	"net/netip"
	"strconv"
	"unsafe"

	"golang.org/x/sys/unix"
)

// NotApplicable is the text used when an address is not IPv4 or IPv6.
const NotApplicable = "(not IPv4/IPv6)"

// ErrNoPort is returned by [Addr.AddrPort] when the address has no port.
var ErrNoPort = errors.New("sockaddr: address has no port")

// Addr is an IPv4 or IPv6 address with an optional port.
type Addr struct {
	ip      netip.Addr
	port    uint16
	hasPort bool
}

// New returns an Addr without a port.
func New(ip netip.Addr) Addr {
	return Addr{ip: ip}
}

// NewWithPort returns an Addr with a port.
func NewWithPort(ip netip.Addr, port uint16) Addr {
	return Addr{ip: ip, port: port, hasPort: true}
}

// FromRaw parses the sockaddr at p. It returns false for a nil pointer or
// a family other than AF_INET and AF_INET6.
//
// The memory behind p must hold at least the layout its family claims.
// Use [FromRawLen] when the length is known.
func FromRaw(p unsafe.Pointer) (Addr, bool) {
	if p == nil {
		return Addr{}, false
	}
	return parse(p, (*unix.RawSockaddr)(p).Family)
}

// FromRawLen is like [FromRaw] but also returns false when length is
// shorter than the layout of the address family.
func FromRawLen(p unsafe.Pointer, length uint32) (Addr, bool) {
	if p == nil || uintptr(length) < unsafe.Sizeof(unix.RawSockaddr{}.Family) {
		return Addr{}, false
	}
	family := (*unix.RawSockaddr)(p).Family
	switch family {
	case unix.AF_INET:
		if uintptr(length) < unix.SizeofSockaddrInet4 {
			return Addr{}, false
		}
	case unix.AF_INET6:
		if uintptr(length) < unix.SizeofSockaddrInet6 {
			return Addr{}, false
		}
	}
	return parse(p, family)
}

func parse(p unsafe.Pointer, family uint16) (Addr, bool) {
	switch family {
	case unix.AF_INET:
		sa := (*unix.RawSockaddrInet4)(p)
		return NewWithPort(netip.AddrFrom4(sa.Addr), networkPort(&sa.Port)), true
	case unix.AF_INET6:
		sa := (*unix.RawSockaddrInet6)(p)
		return NewWithPort(netip.AddrFrom16(sa.Addr), networkPort(&sa.Port)), true
	default:
		return Addr{}, false
	}
}

// networkPort reads a port stored in network byte order.
func networkPort(p *uint16) uint16 {
	return binary.BigEndian.Uint16((*[2]byte)(unsafe.Pointer(p))[:])
}

// IP returns the IP address.
func (a Addr) IP() netip.Addr {
	return a.ip
}

// Port returns the port and whether one is present.
func (a Addr) Port() (uint16, bool) {
	return a.port, a.hasPort
}

// IsValid reports whether a holds an IP address.
func (a Addr) IsValid() bool {
	return a.ip.IsValid()
}

// Equal reports whether a and b have the same IP and port.
func (a Addr) Equal(b Addr) bool {
	return a.Compare(b) == 0
}

// Compare orders by IP, then addresses without a port before those with
// one, then by port.
func (a Addr) Compare(b Addr) int {
	if c := a.ip.Compare(b.ip); c != 0 {
		return c
	}
	switch {
	case a.hasPort != b.hasPort:
		if a.hasPort {
			return 1
		}
		return -1
	case a.port < b.port:
		return -1
	case a.port > b.port:
		return 1
	}
	return 0
}

// String renders "ip" or "ip:port". IPv6 addresses are not bracketed.
func (a Addr) String() string {
	if !a.ip.IsValid() {
		return NotApplicable
	}
	if !a.hasPort {
		return a.ip.String()
	}
	return a.ip.String() + ":" + strconv.FormatUint(uint64(a.port), 10)
}

// AddrPort converts to a [netip.AddrPort]. It fails with [ErrNoPort] when
// the address has no port.
func (a Addr) AddrPort() (netip.AddrPort, error) {
	if !a.hasPort {
		return netip.AddrPort{}, ErrNoPort
	}
	return netip.AddrPortFrom(a.ip, a.port), nil
}
