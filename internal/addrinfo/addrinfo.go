//go:build linux

// Package addrinfo walks the result list of getaddrinfo(3).
package addrinfo

import (
	"iter"
	"unsafe"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/sockaddr"
)

// Node mirrors the glibc struct addrinfo:
//
//	struct addrinfo {
//	    int              ai_flags;
//	    int              ai_family;
//	    int              ai_socktype;
//	    int              ai_protocol;
//	    socklen_t        ai_addrlen;
//	    struct sockaddr *ai_addr;
//	    char            *ai_canonname;
//	    struct addrinfo *ai_next;
//	};
//
// Go inserts the same padding before Addr as the C compiler does.
type Node struct {
	Flags     int32
	Family    int32
	Socktype  int32
	Protocol  int32
	Addrlen   uint32
	Addr      unsafe.Pointer
	Canonname *byte
	Next      *Node
}

// Seq is a single-pass walk over a getaddrinfo result.
//
// It must not be used after freeaddrinfo has released the list.
type Seq struct {
	cur *Node
}

// FromResult returns the sequence for the list head stored at res, the
// struct addrinfo ** out-parameter of getaddrinfo. A nil res gives an
// empty sequence.
func FromResult(res *unsafe.Pointer) Seq {
	if res == nil {
		return Seq{}
	}
	return Seq{cur: (*Node)(*res)}
}

// FromHead returns the sequence starting at head.
func FromHead(head *Node) Seq {
	return Seq{cur: head}
}

// Next returns the next parseable address.
//
// Nodes whose family is neither AF_INET nor AF_INET6 are skipped. The
// sequence ends at a nil successor or at a node with no address attached.
func (s *Seq) Next() (sockaddr.Addr, bool) {
	for s.cur != nil {
		node := s.cur
		if node.Addr == nil {
			s.cur = nil
			break
		}
		s.cur = node.Next
		if addr, ok := sockaddr.FromRawLen(node.Addr, node.Addrlen); ok {
			return addr, true
		}
	}
	return sockaddr.Addr{}, false
}

// All adapts the remaining addresses to a range-over-func iterator.
func (s *Seq) All() iter.Seq[sockaddr.Addr] {
	return func(yield func(sockaddr.Addr) bool) {
		for {
			addr, ok := s.Next()
			if !ok || !yield(addr) {
				return
			}
		}
	}
}
