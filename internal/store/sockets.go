// Package store holds the process-wide correlation tables: descriptor to
// address, and resolved IP to hostname.
//
// Both tables are safe for concurrent use and are guarded independently.
package store

import (
	"sync"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
)

// Socket is the state kept for a tracked descriptor.
type Socket struct {
	// Address is the connect target, or empty if not yet connected.
	Address string

	// SpanID identifies this socket's lifecycle in logs.
	SpanID string
}

// MonitoredSockets maps descriptors of IPv4/IPv6 sockets to their address.
//
// A descriptor is present from socket(2) until close(2). The OS reuses
// descriptor numbers, so an entry only describes the most recent socket
// that held the number.
type MonitoredSockets struct {
	mu     sync.Mutex
	m      map[int32]Socket
	logger *log.Logger

	// NewSpanID generates span ids (configurable for testing).
	NewSpanID func() string
}

// NewMonitoredSockets creates an empty table. A nil logger discards output.
func NewMonitoredSockets(logger *log.Logger) *MonitoredSockets {
	if logger == nil {
		logger = log.NewNop()
	}
	return &MonitoredSockets{
		m:         make(map[int32]Socket),
		logger:    logger,
		NewSpanID: NewSpanID,
	}
}

// Add starts tracking fd with an empty address. If fd is already tracked
// the existing entry is kept and returned with false.
//
// The absence check and the insert happen under one lock.
func (s *MonitoredSockets) Add(fd int32) (Socket, bool) {
	s.mu.Lock()
	if sock, found := s.m[fd]; found {
		s.mu.Unlock()
		s.logger.Debug("socketAlreadyTracked", log.Fd(fd), log.SpanID(sock.SpanID))
		return sock, false
	}
	sock := Socket{SpanID: s.NewSpanID()}
	s.m[fd] = sock
	s.mu.Unlock()

	s.logger.Debug("socketTracked", log.Fd(fd), log.SpanID(sock.SpanID))
	return sock, true
}

// Contains reports whether fd is tracked.
func (s *MonitoredSockets) Contains(fd int32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, found := s.m[fd]
	return found
}

// Get returns the entry for fd.
func (s *MonitoredSockets) Get(fd int32) (Socket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sock, found := s.m[fd]
	return sock, found
}

// SetAddress records addr for a tracked fd. Untracked descriptors are left
// alone and false is returned.
func (s *MonitoredSockets) SetAddress(fd int32, addr string) (Socket, bool) {
	s.mu.Lock()
	sock, found := s.m[fd]
	if found {
		sock.Address = addr
		s.m[fd] = sock
	}
	s.mu.Unlock()

	if !found {
		s.logger.Debug("socketNotTracked", log.Fd(fd), log.Addr(addr))
		return Socket{}, false
	}
	s.logger.Debug("socketAddressed", log.Fd(fd), log.Addr(addr), log.SpanID(sock.SpanID))
	return sock, true
}

// Remove stops tracking fd and returns the entry it had.
func (s *MonitoredSockets) Remove(fd int32) (Socket, bool) {
	s.mu.Lock()
	sock, found := s.m[fd]
	delete(s.m, fd)
	s.mu.Unlock()

	if found {
		s.logger.Debug("socketUntracked", log.Fd(fd), log.SpanID(sock.SpanID))
	}
	return sock, found
}

// Len returns the number of tracked descriptors.
func (s *MonitoredSockets) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

// Snapshot returns a copy of the table.
func (s *MonitoredSockets) Snapshot() map[int32]Socket {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[int32]Socket, len(s.m))
	for fd, sock := range s.m {
		out[fd] = sock
	}
	return out
}
