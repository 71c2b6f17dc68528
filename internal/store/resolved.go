package store

import (
	"sync"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
)

// NotAvailable is returned by [ResolvedAddresses.Lookup] for unknown IPs.
const NotAvailable = "n/a"

// ResolvedAddresses maps IP text to the hostname it was last resolved from.
//
// Entries are never pruned; the correlation is by IP and outlives sockets.
type ResolvedAddresses struct {
	mu     sync.Mutex
	m      map[string]string
	logger *log.Logger
}

// NewResolvedAddresses creates an empty table. A nil logger discards output.
func NewResolvedAddresses(logger *log.Logger) *ResolvedAddresses {
	if logger == nil {
		logger = log.NewNop()
	}
	return &ResolvedAddresses{
		m:      make(map[string]string),
		logger: logger,
	}
}

// Add records that node resolved to ip, replacing any previous hostname.
func (r *ResolvedAddresses) Add(node, ip string) {
	r.mu.Lock()
	r.m[ip] = node
	r.mu.Unlock()
	r.logger.Debug("resolvedAdded", log.Node(node), log.IP(ip))
}

// Lookup returns the hostname ip was resolved from, or [NotAvailable].
func (r *ResolvedAddresses) Lookup(ip string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if node, found := r.m[ip]; found {
		return node
	}
	return NotAvailable
}

// Len returns the number of known IPs.
func (r *ResolvedAddresses) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.m)
}
