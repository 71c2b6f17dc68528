//go:build linux

package monitor

import (
	"strings"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/net/idna"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/addrinfo"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/cstr"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
)

// glibc getaddrinfo(3) return codes.
const (
	eaiBadFlags   = -1
	eaiNoName     = -2
	eaiAgain      = -3
	eaiFail       = -4
	eaiNoData     = -5
	eaiFamily     = -6
	eaiSockType   = -7
	eaiService    = -8
	eaiAddrFamily = -9
	eaiMemory     = -10
	eaiSystem     = -11
	eaiOverflow   = -12
)

var eaiNames = map[int32]string{
	eaiBadFlags:   "EAI_BADFLAGS",
	eaiNoName:     "EAI_NONAME",
	eaiAgain:      "EAI_AGAIN",
	eaiFail:       "EAI_FAIL",
	eaiNoData:     "EAI_NODATA",
	eaiFamily:     "EAI_FAMILY",
	eaiSockType:   "EAI_SOCKTYPE",
	eaiService:    "EAI_SERVICE",
	eaiAddrFamily: "EAI_ADDRFAMILY",
	eaiMemory:     "EAI_MEMORY",
	eaiSystem:     "EAI_SYSTEM",
	eaiOverflow:   "EAI_OVERFLOW",
}

// Getaddrinfo interposes getaddrinfo(3). On success every returned IP is
// recorded as resolved from node. A nil node (passive or service-only
// lookups) resolves no hostname and records nothing.
func (m *Monitor) Getaddrinfo(node, service, hints unsafe.Pointer, res *unsafe.Pointer) int32 {
	var host, svc string
	m.preserve(func() {
		host = cstr.Printable(node)
		svc = cstr.Printable(service)
		m.Logger.Debug("getaddrinfoStart", log.Node(host), zap.String("service", svc))
	})

	rv := m.Libc.Getaddrinfo(node, service, hints, res)

	m.preserve(func() {
		fields := []zap.Field{log.Node(host), zap.String("service", svc)}
		if display := displayName(host); display != "" {
			fields = append(fields, zap.String("nodeUnicode", display))
		}

		if rv != 0 {
			fields = append(fields, log.Rv(rv), zap.String("gaiError", eaiNames[rv]))
			if rv == eaiSystem {
				fields = append(fields, m.errnoFields()...)
			}
			m.Logger.Warn("getaddrinfoFailed", fields...)
			return
		}

		seq := addrinfo.FromResult(res)
		count := 0
		for addr := range seq.All() {
			ip := addr.IP().String()
			m.Logger.Debug("resolved", log.Node(host), zap.String("service", svc), log.IP(ip))
			if node != nil {
				m.Resolved.Add(host, ip)
			}
			count++
		}
		fields = append(fields, zap.Int("count", count), log.Rv(rv))
		if count == 0 {
			m.Logger.Warn("getaddrinfoEmpty", fields...)
			return
		}
		m.Logger.Info("getaddrinfoDone", fields...)
	})
	return rv
}

// displayName returns the Unicode form of a punycode hostname, or "" when
// host has no punycode labels.
func displayName(host string) string {
	if !strings.Contains(host, "xn--") {
		return ""
	}
	display, err := idna.Display.ToUnicode(host)
	if err != nil || display == host {
		return ""
	}
	return display
}
