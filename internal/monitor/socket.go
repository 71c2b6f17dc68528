//go:build linux

package monitor

import (
	"go.uber.org/zap"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
)

// Socket interposes socket(2). Descriptors of AF_INET and AF_INET6 sockets
// are tracked from here until [Monitor.Close].
func (m *Monitor) Socket(domain, typ, protocol int32) int32 {
	m.preserve(func() {
		m.Logger.Debug("socketStart",
			zap.Int32("domain", domain),
			zap.Int32("type", typ),
			zap.Int32("protocol", protocol),
		)
	})

	rv := m.Libc.Socket(domain, typ, protocol)

	m.preserve(func() {
		fields := []zap.Field{
			zap.Int32("domain", domain),
			zap.Int32("type", typ),
			zap.Int32("protocol", protocol),
			log.Rv(rv),
		}
		if rv < 0 {
			m.Logger.Info("socketFailed", append(fields, m.errnoFields()...)...)
			return
		}
		tracked := isInet(domain)
		if tracked {
			sock, _ := m.Sockets.Add(rv)
			fields = append(fields, log.SpanID(sock.SpanID))
		}
		m.Logger.Info("socketDone", append(fields, zap.Bool("tracked", tracked))...)
	})
	return rv
}
