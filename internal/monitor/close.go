//go:build linux

package monitor

import (
	"go.uber.org/zap"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
)

// Close interposes close(2) and stops tracking fd. Descriptors that were
// never tracked are forwarded without logging.
func (m *Monitor) Close(fd int32) int32 {
	rv := m.Libc.Close(fd)

	m.preserve(func() {
		var fields []zap.Field
		if rv < 0 {
			fields = m.errnoFields()
		}
		sock, tracked := m.Sockets.Remove(fd)
		if !tracked {
			return
		}
		m.Logger.Info("closeDone", append(fields,
			log.Fd(fd),
			log.Addr(sock.Address),
			log.SpanID(sock.SpanID),
			log.Rv(rv),
		)...)
	})
	return rv
}
