//go:build linux

package monitor

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/sockaddr"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/store"
)

// Connect interposes connect(2). The target is correlated with the
// hostname it was resolved from, if any, and recorded against fd when fd
// is tracked. The hostname lookup is diagnostic only.
func (m *Monitor) Connect(fd int32, addr unsafe.Pointer, addrlen uint32) int32 {
	text, node := sockaddr.NotApplicable, store.NotAvailable
	m.preserve(func() {
		if target, ok := sockaddr.FromRawLen(addr, addrlen); ok {
			text = target.String()
			node = m.Resolved.Lookup(target.IP().String())
		}
		m.Logger.Debug("connectStart", log.Fd(fd), log.Addr(text), log.Node(node))
	})

	rv := m.Libc.Connect(fd, addr, addrlen)

	m.preserve(func() {
		fields := []zap.Field{log.Fd(fd), log.Addr(text), log.Node(node), log.Rv(rv)}
		if rv < 0 {
			fields = append(fields, m.errnoFields()...)
		}
		sock, tracked := m.Sockets.SetAddress(fd, text)
		if tracked {
			fields = append(fields, log.SpanID(sock.SpanID))
		}
		m.Logger.Info("connectDone", append(fields, zap.Bool("tracked", tracked))...)
	})
	return rv
}
