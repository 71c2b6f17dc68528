//go:build linux

package libc

// Names of the interposed functions.
const (
	Socket      = "socket"
	Connect     = "connect"
	Getaddrinfo = "getaddrinfo"
	Close       = "close"
)

// Names lists the interposed functions in the order they are registered.
var Names = []string{Socket, Connect, Getaddrinfo, Close}
