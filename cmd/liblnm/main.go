//go:build cgo && linux

// Command liblnm is the preloaded network monitor. Build it with
//
//	go build -buildmode=c-shared -tags netgo -o liblnm.so ./cmd/liblnm
//
// and inject it with LD_PRELOAD (or lnm run). The netgo tag keeps the Go
// runtime's own resolver from calling back into the interposed
// getaddrinfo.
//
// The public socket, connect, getaddrinfo and close symbols are defined in
// interpose.c. They enter Go through the lnm* exports below, except in a
// child forked by the host process: such a child has no Go runtime threads,
// so it calls libc directly.
package main

/*
#cgo LDFLAGS: -ldl
*/
import "C"

import (
	"os"
	"unsafe"

	"go.uber.org/zap"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/config"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/errno"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/libc"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/log"
	"github.com/aws-samples/sample-lambda-network-monitor/internal/monitor"
)

var mon *monitor.Monitor

func init() {
	cfg := config.FromEnv(os.Getenv)
	log.Init(cfg)

	log.L.Debug("bootstrap",
		zap.String("logLevel", cfg.LogLevel),
		zap.String("logFormat", cfg.LogFormat),
		zap.String("logFile", cfg.LogFile),
	)

	genuine := libc.NewNext(log.L)
	if err := genuine.ResolveAll(); err != nil {
		log.L.Error("bootstrapFailed", zap.Error(err))
		_ = log.L.Sync()
		os.Exit(1)
	}
	mon = monitor.New(genuine, errno.Thread{}, log.L)
}

func main() {}

//export lnmSocket
func lnmSocket(domain, typ, protocol C.int) C.int {
	return C.int(mon.Socket(int32(domain), int32(typ), int32(protocol)))
}

//export lnmConnect
func lnmConnect(fd C.int, addr unsafe.Pointer, addrlen C.uint) C.int {
	return C.int(mon.Connect(int32(fd), addr, uint32(addrlen)))
}

//export lnmGetaddrinfo
func lnmGetaddrinfo(node, service, hints unsafe.Pointer, res *unsafe.Pointer) C.int {
	return C.int(mon.Getaddrinfo(node, service, hints, res))
}

//export lnmClose
func lnmClose(fd C.int) C.int {
	return C.int(mon.Close(int32(fd)))
}
