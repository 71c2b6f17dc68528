//go:build cgo && linux

package libc

/*
#include <netdb.h>
*/
import "C"

import "unsafe"

// freeaddrinfo releases a list returned by [Genuine.Getaddrinfo].
func freeaddrinfo(res unsafe.Pointer) {
	C.freeaddrinfo((*C.struct_addrinfo)(res))
}
