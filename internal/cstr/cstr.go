// Package cstr reads NUL-terminated C strings for logging.
package cstr

import (
	"strings"
	"unsafe"
)

// MaxLen caps how many bytes are read from a single C string.
const MaxLen = 4096

// Bytes returns the bytes of the C string at p, without the terminator,
// reading at most [MaxLen] bytes. A nil p yields nil.
func Bytes(p unsafe.Pointer) []byte {
	if p == nil {
		return nil
	}
	n := 0
	for n < MaxLen && *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return unsafe.Slice((*byte)(p), n)
}

// Printable renders the C string at p for logs. Printable ASCII is kept and
// every other byte becomes \xHH. A nil p renders as the empty string.
func Printable(p unsafe.Pointer) string {
	return Escape(Bytes(p))
}

// Escape applies the [Printable] escaping to b.
func Escape(b []byte) string {
	const digits = "0123456789abcdef"
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c >= 0x20 && c <= 0x7e {
			sb.WriteByte(c)
			continue
		}
		sb.WriteString(`\x`)
		sb.WriteByte(digits[c>>4])
		sb.WriteByte(digits[c&0xf])
	}
	return sb.String()
}
