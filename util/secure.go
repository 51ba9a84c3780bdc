package util

import (
	"runtime"
)

// SecureZero overwrites every given buffer with zeroes. The KeepAlive stops the
// compiler from treating the writes as dead stores.
func SecureZero(buffers ...[]byte) {
	for _, b := range buffers {
		for i := range b {
			b[i] = 0
		}
		runtime.KeepAlive(b)
	}
}
