//go:build cgo

package abi

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

// CAllocator hands out arenas from the C heap, so foreign callers may
// hold them past any Go garbage collection.
type CAllocator struct{}

// Alloc implements Allocator with calloc.
func (CAllocator) Alloc(size uintptr) unsafe.Pointer {
	return C.calloc(1, C.size_t(size))
}

// Free implements Allocator.
func (CAllocator) Free(p unsafe.Pointer) {
	C.free(p)
}
