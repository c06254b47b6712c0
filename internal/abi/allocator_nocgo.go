//go:build !cgo

package abi

import "unsafe"

// CAllocator needs cgo. Without it every allocation fails.
type CAllocator struct{}

// Alloc always fails.
func (CAllocator) Alloc(uintptr) unsafe.Pointer { return nil }

// Free does nothing.
func (CAllocator) Free(unsafe.Pointer) {}
