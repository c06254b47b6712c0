package abi

import (
	"fmt"
	"sync"
	"unsafe"
)

// Allocator provides the arena memory. Alloc returns nil on failure.
type Allocator interface {
	Alloc(size uintptr) unsafe.Pointer
	Free(p unsafe.Pointer)
}

// TrackingAllocator serves arenas from the Go heap and counts them. It
// panics on a free of memory it did not hand out, which catches double
// frees in tests.
type TrackingAllocator struct {
	mu     sync.Mutex
	live   map[unsafe.Pointer][]byte
	allocs int
	frees  int
	bytes  uintptr
}

// NewTrackingAllocator returns an empty allocator.
func NewTrackingAllocator() *TrackingAllocator {
	return &TrackingAllocator{live: make(map[unsafe.Pointer][]byte)}
}

// Alloc implements Allocator.
func (a *TrackingAllocator) Alloc(size uintptr) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	b := make([]byte, size)
	p := unsafe.Pointer(&b[0])

	a.mu.Lock()
	defer a.mu.Unlock()
	a.live[p] = b
	a.allocs++
	a.bytes += size
	return p
}

// Free implements Allocator.
func (a *TrackingAllocator) Free(p unsafe.Pointer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.live[p]
	if !ok {
		panic(fmt.Sprintf("abi: free of unknown pointer %p", p))
	}
	delete(a.live, p)
	a.frees++
	a.bytes -= uintptr(len(b))
}

// Live returns the number of arenas not yet freed.
func (a *TrackingAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// LiveBytes returns the bytes held by live arenas.
func (a *TrackingAllocator) LiveBytes() uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bytes
}

// Allocations returns how many arenas were ever handed out.
func (a *TrackingAllocator) Allocations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs
}

// Frees returns how many arenas were released.
func (a *TrackingAllocator) Frees() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frees
}
