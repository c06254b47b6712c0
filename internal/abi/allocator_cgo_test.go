//go:build cgo

package abi

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCAllocatorZeroesMemory(t *testing.T) {
	var alloc CAllocator
	p := alloc.Alloc(HeaderSize)
	require.NotNil(t, p)
	defer alloc.Free(p)

	for i, b := range unsafe.Slice((*byte)(p), HeaderSize) {
		assert.Zero(t, b, "byte %d", i)
	}
}

func TestScanWithCAllocator(t *testing.T) {
	var out unsafe.Pointer
	require.Equal(t, StatusOK, Scan(&out, succeed(twoDevices()), CAllocator{}))
	require.NotNil(t, out)
	defer Free(out, CAllocator{})

	view, err := View(out)
	require.NoError(t, err)
	res, err := Decode(view, uintptr(out))
	require.NoError(t, err)
	assert.Equal(t, twoDevices(), res.Devices)
}
