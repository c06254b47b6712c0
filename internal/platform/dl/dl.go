//go:build !windows

// Package dl loads vendor shared libraries at runtime with purego and binds
// their symbols to Go function variables.
//
// A Library is loaded at most once per process; the handle and the bound
// functions are immutable afterwards and safe to share between scans.
package dl

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// maxCString bounds how far GoString scans for the terminating NUL.
const maxCString = 4096

// ErrNotFound is returned when none of a library's candidate names loads.
var ErrNotFound = errors.New("shared library not found")

// Library is a lazily dlopened shared library.
type Library struct {
	names []string
	bind  func(handle uintptr) error

	once   sync.Once
	handle uintptr
	err    error
}

// New describes a library tried under each name in order. bind resolves
// the symbols once a handle is open; a bind error closes the handle and
// the next name is tried.
func New(bind func(handle uintptr) error, names ...string) *Library {
	return &Library{names: names, bind: bind}
}

// Load opens the library on first use and returns the cached outcome on
// every later call.
func (l *Library) Load() error {
	l.once.Do(func() {
		l.err = l.load()
	})
	return l.err
}

// Handle returns the dlopen handle, 0 when Load failed or was never called.
func (l *Library) Handle() uintptr {
	if l.Load() != nil {
		return 0
	}
	return l.handle
}

func (l *Library) load() error {
	var errs []string
	for _, name := range l.names {
		handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		if err := l.bind(handle); err != nil {
			purego.Dlclose(handle)
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		l.handle = handle
		return nil
	}
	return fmt.Errorf("%w: %s (%s)", ErrNotFound, strings.Join(l.names, ", "), strings.Join(errs, "; "))
}

// Bind resolves symbol in handle and registers it into fptr, which must be
// a pointer to a func variable. Unlike purego.RegisterLibFunc a missing
// symbol is an error, not a panic.
func Bind(handle uintptr, fptr any, symbol string) error {
	sym, err := purego.Dlsym(handle, symbol)
	if err != nil {
		return fmt.Errorf("symbol %s: %w", symbol, err)
	}
	purego.RegisterFunc(fptr, sym)
	return nil
}

// Symbols binds several symbols, stopping at the first missing one.
func Symbols(handle uintptr, symbols map[string]any) error {
	for name, fptr := range symbols {
		if err := Bind(handle, fptr, name); err != nil {
			return err
		}
	}
	return nil
}

// GoString copies a NUL-terminated C string. Strings longer than
// maxCString bytes are truncated.
func GoString(p *byte) string {
	if p == nil {
		return ""
	}
	n := 0
	for n < maxCString && *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}

// StringFromBytes converts a fixed-size C char array, stopping at the first NUL.
func StringFromBytes(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
