package abi

import (
	"errors"

	"github.com/smazurov/hwscan/internal/hwscan"
)

// Status is the integer scan_devices returns. Values are stable.
type Status int32

// Status codes.
const (
	StatusOK              Status = 0
	StatusPlatformQuery   Status = 1
	StatusAllocation      Status = 2
	StatusInvalidArgument Status = 3
	StatusConfig          Status = 4
	StatusInternal        Status = 5
)

// ErrConfig marks library configuration errors: unknown drivers, codecs
// or an unreadable fixture.
var ErrConfig = errors.New("invalid configuration")

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPlatformQuery:
		return "platform query failed"
	case StatusAllocation:
		return "allocation failed"
	case StatusInvalidArgument:
		return "invalid argument"
	case StatusConfig:
		return "invalid configuration"
	case StatusInternal:
		return "internal error"
	default:
		return "unknown status"
	}
}

// StatusFromError maps an enumeration error to its status code.
func StatusFromError(err error) Status {
	var enumErr *hwscan.EnumerationError
	switch {
	case err == nil:
		return StatusOK
	case errors.As(err, &enumErr):
		return StatusPlatformQuery
	case errors.Is(err, ErrConfig):
		return StatusConfig
	default:
		return StatusInternal
	}
}
