package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDeviceExists is returned when adopting a device whose ID is
	// already registered.
	ErrDeviceExists = errors.New("device: already exists")

	// ErrInvalidID is returned when an operation is given an empty device ID.
	ErrInvalidID = errors.New("device: invalid id")
)
