package main

import (
	"errors"

	"github.com/srg/bacstop/breathalyzer"
	"github.com/srg/bacstop/internal/transport"
)

// FormatUserError turns internal errors into actionable one-liners for the
// terminal. Anything unrecognized is passed through verbatim.
func FormatUserError(err error) string {
	switch {
	case errors.Is(err, transport.ErrDeviceNotFound):
		return "no BACtrack device found - make sure the device is on and in range"
	case errors.Is(err, transport.ErrNotConnected):
		return "not connected to a device - connection was lost or never established"
	case errors.Is(err, transport.ErrAlreadyConnected):
		return "already connected - disconnect before connecting again"
	case errors.Is(err, breathalyzer.ErrTestInProgress):
		return "a breath test is already running"
	default:
		return err.Error()
	}
}
