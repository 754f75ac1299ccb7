// Package transport provides the BLE transport seam the breath-test
// session controller drives: connect, write, subscribe, unsubscribe and
// disconnect against a single GATT characteristic.
package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotificationHandler receives raw notification frames from the device.
// Handlers run on the transport's delivery goroutine and must not block.
type NotificationHandler func(frame []byte)

// Transport is the contract the session controller depends on. The
// production implementation is BLETransport; tests substitute fakes.
type Transport interface {
	IsConnected() bool
	Address() string
	Write(charUUID string, data []byte, withResponse bool) error
	Subscribe(charUUID string, handler NotificationHandler) error
	Unsubscribe(charUUID string) error
	Disconnect() error
}

// ConnectOptions defines BLE connection options
type ConnectOptions struct {
	Address        string // empty triggers discovery by advertised name
	ConnectTimeout time.Duration
	ScanWindow     time.Duration // discovery bound when Address is empty

	// Progress, when set, receives connection phase names as they are
	// entered: "scanning", "connecting", "discovering services",
	// "connected". Invoked on the connecting goroutine.
	Progress func(phase string)
}

func (o *ConnectOptions) reportPhase(phase string) {
	if o.Progress != nil {
		o.Progress(phase)
	}
}

// DefaultConnectOptions returns sensible defaults for connecting to a breathalyzer
func DefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		ConnectTimeout: 20 * time.Second,
		ScanWindow:     10 * time.Second,
	}
}

// ConnectionState represents the specific kind of connection state failure
type ConnectionState string

const (
	NotConnected     ConnectionState = "not_connected"
	AlreadyConnected ConnectionState = "already_connected"
	DeviceNotFound   ConnectionState = "device_not_found"
)

// ConnectionError represents any connection-related problem
type ConnectionError struct {
	State ConnectionState
	Msg   string
}

// Error implements the error interface
func (e *ConnectionError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Msg == "" {
		return string(e.State)
	}
	return fmt.Sprintf("%s: %s", e.State, e.Msg)
}

// Is allows errors.Is to compare ConnectionError values by State
func (e *ConnectionError) Is(target error) bool {
	if e == nil {
		return false
	}
	t, ok := target.(*ConnectionError)
	if !ok {
		return false
	}
	return e.State == t.State
}

// Predefined sentinel errors for connection states
var (
	ErrNotConnected     = &ConnectionError{State: NotConnected}
	ErrAlreadyConnected = &ConnectionError{State: AlreadyConnected}
	ErrDeviceNotFound   = &ConnectionError{State: DeviceNotFound}
)

// NormalizeError maps known go-ble error strings to structured ConnectionError types.
// It ensures consistent handling even if the upstream library changes messages slightly.
// Returns wrapped errors to preserve original context.
func NormalizeError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case containsIgnoreCase(msg, "device not connected"):
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	case containsIgnoreCase(msg, "device already connected"):
		return fmt.Errorf("%w: %v", ErrAlreadyConnected, err)
	default:
		return err
	}
}

// containsIgnoreCase checks substring case-insensitively
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// IsConnectionState reports whether err is a ConnectionError with the given state
func IsConnectionState(err error, state ConnectionState) bool {
	var cerr *ConnectionError
	if errors.As(err, &cerr) {
		return cerr.State == state
	}
	return false
}

// NormalizeUUID converts a UUID string to the internal BLE library format
// (lowercase, no dashes). Handles both dashed and already normalized forms.
func NormalizeUUID(uuid string) string {
	return strings.ToLower(strings.ReplaceAll(uuid, "-", ""))
}

// Connector extends Transport with connection establishment. Split out so
// the session controller never sees connect-time concerns.
type Connector interface {
	Transport
	Connect(ctx context.Context, opts *ConnectOptions) error
}
