// Package breathalyzer drives a breath test against a BACtrack device:
// it issues the start command, folds the asynchronous notification stream
// into a session outcome, and enforces the overall test timeout.
package breathalyzer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/bacstop/internal/transport"
	"github.com/srg/bacstop/protocol"
)

// GATT identifiers of the BACtrack breath-test service. Fixed, reverse
// engineered; both status notifications and the start command go over the
// single fff1 characteristic.
const (
	ServiceUUID        = "862bfff0-7d59-4359-8b59-a96db28bc679"
	CharacteristicUUID = "862bfff1-7d59-4359-8b59-a96db28bc679"
)

// startTestCommand initiates a breath test when written with ack
var startTestCommand = []byte{0x00, 0x01}

// DefaultTestTimeout bounds a full test cycle: warmup, blow, analysis
const DefaultTestTimeout = 50 * time.Second

// ErrTestInProgress is returned when TakeTest is called while another
// test on the same client has not finished.
var ErrTestInProgress = errors.New("breath test already in progress")

// Result is a completed breath-test reading. BACPercent 0.0 is a valid
// sober reading; an absent result is expressed by a nil *Result, never by
// the numeric value.
type Result struct {
	BACPercent float64
	RawValue   uint16
}

// Callback observes every decoded notification of a test in arrival
// order, including the synthesized Timeout. It runs on the session's
// folding goroutine and must not block significantly.
type Callback func(protocol.Notification)

// Client owns at most one in-flight breath test over a connected transport
type Client struct {
	transport transport.Transport
	logger    *logrus.Logger
	testing   atomic.Bool
}

// NewClient creates a breath-test client over an already managed transport
func NewClient(t transport.Transport, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	return &Client{
		transport: t,
		logger:    logger,
	}
}

// TakeTest performs one breath test end to end.
//
// It subscribes to the device's notification characteristic, writes the
// start command with ack, and waits until the device reports a result,
// cancels, reports a blow error, or the timeout elapses. Every decoded
// notification is delivered to callback (which may be nil) in arrival
// order before it affects session state; on timeout the callback
// additionally receives a synthesized Timeout notification.
//
// The returned Result is nil when the test ended without a reading
// (cancelled, blow error or timeout) - callers distinguish those only via
// the notifications they observed. The subscription is removed exactly
// once on every exit path, including a failed start-command write.
func (c *Client) TakeTest(ctx context.Context, callback Callback, timeout time.Duration) (*Result, error) {
	if c.transport == nil || !c.transport.IsConnected() {
		return nil, fmt.Errorf("take test: %w", transport.ErrNotConnected)
	}

	if !c.testing.CompareAndSwap(false, true) {
		return nil, ErrTestInProgress
	}
	defer c.testing.Store(false)

	if timeout <= 0 {
		timeout = DefaultTestTimeout
	}

	// A fresh session per call - no state survives between tests
	s := newSession(callback, c.logger)

	if err := c.transport.Subscribe(CharacteristicUUID, s.enqueue); err != nil {
		return nil, fmt.Errorf("failed to subscribe to notifications: %w", err)
	}
	defer func() {
		if err := c.transport.Unsubscribe(CharacteristicUUID); err != nil {
			c.logger.WithError(err).Warn("Failed to unsubscribe from notifications")
		}
	}()

	c.logger.WithField("timeout", timeout).Info("Starting breath test")
	if err := c.transport.Write(CharacteristicUUID, startTestCommand, true); err != nil {
		return nil, fmt.Errorf("failed to send start command: %w", err)
	}

	return s.wait(ctx, timeout), nil
}
