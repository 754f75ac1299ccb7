// Package protocol decodes the reverse-engineered BACtrack notification
// protocol. The byte layout is not documented by the vendor; prefixes and
// field offsets were determined empirically against real devices, so every
// decoded notification carries the full raw payload for later diagnosis.
package protocol

import "fmt"

// Kind identifies the notification variant carried by a frame.
type Kind int

const (
	// KindUnknown covers any frame with an unrecognized prefix.
	KindUnknown Kind = iota
	// KindInvalid covers frames too short to carry a prefix (< 2 bytes).
	KindInvalid
	KindCountdown
	KindStartBlow
	KindKeepBlowing
	KindAnalyzing
	KindFinalizing
	KindWrappingUp
	KindCancelled
	KindBlowError
	KindResult
	// KindTimeout is synthesized by the session controller when a test
	// exceeds its deadline; it never appears on the wire.
	KindTimeout
)

// String returns the wire-log name of the notification kind.
func (k Kind) String() string {
	switch k {
	case KindCountdown:
		return "countdown"
	case KindStartBlow:
		return "start_blow"
	case KindKeepBlowing:
		return "keep_blowing"
	case KindAnalyzing:
		return "analyzing"
	case KindFinalizing:
		return "finalizing"
	case KindWrappingUp:
		return "wrapping_up"
	case KindCancelled:
		return "cancelled"
	case KindBlowError:
		return "blow_error"
	case KindResult:
		return "result"
	case KindTimeout:
		return "timeout"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Terminal reports whether the notification ends a breath test.
func (k Kind) Terminal() bool {
	return k == KindResult || k == KindCancelled || k == KindBlowError
}

// Notification is the decoded form of a single device frame.
//
// Exactly one Kind is produced per frame. Seconds is populated for
// Countdown (warmup seconds) and KeepBlowing (remaining seconds);
// BACPercent and RawValue only for Result. RawHex and Raw retain the
// complete frame on every notification - the layout was reverse
// engineered, and misclassifications must be diagnosable without
// re-running a physical test.
type Notification struct {
	Kind       Kind
	Seconds    uint8
	BACPercent float64
	RawValue   uint16
	RawHex     string
	Raw        []byte
}

// Message returns a human-readable status line for the notification.
func (n Notification) Message() string {
	switch n.Kind {
	case KindCountdown:
		return fmt.Sprintf("Warming up... %ds", n.Seconds)
	case KindStartBlow:
		return "BEGIN BLOWING NOW!"
	case KindKeepBlowing:
		return fmt.Sprintf("Keep blowing... %ds", n.Seconds)
	case KindAnalyzing:
		return "Analyzing sample..."
	case KindFinalizing:
		return "Finalizing results..."
	case KindWrappingUp:
		return "Test wrapping up..."
	case KindCancelled:
		return "Test cancelled or timed out"
	case KindBlowError:
		return "Blow error - insufficient breath detected"
	case KindResult:
		return fmt.Sprintf("BAC Result: %.4f%%", n.BACPercent)
	case KindTimeout:
		return "Test timed out"
	case KindInvalid:
		return "Invalid packet"
	default:
		return fmt.Sprintf("Unknown: %s", n.RawHex)
	}
}
