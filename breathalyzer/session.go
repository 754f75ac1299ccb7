package breathalyzer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/bacstop/protocol"
)

// frameBuffer sizes the queue between the transport's delivery goroutine
// and the session's folding loop. A test produces a frame roughly once a
// second, so the buffer only ever absorbs short delivery bursts.
const frameBuffer = 64

// session holds the state of a single breath test. It is created fresh
// for every TakeTest call and consumed by exactly one folding loop; the
// transport's delivery goroutine touches nothing but the frames channel
// and the done flag.
type session struct {
	frames   chan []byte
	callback Callback
	logger   *logrus.Logger
	done     atomic.Bool
}

func newSession(callback Callback, logger *logrus.Logger) *session {
	return &session{
		frames:   make(chan []byte, frameBuffer),
		callback: callback,
		logger:   logger,
	}
}

// enqueue runs on the transport's delivery goroutine. It copies the frame
// and hands it to the folding loop, preserving arrival order. Frames
// arriving after the session completed (e.g. between timeout and
// unsubscribe) are dropped.
func (s *session) enqueue(frame []byte) {
	if s.done.Load() {
		return
	}

	buf := make([]byte, len(frame))
	copy(buf, frame)

	select {
	case s.frames <- buf:
	default:
		s.logger.WithField("bytes", len(frame)).Warn("Frame queue full, dropping notification")
	}
}

// wait folds incoming frames until a terminal notification, the timeout,
// or ctx cancellation. It returns the recorded result, or nil when the
// test ended without one.
func (s *session) wait(ctx context.Context, timeout time.Duration) *Result {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	defer s.done.Store(true)

	for {
		select {
		case <-ctx.Done():
			s.logger.WithError(ctx.Err()).Info("Breath test aborted by caller")
			return nil

		case <-timer.C:
			s.logger.WithField("timeout", timeout).Info("Breath test timed out")
			s.notify(protocol.Notification{Kind: protocol.KindTimeout})
			return nil

		case frame := <-s.frames:
			n := protocol.Decode(frame)
			s.logger.WithFields(logrus.Fields{
				"kind": n.Kind.String(),
				"raw":  n.RawHex,
			}).Debug("Notification received")

			// Callback observes every notification, terminal or not,
			// before it affects session state
			s.notify(n)

			switch n.Kind {
			case protocol.KindResult:
				return &Result{BACPercent: n.BACPercent, RawValue: n.RawValue}
			case protocol.KindCancelled, protocol.KindBlowError:
				return nil
			}
		}
	}
}

// notify invokes the caller-supplied callback. A panicking callback must
// not take down the test or skip the state fold.
func (s *session) notify(n protocol.Notification) {
	if s.callback == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"panic": r,
				"kind":  n.Kind.String(),
			}).Error("Notification callback panicked")
		}
	}()

	s.callback(n)
}
