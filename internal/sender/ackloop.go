// =============================================================================
// 文件: internal/sender/ackloop.go
// 描述: receives ack datagrams, merges into the current frame's ack bitmap
// =============================================================================
package sender

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/relayforge/framesend/internal/bitmap"
	"github.com/relayforge/framesend/internal/wire"
)

const ackReadTimeout = 1 * time.Second

// runAckLoop is the ack loop's entry point, run on a dedicated goroutine
// until Stop is called.
func (s *state) runAckLoop() {
	atomic.StoreInt32(&s.ackThreadRunning, 1)
	defer atomic.StoreInt32(&s.ackThreadRunning, 0)

	buf := make([]byte, wire.AckPacketSize)
	for !s.shouldStop() {
		s.ackLoopIteration(buf)
	}
}

func (s *state) ackLoopIteration(buf []byte) {
	n, err := s.net.ReadWithTimeout(buf, ackReadTimeout)
	if err != nil {
		if isTimeout(err) {
			return
		}
		s.logf(0, "ack read error: %v", err)
		return
	}

	pkt, err := wire.DecodeAck(buf[:n])
	if err != nil {
		s.logf(0, "discarding malformed ack packet: %v", err)
		return
	}

	s.mergeAck(pkt)
}

// mergeAck ORs a received ack bitmap into the current frame's ack state
// and, once every fragment is acknowledged, delivers FRAME_SENT exactly
// once (§4.5).
func (s *state) mergeAck(pkt wire.AckPacket) {
	s.ackMu.Lock()

	if pkt.FrameNumber != wire.TruncatedFrameNumber(s.ackBitmap.FrameNumber) {
		// Stale ack for a frame we've already moved past — drop silently.
		s.ackMu.Unlock()
		return
	}

	var received bitmap.Bitmap
	received.SetHalves(pkt.LowPacketsAck, pkt.HighPacketsAck)
	s.ackBitmap.SetAllFrom(&received)

	complete := atomic.LoadInt32(&s.currentCbCalled) == 0 && s.ackBitmap.AllSet(s.currentNbFragments)
	frame := s.currentFrame
	if complete {
		atomic.StoreInt32(&s.currentCbCalled, 1)
	}

	s.ackMu.Unlock()

	if complete {
		s.invokeCallback(FrameSent, frame)
		s.q.Signal()
	}
}

func isTimeout(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
