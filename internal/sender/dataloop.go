// =============================================================================
// 文件: internal/sender/dataloop.go
// 描述: transmit cadence: pop next frame, fragment it, send, recompute retries
// =============================================================================
package sender

import (
	"sync/atomic"

	"github.com/relayforge/framesend/internal/queue"
	"github.com/relayforge/framesend/internal/wire"
)

// runDataLoop is the data loop's entry point, run on a dedicated
// goroutine until Stop is called.
func (s *state) runDataLoop() {
	atomic.StoreInt32(&s.dataThreadRunning, 1)
	defer atomic.StoreInt32(&s.dataThreadRunning, 0)

	for !s.shouldStop() {
		s.dataLoopIteration()
	}
}

func (s *state) dataLoopIteration() {
	if f, ok := s.q.Pop(s, s.net); ok {
		s.advanceFrame(f)
	}

	nbPackets := s.currentNbFragments
	if nbPackets == 0 {
		return
	}

	s.recomputeRetrySet(nbPackets)
	s.transmitPending(nbPackets)
}

// advanceFrame installs f as the current frame, committing efficiency
// counters for the outgoing frame and cancelling it if it was never
// fully acknowledged (§4.3 step 1).
func (s *state) advanceFrame(f queue.Frame) {
	s.toSendMu.Lock()
	s.ackMu.Lock()

	previous := s.currentFrame
	previousNbPackets := s.currentNbFragments
	previousIssued := s.transmissionsIssued
	previousCbCalled := atomic.LoadInt32(&s.currentCbCalled) != 0

	s.effNbFragments[s.effIndex] = previousNbPackets
	s.effNbSent[s.effIndex] = previousIssued
	s.effIndex = (s.effIndex + 1) % EfficiencyWindow
	s.effNbFragments[s.effIndex] = 0
	s.effNbSent[s.effIndex] = 0

	s.currentFrame = f
	s.currentNbFragments = nbFragments(f.Size)
	atomic.StoreInt32(&s.currentCbCalled, 0)
	s.transmissionsIssued = 0

	s.ackBitmap.Reset(f.FrameNumber)
	s.toSendBitmap.Reset(f.FrameNumber)

	s.ackMu.Unlock()
	s.toSendMu.Unlock()

	if previousNbPackets > 0 && !previousCbCalled {
		s.net.FlushData()
		s.invokeCallback(FrameCancel, previous)
	}
}

func nbFragments(size int) int {
	if size <= 0 {
		return 0
	}
	n := (size + FragmentSize - 1) / FragmentSize
	if n > MaxFragments {
		n = MaxFragments
	}
	return n
}

func lastFragmentSize(size, nbPackets int) int {
	if nbPackets == 0 {
		return 0
	}
	return size - (nbPackets-1)*FragmentSize
}

// recomputeRetrySet rebuilds the to-send set from scratch as "every
// fragment not yet acknowledged" (§4.3 step 2). The bitmap is cleared
// first so a fragment acked between send rounds, or a stale bit left
// over from the frame this one replaced, doesn't linger as a spurious
// retransmission.
func (s *state) recomputeRetrySet(nbPackets int) {
	s.toSendMu.Lock()
	s.ackMu.Lock()
	s.toSendBitmap.ClearBits()
	for i := 0; i < nbPackets; i++ {
		if !s.ackBitmap.Test(i) {
			s.toSendBitmap.Set(i)
		}
	}
	s.ackMu.Unlock()
	s.toSendMu.Unlock()
}

// transmitPending sends every fragment still marked in the to-send
// bitmap (§4.3 step 3).
func (s *state) transmitPending(nbPackets int) {
	frame := s.currentFrame

	s.toSendMu.Lock()
	s.ackMu.Lock()

	for i := 0; i < nbPackets; i++ {
		if !s.toSendBitmap.Test(i) {
			continue
		}

		header := wire.FragmentHeader{
			FrameNumber:       frame.FrameNumber,
			FragmentNumber:    uint8(i),
			FragmentsPerFrame: uint8(nbPackets),
		}
		if frame.IsHighPriority {
			header.FrameFlags = wire.FlushFrame
		}

		fragLen := FragmentSize
		if i == nbPackets-1 {
			fragLen = lastFragmentSize(frame.Size, nbPackets)
		}
		start := i * FragmentSize
		payload := make([]byte, fragLen)
		copy(payload, frame.Buffer[start:start+fragLen])
		datagram := wire.EncodeFragment(header, payload)

		fragmentIndex := i
		frameNumber := frame.FrameNumber

		s.toSendMu.Unlock()
		err := s.net.SendData(datagram, func(status CompletionStatus) {
			s.onSendComplete(status, frameNumber, fragmentIndex)
		})
		s.toSendMu.Lock()

		if err != nil {
			s.logf(0, "send_data failed for frame %d fragment %d: %v", frameNumber, fragmentIndex, err)
			continue
		}
		s.transmissionsIssued++
	}

	s.ackMu.Unlock()
	s.toSendMu.Unlock()
}

// onSendComplete is the per-fragment completion callback (§4.4).
func (s *state) onSendComplete(status CompletionStatus, frameNumber uint32, fragmentIndex int) {
	switch status {
	case StatusSent:
		s.toSendMu.Lock()
		if frameNumber == s.toSendBitmap.FrameNumber {
			if s.toSendBitmap.Clear(fragmentIndex) {
				s.logf(2, "all fragments of frame %d confirmed sent", frameNumber)
			}
		}
		s.toSendMu.Unlock()
	case StatusCancel:
		// nothing to release on our side; the completion parameter is
		// GC-managed, unlike the C original's manual free.
	default:
	}
}

// invokeCallback delivers the producer completion callback for f,
// outside any held mutex.
func (s *state) invokeCallback(status CallbackStatus, f queue.Frame) {
	if s.callback == nil {
		return
	}
	s.callback(status, f.Buffer, f.Size, f.FrameNumber, s.userCtx)
}
