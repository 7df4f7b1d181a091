// =============================================================================
// 文件: internal/sender/state.go
// 描述: shared frame/ack state, synchronised across the data and ack loops
// =============================================================================
package sender

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/relayforge/framesend/internal/bitmap"
	"github.com/relayforge/framesend/internal/queue"
)

// state is the object shared by the producer thread, the data loop, the
// ack loop, and the network manager's per-send completion callbacks.
//
// Mutex order: toSendMu -> ackMu -> the queue's own internal mutex. The
// one place toSendMu is acquired while ackMu is held is transmitPending,
// which releases toSendMu around each SendData call and reacquires it
// with ackMu still held; only the data loop goroutine ever holds both
// mutexes, and the completion callback takes toSendMu alone. The
// queue calls back into CallbackCalled while holding its own mutex, so
// that flag is kept outside ackMu entirely (see currentCbCalled below)
// rather than adding a third, reverse-order edge to that discipline.
type state struct {
	toSendMu sync.Mutex
	ackMu    sync.Mutex

	currentFrame       queue.Frame
	currentNbFragments int
	// currentCbCalled is read by the queue's Pop/Enqueue under the
	// queue's own mutex and written by the data/ack loops under ackMu;
	// an atomic flag avoids ever having to nest ackMu inside the
	// queue's mutex to read it, which would invert the documented
	// toSendMu -> ackMu -> queue-mutex order the moment something also
	// takes ackMu before the queue's mutex (e.g. Stats()).
	currentCbCalled int32

	ackBitmap    bitmap.Bitmap
	toSendBitmap bitmap.Bitmap

	// per-current-frame transmission counter, committed into the
	// efficiency window when the data loop advances to the next frame.
	transmissionsIssued int

	effNbFragments [EfficiencyWindow]int
	effNbSent      [EfficiencyWindow]int
	effIndex       int

	threadsShouldStop int32
	dataThreadRunning int32
	ackThreadRunning  int32

	q        *queue.Queue
	net      NetworkManager
	callback Callback
	userCtx  any
	logger   *log.Logger
}

// CallbackCalled reports whether FRAME_SENT/FRAME_CANCEL has already
// fired for the current frame. Satisfies queue.CallbackState. Lock-free
// by design: the queue calls this while holding its own mutex, and
// acquiring ackMu here would invert the toSendMu -> ackMu -> queue-mutex
// order against callers (e.g. Stats()) that take ackMu before the
// queue's mutex.
func (s *state) CallbackCalled() bool {
	return atomic.LoadInt32(&s.currentCbCalled) != 0
}

func (s *state) shouldStop() bool {
	return atomic.LoadInt32(&s.threadsShouldStop) != 0
}

func (s *state) logf(level int, format string, args ...interface{}) {
	prefix := map[int]string{0: "[ERROR]", 1: "[INFO]", 2: "[DEBUG]"}[level]
	s.logger.Printf("%s [sender] "+format, append([]interface{}{prefix}, args...)...)
}

// estimatedEfficiency computes sum(nb_fragments) / sum(nb_sent) over the
// efficiency window, clamping an out-of-range ratio to 1.0 and logging
// the anomaly (§4.6).
func (s *state) estimatedEfficiency() float64 {
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	return s.efficiencyLocked()
}

// efficiencyLocked assumes the caller already holds ackMu.
func (s *state) efficiencyLocked() float64 {
	var totalFragments, totalSent int
	for i := 0; i < EfficiencyWindow; i++ {
		totalFragments += s.effNbFragments[i]
		totalSent += s.effNbSent[i]
	}
	if totalSent == 0 {
		return 1.0
	}
	ratio := float64(totalFragments) / float64(totalSent)
	if ratio > 1.0 {
		s.logf(0, "efficiency ratio %.3f exceeds 1.0, clamping (fragments=%d sent=%d)", ratio, totalFragments, totalSent)
		return 1.0
	}
	return ratio
}
