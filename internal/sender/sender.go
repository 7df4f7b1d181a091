// =============================================================================
// 文件: internal/sender/sender.go
// 描述: public API — lifecycle, enqueue-frame, efficiency query
// =============================================================================
package sender

import (
	"log"
	"os"
	"sync/atomic"

	"github.com/relayforge/framesend/internal/queue"
)

// Sender is the fragmented-frame sender's public handle. It owns no
// thread of its own; callers run RunDataLoop and RunAckLoop on their own
// goroutines, and must call Stop then Delete for a clean shutdown.
type Sender struct {
	st *state
}

// Config configures a new Sender. QueueCapacity, Callback and Manager
// are required; Logger defaults to an unprefixed logger on stderr.
type Config struct {
	Manager       NetworkManager
	QueueCapacity int
	Callback      Callback
	UserCtx       any
	Logger        *log.Logger
}

// New allocates sender state and a frame queue. On any sub-failure all
// partial resources are released and a single error is returned (§4.6).
func New(cfg Config) (*Sender, error) {
	if cfg.Manager == nil || cfg.Callback == nil || cfg.QueueCapacity <= 0 {
		return nil, ErrBadParameters
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}

	s := &state{
		net:      cfg.Manager,
		callback: cfg.Callback,
		userCtx:  cfg.UserCtx,
		logger:   logger,
		// No frame is current yet, so the ack gate starts open and the
		// first queued frame can be popped.
		currentCbCalled: 1,
	}
	s.q = queue.New(cfg.QueueCapacity, func(f queue.Frame) {
		s.invokeCallback(FrameCancel, f)
	})

	return &Sender{st: s}, nil
}

// SendNewFrame validates and enqueues a new frame for transmission,
// returning the number of frames outstanding before this call (§4.6).
func (snd *Sender) SendNewFrame(buffer []byte, size int, flush bool) (priorBacklog int, err error) {
	s := snd.st
	if buffer == nil || size <= 0 || size != len(buffer) {
		return 0, ErrBadParameters
	}
	if size > MaxFrameSize {
		return 0, ErrFrameTooLarge
	}

	priorBacklog, err = s.q.Enqueue(size, buffer, flush, s)
	if err == queue.ErrQueueFull {
		return priorBacklog, ErrQueueFull
	}
	return priorBacklog, err
}

// GetEstimatedEfficiency returns the ratio of distinct fragments per
// frame to total transmissions issued, averaged over the efficiency
// window; 1.0 when nothing has been transmitted yet (§4.6).
func (snd *Sender) GetEstimatedEfficiency() float64 {
	return snd.st.estimatedEfficiency()
}

// RunDataLoop is the data loop's entry point; call it on a dedicated
// goroutine.
func (snd *Sender) RunDataLoop() {
	snd.st.runDataLoop()
}

// RunAckLoop is the ack loop's entry point; call it on a dedicated
// goroutine.
func (snd *Sender) RunAckLoop() {
	snd.st.runAckLoop()
}

// Stop requests both loops terminate. Blocked loops wake via their own
// timeouts (§4.6).
func (snd *Sender) Stop() {
	atomic.StoreInt32(&snd.st.threadsShouldStop, 1)
	snd.st.q.Signal()
}

// Delete releases the sender. It returns ErrBusy if either loop has not
// yet observed the stop flag and terminated.
func (snd *Sender) Delete() error {
	s := snd.st
	if atomic.LoadInt32(&s.dataThreadRunning) != 0 || atomic.LoadInt32(&s.ackThreadRunning) != 0 {
		return ErrBusy
	}
	return nil
}

// Stats is a runtime snapshot for observability (metrics, CLI status).
type Stats struct {
	QueueDepth          int
	CurrentFrameNumber  uint32
	CurrentNbFragments  int
	TransmissionsIssued int
	EstimatedEfficiency float64
}

// Stats returns a point-in-time snapshot of sender state.
func (snd *Sender) Stats() Stats {
	s := snd.st
	s.ackMu.Lock()
	defer s.ackMu.Unlock()
	return Stats{
		QueueDepth:          s.q.Len(),
		CurrentFrameNumber:  s.currentFrame.FrameNumber,
		CurrentNbFragments:  s.currentNbFragments,
		TransmissionsIssued: s.transmissionsIssued,
		EstimatedEfficiency: s.efficiencyLocked(),
	}
}
