// =============================================================================
// 文件: internal/sender/types.go
// 描述: public types and the external NetworkManager/callback contracts
// =============================================================================
package sender

import (
	"errors"
	"time"

	"github.com/relayforge/framesend/internal/bitmap"
)

// Fragment/frame size constants shared with the receiver (§6).
const (
	FragmentSize     = 1000
	MaxFragments     = bitmap.MaxFragments
	MaxFrameSize     = MaxFragments * FragmentSize // largest frame the 128-bit ack bitmap covers
	EfficiencyWindow = 15
)

// Error taxonomy (§7).
var (
	ErrBadParameters = errors.New("sender: bad parameters")
	ErrFrameTooLarge = errors.New("sender: frame exceeds MaxFrameSize")
	ErrQueueFull     = errors.New("sender: frame queue full")
	ErrBusy          = errors.New("sender: delete called before loops stopped")
	ErrAlloc         = errors.New("sender: resource allocation failed")
)

// CompletionStatus is the outcome of a single fragment send, reported by
// the network manager's per-send completion callback (§4.4).
type CompletionStatus int

const (
	StatusSent CompletionStatus = iota
	StatusCancel
	StatusOther
)

// CompletionFunc is the per-fragment completion callback the data loop
// hands to NetworkManager.SendData. The frame number and fragment index
// are captured by the closure the data loop builds, standing in for the
// C-style callback parameter block of §9's design notes.
type CompletionFunc func(status CompletionStatus)

// NetworkManager is the external datagram transport collaborator (§1).
// The core never constructs one; it is supplied at New.
type NetworkManager interface {
	// SendData hands a single fragment datagram (header+payload already
	// encoded) to the transport. When SendData returns nil, onComplete
	// fires once with the fragment's final status, either before SendData
	// returns or later from a transport-owned goroutine.
	SendData(data []byte, onComplete CompletionFunc) error

	// ReadWithTimeout blocks for up to timeout waiting for one ack
	// datagram. A timeout must be reported as an error satisfying
	// net.Error with Timeout() == true; such errors are non-fatal and
	// silent. Every other read error, including a "no data available"
	// error, is logged by the ack loop, which then keeps running.
	ReadWithTimeout(buf []byte, timeout time.Duration) (int, error)

	// EstimatedLatencyMs returns the transport's current latency
	// estimate in milliseconds, or a negative value if unknown.
	EstimatedLatencyMs() int

	// FlushData discards any buffered, not-yet-sent data for the
	// channel carrying fragments of the frame being abandoned — called
	// when the data loop preempts a frame whose callback never fired.
	FlushData()
}

// CallbackStatus is the producer-facing completion status (§3, §6).
type CallbackStatus int

const (
	FrameSent CallbackStatus = iota
	FrameCancel
)

// Callback is the producer completion callback. The core will not read
// or retain buffer past this call for the given frame (§6).
type Callback func(status CallbackStatus, buffer []byte, size int, frameNumber uint32, userCtx any)
