// =============================================================================
// 文件: internal/sender/fake_net_test.go
// 描述: an in-memory NetworkManager for exercising the data/ack loops
// =============================================================================
package sender

import (
	"sync"
	"time"

	"github.com/relayforge/framesend/internal/wire"
)

type sentRecord struct {
	header  wire.FragmentHeader
	payload []byte
}

// fakeNet is an in-process stand-in for the external datagram transport.
// SendData "delivers" synchronously (invoking onComplete(StatusSent)
// immediately); tests drive acks explicitly via injectAck.
type fakeNet struct {
	mu         sync.Mutex
	flushCount int
	latencyMs  int

	sentCh chan sentRecord
	acks   chan []byte
}

func newFakeNet(latencyMs int) *fakeNet {
	return &fakeNet{
		latencyMs: latencyMs,
		sentCh:    make(chan sentRecord, 256),
		acks:      make(chan []byte, 32),
	}
}

func (f *fakeNet) SendData(data []byte, onComplete CompletionFunc) error {
	h, payload, err := wire.DecodeFragment(data)
	if err != nil {
		return err
	}
	rec := sentRecord{header: h, payload: append([]byte(nil), payload...)}
	f.sentCh <- rec
	onComplete(StatusSent)
	return nil
}

func (f *fakeNet) ReadWithTimeout(buf []byte, timeout time.Duration) (int, error) {
	select {
	case data := <-f.acks:
		return copy(buf, data), nil
	case <-time.After(timeout):
		return 0, fakeTimeoutErr{}
	}
}

func (f *fakeNet) EstimatedLatencyMs() int { return f.latencyMs }

func (f *fakeNet) FlushData() {
	f.mu.Lock()
	f.flushCount++
	f.mu.Unlock()
}

func (f *fakeNet) injectAck(frameNumber uint16, low, high uint64) {
	pkt := wire.AckPacket{FrameNumber: frameNumber, LowPacketsAck: low, HighPacketsAck: high}
	f.acks <- pkt.Encode()
}

// drain discards anything currently buffered in sentCh, so a later wait
// window only observes new sends.
func (f *fakeNet) drain() {
	for {
		select {
		case <-f.sentCh:
		default:
			return
		}
	}
}

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "fake: read timeout" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }
