// =============================================================================
// 文件: internal/netmgr/udpmanager.go
// 描述: concrete NetworkManager over a connected UDP socket
// =============================================================================
package netmgr

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/relayforge/framesend/internal/latency"
	"github.com/relayforge/framesend/internal/sender"
)

const sendQueueDepth = 256

var (
	// ErrNotDialed is returned by a UDPManager that has no socket,
	// i.e. one that was not created by a successful Dial.
	ErrNotDialed = errors.New("netmgr: not dialed")
	// ErrStopped is returned by SendData once Close has been called.
	ErrStopped = errors.New("netmgr: manager stopped")
)

// connectGroup dedupes concurrent Dial calls for the same remote
// address across a process, mirroring internal/transport/udp.go's
// connectGroup singleflight.Group field.
var connectGroup singleflight.Group

type sendTask struct {
	data       []byte
	onComplete sender.CompletionFunc
	generation uint64
}

// UDPManager is the external datagram transport collaborator the
// sender talks to in production: a connected UDP socket to exactly
// one receiver, a single FIFO send worker, and a latency estimator fed
// from ack arrival timing. It satisfies sender.NetworkManager.
type UDPManager struct {
	conn *net.UDPConn

	mu         sync.Mutex
	generation uint64
	lastSendAt time.Time

	sendCh chan sendTask
	stopCh chan struct{}
	wg     sync.WaitGroup

	lat *latency.Estimator

	logger *log.Logger
}

// Dial resolves remoteAddr and opens a connected UDP socket to it. A
// concurrent Dial for the same remoteAddr string collapses into one
// underlying dial.
func Dial(remoteAddr string, logger *log.Logger) (*UDPManager, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}

	connAny, err, _ := connectGroup.Do(remoteAddr, func() (interface{}, error) {
		udpAddr, err := net.ResolveUDPAddr("udp", remoteAddr)
		if err != nil {
			return nil, fmt.Errorf("netmgr: resolve %s: %w", remoteAddr, err)
		}
		return net.DialUDP("udp", nil, udpAddr)
	})
	if err != nil {
		return nil, err
	}

	m := &UDPManager{
		conn:   connAny.(*net.UDPConn),
		sendCh: make(chan sendTask, sendQueueDepth),
		stopCh: make(chan struct{}),
		lat:    latency.New(),
		logger: logger,
	}

	m.wg.Add(1)
	go m.sendWorker()

	return m, nil
}

// sendWorker is the single FIFO writer for this manager's socket.
// Using one worker, not a pool, keeps fragment send order matching
// enqueue order — this manager owns exactly one remote peer, unlike
// the teacher's multi-client server where per-address worker sharding
// made sense.
func (m *UDPManager) sendWorker() {
	defer m.wg.Done()
	for {
		select {
		case task := <-m.sendCh:
			m.runTask(task)
		case <-m.stopCh:
			return
		}
	}
}

func (m *UDPManager) runTask(task sendTask) {
	m.mu.Lock()
	stale := task.generation != m.generation
	m.mu.Unlock()
	if stale {
		task.onComplete(sender.StatusCancel)
		return
	}

	_, err := m.conn.Write(task.data)

	m.mu.Lock()
	m.lastSendAt = time.Now()
	m.mu.Unlock()

	if err != nil {
		m.logger.Printf("[ERROR] [netmgr] write to %s failed: %v", m.conn.RemoteAddr(), err)
		task.onComplete(sender.StatusOther)
		return
	}
	task.onComplete(sender.StatusSent)
}

// SendData enqueues one fragment datagram for the send worker.
// onComplete fires exactly once, from the worker goroutine, for each
// task the worker takes off the queue; it does not fire when SendData
// returns an error, nor for tasks still queued when Close stops the
// worker.
func (m *UDPManager) SendData(data []byte, onComplete sender.CompletionFunc) error {
	if m.conn == nil {
		return ErrNotDialed
	}
	select {
	case <-m.stopCh:
		return ErrStopped
	default:
	}
	m.mu.Lock()
	gen := m.generation
	m.mu.Unlock()

	select {
	case m.sendCh <- sendTask{data: data, onComplete: onComplete, generation: gen}:
		return nil
	case <-m.stopCh:
		return ErrStopped
	}
}

// ReadWithTimeout blocks for up to timeout waiting for one datagram
// from the dialed peer. A successful read opportunistically feeds the
// latency estimator with the elapsed time since the last fragment
// write — a coarse proxy for round-trip time, since acks are not
// individually correlated to the send that provoked them.
func (m *UDPManager) ReadWithTimeout(buf []byte, timeout time.Duration) (int, error) {
	if m.conn == nil {
		return 0, ErrNotDialed
	}
	if err := m.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	n, err := m.conn.Read(buf)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	last := m.lastSendAt
	m.mu.Unlock()
	if !last.IsZero() {
		m.lat.Update(time.Since(last))
	}

	return n, nil
}

// EstimatedLatencyMs satisfies sender.NetworkManager.
func (m *UDPManager) EstimatedLatencyMs() int {
	return m.lat.EstimatedLatencyMs()
}

// FlushData discards any fragment sends still sitting in the worker
// queue: it bumps a generation counter, and the worker reports
// StatusCancel for any already-queued task stamped with a stale
// generation instead of writing it to the socket. A fragment already
// handed to conn.Write by the time Flush is called has already left
// for the kernel and cannot be recalled.
func (m *UDPManager) FlushData() {
	m.mu.Lock()
	m.generation++
	m.mu.Unlock()
}

// Close stops the send worker and closes the underlying socket.
func (m *UDPManager) Close() error {
	close(m.stopCh)
	m.wg.Wait()
	return m.conn.Close()
}
