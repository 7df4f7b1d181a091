// =============================================================================
// 文件: internal/latency/estimator.go
// 描述: RFC 6298-style RTT smoothing feeding the sender's retry-wait clamp
// =============================================================================
package latency

import (
	"sync"
	"time"
)

const (
	smoothingAlpha = 0.125 // SRTT gain (1/8)
	varianceBeta   = 0.25  // RTTVAR gain (1/4)
	defaultInitRTT = 100 * time.Millisecond
)

// Estimator tracks a smoothed round-trip-time estimate the way a TCP
// stack does (RFC 6298 SRTT/RTTVAR), adapted down from a full
// congestion controller to the one thing the sender's retry loop
// needs: "how long is a round trip right now". It has no window, no
// pacing, no loss signal — those belong to a transport that owns
// congestion control, not to this estimator.
type Estimator struct {
	mu sync.RWMutex

	smoothedRTT time.Duration
	rttVariance time.Duration
	initialized bool
}

// New returns an estimator with no samples yet; EstimatedLatencyMs
// reports unknown (-1) until the first Update.
func New() *Estimator {
	return &Estimator{}
}

// Update folds one fresh round-trip sample into the running estimate.
// Samples that are zero or negative are ignored — a caller with no
// usable timestamp should simply not call Update.
func (e *Estimator) Update(sample time.Duration) {
	if sample <= 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		e.smoothedRTT = sample
		e.rttVariance = sample / 2
		e.initialized = true
		return
	}

	diff := e.smoothedRTT - sample
	if diff < 0 {
		diff = -diff
	}
	e.rttVariance = time.Duration(float64(e.rttVariance)*(1-varianceBeta) + float64(diff)*varianceBeta)
	e.smoothedRTT = time.Duration(float64(e.smoothedRTT)*(1-smoothingAlpha) + float64(sample)*smoothingAlpha)
}

// SmoothedRTT returns the current SRTT, or defaultInitRTT before the
// first sample arrives.
func (e *Estimator) SmoothedRTT() time.Duration {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.initialized {
		return defaultInitRTT
	}
	return e.smoothedRTT
}

// EstimatedLatencyMs satisfies queue.LatencyProvider and backs
// netmgr.UDPManager's sender.NetworkManager method of the same name:
// the current one-way latency estimate in milliseconds, or -1 if no
// sample has ever landed. Callers treat -1 as "use the default wait
// bound" rather than as a real zero-latency link.
func (e *Estimator) EstimatedLatencyMs() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.initialized {
		return -1
	}
	// SRTT is a round trip; the one-way figure the retry clamp wants
	// is half of it, plus half the RTTVAR jitter term so the clamp stays ahead of
	// a still-settling estimate.
	oneWay := e.smoothedRTT/2 + e.rttVariance/2
	return int(oneWay / time.Millisecond)
}
