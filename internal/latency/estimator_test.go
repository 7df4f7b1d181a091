// =============================================================================
// 文件: internal/latency/estimator_test.go
// =============================================================================
package latency

import (
	"testing"
	"time"
)

func TestUnknownBeforeFirstSample(t *testing.T) {
	e := New()
	if ms := e.EstimatedLatencyMs(); ms != -1 {
		t.Fatalf("expected -1 before any sample, got %d", ms)
	}
}

func TestConvergesTowardSteadySample(t *testing.T) {
	e := New()
	for i := 0; i < 50; i++ {
		e.Update(20 * time.Millisecond)
	}
	srtt := e.SmoothedRTT()
	if srtt < 19*time.Millisecond || srtt > 21*time.Millisecond {
		t.Fatalf("expected SRTT to converge near 20ms, got %v", srtt)
	}
	if ms := e.EstimatedLatencyMs(); ms < 0 {
		t.Fatalf("expected a known latency estimate, got %d", ms)
	}
}

func TestNonPositiveSamplesIgnored(t *testing.T) {
	e := New()
	e.Update(0)
	e.Update(-5 * time.Millisecond)
	if ms := e.EstimatedLatencyMs(); ms != -1 {
		t.Fatalf("expected -1 after only invalid samples, got %d", ms)
	}
}
