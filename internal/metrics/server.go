


// =============================================================================
// 文件: internal/metrics/server.go
// 描述: 健康检查和 Metrics 服务 - Prometheus 标准格式
// =============================================================================
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves /metrics and a small health-check surface for
// one sender process.
type MetricsServer struct {
	listen      string
	metricsPath string
	healthPath  string

	httpServer *http.Server
	registry   *prometheus.Registry

	healthy     int32
	healthCheck func() HealthStatus

	mu sync.RWMutex
}

// HealthStatus is the document served by the health endpoint.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Uptime     time.Duration              `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth is the health status of one component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewMetricsServer creates a metrics server with its own registry, so
// multiple senders in one process (or tests) never collide on the
// default global registry.
func NewMetricsServer(listen, metricsPath, healthPath string) *MetricsServer {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &MetricsServer{
		listen:      listen,
		metricsPath: metricsPath,
		healthPath:  healthPath,
		healthy:     1,
		registry:    registry,
	}
}

// RegisterCollector registers a Prometheus collector against this
// server's registry.
func (s *MetricsServer) RegisterCollector(c prometheus.Collector) error {
	return s.registry.Register(c)
}

// MustRegisterCollector registers a collector, panicking on failure.
func (s *MetricsServer) MustRegisterCollector(c prometheus.Collector) {
	s.registry.MustRegister(c)
}

// SetHealthCheck installs the function consulted by /health and
// /health/ready.
func (s *MetricsServer) SetHealthCheck(fn func() HealthStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.healthCheck = fn
}

// Start begins serving in the background; it returns once the
// listener is configured, not once it has shut down.
func (s *MetricsServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.HandleFunc(s.healthPath, s.handleHealth)
	mux.HandleFunc(s.healthPath+"/live", s.handleLiveness)
	mux.HandleFunc(s.healthPath+"/ready", s.handleReadiness)

	mux.Handle(s.metricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          s.registry,
	}))

	s.httpServer = &http.Server{
		Addr:         s.listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("[metrics] server error: %v\n", err)
		}
	}()

	return nil
}

// handleHealth serves the full HealthStatus document.
func (s *MetricsServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	healthCheck := s.healthCheck
	s.mu.RUnlock()

	var status HealthStatus
	if healthCheck != nil {
		status = healthCheck()
	} else {
		status = HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now(),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if status.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// handleLiveness is the liveness probe.
func (s *MetricsServer) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if atomic.LoadInt32(&s.healthy) == 1 {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT OK"))
	}
}

// handleReadiness is the readiness probe.
func (s *MetricsServer) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	healthCheck := s.healthCheck
	s.mu.RUnlock()

	if healthCheck != nil {
		status := healthCheck()
		if status.Status == "healthy" || status.Status == "degraded" {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("READY"))
			return
		}
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte("NOT READY"))
}

// SetHealthy flips the liveness flag the /health/live probe reports.
func (s *MetricsServer) SetHealthy(healthy bool) {
	if healthy {
		atomic.StoreInt32(&s.healthy, 1)
	} else {
		atomic.StoreInt32(&s.healthy, 0)
	}
}

// Stop gracefully shuts down the HTTP server.
func (s *MetricsServer) Stop() {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(ctx)
	}
}

// GetRegistry returns the server's registry, for tests or extension.
func (s *MetricsServer) GetRegistry() *prometheus.Registry {
	return s.registry
}

