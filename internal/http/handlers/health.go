package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is anything readiness can check by a round trip.
type Pinger interface {
	Ping(ctx context.Context) error
}

const (
	statusUp   = "up"
	statusDown = "down"
)

// HealthHandler serves /health, /healthz and /readyz for the key-value
// store the roster lives in.
type HealthHandler struct {
	store   Pinger
	backend string
	version string
	started time.Time
	now     func() time.Time
}

func NewHealthHandler(store Pinger, backend, version string) *HealthHandler {
	return &HealthHandler{
		store:   store,
		backend: backend,
		version: version,
		started: time.Now(),
		now:     time.Now,
	}
}

// CheckResult is one dependency's state in a readiness report.
type CheckResult struct {
	Status    string `json:"status"`
	Backend   string `json:"backend,omitempty"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// ReadinessReport is the /readyz body.
type ReadinessReport struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version,omitempty"`
	Uptime      string                 `json:"uptime"`
	CheckedAt   string                 `json:"checkedAt"`
	HeapAllocMB float64                `json:"heapAllocMb"`
	Checks      map[string]CheckResult `json:"checks"`
}

// Liveness only says the process answers.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusUp})
}

// Readiness reports every dependency with the backend it runs on; any check
// that is down turns the whole report into a 503.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckResult{
		"store": h.pingStore(ctx),
	}

	report := ReadinessReport{
		Status:      statusUp,
		Version:     h.version,
		Uptime:      h.now().Sub(h.started).Round(time.Second).String(),
		CheckedAt:   h.now().UTC().Format(time.RFC3339),
		HeapAllocMB: heapAllocMB(),
		Checks:      checks,
	}
	code := http.StatusOK
	for _, res := range checks {
		if res.Status != statusUp {
			report.Status = statusDown
			code = http.StatusServiceUnavailable
		}
	}
	c.JSON(code, report)
}

// Health is the short form for load balancers.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	res := h.pingStore(ctx)
	if res.Status != statusUp {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": statusDown, "backend": h.backend})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusUp, "backend": h.backend, "version": h.version})
}

func (h *HealthHandler) pingStore(ctx context.Context) CheckResult {
	res := CheckResult{Status: statusUp, Backend: h.backend}
	start := time.Now()
	err := h.store.Ping(ctx)
	res.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		res.Status = statusDown
		res.Error = err.Error()
	}
	return res
}

func heapAllocMB() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / (1 << 20)
}
