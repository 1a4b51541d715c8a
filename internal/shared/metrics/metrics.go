package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	tailorStartedTotal   atomic.Uint64
	tailorCompletedTotal atomic.Uint64
	tailorFailedTotal    atomic.Uint64

	tailorDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})

	providerAttempts   = map[string]uint64{}
	providerAttemptsMu sync.Mutex
)

// IncTailorStarted increments the started counter.
func IncTailorStarted() {
	tailorStartedTotal.Add(1)
}

// IncTailorCompleted increments the completed counter.
func IncTailorCompleted() {
	tailorCompletedTotal.Add(1)
}

// IncTailorFailed increments the failed counter.
func IncTailorFailed() {
	tailorFailedTotal.Add(1)
}

// ObserveTailorDurationMs records a generation duration in milliseconds.
func ObserveTailorDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	tailorDuration.Observe(value)
}

// IncProviderAttempt counts one provider attempt outcome.
func IncProviderAttempt(provider, outcome string) {
	key := provider + "|" + outcome
	providerAttemptsMu.Lock()
	providerAttempts[key]++
	providerAttemptsMu.Unlock()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "tailor_started_total", "Total tailoring requests started", tailorStartedTotal.Load())
	writeCounter(&buf, "tailor_completed_total", "Total tailoring requests completed", tailorCompletedTotal.Load())
	writeCounter(&buf, "tailor_failed_total", "Total tailoring requests failed", tailorFailedTotal.Load())
	writeHistogram(&buf, "tailor_duration_ms", "Tailoring duration in milliseconds", tailorDuration.Snapshot())
	writeProviderAttempts(&buf)
	return buf.String()
}

func writeProviderAttempts(buf *bytes.Buffer) {
	providerAttemptsMu.Lock()
	keys := make([]string, 0, len(providerAttempts))
	for k := range providerAttempts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	snapshot := make(map[string]uint64, len(keys))
	for _, k := range keys {
		snapshot[k] = providerAttempts[k]
	}
	providerAttemptsMu.Unlock()

	fmt.Fprintf(buf, "# HELP llm_provider_attempts_total Provider attempt outcomes\n")
	fmt.Fprintf(buf, "# TYPE llm_provider_attempts_total counter\n")
	for _, k := range keys {
		parts := strings.SplitN(k, "|", 2)
		fmt.Fprintf(buf, "llm_provider_attempts_total{provider=%q,outcome=%q} %d\n", parts[0], parts[1], snapshot[k])
	}
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
