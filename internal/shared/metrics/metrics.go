package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	scoreCompletedTotal     atomic.Uint64
	scoreFailedTotal        atomic.Uint64
	scoreRateLimitedTotal   atomic.Uint64
	scoreAccessDeniedTotal  atomic.Uint64
	narrativeFailedTotal    atomic.Uint64
	throttleStoreErrorTotal atomic.Uint64

	scoreDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
	overallScore  = newHistogram([]float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100})
)

// IncScoreCompleted increments the completed counter.
func IncScoreCompleted() {
	scoreCompletedTotal.Add(1)
}

// IncScoreFailed increments the failed counter.
func IncScoreFailed() {
	scoreFailedTotal.Add(1)
}

// IncScoreRateLimited increments the throttled-request counter.
func IncScoreRateLimited() {
	scoreRateLimitedTotal.Add(1)
}

// IncScoreAccessDenied increments the entitlement-denied counter.
func IncScoreAccessDenied() {
	scoreAccessDeniedTotal.Add(1)
}

// IncNarrativeFailed increments the narrative failure counter.
func IncNarrativeFailed() {
	narrativeFailedTotal.Add(1)
}

// IncThrottleStoreError counts throttle checks that failed open.
func IncThrottleStoreError() {
	throttleStoreErrorTotal.Add(1)
}

// ObserveScoreDurationMs records an end-to-end scoring duration in milliseconds.
func ObserveScoreDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	scoreDuration.Observe(value)
}

// ObserveOverallScore records a composite score.
func ObserveOverallScore(score int) {
	overallScore.Observe(float64(score))
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
	writeCounter(&buf, "ats_score_completed_total", "Total scores computed", scoreCompletedTotal.Load())
	writeCounter(&buf, "ats_score_failed_total", "Total score requests that failed", scoreFailedTotal.Load())
	writeCounter(&buf, "ats_score_rate_limited_total", "Total score requests rejected by the throttle", scoreRateLimitedTotal.Load())
	writeCounter(&buf, "ats_score_access_denied_total", "Total score requests without entitlement", scoreAccessDeniedTotal.Load())
	writeCounter(&buf, "ats_narrative_failed_total", "Total narratives that failed to generate", narrativeFailedTotal.Load())
	writeCounter(&buf, "ats_throttle_store_errors_total", "Total throttle checks that failed open", throttleStoreErrorTotal.Load())
	writeHistogram(&buf, "ats_score_duration_ms", "Score request duration in milliseconds", scoreDuration.Snapshot())
	writeHistogram(&buf, "ats_overall_score", "Distribution of overall scores", overallScore.Snapshot())
	return buf.String()
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
			break
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
