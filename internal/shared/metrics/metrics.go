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
	eventsReceivedTotal  atomic.Uint64
	eventsRecordedTotal  atomic.Uint64
	eventsDuplicateTotal atomic.Uint64
	messagesFailedTotal  atomic.Uint64
	batchesArchivedTotal atomic.Uint64
	rowsArchivedTotal    atomic.Uint64
	assignmentsSkipTotal atomic.Uint64
	httpPanicsTotal      atomic.Uint64
	batchFetchDurationMs = newHistogram([]float64{250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 300000})
)

// IncEventsReceived counts notification events decoded from the queue.
func IncEventsReceived(n int) {
	eventsReceivedTotal.Add(uint64(n))
}

// IncEventsRecorded counts events stored for the first time.
func IncEventsRecorded() {
	eventsRecordedTotal.Add(1)
}

// IncEventsDuplicate counts redelivered events.
func IncEventsDuplicate() {
	eventsDuplicateTotal.Add(1)
}

// IncMessagesFailed counts queue messages that could not be handled.
func IncMessagesFailed() {
	messagesFailedTotal.Add(1)
}

// IncHTTPPanics counts API handlers that panicked.
func IncHTTPPanics() {
	httpPanicsTotal.Add(1)
}

// ObserveBatchArchived records one archived batch.
func ObserveBatchArchived(rows, skipped int) {
	batchesArchivedTotal.Add(1)
	rowsArchivedTotal.Add(uint64(rows))
	assignmentsSkipTotal.Add(uint64(skipped))
}

// ObserveBatchFetchMs records how long fetching one batch took.
func ObserveBatchFetchMs(value float64) {
	if value < 0 {
		value = 0
	}
	batchFetchDurationMs.Observe(value)
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
	writeCounter(&buf, "mturk_events_received_total", "Notification events received", eventsReceivedTotal.Load())
	writeCounter(&buf, "mturk_events_recorded_total", "Notification events stored", eventsRecordedTotal.Load())
	writeCounter(&buf, "mturk_events_duplicate_total", "Notification events already stored", eventsDuplicateTotal.Load())
	writeCounter(&buf, "mturk_messages_failed_total", "Queue messages that failed handling", messagesFailedTotal.Load())
	writeCounter(&buf, "results_batches_archived_total", "Results batches archived", batchesArchivedTotal.Load())
	writeCounter(&buf, "results_rows_archived_total", "Results rows archived", rowsArchivedTotal.Load())
	writeCounter(&buf, "results_assignments_skipped_total", "Assignments skipped during flattening", assignmentsSkipTotal.Load())
	writeCounter(&buf, "api_panics_total", "API handlers recovered from a panic", httpPanicsTotal.Load())
	writeHistogram(&buf, "results_batch_fetch_ms", "Batch fetch duration in milliseconds", batchFetchDurationMs.Snapshot())
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

// Observe adds value to the first bucket whose bound holds it; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
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
