package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsProcessedTotal      atomic.Uint64
	documentsFailedTotal         atomic.Uint64
	sectionsFilledTotal          atomic.Uint64
	anchorsMissingTotal          atomic.Uint64
	classificationAmbiguousTotal atomic.Uint64
	contentConflictsTotal        atomic.Uint64

	jobsReceivedTotal             atomic.Uint64
	jobsCompletedTotal            atomic.Uint64
	jobsFailedTotal               atomic.Uint64
	jobsDeletedUnrecoverableTotal atomic.Uint64

	documentDuration = newHistogram([]float64{50, 100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncDocumentsProcessed counts a document that produced output.
func IncDocumentsProcessed() {
	documentsProcessedTotal.Add(1)
}

// IncDocumentsFailed counts a document that produced no output.
func IncDocumentsFailed() {
	documentsFailedTotal.Add(1)
}

// AddSectionsFilled adds n to the filled sections counter.
func AddSectionsFilled(n int) {
	if n > 0 {
		sectionsFilledTotal.Add(uint64(n))
	}
}

// IncAnchorsMissing increments the missing anchor counter.
func IncAnchorsMissing() {
	anchorsMissingTotal.Add(1)
}

// IncClassificationAmbiguous increments the ambiguous classification counter.
func IncClassificationAmbiguous() {
	classificationAmbiguousTotal.Add(1)
}

// IncContentConflicts increments the content conflict counter.
func IncContentConflicts() {
	contentConflictsTotal.Add(1)
}

// IncJobsReceived increments the received format jobs counter.
func IncJobsReceived() {
	jobsReceivedTotal.Add(1)
}

// IncJobsCompleted increments the completed format jobs counter.
func IncJobsCompleted() {
	jobsCompletedTotal.Add(1)
}

// IncJobsFailed increments the failed format jobs counter.
func IncJobsFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobsDeletedUnrecoverable increments the unrecoverable deletions counter.
func IncJobsDeletedUnrecoverable() {
	jobsDeletedUnrecoverableTotal.Add(1)
}

// ObserveDocumentDurationMs records a document duration in milliseconds.
func ObserveDocumentDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	documentDuration.Observe(value)
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
	writeCounter(&buf, "documents_processed_total", "Total documents formatted", documentsProcessedTotal.Load())
	writeCounter(&buf, "documents_failed_total", "Total documents that failed", documentsFailedTotal.Load())
	writeCounter(&buf, "sections_filled_total", "Total sections written into templates", sectionsFilledTotal.Load())
	writeCounter(&buf, "anchors_missing_total", "Total sections without a template anchor", anchorsMissingTotal.Load())
	writeCounter(&buf, "classification_ambiguous_total", "Total headings classified below confidence", classificationAmbiguousTotal.Load())
	writeCounter(&buf, "content_conflicts_total", "Total lines that did not fit their section", contentConflictsTotal.Load())
	writeCounter(&buf, "format_jobs_received_total", "Total format jobs received", jobsReceivedTotal.Load())
	writeCounter(&buf, "format_jobs_completed_total", "Total format jobs completed", jobsCompletedTotal.Load())
	writeCounter(&buf, "format_jobs_failed_total", "Total format jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "format_jobs_deleted_unrecoverable_total", "Total unrecoverable format jobs deleted", jobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "document_duration_ms", "Document formatting duration in milliseconds", documentDuration.Snapshot())
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

// Observe counts value in the first bucket that holds it; writeHistogram
// accumulates.
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

// Since returns the elapsed milliseconds since start.
func Since(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
