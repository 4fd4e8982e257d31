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
	jobsSubmittedTotal atomic.Uint64
	jobsSucceededTotal atomic.Uint64
	jobsFailedTotal    atomic.Uint64
	jobsTimedOutTotal  atomic.Uint64

	recordsExtractedTotal atomic.Uint64
	webhookSentTotal      atomic.Uint64
	webhookFailedTotal    atomic.Uint64

	jobDuration = newHistogram([]float64{1000, 5000, 15000, 30000, 60000, 120000, 300000, 600000, 1800000})
)

// IncJobSubmitted increments the submitted-jobs counter.
func IncJobSubmitted() {
	jobsSubmittedTotal.Add(1)
}

// IncJobSucceeded increments the succeeded-jobs counter.
func IncJobSucceeded() {
	jobsSucceededTotal.Add(1)
}

// IncJobFailed increments the failed-jobs counter.
func IncJobFailed() {
	jobsFailedTotal.Add(1)
}

// IncJobTimedOut increments the timed-out-jobs counter.
func IncJobTimedOut() {
	jobsTimedOutTotal.Add(1)
}

// AddRecordsExtracted adds to the extracted-records counter.
func AddRecordsExtracted(n int) {
	if n > 0 {
		recordsExtractedTotal.Add(uint64(n))
	}
}

// AddWebhookSent adds to the delivered-webhook counter.
func AddWebhookSent(n int) {
	if n > 0 {
		webhookSentTotal.Add(uint64(n))
	}
}

// IncWebhookFailed increments the failed-webhook counter.
func IncWebhookFailed() {
	webhookFailedTotal.Add(1)
}

// ObserveJobDurationMs records a job's wall time in milliseconds.
func ObserveJobDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	jobDuration.Observe(value)
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
	writeCounter(&buf, "intake_jobs_submitted_total", "Total intake jobs submitted", jobsSubmittedTotal.Load())
	writeCounter(&buf, "intake_jobs_succeeded_total", "Total intake jobs succeeded", jobsSucceededTotal.Load())
	writeCounter(&buf, "intake_jobs_failed_total", "Total intake jobs failed", jobsFailedTotal.Load())
	writeCounter(&buf, "intake_jobs_timed_out_total", "Total intake jobs timed out while polling", jobsTimedOutTotal.Load())
	writeCounter(&buf, "intake_records_extracted_total", "Total subject records extracted", recordsExtractedTotal.Load())
	writeCounter(&buf, "intake_webhook_sent_total", "Total webhook deliveries sent", webhookSentTotal.Load())
	writeCounter(&buf, "intake_webhook_failed_total", "Total webhook dispatches failed", webhookFailedTotal.Load())
	writeHistogram(&buf, "intake_job_duration_ms", "Intake job duration in milliseconds", jobDuration.Snapshot())
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
