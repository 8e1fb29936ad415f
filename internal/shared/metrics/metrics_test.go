package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100, 1000})
	h.Observe(5)
	h.Observe(50)
	h.Observe(5000)

	var buf bytes.Buffer
	writeHistogram(&buf, "test_ms", "test", h.Snapshot())
	out := buf.String()
	for _, want := range []string{
		`test_ms_bucket{le="10"} 1`,
		`test_ms_bucket{le="100"} 2`,
		`test_ms_bucket{le="1000"} 2`,
		`test_ms_bucket{le="+Inf"} 3`,
		`test_ms_sum 5055`,
		`test_ms_count 3`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderIncludesDomainCounters(t *testing.T) {
	before := documentsProcessedTotal.Load()
	IncDocumentsProcessed()
	AddSectionsFilled(3)
	AddSectionsFilled(-1)
	if documentsProcessedTotal.Load() != before+1 {
		t.Fatalf("expected processed counter to increase")
	}

	out := Render()
	for _, name := range []string{
		"documents_processed_total",
		"documents_failed_total",
		"sections_filled_total",
		"anchors_missing_total",
		"classification_ambiguous_total",
		"content_conflicts_total",
		"document_duration_ms_count",
	} {
		if !strings.Contains(out, "\n"+name+" ") && !strings.HasPrefix(out, name+" ") {
			t.Fatalf("expected %s in output:\n%s", name, out)
		}
	}
}

func TestHandlerServesPrometheusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/metrics", Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected metrics status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "format_jobs_received_total") {
		t.Fatalf("expected job counters in output")
	}
}
