package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveWorkflow(t *testing.T) {
	m := New()
	m.ObserveWorkflow("generate", "success")
	m.ObserveWorkflow("generate", "success")
	m.ObserveWorkflow("upload", "invalid")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.workflowOutcomes.WithLabelValues("generate", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.workflowOutcomes.WithLabelValues("upload", "invalid")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveSearch("results", 30*time.Millisecond)
	m.ObserveProbe("success")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "podnplay_search_duration_seconds")
	assert.Contains(t, body, "podnplay_audio_probe_total")
}
