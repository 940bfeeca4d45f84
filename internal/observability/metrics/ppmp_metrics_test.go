package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransition(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newPPMPMetrics(registry, Config{ServiceName: "ppmp", Environment: "test"})

	m.RecordTransition("DRAFT", "SUBMITTED")
	m.RecordTransition("DRAFT", "SUBMITTED")
	m.RecordTransition("SUBMITTED", "APPROVED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("DRAFT", "SUBMITTED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("SUBMITTED", "APPROVED")))
}

func TestObserveAggregateCountsRuns(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := newPPMPMetrics(registry, Config{})

	m.ObserveAggregate(AggregateEstimated, 2*time.Millisecond)
	m.RecordDisbursementLink(LinkOutcomeDuplicate)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.aggregateRuns.WithLabelValues(AggregateEstimated)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.aggregateRuns.WithLabelValues(AggregateAllocated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.disbursementLinks.WithLabelValues(LinkOutcomeDuplicate)))
}

func TestHTTPMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m := newHTTPMetrics(registry, Config{})

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/ppmp/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ppmp/42", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/ppmp/:id", "204")))
}

func TestNilPPMPMetricsIsSafe(t *testing.T) {
	var m *PPMPMetrics
	m.RecordTransition("DRAFT", "SUBMITTED")
	m.ObservePlanLockWait(time.Millisecond)
	m.RecordAuditFailure("SUBMIT")
}
