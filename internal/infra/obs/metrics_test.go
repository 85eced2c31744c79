package obs

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentpricing/internal/domain/pricing"
)

func TestMetricsObserver(t *testing.T) {
	m := NewMetrics()
	m.CalculationDone(pricing.SourceAutomatic, 5*time.Millisecond)
	m.CalculationDone(pricing.SourceManual, time.Millisecond)
	m.CalculationDone(pricing.SourceAutomatic, time.Millisecond)
	m.CalculationFailed()
	m.RuleSkipped(pricing.SkipUnknownCondition)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.calculations.WithLabelValues("automatic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calculations.WithLabelValues("manual")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.calcFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rulesSkipped.WithLabelValues("unknown_condition")))
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	router := gin.New()
	router.Use(m.HTTP())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/metrics", m.Handler())

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/ping",status="204"} 1`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", ParseLevel("debug").String())
	assert.Equal(t, "INFO", ParseLevel("").String())
	assert.Equal(t, "ERROR", ParseLevel("error").String())
}
