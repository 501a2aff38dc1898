package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/storeadmin/pkg/metrics"
)

func TestRecordSpecWrite(t *testing.T) {
	before := testutil.ToFloat64(metrics.SpecWrites.WithLabelValues("create", "ok"))
	metrics.RecordSpecWrite("create", true)
	after := testutil.ToFloat64(metrics.SpecWrites.WithLabelValues("create", "ok"))
	assert.Equal(t, before+1, after)
}

func TestMiddleware_CountsStatus(t *testing.T) {
	h := metrics.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	before := testutil.ToFloat64(metrics.RequestTotal.WithLabelValues("GET", "418"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RequestTotal.WithLabelValues("GET", "418")))
}

func TestHandler_ExposesRemoteCalls(t *testing.T) {
	metrics.ObserveRemoteCall("GET", "categories", "200", time.Now())

	rec := httptest.NewRecorder()
	metrics.Handler()(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "storeadmin_remote_call_duration_seconds"))
}
