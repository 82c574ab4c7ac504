package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordImportRows(t *testing.T) {
	before := testutil.ToFloat64(ImportRowsCounter.WithLabelValues("created"))
	RecordImportRows(3, 1, 0, 2)

	assert.Equal(t, before+3, testutil.ToFloat64(ImportRowsCounter.WithLabelValues("created")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(ImportRowsCounter.WithLabelValues("failed")), 2.0)
}

func TestTrackDBOperation(t *testing.T) {
	TrackDBOperation("query")(time.Now().Add(-10 * time.Millisecond))
	assert.Equal(t, 1, testutil.CollectAndCount(DBOperationDuration))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordHTTPRequest(http.MethodGet, "/api/v1/contacts", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	GetPrometheusHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "contacts_http_requests_total"))
}
