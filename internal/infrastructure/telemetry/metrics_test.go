package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crm/backend/internal/application/consistency"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMetrics_RecordSync(t *testing.T) {
	m := NewMetrics()

	m.RecordSync(consistency.OpCreateOrder, consistency.OutcomeSuccess)
	m.RecordSync(consistency.OpCreateOrder, consistency.OutcomeSuccess)
	m.RecordSync(consistency.OpUpdateOrder, consistency.OutcomePartial)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.syncOperations.WithLabelValues(consistency.OpCreateOrder, consistency.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.syncOperations.WithLabelValues(consistency.OpUpdateOrder, consistency.OutcomePartial)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.syncOperations.WithLabelValues(consistency.OpDeleteOrder, consistency.OutcomeFailed)))
}

func TestMetrics_RecordCorrection(t *testing.T) {
	m := NewMetrics()

	m.RecordCorrection()
	m.RecordCorrection()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.corrections))
}

func TestMetrics_ObserveHTTPRequest(t *testing.T) {
	m := NewMetrics()

	m.ObserveHTTPRequest(http.MethodGet, "/api/customers/:id", http.StatusOK, 15*time.Millisecond)
	m.ObserveHTTPRequest(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/customers/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.httpDuration))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.RecordSync(consistency.OpReconcile, consistency.OutcomeSuccess)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `crm_sync_operations_total{operation="reconcile",outcome="success"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestMetrics_RegisterDB(t *testing.T) {
	m := NewMetrics()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	db, err := gdb.DB()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, m.RegisterDB(db, "crm"))
	assert.Error(t, m.RegisterDB(db, "crm"), "duplicate registration must fail")

	count, err := testutil.GatherAndCount(m.Registry(), "go_sql_open_connections")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
