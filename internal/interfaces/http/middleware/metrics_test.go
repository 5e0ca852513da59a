package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type observation struct {
	method string
	route  string
	status int
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (r *recordingObserver) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{method: method, route: route, status: status})
}

func TestHTTPMetrics_NoObserver(t *testing.T) {
	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{}))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHTTPMetrics_RecordsRoutePattern(t *testing.T) {
	rec := &recordingObserver{}

	router := gin.New()
	router.Use(HTTPMetrics(HTTPMetricsConfig{Observer: rec, SkipPaths: []string{"/metrics"}}))
	router.GET("/api/orders/:id", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	router.GET("/metrics", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, path := range []string{"/api/orders/123", "/api/orders/456", "/metrics", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, rec.obs, 3)
	assert.Equal(t, observation{http.MethodGet, "/api/orders/:id", http.StatusNotFound}, rec.obs[0])
	assert.Equal(t, observation{http.MethodGet, "/api/orders/:id", http.StatusNotFound}, rec.obs[1])
	assert.Equal(t, observation{http.MethodGet, "", http.StatusNotFound}, rec.obs[2])
}
