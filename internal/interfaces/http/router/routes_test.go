package router

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/crm/backend/docs"
	"github.com/crm/backend/internal/application/consistency"
	marketingapp "github.com/crm/backend/internal/application/marketing"
	partnerapp "github.com/crm/backend/internal/application/partner"
	tradeapp "github.com/crm/backend/internal/application/trade"
	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/infrastructure/telemetry"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// tokenResolver accepts a single fixed token
type tokenResolver struct {
	token string
	user  *identity.User
}

func (r tokenResolver) CurrentUser(_ context.Context, token string) (*identity.User, error) {
	if token != r.token {
		return nil, shared.ErrUnauthorized
	}
	return r.user, nil
}

func newTestConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{CookieName: "crm_session", SameSite: "lax"},
		HTTP:    config.HTTPConfig{MaxBodySize: 1 << 20},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestEngine(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	log := zaptest.NewLogger(t)

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	metrics := telemetry.NewMetrics()
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)
	scope := persistence.NewGormConsistencyScope(db.DB, consistency.ModeTransactional)

	h := Handlers{
		Customers: handler.NewCustomerHandler(partnerapp.NewCustomerService(customerRepo, orderRepo, scope, metrics, log)),
		Orders:    handler.NewOrderHandler(tradeapp.NewOrderService(orderRepo, customerRepo, scope, metrics, log)),
		Campaigns: handler.NewCampaignHandler(
			marketingapp.NewCampaignService(campaignRepo, customerRepo, scope, metrics, log),
			marketingapp.NewUploadService(nil, time.Minute, log),
		),
		Health: handler.NewHealthHandler(db),
	}
	user := &identity.User{BaseEntity: shared.NewBaseEntity(), GoogleID: "g-1", Name: "Operator"}

	return NewEngine(Options{
		Config:   cfg,
		Logger:   log,
		Sessions: tokenResolver{token: "valid-token", user: user},
		Metrics:  metrics,
	}, h)
}

func TestNewEngine_CoreRoutes(t *testing.T) {
	engine := newTestEngine(t, newTestConfig())

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/customers/", http.StatusOK},
		{http.MethodGet, "/api/orders/", http.StatusOK},
		{http.MethodGet, "/api/campaigns/", http.StatusOK},
		{http.MethodGet, "/api/customers/00000000-0000-0000-0000-000000000001", http.StatusNotFound},
		{http.MethodGet, "/api/orders/00000000-0000-0000-0000-000000000001", http.StatusNotFound},
		{http.MethodGet, "/api/campaigns/00000000-0000-0000-0000-000000000001", http.StatusNotFound},
		{http.MethodGet, "/api/uploads/generate-upload-url?file_name=a.png&content_type=image/png", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.status, serve(engine, tt.method, tt.path).Code)
		})
	}
}

func TestNewEngine_CreateThroughFullStack(t *testing.T) {
	engine := newTestEngine(t, newTestConfig())

	body := `{"name":"Alice","email":"alice@example.com","phone":"555-0100",
		"address":{"street":"1 Main St","city":"Springfield","state":"IL","zip":"62701","country":"USA"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/customers/addCustomer", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestNewEngine_BodyLimit(t *testing.T) {
	cfg := newTestConfig()
	cfg.HTTP.MaxBodySize = 16
	engine := newTestEngine(t, cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/segments/preview", bytes.NewReader(bytes.Repeat([]byte("x"), 64)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_Metrics(t *testing.T) {
	engine := newTestEngine(t, newTestConfig())
	serve(engine, http.MethodGet, "/api/customers/")

	w := serve(engine, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `crm_http_requests_total{method="GET",route="/api/customers/",status="200"} 1`)
	assert.NotContains(t, w.Body.String(), `route="/metrics"`)
}

func TestNewEngine_RequireAuth(t *testing.T) {
	cfg := newTestConfig()
	cfg.Session.RequireAuth = true
	engine := newTestEngine(t, cfg)

	t.Run("anonymous request is rejected", func(t *testing.T) {
		w := serve(engine, http.MethodGet, "/api/customers/")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Not authenticated")
	})

	t.Run("session cookie is accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/customers/", nil)
		req.AddCookie(&http.Cookie{Name: "crm_session", Value: "valid-token"})
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("health stays public", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health").Code)
	})
}

func TestNewEngine_AuthRoutesNeedHandler(t *testing.T) {
	engine := newTestEngine(t, newTestConfig())

	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/auth/session").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/auth/google").Code)
}

func TestNewEngine_Swagger(t *testing.T) {
	t.Run("serves ui and document", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Swagger.Enabled = true
		engine := newTestEngine(t, cfg)

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/swagger/index.html").Code)

		w := serve(engine, http.MethodGet, "/swagger/doc.json")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/api/customers/addCustomer")
		assert.Contains(t, w.Body.String(), "BearerAuth")
	})

	t.Run("disabled", func(t *testing.T) {
		engine := newTestEngine(t, newTestConfig())
		assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/swagger/index.html").Code)
	})

	t.Run("requires a session", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Swagger.Enabled = true
		cfg.Swagger.RequireAuth = true
		engine := newTestEngine(t, cfg)

		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/swagger/doc.json").Code)

		req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
		req.AddCookie(&http.Cookie{Name: "crm_session", Value: "valid-token"})
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestMetricsPath(t *testing.T) {
	assert.Equal(t, "/metrics", metricsPath(&config.Config{}))
	assert.Equal(t, "/internal/metrics", metricsPath(&config.Config{Metrics: config.MetricsConfig{Path: "/internal/metrics"}}))
}
