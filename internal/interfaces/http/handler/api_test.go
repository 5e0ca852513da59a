package handler

import (
	"context"
	"testing"
	"time"

	"github.com/crm/backend/internal/application/consistency"
	marketingapp "github.com/crm/backend/internal/application/marketing"
	partnerapp "github.com/crm/backend/internal/application/partner"
	tradeapp "github.com/crm/backend/internal/application/trade"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/infrastructure/persistence"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeStorage signs every key with a fixed host
type fakeStorage struct{}

func (fakeStorage) GenerateUploadURL(_ context.Context, key, _ string, expiresIn time.Duration) (string, time.Time, error) {
	return "https://bucket.example.com/" + key + "?X-Amz-Signature=test", time.Now().Add(expiresIn), nil
}

// testAPI is the REST surface over an in-memory sqlite database
type testAPI struct {
	engine *gin.Engine
	db     *persistence.Database
}

func newTestAPI(t *testing.T, storage marketingapp.ObjectStorage) *testAPI {
	t.Helper()
	log := zaptest.NewLogger(t)

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", DBName: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	campaignRepo := persistence.NewGormCampaignRepository(db.DB)
	scope := persistence.NewGormConsistencyScope(db.DB, consistency.ModeTransactional)

	customers := NewCustomerHandler(partnerapp.NewCustomerService(customerRepo, orderRepo, scope, nil, log))
	orders := NewOrderHandler(tradeapp.NewOrderService(orderRepo, customerRepo, scope, nil, log))
	campaigns := NewCampaignHandler(
		marketingapp.NewCampaignService(campaignRepo, customerRepo, scope, nil, log),
		marketingapp.NewUploadService(storage, 15*time.Minute, log),
	)

	engine := gin.New()
	engine.Use(middleware.RequestID(), logger.GinMiddleware(log))
	engine.GET("/health", NewHealthHandler(db).Health)

	api := engine.Group("/api")
	c := api.Group("/customers")
	c.GET("/", customers.List)
	c.POST("/addCustomer", customers.Create)
	c.GET("/:id", customers.GetByID)
	c.PUT("/updateCustomer/:id", customers.Update)
	c.DELETE("/:id", customers.Delete)
	c.POST("/:id/visits", customers.RecordVisit)
	c.POST("/:id/reconcile", customers.Reconcile)
	api.POST("/segments/preview", customers.PreviewSegment)

	o := api.Group("/orders")
	o.GET("/", orders.List)
	o.POST("/createOrder", orders.Create)
	o.GET("/:id", orders.GetByID)
	o.PUT("/updateOrder/:id", orders.Update)
	o.DELETE("/:id", orders.Delete)

	cp := api.Group("/campaigns")
	cp.GET("/", campaigns.List)
	cp.POST("/", campaigns.Create)
	cp.GET("/:id", campaigns.GetByID)
	cp.PUT("/:id", campaigns.Update)
	cp.DELETE("/:id", campaigns.Delete)
	api.GET("/uploads/generate-upload-url", campaigns.GenerateUploadURL)

	return &testAPI{engine: engine, db: db}
}

func customerBody(name, email string) map[string]any {
	return map[string]any{
		"name":  name,
		"email": email,
		"phone": "+1 (555) 010-2000",
		"address": map[string]string{
			"street":  "1 Main St",
			"city":    "Springfield",
			"state":   "IL",
			"zip":     "62701",
			"country": "USA",
		},
	}
}

func orderItem(name string, quantity int, price string) map[string]any {
	return map[string]any{"productName": name, "quantity": quantity, "price": price}
}
