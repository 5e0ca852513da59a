package handler

import (
	"net/http"
	"testing"

	partnerapp "github.com/crm/backend/internal/application/partner"
	tradeapp "github.com/crm/backend/internal/application/trade"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createOrder(t *testing.T, api *testAPI, customerID uuid.UUID, items ...map[string]any) tradeapp.OrderResponse {
	t.Helper()
	w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/orders/createOrder", map[string]any{
		"customerId": customerID,
		"items":      items,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order tradeapp.OrderResponse
	testutil.DecodeResponse(t, w, &order)
	return order
}

func getCustomer(t *testing.T, api *testAPI, id uuid.UUID) partnerapp.CustomerResponse {
	t.Helper()
	w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/customers/"+id.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var customer partnerapp.CustomerResponse
	testutil.DecodeResponse(t, w, &customer)
	return customer
}

func TestOrderHandler_AliceScenario(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")

	order := createOrder(t, api, alice.ID, orderItem("Widget", 2, "10"))
	assert.Equal(t, 20.0, order.TotalAmount)
	assert.Equal(t, "Pending", order.Status)
	require.NotNil(t, order.Customer)
	assert.Equal(t, "Alice", order.Customer.Name)
	assert.Equal(t, 20.0, getCustomer(t, api, alice.ID).TotalSpending)

	w := testutil.DoJSON(t, api.engine, http.MethodPut, "/api/orders/updateOrder/"+order.ID.String(), map[string]any{
		"items": []any{orderItem("Widget", 1, "10")},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated tradeapp.OrderResponse
	resp := testutil.DecodeResponse(t, w, &updated)
	assert.Equal(t, "Order updated successfully", resp.Message)
	assert.Equal(t, 10.0, updated.TotalAmount)
	assert.Equal(t, "Pending", updated.Status, "empty status keeps the current one")
	assert.Equal(t, 10.0, getCustomer(t, api, alice.ID).TotalSpending)

	// same items again leave spending unchanged
	w = testutil.DoJSON(t, api.engine, http.MethodPut, "/api/orders/updateOrder/"+order.ID.String(), map[string]any{
		"items": []any{orderItem("Widget", 1, "10")},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10.0, getCustomer(t, api, alice.ID).TotalSpending)

	w = testutil.DoJSON(t, api.engine, http.MethodDelete, "/api/orders/"+order.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Order deleted successfully", testutil.DecodeResponse(t, w, nil).Message)

	final := getCustomer(t, api, alice.ID)
	assert.Zero(t, final.TotalSpending)
	assert.Empty(t, final.Orders)

	w = testutil.DoJSON(t, api.engine, http.MethodGet, "/api/orders/"+order.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_CreateValidation(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{
			name:   "no items",
			body:   map[string]any{"customerId": alice.ID, "items": []any{}},
			status: http.StatusBadRequest,
		},
		{
			name:   "zero quantity",
			body:   map[string]any{"customerId": alice.ID, "items": []any{orderItem("Widget", 0, "10")}},
			status: http.StatusBadRequest,
		},
		{
			name:   "zero price",
			body:   map[string]any{"customerId": alice.ID, "items": []any{orderItem("Widget", 1, "0")}},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown status",
			body:   map[string]any{"customerId": alice.ID, "items": []any{orderItem("Widget", 1, "5")}, "status": "Shipped"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown customer",
			body:   map[string]any{"customerId": uuid.New(), "items": []any{orderItem("Widget", 1, "5")}},
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/orders/createOrder", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.False(t, testutil.DecodeResponse(t, w, nil).Success)
		})
	}

	w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/orders/", nil)
	var orders []tradeapp.OrderResponse
	testutil.DecodeResponse(t, w, &orders)
	assert.Empty(t, orders, "rejected orders must not be stored")
	assert.Zero(t, getCustomer(t, api, alice.ID).TotalSpending)
}

func TestOrderHandler_ClientTotalIgnored(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")

	w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/orders/createOrder", map[string]any{
		"customerId":  alice.ID,
		"items":       []any{orderItem("Widget", 3, "2.50")},
		"totalAmount": 1000,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var order tradeapp.OrderResponse
	testutil.DecodeResponse(t, w, &order)
	assert.Equal(t, 7.5, order.TotalAmount)
}

func TestOrderHandler_UpdateKeepsComments(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")

	w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/orders/createOrder", map[string]any{
		"customerId": alice.ID,
		"items":      []any{orderItem("Widget", 2, "10")},
		"status":     "Completed",
		"comments":   "gift wrap",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order tradeapp.OrderResponse
	testutil.DecodeResponse(t, w, &order)

	path := "/api/orders/updateOrder/" + order.ID.String()
	w = testutil.DoJSON(t, api.engine, http.MethodPut, path, map[string]any{
		"items": []any{orderItem("Widget", 1, "10")},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated tradeapp.OrderResponse
	testutil.DecodeResponse(t, w, &updated)
	assert.Equal(t, "gift wrap", updated.Comments)
	assert.Equal(t, "Completed", updated.Status)
	assert.Equal(t, 10.0, updated.TotalAmount)

	w = testutil.DoJSON(t, api.engine, http.MethodPut, path, map[string]any{
		"items":    []any{orderItem("Widget", 1, "10")},
		"comments": "",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	testutil.DecodeResponse(t, w, &updated)
	assert.Empty(t, updated.Comments)
}

func TestOrderHandler_List(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")
	bob := createCustomer(t, api, "Bob", "bob@example.com")
	createOrder(t, api, alice.ID, orderItem("A", 1, "1"))
	createOrder(t, api, alice.ID, orderItem("B", 1, "2"))
	createOrder(t, api, bob.ID, orderItem("C", 1, "3"))

	t.Run("all orders", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/orders/", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var orders []tradeapp.OrderResponse
		testutil.DecodeResponse(t, w, &orders)
		assert.Len(t, orders, 3)
	})

	t.Run("filter by customer", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/orders/?customerId="+bob.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)
		var orders []tradeapp.OrderResponse
		testutil.DecodeResponse(t, w, &orders)
		require.Len(t, orders, 1)
		require.NotNil(t, orders[0].Customer)
		assert.Equal(t, "Bob", orders[0].Customer.Name)
	})

	t.Run("paginated", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/orders/?page_size=2", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var orders []tradeapp.OrderResponse
		resp := testutil.DecodeResponse(t, w, &orders)
		assert.Len(t, orders, 2)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(3), resp.Meta.Total)
	})

	t.Run("invalid customer filter", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/orders/?customerId=nope", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, testutil.DecodeResponse(t, w, nil).Code)
	})
}
