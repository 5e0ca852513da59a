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

func createCustomer(t *testing.T, api *testAPI, name, email string) partnerapp.CustomerResponse {
	t.Helper()
	w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/customers/addCustomer", customerBody(name, email))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var customer partnerapp.CustomerResponse
	testutil.DecodeResponse(t, w, &customer)
	return customer
}

func TestCustomerHandler_Create(t *testing.T) {
	api := newTestAPI(t, nil)

	t.Run("creates with zero spending", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/customers/addCustomer", customerBody("Alice", "alice@example.com"))

		assert.Equal(t, http.StatusCreated, w.Code)
		var customer partnerapp.CustomerResponse
		resp := testutil.DecodeResponse(t, w, &customer)
		assert.True(t, resp.Success)
		assert.Equal(t, "Customer created successfully", resp.Message)
		assert.Equal(t, "Alice", customer.Name)
		assert.Zero(t, customer.TotalSpending)
		assert.Zero(t, customer.Visits)
		assert.Empty(t, customer.Orders)
		assert.Empty(t, customer.CampaignEngagements)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/customers/addCustomer", customerBody("Alice Again", "ALICE@example.com"))

		assert.Equal(t, http.StatusConflict, w.Code)
		resp := testutil.DecodeResponse(t, w, nil)
		assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Code)
	})

	t.Run("missing address fails binding with details", func(t *testing.T) {
		body := customerBody("Bob", "bob@example.com")
		delete(body, "address")
		w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/customers/addCustomer", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := testutil.DecodeResponse(t, w, nil)
		assert.Equal(t, dto.ErrCodeValidation, resp.Code)
		assert.NotEmpty(t, resp.Details)
	})

	t.Run("malformed phone is rejected", func(t *testing.T) {
		body := customerBody("Bob", "bob@example.com")
		body["phone"] = "call me maybe"
		w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/customers/addCustomer", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCustomerHandler_GetUpdateDelete(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")
	path := "/api/customers/" + alice.ID.String()

	t.Run("get returns populated orders", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/orders/createOrder", map[string]any{
			"customerId": alice.ID,
			"items":      []any{orderItem("Widget", 2, "10")},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = testutil.DoJSON(t, api.engine, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var customer partnerapp.CustomerResponse
		testutil.DecodeResponse(t, w, &customer)
		assert.Equal(t, 20.0, customer.TotalSpending)
		require.Len(t, customer.Orders, 1)
		assert.Equal(t, "Widget", customer.Orders[0].Items[0].ProductName)
	})

	t.Run("update changes profile only", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPut, "/api/customers/updateCustomer/"+alice.ID.String(), map[string]any{
			"name":          "Alice Smith",
			"totalSpending": 999,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var customer partnerapp.CustomerResponse
		resp := testutil.DecodeResponse(t, w, &customer)
		assert.Equal(t, "Customer updated successfully", resp.Message)
		assert.Equal(t, "Alice Smith", customer.Name)
		assert.Equal(t, 20.0, customer.TotalSpending)
	})

	t.Run("update of unknown customer", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPut, "/api/customers/updateCustomer/"+uuid.NewString(), map[string]any{"name": "X"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete cascades to orders", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodDelete, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Customer deleted successfully", testutil.DecodeResponse(t, w, nil).Message)

		w = testutil.DoJSON(t, api.engine, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = testutil.DoJSON(t, api.engine, http.MethodGet, "/api/orders/", nil)
		var orders []tradeapp.OrderResponse
		testutil.DecodeResponse(t, w, &orders)
		assert.Empty(t, orders)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/customers/42", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCustomerHandler_List(t *testing.T) {
	api := newTestAPI(t, nil)
	createCustomer(t, api, "Alice", "alice@example.com")
	createCustomer(t, api, "Bob", "bob@example.com")
	createCustomer(t, api, "Carol", "carol@example.com")

	t.Run("unpaginated by default", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/customers/", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []partnerapp.CustomerListResponse
		resp := testutil.DecodeResponse(t, w, &list)
		assert.Len(t, list, 3)
		assert.Nil(t, resp.Meta)
	})

	t.Run("page_size adds meta", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/customers/?page=2&page_size=2&order_by=name", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var list []partnerapp.CustomerListResponse
		resp := testutil.DecodeResponse(t, w, &list)
		require.Len(t, list, 1)
		assert.Equal(t, "Carol", list[0].Name)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(3), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.TotalPages)
	})

	t.Run("order_dir reverses order_by", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/customers/?page=1&page_size=1&order_by=name&order_dir=desc", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var list []partnerapp.CustomerListResponse
		testutil.DecodeResponse(t, w, &list)
		require.Len(t, list, 1)
		assert.Equal(t, "Carol", list[0].Name)
	})

	t.Run("search", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/customers/?search=bob", nil)
		var list []partnerapp.CustomerListResponse
		testutil.DecodeResponse(t, w, &list)
		require.Len(t, list, 1)
		assert.Equal(t, "Bob", list[0].Name)
	})

	t.Run("unknown sort column", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodGet, "/api/customers/?order_by=password", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCustomerHandler_RecordVisit(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")

	w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/customers/"+alice.ID.String()+"/visits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var customer partnerapp.CustomerResponse
	testutil.DecodeResponse(t, w, &customer)
	assert.Equal(t, 1, customer.Visits)
	assert.NotNil(t, customer.LastVisitDate)
}

func TestCustomerHandler_Reconcile(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")
	w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/orders/createOrder", map[string]any{
		"customerId": alice.ID,
		"items":      []any{orderItem("Widget", 1, "15.50")},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// simulate a lost compensating write
	require.NoError(t, api.db.DB.Exec("UPDATE customers SET total_spending = 0 WHERE id = ?", alice.ID).Error)

	w = testutil.DoJSON(t, api.engine, http.MethodPost, "/api/customers/"+alice.ID.String()+"/reconcile", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result partnerapp.ReconcileResponse
	testutil.DecodeResponse(t, w, &result)
	assert.True(t, result.Corrected)
	assert.Equal(t, 15.5, result.Customer.TotalSpending)

	w = testutil.DoJSON(t, api.engine, http.MethodPost, "/api/customers/"+alice.ID.String()+"/reconcile", nil)
	testutil.DecodeResponse(t, w, &result)
	assert.False(t, result.Corrected)
}

func TestCustomerHandler_PreviewSegment(t *testing.T) {
	api := newTestAPI(t, nil)
	alice := createCustomer(t, api, "Alice", "alice@example.com")
	createCustomer(t, api, "Bob", "bob@example.com")
	w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/orders/createOrder", map[string]any{
		"customerId": alice.ID,
		"items":      []any{orderItem("Widget", 5, "100")},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("matches rules", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/segments/preview", map[string]any{
			"rules": []any{
				map[string]any{"field": "totalSpending", "operator": ">", "value": 100},
			},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var preview partnerapp.SegmentPreviewResponse
		testutil.DecodeResponse(t, w, &preview)
		assert.Equal(t, 1, preview.SegmentSize)
		require.Len(t, preview.Segment, 1)
		assert.Equal(t, alice.ID, preview.Segment[0].ID)
	})

	t.Run("unknown field", func(t *testing.T) {
		w := testutil.DoJSON(t, api.engine, http.MethodPost, "/api/segments/preview", map[string]any{
			"rules": []any{
				map[string]any{"field": "password", "operator": "==", "value": "x"},
			},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, testutil.DecodeResponse(t, w, nil).Error, "unsupported field")
	})
}
