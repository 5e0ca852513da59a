package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/crm/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetRequestID(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(*gin.Context)
		expectedID string
	}{
		{
			name: "from context",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDKey, "ctx-request-id")
			},
			expectedID: "ctx-request-id",
		},
		{
			name: "from header when context empty",
			setup: func(c *gin.Context) {
				c.Request.Header.Set(middleware.RequestIDHeader, "header-request-id")
			},
			expectedID: "header-request-id",
		},
		{
			name:       "empty when not set",
			setup:      func(c *gin.Context) {},
			expectedID: "",
		},
		{
			name: "context takes precedence over header",
			setup: func(c *gin.Context) {
				c.Set(middleware.RequestIDKey, "ctx-id")
				c.Request.Header.Set(middleware.RequestIDHeader, "header-id")
			},
			expectedID: "ctx-id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(c)

			assert.Equal(t, tt.expectedID, getRequestID(c))
		})
	}
}

func TestBaseHandlerSuccess(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.Success(c, map[string]string{"key": "value"})

	assert.Equal(t, http.StatusOK, w.Code)
	var data map[string]string
	resp := testutil.DecodeResponse(t, w, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "value", data["key"])
}

func TestBaseHandlerSuccessWithMessage(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.SuccessWithMessage(c, http.StatusCreated, map[string]int{"n": 1}, "Customer created successfully")

	assert.Equal(t, http.StatusCreated, w.Code)
	resp := testutil.DecodeResponse(t, w, nil)
	assert.True(t, resp.Success)
	assert.Equal(t, "Customer created successfully", resp.Message)
}

func TestBaseHandlerSuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.SuccessWithMeta(c, []int{1, 2}, 45, 2, 20)

	resp := testutil.DecodeResponse(t, w, nil)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(45), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandlerHandleError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedCode   string
		expectedError  string
	}{
		{
			name:           "not found",
			err:            shared.NewNotFoundError("Customer"),
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrCodeNotFound,
		},
		{
			name:           "validation",
			err:            shared.NewValidationError("Order must contain at least one item"),
			expectedStatus: http.StatusBadRequest,
			expectedCode:   dto.ErrCodeValidation,
			expectedError:  "Order must contain at least one item",
		},
		{
			name:           "duplicate",
			err:            shared.NewConflictError("Customer with this email already exists"),
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrCodeAlreadyExists,
			expectedError:  "Customer with this email already exists",
		},
		{
			name:           "invalid state maps to conflict",
			err:            shared.NewDomainError("INVALID_STATE", "Order is cancelled"),
			expectedStatus: http.StatusConflict,
			expectedCode:   dto.ErrCodeConflict,
		},
		{
			name:           "wrapped domain error",
			err:            fmt.Errorf("delete order: %w", shared.NewNotFoundError("Order")),
			expectedStatus: http.StatusNotFound,
			expectedCode:   dto.ErrCodeNotFound,
		},
		{
			name:           "upstream hides details",
			err:            shared.NewUpstreamError("database write failed", errors.New("connection reset")),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrCodeUpstream,
			expectedError:  "An unexpected error occurred",
		},
		{
			name:           "unavailable",
			err:            shared.NewDomainError(shared.CodeUnavailable, "File storage is not configured"),
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   dto.ErrCodeUnavailable,
			expectedError:  "File storage is not configured",
		},
		{
			name:           "unknown code",
			err:            shared.NewDomainError("SOMETHING_ODD", "odd"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrCodeInternal,
			expectedError:  "An unexpected error occurred",
		},
		{
			name:           "plain error",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   dto.ErrCodeInternal,
			expectedError:  "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-42")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.expectedStatus, w.Code)
			resp := testutil.DecodeResponse(t, w, nil)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.expectedCode, resp.Code)
			assert.Equal(t, "req-42", resp.RequestID)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, resp.Error)
			}
		})
	}
}

func TestBaseHandlerHandleError_NilIsNoop(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}

func TestBaseHandlerParseID(t *testing.T) {
	h := &BaseHandler{}
	router := gin.New()
	router.GET("/things/:id", func(c *gin.Context) {
		id, ok := h.parseID(c, "thing")
		if !ok {
			return
		}
		c.String(http.StatusOK, id.String())
	})

	t.Run("valid uuid", func(t *testing.T) {
		w := testutil.DoJSON(t, router, http.MethodGet, "/things/7f1c2a7e-3a5b-4c8e-9d7a-0b1e2c3d4e5f", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "7f1c2a7e-3a5b-4c8e-9d7a-0b1e2c3d4e5f", w.Body.String())
	})

	t.Run("malformed id", func(t *testing.T) {
		w := testutil.DoJSON(t, router, http.MethodGet, "/things/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := testutil.DecodeResponse(t, w, nil)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Code)
		assert.Equal(t, "Invalid thing ID format", resp.Error)
	})
}
