package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

type testAddress struct {
	City string `json:"city" binding:"required"`
}

type testCustomer struct {
	Email   string      `json:"email" binding:"required,email"`
	Phone   string      `json:"phone" binding:"required"`
	Address testAddress `json:"address"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/api/customers/addCustomer", func(c *gin.Context) {
		var req testCustomer
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func TestFormatValidationErrors(t *testing.T) {
	router := newValidationRouter()

	t.Run("lists failing fields by json path", func(t *testing.T) {
		body := strings.NewReader(`{"email": "not-an-email", "phone": "", "address": {}}`)
		req := httptest.NewRequest(http.MethodPost, "/api/customers/addCustomer", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, dto.ErrCodeValidation, resp.Code)
		assert.Equal(t, "Request validation failed", resp.Error)
		assert.NotEmpty(t, resp.RequestID)

		fields := map[string]string{}
		for _, d := range resp.Details {
			fields[d.Field] = d.Message
		}
		assert.Equal(t, map[string]string{
			"email":        "Invalid email format",
			"phone":        "This field is required",
			"address.city": "This field is required",
		}, fields)
	})

	t.Run("malformed json has no details", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/customers/addCustomer", strings.NewReader(`{"email":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Invalid request body", resp.Error)
		assert.Empty(t, resp.Details)
	})

	t.Run("returns success for valid input", func(t *testing.T) {
		body := strings.NewReader(`{"email": "alice@example.com", "phone": "555-0100", "address": {"city": "Springfield"}}`)
		req := httptest.NewRequest(http.MethodPost, "/api/customers/addCustomer", body)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type TestStruct struct {
		Required string `validate:"required"`
		Email    string `validate:"omitempty,email"`
		Min      string `validate:"min=5"`
		Max      string `validate:"max=10"`
		UUID     string `validate:"omitempty,uuid"`
		OneOf    string `validate:"oneof=Draft Active Completed"`
		GT       int    `validate:"gt=0"`
	}

	v := validator.New()
	err := v.Struct(TestStruct{
		Email: "invalid",
		Min:   "ab",
		Max:   "this is way too long",
		UUID:  "invalid",
		OneOf: "Sent",
	})
	require.Error(t, err)

	got := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		got[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"Min":      "Must be at least 5 characters",
		"Max":      "Must be at most 10 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: Draft Active Completed",
		"GT":       "Must be greater than 0",
	}, got)
}
