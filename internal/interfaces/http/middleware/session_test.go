package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) CurrentUser(ctx context.Context, token string) (*identity.User, error) {
	args := m.Called(ctx, token)
	if u := args.Get(0); u != nil {
		return u.(*identity.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func newSessionRouter(t *testing.T, resolver SessionResolver, require bool) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(SessionLoader(SessionConfig{
		Resolver:   resolver,
		CookieName: "crm_session",
		Logger:     zaptest.NewLogger(t),
	}))
	if require {
		router.Use(RequireSession())
	}
	router.GET("/api/customers/", func(c *gin.Context) {
		name := "anonymous"
		if u := GetSessionUser(c); u != nil {
			name = u.Name
			assert.Same(t, u, UserFromContext(c.Request.Context()))
			assert.NotEmpty(t, GetSessionToken(c))
		}
		c.String(http.StatusOK, name)
	})
	return router
}

func TestSessionLoader(t *testing.T) {
	user := &identity.User{BaseEntity: shared.BaseEntity{ID: uuid.New()}, Name: "Ada"}

	t.Run("cookie resolves user", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("CurrentUser", mock.Anything, "good-token").Return(user, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/customers/", nil)
		req.AddCookie(&http.Cookie{Name: "crm_session", Value: "good-token"})
		w := httptest.NewRecorder()
		newSessionRouter(t, resolver, false).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Ada", w.Body.String())
		resolver.AssertExpectations(t)
	})

	t.Run("bearer header resolves user", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("CurrentUser", mock.Anything, "api-token").Return(user, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/customers/", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+"api-token")
		w := httptest.NewRecorder()
		newSessionRouter(t, resolver, false).ServeHTTP(w, req)

		assert.Equal(t, "Ada", w.Body.String())
		resolver.AssertExpectations(t)
	})

	t.Run("invalid session stays anonymous", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("CurrentUser", mock.Anything, "stale").Return(nil, shared.ErrUnauthorized).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/customers/", nil)
		req.AddCookie(&http.Cookie{Name: "crm_session", Value: "stale"})
		w := httptest.NewRecorder()
		newSessionRouter(t, resolver, false).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("no token skips resolver", func(t *testing.T) {
		resolver := new(mockResolver)

		w := httptest.NewRecorder()
		newSessionRouter(t, resolver, false).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customers/", nil))

		assert.Equal(t, "anonymous", w.Body.String())
		resolver.AssertNotCalled(t, "CurrentUser", mock.Anything, mock.Anything)
	})
}

func TestRequireSession(t *testing.T) {
	t.Run("rejects anonymous request", func(t *testing.T) {
		w := httptest.NewRecorder()
		newSessionRouter(t, new(mockResolver), true).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customers/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"error":"Not authenticated"`)
		assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
	})

	t.Run("passes signed-in request", func(t *testing.T) {
		resolver := new(mockResolver)
		resolver.On("CurrentUser", mock.Anything, "good-token").Return(&identity.User{BaseEntity: shared.BaseEntity{ID: uuid.New()}, Name: "Ada"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/customers/", nil)
		req.AddCookie(&http.Cookie{Name: "crm_session", Value: "good-token"})
		w := httptest.NewRecorder()
		newSessionRouter(t, resolver, true).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}
