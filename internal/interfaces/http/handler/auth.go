package handler

import (
	"errors"
	"net/http"
	"time"

	identityapp "github.com/crm/backend/internal/application/identity"
	"github.com/crm/backend/internal/domain/shared"
	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/dto"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// OAuthStateCookie carries the state value between /auth/google and the callback
	OAuthStateCookie = "crm_oauth_state"
	oauthStateMaxAge = 10 * time.Minute
)

// AuthHandler handles the Google sign-in flow and session endpoints
type AuthHandler struct {
	BaseHandler
	authService *identityapp.AuthService
	session     config.SessionConfig
	oauth       config.OAuthConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *identityapp.AuthService, session config.SessionConfig, oauth config.OAuthConfig) *AuthHandler {
	if oauth.SuccessRedirect == "" {
		oauth.SuccessRedirect = "/"
	}
	if oauth.FailureRedirect == "" {
		oauth.FailureRedirect = "/"
	}
	return &AuthHandler{
		authService: authService,
		session:     session,
		oauth:       oauth,
	}
}

// Login godoc
// @ID           googleLogin
// @Summary      Start Google sign-in
// @Description  Sets the OAuth state cookie and redirects to Google's consent screen
// @Tags         auth
// @Produce      json
// @Failure      500 {object} dto.Response
// @Header       302 {string} Location "Google authorization URL"
// @Router       /auth/google [get]
func (h *AuthHandler) Login(c *gin.Context) {
	start, err := h.authService.BeginLogin()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.setCookie(c, OAuthStateCookie, start.State, int(oauthStateMaxAge.Seconds()))
	c.Redirect(http.StatusFound, start.RedirectURL)
}

// Callback godoc
// @ID           googleCallback
// @Summary      Finish Google sign-in
// @Description  Exchanges the code, creates the session cookie and redirects to the frontend
// @Tags         auth
// @Param        code   query  string  false  "Authorization code"
// @Param        state  query  string  true   "OAuth state"
// @Param        error  query  string  false  "Error reported by Google"
// @Header       302 {string} Location "Frontend success or failure URL"
// @Router       /auth/google/callback [get]
func (h *AuthHandler) Callback(c *gin.Context) {
	log := logger.GetGinLogger(c)

	expected, _ := c.Cookie(OAuthStateCookie)
	h.setCookie(c, OAuthStateCookie, "", -1)

	if errMsg := c.Query("error"); errMsg != "" {
		log.Info("Google sign-in was declined", zap.String("error", errMsg))
		c.Redirect(http.StatusFound, h.oauth.FailureRedirect)
		return
	}
	if expected == "" || c.Query("state") != expected {
		log.Warn("OAuth state mismatch")
		c.Redirect(http.StatusFound, h.oauth.FailureRedirect)
		return
	}

	result, err := h.authService.CompleteLogin(c.Request.Context(), c.Query("code"))
	if err != nil {
		log.Warn("Google sign-in failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.oauth.FailureRedirect)
		return
	}

	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	h.setCookie(c, h.session.CookieName, result.Token, maxAge)
	c.Redirect(http.StatusFound, h.oauth.SuccessRedirect)
}

// Session godoc
// @ID           currentSession
// @Summary      Current user
// @Description  Returns the signed-in user
// @Tags         auth
// @Produce      json
// @Success      200 {object} dto.Response{data=identityapp.UserInfo}
// @Failure      401 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /auth/session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	if user := middleware.GetSessionUser(c); user != nil {
		h.Success(c, identityapp.ToUserInfo(user))
		return
	}

	token, _ := c.Cookie(h.session.CookieName)
	user, err := h.authService.CurrentUser(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Not authenticated", getRequestID(c),
			))
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, identityapp.ToUserInfo(user))
}

// Logout godoc
// @ID           logout
// @Summary      Sign out
// @Description  Deletes the session and clears the cookie
// @Tags         auth
// @Header       302 {string} Location "/"
// @Security     BearerAuth
// @Router       /logout [get]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.GetSessionToken(c)
	if token == "" {
		token, _ = c.Cookie(h.session.CookieName)
	}
	if token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			logger.GetGinLogger(c).Error("Failed to delete session", zap.Error(err))
		}
	}

	h.setCookie(c, h.session.CookieName, "", -1)
	c.Redirect(http.StatusFound, "/")
}

func (h *AuthHandler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(sameSiteMode(h.session.SameSite))
	c.SetCookie(name, value, maxAge, "/", h.session.Domain, h.session.Secure, true)
}

func sameSiteMode(s string) http.SameSite {
	switch s {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
