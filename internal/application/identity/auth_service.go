package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/crm/backend/internal/domain/identity"
	"github.com/crm/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OAuthProvider runs the authorization-code flow against an identity provider
type OAuthProvider interface {
	// AuthCodeURL returns the consent page URL carrying state
	AuthCodeURL(state string) string
	// Exchange trades the authorization code for the user's profile
	Exchange(ctx context.Context, code string) (identity.GoogleProfile, error)
}

// SessionTokens signs and verifies the cookie value that refers to a session
type SessionTokens interface {
	Sign(sessionID string, expiresAt time.Time) (string, error)
	Parse(token string) (string, error)
}

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	SessionTTL time.Duration
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{SessionTTL: 24 * time.Hour}
}

// AuthService signs operators in with Google and resolves sessions to users
type AuthService struct {
	userRepo identity.UserRepository
	sessions identity.SessionStore
	provider OAuthProvider
	tokens   SessionTokens
	config   AuthServiceConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	userRepo identity.UserRepository,
	sessions identity.SessionStore,
	provider OAuthProvider,
	tokens SessionTokens,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if config.SessionTTL <= 0 {
		config.SessionTTL = DefaultAuthServiceConfig().SessionTTL
	}
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		provider: provider,
		tokens:   tokens,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

// BeginLogin creates a random state value and the consent URL carrying it
func (s *AuthService) BeginLogin() (*LoginStart, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)
	return &LoginStart{RedirectURL: s.provider.AuthCodeURL(state), State: state}, nil
}

// CompleteLogin exchanges the authorization code, creates the user on first
// login, and opens a session.
func (s *AuthService) CompleteLogin(ctx context.Context, code string) (*LoginResult, error) {
	if code == "" {
		return nil, shared.NewValidationError("Authorization code is required")
	}

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("OAuth code exchange failed", zap.Error(err))
		return nil, shared.NewUpstreamError("Google sign-in failed", err)
	}

	now := s.now()
	created := false
	user, err := s.userRepo.FindByGoogleID(ctx, profile.Subject)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		user, err = identity.NewUserFromGoogle(profile)
		if err != nil {
			return nil, err
		}
		user.LastLoginAt = &now
		created = true
	case err != nil:
		return nil, err
	default:
		user.RefreshFromGoogle(profile, now)
	}
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	session := identity.NewSession(user.ID, now, s.config.SessionTTL)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	token, err := s.tokens.Sign(session.ID, session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("User signed in",
		zap.String("user_id", user.ID.String()),
		zap.Bool("first_login", created),
	)
	return &LoginResult{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
		User:      ToUserInfo(user),
		Created:   created,
	}, nil
}

// CurrentUser resolves a session token to its user. Any failure, including a
// malformed token or an expired session, is reported as shared.ErrUnauthorized.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*identity.User, error) {
	if token == "" {
		return nil, shared.ErrUnauthorized
	}
	sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Session lookup failed", zap.Error(err))
		}
		return nil, shared.ErrUnauthorized
	}
	if session.IsExpired(s.now()) {
		return nil, shared.ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("Session user lookup failed", zap.Error(err))
		}
		return nil, shared.ErrUnauthorized
	}
	return user, nil
}

// Logout deletes the session behind the token. Invalid tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	sessionID, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, sessionID)
}
