package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/upb/access-control-plane/auth"
	"github.com/upb/access-control-plane/models"
	"github.com/upb/access-control-plane/utils"
	"go.uber.org/zap"
)

// SessionTokens verifies and mints the gateway's session tokens. Implemented
// by auth.TokenManager.
type SessionTokens interface {
	VerifySession(token string) (*auth.Claims, error)
	VerifyRefresh(token string) (*auth.Claims, error)
	IssueSession(identity models.ActorIdentity, companyID *uuid.UUID) (string, error)
}

// Cookie names for the session and refresh tokens. The Authorization header
// takes precedence over cookies when both are present.
const (
	SessionCookieName = "session_token"
	RefreshCookieName = "refresh_token"
)

// SessionMiddleware resolves the actor's session for each request
type SessionMiddleware struct {
	tokens SessionTokens
	logger *zap.Logger
}

// NewSessionMiddleware creates a SessionMiddleware
func NewSessionMiddleware(tokens SessionTokens, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		tokens: tokens,
		logger: logger,
	}
}

// WithSession attaches claims to the context when the request carries a valid
// session (or a refresh token that can mint one). It never blocks the
// request: downstream evaluators see the missing session and decide. Stale
// cookies that fail verification are cleared.
func (m *SessionMiddleware) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := m.resolveSession(w, r)
		if claims != nil {
			r = r.WithContext(WithClaims(r.Context(), claims))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSession rejects requests without a valid session with 401
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := m.resolveSession(w, r)
		if claims == nil {
			m.logger.Warn("missing or invalid session",
				zap.String("request_id", RequestID(r.Context())),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "Missing or invalid session")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// resolveSession extracts and verifies the session. A valid refresh token
// silently mints a fresh session cookie; exhausted tokens clear their
// cookies so the client does not retry them.
func (m *SessionMiddleware) resolveSession(w http.ResponseWriter, r *http.Request) *auth.Claims {
	requestID := RequestID(r.Context())

	if token := extractToken(r); token != "" {
		claims, err := m.tokens.VerifySession(token)
		if err == nil {
			return claims
		}
		m.logger.Debug("session token rejected",
			zap.String("request_id", requestID),
			zap.Error(err))
		clearCookie(w, SessionCookieName)
	}

	refresh := cookieValue(r, RefreshCookieName)
	if refresh == "" {
		return nil
	}

	claims, err := m.tokens.VerifyRefresh(refresh)
	if err != nil {
		m.logger.Debug("refresh token rejected",
			zap.String("request_id", requestID),
			zap.Error(err))
		clearCookie(w, RefreshCookieName)
		return nil
	}

	identity, err := claims.Identity()
	if err != nil {
		m.logger.Warn("refresh token carries invalid identity",
			zap.String("request_id", requestID),
			zap.Error(err))
		clearCookie(w, RefreshCookieName)
		return nil
	}

	session, err := m.tokens.IssueSession(identity, claims.CompanyID)
	if err != nil {
		m.logger.Error("failed to reissue session from refresh token",
			zap.String("request_id", requestID),
			zap.Error(err))
		return nil
	}
	SetSessionCookie(w, session)

	m.logger.Debug("session reissued from refresh token",
		zap.String("request_id", requestID),
		zap.String("sub", claims.Subject))
	return claims
}

// SetSessionCookie writes the session cookie
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetRefreshCookie writes the refresh cookie
func SetRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookies expires both token cookies
func ClearSessionCookies(w http.ResponseWriter) {
	clearCookie(w, SessionCookieName)
	clearCookie(w, RefreshCookieName)
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func cookieValue(r *http.Request, name string) string {
	if cookie, err := r.Cookie(name); err == nil {
		return cookie.Value
	}
	return ""
}

// extractToken extracts the session token from the Authorization header
// ("Bearer TOKEN") or the session cookie. The header takes precedence.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	return cookieValue(r, SessionCookieName)
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
