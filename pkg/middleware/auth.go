package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-conduit/pkg/jwt"
	"github.com/weiawesome/wes-io-conduit/pkg/log"
	"github.com/weiawesome/wes-io-conduit/pkg/response"
)

const (
	UserIDKey     = "user_id"
	UsernameKey   = "username"
	TokenKey      = "token"
	AuthHeaderKey = "Authorization"
	TokenPrefix   = "Token "
)

// Error codes written by the middleware.
const (
	CodeCredentialsMissing = "CREDENTIALS_MISSING"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenExpired       = "TOKEN_EXPIRED"
)

// TokenVerifier verifies a raw token string.
type TokenVerifier interface {
	Verify(token string) (*jwt.Claims, error)
}

// AuthMiddleware authenticates requests carrying "Authorization: Token <jwt>".
// Verification is local; no I/O happens on this path.
type AuthMiddleware struct {
	verifier TokenVerifier
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// RequireAuth rejects requests without a valid token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := extractToken(c)
		if !present {
			abort(c, CodeCredentialsMissing, "missing authorization token")
			return
		}
		if !m.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

// OptionalAuth lets anonymous requests through but still rejects a token
// that is present and invalid.
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, present := extractToken(c)
		if !present {
			c.Next()
			return
		}
		if !m.authenticate(c, token) {
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) authenticate(c *gin.Context, token string) bool {
	claims, err := m.verifier.Verify(token)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Debug().Err(err).Msg("token rejected")
		if errors.Is(err, jwt.ErrExpiredToken) {
			abort(c, CodeTokenExpired, "token has expired")
		} else {
			abort(c, CodeTokenInvalid, "invalid token")
		}
		return false
	}

	c.Set(UserIDKey, claims.UserID)
	c.Set(UsernameKey, claims.Username)
	c.Set(TokenKey, token)

	ctx := c.Request.Context()
	l := log.Ctx(ctx).With().
		Str(log.FieldUserID, claims.UserID).
		Str(log.FieldUsername, claims.Username).
		Logger()
	c.Request = c.Request.WithContext(log.WithLogger(ctx, l))
	return true
}

// extractToken returns the token and whether an Authorization header was
// sent at all. A header with the wrong scheme counts as present with an
// empty token so it fails verification instead of passing as anonymous.
func extractToken(c *gin.Context) (string, bool) {
	header := strings.TrimSpace(c.GetHeader(AuthHeaderKey))
	if header == "" {
		return "", false
	}
	if !strings.HasPrefix(header, TokenPrefix) {
		return "", true
	}
	return strings.TrimSpace(strings.TrimPrefix(header, TokenPrefix)), true
}

func abort(c *gin.Context, code, message string) {
	response.Unauthorized(c, code, message)
	c.Abort()
}

// GetUserID returns the authenticated user id, or "" for anonymous requests.
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetUsername returns the authenticated username.
func GetUsername(c *gin.Context) string {
	return c.GetString(UsernameKey)
}
