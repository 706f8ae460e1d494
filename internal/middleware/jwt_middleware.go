package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/LeinahI/akt-biz-laravel-api-react-ecommerce/internal/utils"
)

// Context keys set by JWTMiddleware.
const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWTMiddleware authenticates bearer tokens.
type JWTMiddleware struct {
	jwt     *utils.JWTManager
	revoked RevocationChecker
}

// NewJWTMiddleware creates a JWTMiddleware. revoked may be nil.
func NewJWTMiddleware(jwt *utils.JWTManager, revoked RevocationChecker) *JWTMiddleware {
	return &JWTMiddleware{jwt: jwt, revoked: revoked}
}

// Handle rejects requests without a valid, unrevoked bearer token.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid authorization header")
			c.Abort()
			return
		}

		claims, ok := m.Authenticate(c.Request.Context(), strings.TrimSpace(parts[1]))
		if !ok {
			utils.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// Authenticate validates token and checks it against the revocation store.
// A revocation store that cannot be reached fails closed.
func (m *JWTMiddleware) Authenticate(ctx context.Context, token string) (*utils.Claims, bool) {
	claims, err := m.jwt.ValidateJWT(token)
	if err != nil {
		return nil, false
	}
	if m.revoked == nil {
		return claims, true
	}
	revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", claims.UserID).Msg("Token revocation check failed")
		return nil, false
	}
	return claims, !revoked
}

// UserID returns the authenticated user id set by Handle.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(ContextUserID)
}

// Claims returns the token claims set by Handle, or nil.
func Claims(c *gin.Context) *utils.Claims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.Claims)
	return claims
}
