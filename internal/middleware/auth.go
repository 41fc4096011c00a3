// Package middleware provides HTTP middleware for the store-ratings API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harshal20m/storeratings/internal/auth"
	"github.com/harshal20m/storeratings/pkg/ratings"
)

// identityKey is the gin context key under which the caller identity is stored.
const identityKey = "identity"

// Identity is the authenticated caller attached to the request context by
// RequireAuth. It is request-scoped; there is no ambient current-user state.
type Identity struct {
	ID    int64
	Email string
	Role  ratings.Role
}

// AuthMiddleware resolves bearer tokens into identities and enforces role
// membership per route.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// RequireAuth validates the Authorization header and attaches the resolved
// identity to the request context. Missing, malformed, expired or otherwise
// invalid tokens fail with 401.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authorization header must be in format 'Bearer <token>'"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := m.jwtManager.Validate(token)
		if err != nil {
			m.logger.Debug("token validation failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		c.Set(identityKey, &Identity{
			ID:    claims.UserID,
			Email: claims.Email,
			Role:  claims.Role,
		})

		c.Next()
	}
}

// RequireRole enforces an exact-match role check on an already-authenticated
// request. Roles are not hierarchical: admin does not satisfy a user-only or
// store_owner-only gate.
func (m *AuthMiddleware) RequireRole(role ratings.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Authentication required"})
			return
		}

		if identity.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied"})
			return
		}

		c.Next()
	}
}

// IdentityFrom extracts the caller identity attached by RequireAuth.
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return nil, false
	}
	identity, ok := v.(*Identity)
	return identity, ok
}
