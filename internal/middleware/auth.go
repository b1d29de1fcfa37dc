package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"coursemart/config"
	"coursemart/internal/auth"
	"coursemart/internal/domain"

	"github.com/gin-gonic/gin"
)

const principalKey = "coursemart.principal"

// Principal is the caller identified by the access token.
type Principal struct {
	UserID uint
	Email  string
	Role   string
}

// AuthRequired validates the bearer token and stores the Principal on the context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || scheme != "Bearer" || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed bearer token"})
			return
		}
		claims, err := auth.ParseAccessToken(cfg, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if !knownRole(claims.Role) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown role"})
			return
		}
		c.Set(principalKey, Principal{UserID: claims.UserID, Email: claims.Email, Role: claims.Role})
		c.Next()
	}
}

// RequireRole lets through callers holding one of roles. Unknown roles panic at route setup.
func RequireRole(roles ...string) gin.HandlerFunc {
	for _, r := range roles {
		if !knownRole(r) {
			panic(fmt.Sprintf("middleware: unknown role %q", r))
		}
	}
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

func knownRole(role string) bool {
	switch role {
	case domain.RoleStudent, domain.RoleInstructor, domain.RoleAdmin:
		return true
	}
	return false
}

// GetPrincipal returns the caller stored by AuthRequired.
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// GetUserID returns the authenticated user id, or 0 before AuthRequired.
func GetUserID(c *gin.Context) uint {
	p, _ := GetPrincipal(c)
	return p.UserID
}

// GetRole returns the authenticated user's role, or "" before AuthRequired.
func GetRole(c *gin.Context) string {
	p, _ := GetPrincipal(c)
	return p.Role
}
