package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireOrgType rejects tokens carrying an organization type outside the
// allowed set. Guards against stale tokens minted before a type rename.
func (m *AuthMiddleware) RequireOrgType(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))

	for _, t := range allowed {
		allowedSet[t] = struct{}{}
	}

	return func(c *gin.Context) {
		orgType, ok := OrgTypeFromContext(c)

		if !ok || orgType == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "unauthorized",
					"message": "Missing identity context",
				},
			})
			return
		}
		if _, ok := allowedSet[orgType]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "forbidden",
					"message": "Organization type not allowed",
				},
			})
			return
		}
		c.Next()
	}
}
