package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/superbmd/superbmd/internal/auth"
	"github.com/superbmd/superbmd/internal/rbac"
)

// RequireRead ensures the user may read at least part of res.
// Row-level scoping stays with the service layer.
func RequireRead(policy *rbac.Policy, res rbac.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.UserFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Tidak terautentikasi"})
			return
		}

		if policy.Scope(user, res) == rbac.ScopeNone {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Akses ditolak"})
			return
		}

		c.Next()
	}
}

// RequireWrite ensures the user may create, update or delete res.
func RequireWrite(policy *rbac.Policy, res rbac.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.UserFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Tidak terautentikasi"})
			return
		}

		if !policy.CanWrite(user, res) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Hanya admin yang dapat melakukan aksi ini"})
			return
		}

		c.Next()
	}
}

// RequireAdmin ensures the user holds full access to res (audit logs).
func RequireAdmin(policy *rbac.Policy, res rbac.Resource) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := auth.UserFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Tidak terautentikasi"})
			return
		}

		if policy.Scope(user, res) != rbac.ScopeAll {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Akses admin diperlukan"})
			return
		}

		c.Next()
	}
}
