package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/internship-platform-backend/models"
)

// RequireRoles cho phép chỉ định nhiều vai trò được quyền truy cập.
// Phải đặt sau AuthMiddleware.
func RequireRoles(allowedRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Không xác định được vai trò người dùng"})
			return
		}

		for _, allowed := range allowedRoles {
			if role == string(allowed) {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Bạn không có quyền truy cập tài nguyên này",
		})
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin)
}
