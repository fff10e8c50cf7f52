package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vnkhanh/internship-platform-backend/models"
	"github.com/vnkhanh/internship-platform-backend/utils"
)

// bearerToken lấy token từ "Authorization: Bearer <token>", thử X-Auth-Token (cho iOS) nếu thiếu.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		authHeader = c.GetHeader("X-Auth-Token")
	}
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func authenticate(c *gin.Context, db *gorm.DB, token string) {
	claims, err := utils.VerifyToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token không hợp lệ hoặc hết hạn"})
		return
	}

	// Lấy role mới nhất trong DB, token cũ không giữ quyền đã bị đổi
	var user models.User
	if err := db.WithContext(c.Request.Context()).Select("id", "role").First(&user, "id = ?", claims.UserID).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Không tìm thấy người dùng"})
		return
	}

	c.Set("user_id", user.ID.String())
	c.Set("role", string(user.Role))
	c.Next()
}

func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" && c.GetHeader("X-Auth-Token") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Thiếu Authorization header"})
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header không hợp lệ"})
			return
		}
		authenticate(c, db, token)
	}
}

// StreamAuthMiddleware giống AuthMiddleware nhưng nhận thêm ?token=,
// vì EventSource trên trình duyệt không gửi được header.
func StreamAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Thiếu token"})
			return
		}
		authenticate(c, db, token)
	}
}
