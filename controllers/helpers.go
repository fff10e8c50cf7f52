package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Thời gian tối đa cho các thông báo gửi nền sau khi request đã trả về.
const backgroundNotifyTimeout = 30 * time.Second

// currentUserID đọc "user_id" do AuthMiddleware đặt; trả 401 nếu thiếu.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return uuid.Nil, false
	}
	return id, true
}

func paramUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + label + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

// queryInt đọc tham số số nguyên trong [min, max]; ok=false khi sai định dạng hoặc ngoài khoảng.
func queryInt(c *gin.Context, key string, def, min, max int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || (max > 0 && v > max) {
		return 0, false
	}
	return v, true
}

// notifyAsync chạy fn ở nền với context riêng, lỗi chỉ được ghi log.
func notifyAsync(what string, fn func(ctx context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), backgroundNotifyTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logNotifyError(what, err)
		}
	}()
}

// isDuplicateKey nhận lỗi unique violation (23505) dù gorm có bật TranslateError hay không.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
