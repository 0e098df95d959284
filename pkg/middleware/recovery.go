package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// headerRequestID はクライアントが付与する相関IDのヘッダー。
const headerRequestID = "X-Request-ID"

// Recovery はハンドラーのパニックを500に変換するGinミドルウェアを返す。
// レスポンスはAPIのエラー形式 {"detail": ...} に合わせ、
// リクエストIDがあればログとレスポンスヘッダーに含める。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			requestID := c.GetHeader(headerRequestID)
			log.Printf("[PANIC] %s %s request_id=%s: %v", c.Request.Method, c.Request.URL.Path, requestID, r)
			if requestID != "" {
				c.Header(headerRequestID, requestID)
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal Server Error"})
		}()
		c.Next()
	}
}
