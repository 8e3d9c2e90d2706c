package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxPlayer = "player"
	CtxHandle = "handle"
)

// JwtAuthMiddleware 校验 Bearer token，把玩家 ID 注入 gin.Context。
// 浏览器的 websocket 无法带 header，所以也接受 ?token=
func JwtAuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		id, err := ParseToken(secret, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(CtxPlayer, id.PlayerID)
		c.Set(CtxHandle, id.Handle)
		c.Next()
	}
}
