package auth

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type TokenRequest struct {
	PlayerID string `json:"playerId" binding:"required"`
	Handle   string `json:"handle"`
}

// Handler 由聊天机器人（持有 bot key）为频道里的玩家换取 JWT
type Handler struct {
	secret []byte
	botKey string
	ttl    time.Duration
}

// 工厂方法：创建 handler
func NewHandler(secret []byte, botKey string, ttl time.Duration) *Handler {
	return &Handler{secret: secret, botKey: botKey, ttl: ttl}
}

// POST /auth/token  header: X-Bot-Key  body: {playerId, handle}
func (h *Handler) Token(c *gin.Context) {
	key := c.GetHeader("X-Bot-Key")
	if h.botKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(h.botKey)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad bot key"})
		return
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	jwtStr, err := IssueToken(h.secret, Identity{PlayerID: req.PlayerID, Handle: req.Handle}, h.ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "jwt generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jwt": jwtStr})
}
