package lobby

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"DrawPoker/internal/auth"
	"DrawPoker/internal/game/manager"
	"DrawPoker/internal/game/table"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register 挂到已带 JWT middleware 的路由组上
func (h *Handler) Register(g gin.IRoutes) {
	g.POST("/sessions", h.Create)
	g.GET("/sessions/:id", h.Get)
	g.POST("/sessions/:id/join", h.Join)
	g.POST("/sessions/:id/start", h.Start)
	g.DELETE("/sessions/:id", h.Abandon)
	g.GET("/history/:key", h.History)
	g.GET("/balance", h.Balance)
}

// POST /sessions  body: {key}
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.svc.Create(c.Request.Context(), req.Key, c.GetString(auth.CtxPlayer))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error(), "sessionId": id})
		return
	}
	c.JSON(http.StatusCreated, CreateResponse{SessionID: id, Key: req.Key})
}

// GET /sessions/:id
func (h *Handler) Get(c *gin.Context) {
	snap, err := h.svc.Get(c.Param("id"))
	if err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// POST /sessions/:id/join
func (h *Handler) Join(c *gin.Context) {
	p := table.Player{ID: c.GetString(auth.CtxPlayer), Handle: c.GetString(auth.CtxHandle)}
	if err := h.svc.Join(c.Request.Context(), c.Param("id"), p); err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /sessions/:id/start
func (h *Handler) Start(c *gin.Context) {
	if err := h.svc.Start(c.Request.Context(), c.Param("id"), c.GetString(auth.CtxPlayer)); err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true})
}

// DELETE /sessions/:id
func (h *Handler) Abandon(c *gin.Context) {
	if err := h.svc.Abandon(c.Request.Context(), c.Param("id"), c.GetString(auth.CtxPlayer)); err != nil {
		c.JSON(statusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /history/:key?n=10
func (h *Handler) History(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("n", "10"))
	if err != nil || n < 1 || n > historyLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "n must be between 1 and 50"})
		return
	}
	recs, err := h.svc.History(c.Request.Context(), c.Param("key"), n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, recs)
}

// GET /balance  余额 + 当前所在局
func (h *Handler) Balance(c *gin.Context) {
	id := c.GetString(auth.CtxPlayer)
	b, err := h.svc.Balance(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	seat, err := h.svc.Seat(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": id, "balance": b, "session": seat})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, manager.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, manager.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, manager.ErrAlreadyExists),
		errors.Is(err, manager.ErrAlreadyStarted),
		errors.Is(err, manager.ErrAlreadyJoined),
		errors.Is(err, manager.ErrSessionFull),
		errors.Is(err, manager.ErrNotEnoughPlayers),
		errors.Is(err, ErrPlayerBusy):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
