package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"motorvault/internal/command"
	"motorvault/internal/service"
)

type Handler struct {
	svc        service.EconomyService
	dispatcher *command.Dispatcher
}

func NewHandler(svc service.EconomyService, dispatcher *command.Dispatcher) *Handler {
	return &Handler{svc: svc, dispatcher: dispatcher}
}

func (h *Handler) Register(router *gin.Engine, adminToken string) {
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	v1.POST("/commands", h.Command)
	v1.GET("/accounts/:id/balance", h.Balance)
	v1.GET("/accounts/:id/holdings", h.Holdings)
	v1.GET("/leaderboard", h.Leaderboard)
	v1.GET("/catalog", h.Catalog)

	admin := v1.Group("/admin", AdminAuth(adminToken))
	admin.POST("/accounts/:id/balance", h.GrantBalance)
	admin.POST("/accounts/:id/items", h.GrantItem)
	admin.DELETE("/accounts/:id", h.Wipe)
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		respondWithError(c, http.StatusServiceUnavailable, "unavailable", "store unreachable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Command runs any inbound command. The body is a command.Command.
func (h *Handler) Command(c *gin.Context) {
	var cmd command.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeBadRequest, "invalid json")
		return
	}
	res, err := h.dispatcher.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Balance(c *gin.Context) {
	acc, err := h.svc.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"account_id":  acc.ID,
		"balance":     acc.Balance,
		"last_income": acc.LastIncome,
		"currency":    acc.Currency,
	})
}

func (h *Handler) Holdings(c *gin.Context) {
	holdings, err := h.svc.Holdings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, holdings)
}

func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondWithError(c, http.StatusBadRequest, errCodeBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	top, err := h.svc.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": top})
}

func (h *Handler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Menu())
}

func (h *Handler) GrantBalance(c *gin.Context) {
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeBadRequest, "invalid json")
		return
	}
	balance, err := h.svc.AdminGrantBalance(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

func (h *Handler) GrantItem(c *gin.Context) {
	var req struct {
		ItemID int `json:"item_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusBadRequest, errCodeBadRequest, "invalid json")
		return
	}
	rec, err := h.svc.AdminGrantItem(c.Request.Context(), c.Param("id"), req.ItemID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) Wipe(c *gin.Context) {
	if err := h.svc.AdminWipe(c.Request.Context(), c.Param("id")); err != nil {
		respondDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
