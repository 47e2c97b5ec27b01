package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"LumeChat/logger"
	"LumeChat/service/storage"
	"LumeChat/tools/errs"
)

// presenceTTL is how long a heartbeat keeps a user online; a client that
// stops renewing goes stale on its own.
var presenceTTL = 45 * time.Second

func SetPresenceTTL(d time.Duration) {
	if d > 0 {
		presenceTTL = d
	}
}

type provisionReq struct {
	DisplayName string `json:"display_name" binding:"required"`
	Handle      string `json:"handle" binding:"required"`
}

// Provision runs once per fresh identity after signup. The profile id comes
// from the verified token, never the body.
func (h *Handler) Provision(c *gin.Context) {
	var req provisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.svc.Provision(ctx, caller(c), req.DisplayName, req.Handle)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) Me(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	p, err := h.svc.GetProfile(ctx, caller(c))
	if err != nil {
		fail(c, err)
		return
	}
	if online, perr := storage.IsOnline(ctx, p.ID); perr == nil {
		p.IsOnline = online
	}
	c.JSON(http.StatusOK, p)
}

type nameReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) UpdateName(c *gin.Context) {
	var req nameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.svc.UpdateDisplayName(ctx, caller(c), req.Name); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type handleReq struct {
	Handle string `json:"handle" binding:"required"`
}

func (h *Handler) UpdateHandle(c *gin.Context) {
	var req handleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.svc.UpdateHandle(ctx, caller(c), req.Handle); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type avatarReq struct {
	URL string `json:"url" binding:"required"`
}

func (h *Handler) UpdateAvatar(c *gin.Context) {
	var req avatarReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.svc.UpdateAvatar(ctx, caller(c), req.URL); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Heartbeat renews the presence TTL and persists last-seen.
func (h *Handler) Heartbeat(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	self := caller(c)
	now := time.Now().UTC()
	if err := storage.Heartbeat(ctx, self, presenceTTL); err != nil {
		logger.Warnf("[presence] heartbeat %s: %v", self, err)
	}
	if err := h.svc.TouchLastSeen(ctx, self, now); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GoOffline(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	self := caller(c)
	if err := storage.Offline(ctx, self); err != nil {
		logger.Warnf("[presence] offline %s: %v", self, err)
	}
	if err := h.svc.TouchLastSeen(ctx, self, time.Now().UTC()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
