package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LumeChat/tools/errs"
)

type reactionReq struct {
	Emoji   string `json:"emoji" binding:"required"`
	Present *bool  `json:"present" binding:"required"`
}

// SetReaction is the idempotent membership endpoint: present=true ensures the
// reaction exists, present=false ensures it does not.
func (h *Handler) SetReaction(c *gin.Context) {
	var req reactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.svc.SetReaction(ctx, caller(c), c.Param("id"), req.Emoji, *req.Present); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListReactions(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	reactions, err := h.svc.ListReactions(ctx, caller(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}
