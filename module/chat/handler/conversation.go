package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LumeChat/tools/errs"
)

type resolveReq struct {
	OtherID        string `json:"other_id" binding:"required"`
	ConversationID string `json:"conversation_id"` // optional client-proposed id
}

// ResolveConversation is the get-or-create-private endpoint. The caller's own
// id comes from the token, never from the body.
func (h *Handler) ResolveConversation(c *gin.Context) {
	var req resolveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	id, err := h.svc.GetOrCreatePrivate(ctx, caller(c), req.OtherID, req.ConversationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation_id": id})
}

func (h *Handler) ListConversations(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	convs, err := h.svc.ListConversations(ctx, caller(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

type themeReq struct {
	Theme string `json:"theme" binding:"required"`
}

func (h *Handler) SetTheme(c *gin.Context) {
	var req themeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.svc.SetTheme(ctx, caller(c), c.Param("id"), req.Theme); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
