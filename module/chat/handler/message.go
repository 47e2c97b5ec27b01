package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"LumeChat/module/chat/service"
	"LumeChat/tools/errs"
)

type sendReq struct {
	Content   string  `json:"content" binding:"required"`
	ReplyToID *string `json:"reply_to_id"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	m, err := h.svc.SendText(ctx, caller(c), c.Param("id"), req.Content, req.ReplyToID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

type batchReq struct {
	Caption     string  `json:"caption"`
	ReplyToID   *string `json:"reply_to_id"`
	Attachments []struct {
		URL  string `json:"url" binding:"required"`
		Kind string `json:"kind" binding:"required"`
	} `json:"attachments" binding:"required"`
}

func (h *Handler) SendBatch(c *gin.Context) {
	var req batchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	in := service.BatchInput{
		ConversationID: c.Param("id"),
		Caption:        req.Caption,
		ReplyToID:      req.ReplyToID,
	}
	for _, a := range req.Attachments {
		in.Attachments = append(in.Attachments, service.Attachment{URL: a.URL, Kind: a.Kind})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	msgs, failures, err := h.svc.SendBatch(ctx, caller(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	failed := make([]gin.H, 0, len(failures))
	for _, f := range failures {
		failed = append(failed, gin.H{"media_url": f.MediaURL, "error": f.Err.Error()})
	}
	c.JSON(http.StatusCreated, gin.H{"messages": msgs, "failures": failed})
}

func (h *Handler) ListMessages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	ctx, cancel := h.ctx(c)
	defer cancel()

	msgs, err := h.svc.ListMessages(ctx, caller(c), c.Param("id"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) MarkRead(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.svc.MarkRead(ctx, caller(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.svc.SoftDelete(ctx, caller(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
