package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"LumeChat/module/chat/model"
	"LumeChat/tools/errs"
)

type storyReq struct {
	MediaURL   string `json:"media_url" binding:"required"`
	MediaKind  string `json:"media_kind" binding:"required"`
	Caption    string `json:"caption"`
	Visibility string `json:"visibility" binding:"required"`
}

func (h *Handler) PostStory(c *gin.Context) {
	var req storyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrValidation.WithDetail(err.Error()))
		return
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	st, err := h.svc.PostStory(ctx, caller(c), req.MediaURL, req.MediaKind, req.Caption, req.Visibility)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *Handler) StoryFeed(c *gin.Context) {
	scope := c.DefaultQuery("scope", model.StoryVisibilityFriends)
	ctx, cancel := h.ctx(c)
	defer cancel()

	groups, err := h.svc.StoryFeed(ctx, caller(c), scope)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *Handler) ViewStory(c *gin.Context) {
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.svc.ViewStory(ctx, caller(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
