// Package handler exposes the chat core over HTTP. Handlers parse and
// validate, derive a bounded-timeout context, call the service with the
// middleware-verified caller id, and map coded errors to status codes.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"LumeChat/middleware/security"
	"LumeChat/module/chat/service"
	"LumeChat/service/objstore"
	"LumeChat/tools/errs"
)

type Handler struct {
	svc     *service.Service
	files   objstore.Storage
	timeout time.Duration
}

func New(svc *service.Service, files objstore.Storage, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Handler{svc: svc, files: files, timeout: timeout}
}

// Register mounts the API under /api/v1 behind the auth middleware.
func (h *Handler) Register(r *gin.Engine, auth gin.HandlerFunc) {
	api := r.Group("/api/v1", auth)

	api.POST("/conversations/resolve", h.ResolveConversation)
	api.GET("/conversations", h.ListConversations)
	api.PUT("/conversations/:id/theme", h.SetTheme)

	api.GET("/conversations/:id/messages", h.ListMessages)
	api.POST("/conversations/:id/messages", h.SendMessage)
	api.POST("/conversations/:id/batch", h.SendBatch)
	api.POST("/messages/:id/read", h.MarkRead)
	api.DELETE("/messages/:id", h.DeleteMessage)

	api.GET("/messages/:id/reactions", h.ListReactions)
	api.PUT("/messages/:id/reactions", h.SetReaction)

	api.POST("/stories", h.PostStory)
	api.GET("/stories", h.StoryFeed)
	api.POST("/stories/:id/view", h.ViewStory)

	api.POST("/profile", h.Provision)
	api.GET("/profile", h.Me)
	api.PUT("/profile/name", h.UpdateName)
	api.PUT("/profile/handle", h.UpdateHandle)
	api.PUT("/profile/avatar", h.UpdateAvatar)
	api.POST("/presence/heartbeat", h.Heartbeat)
	api.POST("/presence/offline", h.GoOffline)

	api.POST("/uploads", h.Upload)
	api.DELETE("/uploads", h.DeleteUpload)
}

func (h *Handler) ctx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

// fail maps the error taxonomy onto HTTP statuses.
func fail(c *gin.Context, err error) {
	switch errs.CodeOf(err) {
	case errs.CodeUnauthenticated:
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errs.CodeNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errs.CodeConflict:
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errs.CodeValidation:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errs.CodeCooldownActive:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errs.ErrTransientStorage.Error()})
	}
}

func caller(c *gin.Context) string { return security.CallerID(c) }
