package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/handlers"
)

func registerMessageRoutes(api *gin.RouterGroup, h *handlers.MessageHandler) {
	messages := api.Group("/messages")
	{
		messages.POST("", h.Send)
		messages.GET("", h.List)
		messages.GET("/inbox", h.Inbox)
		messages.GET("/sent", h.Sent)
		messages.GET("/unread", h.Unread)
		messages.GET("/unread/count", h.UnreadCount)
		messages.GET("/conversation/:userId", h.Conversation)
		messages.GET("/category/:category", h.ListByCategory)

		messages.GET("/:id", h.Get)
		messages.GET("/:id/replies", h.Replies)
		messages.POST("/:id/reply", h.Reply)
		messages.PUT("/:id/read", h.MarkRead)
		messages.PUT("/:id/archive", h.Archive)
		messages.DELETE("/:id", h.Delete)
		messages.DELETE("/:id/permanent", h.Purge)
	}
}
