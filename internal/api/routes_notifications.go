package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/handlers"
)

func registerNotificationRoutes(api *gin.RouterGroup, h *handlers.NotificationHandler) {
	notifications := api.Group("/notifications")
	{
		notifications.POST("", h.Create)
		notifications.GET("", h.List)
		notifications.GET("/stream", h.Stream)
		notifications.GET("/my", h.ListMine)
		notifications.GET("/recipient/:recipientId", h.ListByRecipient)
		notifications.GET("/unread", h.ListUnread)
		notifications.GET("/unread/count", h.UnreadCount)
		notifications.GET("/urgent/count", h.UrgentCount)
		notifications.GET("/type/:type", h.ListByType)
		notifications.GET("/category/:category", h.ListByCategory)
		notifications.PUT("/read-all", h.MarkAllRead)
		notifications.DELETE("/delete-all", h.DeleteAll)
		notifications.POST("/cleanup", h.Cleanup)
		notifications.POST("/broadcast", h.Broadcast)
		notifications.POST("/task-assigned", h.TaskAssigned)
		notifications.POST("/task-completed", h.TaskCompleted)
		notifications.POST("/schedule-updated", h.ScheduleUpdated)
		notifications.POST("/message-received", h.MessageReceived)

		notifications.GET("/:id", h.Get)
		notifications.PUT("/:id/read", h.MarkRead)
		notifications.DELETE("/:id", h.Delete)
	}
}
