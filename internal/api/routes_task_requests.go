package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/handlers"
)

func registerTaskRequestRoutes(api *gin.RouterGroup, h *handlers.TaskRequestHandler) {
	requests := api.Group("/task-requests")
	{
		requests.POST("", h.Create)
		requests.GET("", h.List)
		requests.GET("/requester/:requesterId", h.ListByRequester)
		requests.GET("/status/:status", h.ListByStatus)
		requests.GET("/pending", h.ListPending)
		requests.GET("/pending/organization/:organizationId", h.ListPendingByOrganization)
		requests.GET("/organization/:organizationId", h.ListByOrganization)
		requests.GET("/stats", h.Stats)
		requests.GET("/stats/organization/:organizationId", h.OrganizationStats)
		requests.GET("/stats/requester/:requesterId", h.RequesterStats)

		requests.GET("/:id", h.Get)
		requests.PUT("/:id", h.Update)
		requests.DELETE("/:id", h.Delete)
		requests.POST("/:id/approve", h.Approve)
		requests.POST("/:id/reject", h.Reject)
	}
}
