package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/handlers"
)

func registerScheduleRoutes(api *gin.RouterGroup, h *handlers.ScheduleHandler) {
	schedules := api.Group("/schedules")
	{
		schedules.POST("", h.Create)
		schedules.GET("", h.List)

		// Bulk and query endpoints
		schedules.POST("/batch-create", h.BatchCreate)
		schedules.PUT("/batch-update-status", h.BatchUpdateStatus)
		schedules.DELETE("/batch-delete", h.BatchDelete)
		schedules.POST("/copy", h.Copy)
		schedules.GET("/weekly", h.Weekly)
		schedules.GET("/validate", h.Validate)
		schedules.GET("/date-range", h.ListByDateRange)
		schedules.GET("/date/:date", h.ListByDate)
		schedules.DELETE("/date/:date", h.DeleteByDate)
		schedules.GET("/worker/:workerId", h.ListByWorker)
		schedules.GET("/worker/:workerId/date/:date", h.ListByWorkerAndDate)
		schedules.GET("/worker/:workerId/has-schedule/:date", h.HasSchedule)
		schedules.GET("/organization/:organizationId", h.ListByOrganization)
		schedules.GET("/organization/:organizationId/date/:date", h.ListByOrganizationAndDate)
		schedules.GET("/manager/:managerId", h.ListByManager)
		schedules.GET("/status/:status", h.ListByStatus)
		schedules.GET("/shift-type/:shiftType", h.ListByShiftType)
		schedules.GET("/stats/:organizationId", h.Stats)

		schedules.GET("/:id", h.Get)
		schedules.PUT("/:id", h.Update)
		schedules.DELETE("/:id", h.Delete)
		schedules.PUT("/:id/status", h.UpdateStatus)
		schedules.POST("/:id/upload-photo", h.UploadPhoto)
		schedules.POST("/:id/upload-photo-file", h.UploadPhotoFile)
	}
}
