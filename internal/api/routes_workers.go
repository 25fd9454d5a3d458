package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/handlers"
)

func registerWorkerRoutes(api *gin.RouterGroup, h *handlers.WorkerHandler) {
	workers := api.Group("/workers")
	{
		workers.POST("", h.Create)
		workers.GET("", h.List)

		workers.POST("/daily-schedule", h.CreateDailySchedule)
		workers.POST("/upload-photo", h.UploadPhoto)
		workers.POST("/batch-upload-photos", h.BatchUploadPhotos)

		org := workers.Group("/organization/:organizationId")
		{
			org.GET("", h.ListByOrganization)
			org.GET("/shifts/:date", h.WorkersWithShifts)
			org.GET("/available", h.Available)
			org.GET("/daily-schedule/:date", h.DailySchedule)
			org.DELETE("/daily-schedule/:date", h.ClearDailySchedule)
			org.GET("/without-photos", h.WithoutPhotos)
		}

		workers.GET("/:id", h.Get)
		workers.PUT("/:id", h.Update)
		workers.DELETE("/:id", h.Delete)
		workers.POST("/:id/activate", h.Activate)
		workers.POST("/:id/deactivate", h.Deactivate)
		workers.POST("/:id/allocate-shift", h.AllocateShift)
		workers.PUT("/:id/shift-status", h.UpdateShiftStatus)
		workers.GET("/:id/shifts/:date", h.ShiftsForDate)
		workers.DELETE("/:id/shifts/:date/:time", h.RemoveShift)
		workers.POST("/:id/photo-file", h.UploadPhotoFile)
		workers.POST("/:id/photo-url", h.UpdatePhotoURL)
		workers.POST("/:id/photo", h.SetPhoto)
		workers.DELETE("/:id/photo", h.DeletePhoto)
	}
}
