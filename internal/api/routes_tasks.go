package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/handlers"
)

func registerTaskRoutes(api *gin.RouterGroup, h *handlers.TaskHandler) {
	tasks := api.Group("/tasks")
	{
		tasks.POST("", h.Create)
		tasks.GET("", h.List)
		tasks.POST("/create-for-patient", h.CreateForPatient)

		recurring := tasks.Group("/recurring")
		{
			recurring.POST("", h.CreateRecurring)
			recurring.GET("", h.ListRecurring)
			recurring.POST("/generate", h.GenerateRecurring)
			recurring.PUT("/:id", h.UpdateRecurring)
			recurring.DELETE("/:id", h.DeleteRecurring)
			recurring.POST("/:id/toggle", h.ToggleRecurring)
		}

		tasks.GET("/worker/:workerId", h.ListByWorker)
		tasks.GET("/worker-name/:workerName", h.ListByWorkerName)
		tasks.GET("/status/:status", h.ListByStatus)
		tasks.GET("/due-date/:dueDate", h.ListByDueDate)
		tasks.GET("/priority/:priority", h.ListByPriority)
		tasks.GET("/today", h.ListToday)
		tasks.GET("/today/worker/:workerId", h.ListTodayForWorker)
		tasks.GET("/pending-approval", h.ListPendingApproval)
		tasks.GET("/completed", h.ListCompleted)
		tasks.GET("/in-progress", h.ListInProgress)
		tasks.GET("/rejected", h.ListRejected)
		tasks.GET("/stats", h.Stats)
		tasks.GET("/stats/worker/:workerId", h.WorkerStats)
		tasks.GET("/patient/:patientId", h.ListByPatient)
		tasks.GET("/patient/:patientId/all", h.ListAllByPatient)

		tasks.GET("/:id", h.Get)
		tasks.PUT("/:id", h.Update)
		tasks.DELETE("/:id", h.Delete)
		tasks.PUT("/:id/status", h.UpdateStatus)
		tasks.POST("/:id/worker-complete", h.WorkerComplete)
		tasks.POST("/:id/approve", h.Approve)
		tasks.POST("/:id/reject", h.Reject)
		tasks.POST("/:id/assign", h.Assign)
		tasks.POST("/:id/complete", h.Complete)
	}
}
