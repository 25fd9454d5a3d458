package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/handlers"
)

func registerPatientRoutes(api *gin.RouterGroup, h *handlers.PatientHandler) {
	patients := api.Group("/patients")
	{
		patients.POST("", h.Create)
		patients.GET("/family-member/:familyMemberId", h.ListByFamilyMember)
		patients.GET("/poa/:poaId", h.ListByPOA)
		patients.GET("/authorized/:userId", h.ListAuthorized)
		patients.GET("/:id", h.Get)
		patients.PUT("/:id", h.Update)
		patients.DELETE("/:id", h.Delete)
	}
}
