package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/handlers"
)

func registerInviteRoutes(api *gin.RouterGroup, h *handlers.InviteHandler) {
	invites := api.Group("/invite")
	{
		invites.POST("/generate", h.Generate)
		invites.POST("/use", h.Use)
		invites.GET("/my-codes", h.MyCodes)
		invites.GET("/patient/:patientId", h.ActiveForPatient)
		invites.DELETE("/:codeId", h.Revoke)
	}
}
