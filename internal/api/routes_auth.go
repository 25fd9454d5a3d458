package api

import (
	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/handlers"
)

func registerAuthRoutes(api *gin.RouterGroup, h *handlers.AuthHandler, requireAuth gin.HandlerFunc) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/login-email", h.LoginByEmail)
		auth.POST("/register", h.Register)
		auth.POST("/submit-invite-code", h.SubmitInviteCode)
		auth.GET("/invite-status", h.InviteStatus)
		auth.POST("/change-password", h.ChangePassword)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
		auth.GET("/me", requireAuth, h.Me)
	}
}
