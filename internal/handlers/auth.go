package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/careapp/carecoord/internal/middleware"
	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/services"
	"github.com/careapp/carecoord/pkg/logger"
	"github.com/careapp/carecoord/pkg/response"
)

const msgUserNotFound = "User not found!"

// AuthHandler exposes login, registration, invite onboarding and password management.
type AuthHandler struct {
	users   UserStore
	invites InviteCodeStore
	tokens  TokenIssuer
}

func NewAuthHandler(users UserStore, invites InviteCodeStore, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, invites: invites, tokens: tokens}
}

type loginRequest struct {
	Uname    string `json:"uname"`
	Password string `json:"password"`
}

type emailLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Uname            string `json:"uname"`
	Email            string `json:"email" validate:"notblank"`
	Password         string `json:"password" validate:"notblank"`
	Role             string `json:"role"`
	UserType         string `json:"userType"`
	OrganizationID   string `json:"organizationId"`
	OrganizationName string `json:"organizationName"`
	PatientID        string `json:"patientId"`
}

type submitInviteRequest struct {
	InviteCode string `json:"inviteCode" validate:"notblank"`
}

type changePasswordRequest struct {
	Identifier  string `json:"identifier" validate:"notblank"`
	OldPassword string `json:"oldPassword" validate:"notblank"`
	NewPassword string `json:"newPassword" validate:"notblank"`
}

type forgotPasswordRequest struct {
	Identifier string `json:"identifier" validate:"notblank"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"notblank"`
	NewPassword string `json:"newPassword" validate:"notblank"`
}

// loginResponse is the authenticated user plus a bearer token.
type loginResponse struct {
	*models.User
	Token string `json:"token,omitempty"`
}

type inviteStatusResponse struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason"`
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.Login(requestContext(c), req.Uname, req.Password)
	h.completeLogin(c, user, err, "Invalid username or password!")
}

// POST /api/auth/login-email
func (h *AuthHandler) LoginByEmail(c *gin.Context) {
	var req emailLoginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := h.users.LoginByEmail(requestContext(c), req.Email, req.Password)
	h.completeLogin(c, user, err, "Invalid email or password!")
}

func (h *AuthHandler) completeLogin(c *gin.Context, user *models.User, err error, rejected string) {
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			response.Error(c, response.CodeUnauthorized, rejected)
			return
		}
		respondError(c, err, "", "login")
		return
	}

	payload := loginResponse{User: user}
	if h.tokens != nil {
		token, err := h.tokens.IssueToken(user)
		if err != nil {
			respondError(c, err, "", "issue access token")
			return
		}
		payload.Token = token
	}
	response.Success(c, payload, "Login successful!")
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Email and password are required!")) {
		return
	}
	user, err := h.users.Register(requestContext(c), services.RegisterInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Uname:            req.Uname,
		Email:            req.Email,
		Password:         req.Password,
		Role:             req.Role,
		UserType:         req.UserType,
		OrganizationID:   req.OrganizationID,
		OrganizationName: req.OrganizationName,
		PatientID:        req.PatientID,
	})
	switch {
	case errors.Is(err, services.ErrEmailExists):
		response.Error(c, response.CodeConflict, "Email already exists!")
	case errors.Is(err, services.ErrUsernameExists):
		response.Error(c, response.CodeConflict, "Username already exists!")
	case err != nil:
		respondError(c, err, "", "register user")
	default:
		response.Success(c, user, "Registration successful!")
	}
}

// POST /api/auth/submit-invite-code
func (h *AuthHandler) SubmitInviteCode(c *gin.Context) {
	var req submitInviteRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Invite code is required!")) {
		return
	}
	code := strings.TrimSpace(req.InviteCode)
	valid, err := h.invites.Validate(requestContext(c), code)
	if err != nil {
		respondError(c, err, "", "validate invite code")
		return
	}
	if !valid {
		response.Error(c, response.CodeBadRequest, "Invalid or expired invite code!")
		return
	}
	response.Success(c, code, "Invite code validated successfully!")
}

// GET /api/auth/invite-status?userId=
func (h *AuthHandler) InviteStatus(c *gin.Context) {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		response.Error(c, response.CodeBadRequest, "userId is required!")
		return
	}

	user, err := h.users.Get(requestContext(c), userID)
	if err != nil {
		respondError(c, err, msgUserNotFound, "retrieve invite status")
		return
	}
	status := inviteStatusResponse{Valid: false, Reason: "missing"}
	if user.HasUsedInviteCode {
		status = inviteStatusResponse{Valid: true, Reason: "already_used"}
	}
	response.Success(c, status, "Invite status retrieved!")
}

// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) ||
		!checkRequest(c, req, fixedMessage("identifier, oldPassword and newPassword are required!")) {
		return
	}
	changed, err := h.users.ChangePassword(requestContext(c), req.Identifier, req.OldPassword, req.NewPassword)
	if err != nil {
		respondError(c, err, "", "update password")
		return
	}
	if !changed {
		response.Error(c, response.CodeBadRequest, "Invalid credentials!")
		return
	}
	response.Success(c, true, "Password updated successfully!")
}

// POST /api/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Email or username is required!")) {
		return
	}
	// Unknown accounts get the same reply as known ones.
	if _, err := h.users.RequestPasswordReset(requestContext(c), req.Identifier); err != nil {
		respondError(c, err, "", "send password reset")
		return
	}
	response.Success(c, true, "Password reset instructions sent!")
}

// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Token and newPassword are required!")) {
		return
	}
	reset, err := h.users.ResetPassword(requestContext(c), req.Token, req.NewPassword)
	if err != nil {
		respondError(c, err, "", "reset password")
		return
	}
	if !reset {
		response.Error(c, response.CodeBadRequest, "Invalid or expired reset token!")
		return
	}
	response.Success(c, true, "Password reset successful!")
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, response.CodeUnauthorized, "Authentication required!")
		return
	}
	user, err := h.users.Get(requestContext(c), userID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			logger.WithModule("auth").Warn("token references missing user", zap.String("user_id", userID))
		}
		respondError(c, err, msgUserNotFound, "retrieve user")
		return
	}
	response.Success(c, user, "User retrieved successfully!")
}
