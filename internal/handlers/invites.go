package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/services"
	"github.com/careapp/carecoord/pkg/response"
	appValidator "github.com/careapp/carecoord/pkg/validator"
)

// InviteHandler exposes invite code generation and redemption.
type InviteHandler struct {
	invites InviteCodeStore
}

func NewInviteHandler(invites InviteCodeStore) *InviteHandler {
	return &InviteHandler{invites: invites}
}

type generateInviteRequest struct {
	CreatedBy      string `json:"createdBy" validate:"notblank"`
	CreatedByType  string `json:"createdByType" validate:"notblank,oneof=FM POA MANAGER"`
	TargetType     string `json:"targetType" validate:"notblank,oneof=MANAGER WORKER"`
	PatientID      string `json:"patientId" validate:"notblank"`
	OrganizationID string `json:"organizationId" validate:"notblank"`
}

type useInviteRequest struct {
	Code   string `json:"code" validate:"notblank"`
	UsedBy string `json:"usedBy" validate:"notblank"`
}

func describeGenerateInvite(result appValidator.Result) string {
	if result.Kind == appValidator.KindInvalidEnum {
		switch result.Field {
		case "createdByType":
			return "Invalid creator type! Must be FM, POA, or MANAGER"
		case "targetType":
			return "Invalid target type! Must be MANAGER or WORKER"
		}
	}
	return "Missing required fields!"
}

// POST /api/invite/generate
func (h *InviteHandler) Generate(c *gin.Context) {
	var req generateInviteRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, describeGenerateInvite) {
		return
	}

	code, err := h.invites.Generate(requestContext(c), services.GenerateInviteInput{
		CreatedBy:      req.CreatedBy,
		CreatedByType:  req.CreatedByType,
		TargetType:     req.TargetType,
		PatientID:      req.PatientID,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		respondError(c, err, "", "generate invite code")
		return
	}
	response.Success(c, code, "Invite code generated successfully!")
}

// POST /api/invite/use
func (h *InviteHandler) Use(c *gin.Context) {
	var req useInviteRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Code and usedBy are required!")) {
		return
	}

	ctx := requestContext(c)
	valid, err := h.invites.Validate(ctx, req.Code)
	if err != nil {
		respondError(c, err, "", "validate invite code")
		return
	}
	if !valid {
		response.Error(c, response.CodeBadRequest, "Invalid or expired invite code!")
		return
	}

	used, err := h.invites.Use(ctx, req.Code, req.UsedBy)
	if err != nil {
		respondError(c, err, "", "use invite code")
		return
	}
	if !used {
		response.Error(c, response.CodeBadRequest,
			"Failed to use invite code! The token type may not match your user role, or the token may be invalid.")
		return
	}
	response.Success(c, "Access granted!", "Invite code used successfully!")
}

// GET /api/invite/my-codes?creatorId=
func (h *InviteHandler) MyCodes(c *gin.Context) {
	creatorID := strings.TrimSpace(c.Query("creatorId"))
	if creatorID == "" {
		response.Error(c, response.CodeBadRequest, "creatorId is required!")
		return
	}

	codes, err := h.invites.ListByCreator(requestContext(c), creatorID)
	if err != nil {
		respondError(c, err, "", "retrieve invite codes")
		return
	}
	response.Success(c, codes, "Invite codes retrieved successfully!")
}

// DELETE /api/invite/:codeId
func (h *InviteHandler) Revoke(c *gin.Context) {
	revoked, err := h.invites.Revoke(requestContext(c), c.Param("codeId"))
	if err != nil {
		respondError(c, err, "", "revoke invite code")
		return
	}
	if !revoked {
		response.Error(c, response.CodeBadRequest, "Failed to revoke invite code!")
		return
	}
	response.Success(c, "Invite code revoked!", "Invite code revoked successfully!")
}

// GET /api/invite/patient/:patientId
func (h *InviteHandler) ActiveForPatient(c *gin.Context) {
	codes, err := h.invites.ActiveForPatient(requestContext(c), c.Param("patientId"))
	if err != nil {
		respondError(c, err, "", "retrieve active invite codes")
		return
	}
	response.Success(c, codes, "Active invite codes retrieved successfully!")
}
