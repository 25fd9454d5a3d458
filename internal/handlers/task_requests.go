package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/services"
	"github.com/careapp/carecoord/pkg/response"
)

const (
	msgTaskRequestNotFound = "Task request not found!"

	// Organization recorded on requests filed without one.
	defaultRequestOrganizationID = "default-org"
)

// TaskRequestHandler exposes task requests filed by family members for manager review.
type TaskRequestHandler struct {
	requests TaskRequestStore
}

func NewTaskRequestHandler(requests TaskRequestStore) *TaskRequestHandler {
	return &TaskRequestHandler{requests: requests}
}

// POST /api/task-requests
func (h *TaskRequestHandler) Create(c *gin.Context) {
	var req models.TaskRequest
	if !bindJSON(c, &req) {
		return
	}
	req.RequesterID = headerOr(c, headerUserID, req.RequesterID)
	req.OrganizationID = headerOr(c, headerOrganizationID, firstNonEmpty(req.OrganizationID, defaultRequestOrganizationID))
	req.PatientID = headerOr(c, headerPatientID, req.PatientID)

	created, err := h.requests.Create(requestContext(c), &req)
	switch {
	case errors.Is(err, services.ErrInvalidRequestType):
		response.Error(c, response.CodeBadRequest, "Invalid request type! Use new, recurring, modify, remove or reschedule")
	case errors.Is(err, services.ErrOriginalTaskRequired):
		response.Error(c, response.CodeBadRequest, "Original task ID is required for this request type!")
	case err != nil:
		respondError(c, err, "", "create task request")
	default:
		response.Success(c, created, "Task request created successfully!")
	}
}

// GET /api/task-requests
func (h *TaskRequestHandler) List(c *gin.Context) {
	items, err := h.requests.List(requestContext(c))
	respondTaskRequests(c, items, err, "retrieve task requests", "Task requests retrieved successfully!")
}

// GET /api/task-requests/:id
func (h *TaskRequestHandler) Get(c *gin.Context) {
	request, err := h.requests.Get(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgTaskRequestNotFound, "retrieve task request")
		return
	}
	response.Success(c, request, "Task request retrieved successfully!")
}

// GET /api/task-requests/requester/:requesterId
func (h *TaskRequestHandler) ListByRequester(c *gin.Context) {
	items, err := h.requests.ListByRequester(requestContext(c), c.Param("requesterId"))
	respondTaskRequests(c, items, err, "retrieve requester task requests", "Requester task requests retrieved successfully!")
}

// GET /api/task-requests/status/:status
func (h *TaskRequestHandler) ListByStatus(c *gin.Context) {
	items, err := h.requests.ListByStatus(requestContext(c), c.Param("status"))
	respondTaskRequests(c, items, err, "retrieve task requests", "Task requests retrieved successfully!")
}

// GET /api/task-requests/pending
func (h *TaskRequestHandler) ListPending(c *gin.Context) {
	items, err := h.requests.ListPending(requestContext(c))
	respondTaskRequests(c, items, err, "retrieve pending task requests", "Pending task requests retrieved successfully!")
}

// GET /api/task-requests/pending/organization/:organizationId
func (h *TaskRequestHandler) ListPendingByOrganization(c *gin.Context) {
	organizationID := strings.TrimSpace(c.Param("organizationId"))
	if organizationID == "" || organizationID == "null" {
		response.Error(c, response.CodeBadRequest, "Organization ID is required!")
		return
	}
	items, err := h.requests.ListPendingByOrganization(requestContext(c), organizationID)
	respondTaskRequests(c, items, err, "retrieve pending task requests", "Pending task requests for organization retrieved successfully!")
}

// GET /api/task-requests/organization/:organizationId
func (h *TaskRequestHandler) ListByOrganization(c *gin.Context) {
	items, err := h.requests.ListByOrganization(requestContext(c), c.Param("organizationId"))
	respondTaskRequests(c, items, err, "retrieve organization task requests", "Organization task requests retrieved successfully!")
}

// PUT /api/task-requests/:id
func (h *TaskRequestHandler) Update(c *gin.Context) {
	var req models.TaskRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.requests.Update(requestContext(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, msgTaskRequestNotFound, "update task request")
		return
	}
	response.Success(c, updated, "Task request updated successfully!")
}

// POST /api/task-requests/:id/approve
func (h *TaskRequestHandler) Approve(c *gin.Context) {
	var req approvalRequest
	if !bindJSON(c, &req) {
		return
	}
	reviewer := headerOr(c, headerUserID, defaultManagerID)
	approved, err := h.requests.Approve(requestContext(c), c.Param("id"), reviewer, req.ApprovalReason)
	if err != nil {
		respondReview(c, err, "approve task request")
		return
	}
	response.Success(c, approved, "Task request approved successfully!")
}

// POST /api/task-requests/:id/reject
func (h *TaskRequestHandler) Reject(c *gin.Context) {
	var req rejectionRequest
	if !bindJSON(c, &req) {
		return
	}
	reviewer := headerOr(c, headerUserID, defaultManagerID)
	rejected, err := h.requests.Reject(requestContext(c), c.Param("id"), reviewer, req.RejectionReason)
	if err != nil {
		respondReview(c, err, "reject task request")
		return
	}
	response.Success(c, rejected, "Task request rejected successfully!")
}

// DELETE /api/task-requests/:id
func (h *TaskRequestHandler) Delete(c *gin.Context) {
	deleted, err := h.requests.Delete(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgTaskRequestNotFound, "delete task request")
		return
	}
	if !deleted {
		response.Error(c, response.CodeNotFound, msgTaskRequestNotFound)
		return
	}
	response.Success(c, true, "Task request deleted successfully!")
}

// GET /api/task-requests/stats
func (h *TaskRequestHandler) Stats(c *gin.Context) {
	stats, err := h.requests.Stats(requestContext(c))
	respondTaskRequestStats(c, stats, err, "retrieve task request statistics", "Task request statistics retrieved successfully!")
}

// GET /api/task-requests/stats/organization/:organizationId
func (h *TaskRequestHandler) OrganizationStats(c *gin.Context) {
	stats, err := h.requests.OrganizationStats(requestContext(c), c.Param("organizationId"))
	respondTaskRequestStats(c, stats, err, "retrieve organization task request statistics",
		"Organization task request statistics retrieved successfully!")
}

// GET /api/task-requests/stats/requester/:requesterId
func (h *TaskRequestHandler) RequesterStats(c *gin.Context) {
	stats, err := h.requests.RequesterStats(requestContext(c), c.Param("requesterId"))
	respondTaskRequestStats(c, stats, err, "retrieve requester task request statistics",
		"Requester task request statistics retrieved successfully!")
}

// respondReview maps approval and rejection failures. A missing original task is
// reported separately from a missing request.
func respondReview(c *gin.Context, err error, action string) {
	switch {
	case errors.Is(err, services.ErrTaskRequestProcessed):
		response.Error(c, response.CodeBadRequest, "Task request has already been processed!")
	case errors.Is(err, services.ErrTaskNotFound):
		response.Error(c, response.CodeNotFound, "Original task not found!")
	default:
		respondError(c, err, msgTaskRequestNotFound, action)
	}
}

func respondTaskRequests(c *gin.Context, items []models.TaskRequest, err error, action, msg string) {
	if err != nil {
		respondError(c, err, "", action)
		return
	}
	response.Success(c, items, msg)
}

func respondTaskRequestStats(c *gin.Context, stats map[string]int64, err error, action, msg string) {
	if err != nil {
		respondError(c, err, "", action)
		return
	}
	response.Success(c, stats, msg)
}
