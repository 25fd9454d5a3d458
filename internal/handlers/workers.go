package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/storage"
	"github.com/careapp/carecoord/pkg/response"
	appValidator "github.com/careapp/carecoord/pkg/validator"
)

const (
	msgWorkerNotFound      = "Worker not found!"
	msgWorkerShiftNotFound = "Worker or shift not found!"
)

// WorkerHandler exposes care workers, their shift allocations and photos.
type WorkerHandler struct {
	workers WorkerStore
	photos  storage.PhotoStore
}

func NewWorkerHandler(workers WorkerStore, photos storage.PhotoStore) *WorkerHandler {
	return &WorkerHandler{workers: workers, photos: photos}
}

type shiftStatusRequest struct {
	ShiftDate string `json:"shiftDate" validate:"notblank"`
	ShiftTime string `json:"shiftTime" validate:"notblank"`
	Status    string `json:"status" validate:"notblank"`
}

type workerPhotoRequest struct {
	WorkerID string `json:"workerId" validate:"notblank"`
	PhotoURL string `json:"photoUrl" validate:"notblank"`
}

type batchPhotoRequest struct {
	Photos map[string]string `validate:"notblank"`
}

func (h *WorkerHandler) respondWorker(c *gin.Context, worker *models.Worker, err error, notFound, action, msg string) {
	if err != nil {
		respondError(c, err, notFound, action)
		return
	}
	response.Success(c, worker, msg)
}

func (h *WorkerHandler) respondWorkers(c *gin.Context, workers []models.Worker, err error, action, msg string) {
	if err != nil {
		respondError(c, err, "", action)
		return
	}
	response.Success(c, workers, msg)
}

// POST /api/workers
func (h *WorkerHandler) Create(c *gin.Context) {
	var req models.Worker
	if !bindJSON(c, &req) {
		return
	}
	worker, err := h.workers.Create(requestContext(c), &req)
	h.respondWorker(c, worker, err, "", "create worker", "Worker created successfully!")
}

// GET /api/workers
func (h *WorkerHandler) List(c *gin.Context) {
	workers, err := h.workers.List(requestContext(c))
	h.respondWorkers(c, workers, err, "retrieve workers", "Workers retrieved successfully!")
}

// GET /api/workers/:id
func (h *WorkerHandler) Get(c *gin.Context) {
	worker, err := h.workers.Get(requestContext(c), c.Param("id"))
	h.respondWorker(c, worker, err, msgWorkerNotFound, "retrieve worker", "Worker retrieved successfully!")
}

// GET /api/workers/organization/:organizationId
func (h *WorkerHandler) ListByOrganization(c *gin.Context) {
	workers, err := h.workers.ListByOrganization(requestContext(c), c.Param("organizationId"))
	h.respondWorkers(c, workers, err, "retrieve workers", "Workers retrieved successfully!")
}

// PUT /api/workers/:id
func (h *WorkerHandler) Update(c *gin.Context) {
	var req models.Worker
	if !bindJSON(c, &req) {
		return
	}
	worker, err := h.workers.Update(requestContext(c), c.Param("id"), &req)
	h.respondWorker(c, worker, err, msgWorkerNotFound, "update worker", "Worker updated successfully!")
}

// DELETE /api/workers/:id
func (h *WorkerHandler) Delete(c *gin.Context) {
	deleted, err := h.workers.Delete(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgWorkerNotFound, "delete worker")
		return
	}
	if !deleted {
		response.Error(c, response.CodeNotFound, msgWorkerNotFound)
		return
	}
	response.Success(c, true, "Worker deleted successfully!")
}

// POST /api/workers/:id/activate
func (h *WorkerHandler) Activate(c *gin.Context) {
	worker, err := h.workers.Activate(requestContext(c), c.Param("id"))
	h.respondWorker(c, worker, err, msgWorkerNotFound, "activate worker", "Worker activated successfully!")
}

// POST /api/workers/:id/deactivate
func (h *WorkerHandler) Deactivate(c *gin.Context) {
	worker, err := h.workers.Deactivate(requestContext(c), c.Param("id"))
	h.respondWorker(c, worker, err, msgWorkerNotFound, "deactivate worker", "Worker deactivated successfully!")
}

// POST /api/workers/:id/allocate-shift
func (h *WorkerHandler) AllocateShift(c *gin.Context) {
	var req models.ShiftAllocation
	if !bindJSON(c, &req) {
		return
	}
	worker, err := h.workers.AllocateShift(requestContext(c), c.Param("id"), req)
	h.respondWorker(c, worker, err, msgWorkerNotFound, "allocate shift", "Shift allocated successfully!")
}

// PUT /api/workers/:id/shift-status
func (h *WorkerHandler) UpdateShiftStatus(c *gin.Context) {
	var req shiftStatusRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Shift date, time, and status are required!")) {
		return
	}
	worker, err := h.workers.UpdateShiftStatus(requestContext(c), c.Param("id"), req.ShiftDate, req.ShiftTime, req.Status)
	h.respondWorker(c, worker, err, msgWorkerShiftNotFound, "update shift status", "Shift status updated successfully!")
}

// GET /api/workers/:id/shifts/:date
func (h *WorkerHandler) ShiftsForDate(c *gin.Context) {
	date := c.Param("date")
	if !validDate(c, date) {
		return
	}
	shifts, err := h.workers.ShiftsForDate(requestContext(c), c.Param("id"), date)
	if err != nil {
		respondError(c, err, msgWorkerNotFound, "retrieve worker shifts")
		return
	}
	response.Success(c, shifts, "Worker shifts retrieved successfully!")
}

// GET /api/workers/organization/:organizationId/shifts/:date
func (h *WorkerHandler) WorkersWithShifts(c *gin.Context) {
	date := c.Param("date")
	if !validDate(c, date) {
		return
	}
	workers, err := h.workers.WorkersWithShifts(requestContext(c), c.Param("organizationId"), date)
	h.respondWorkers(c, workers, err, "retrieve workers with shifts", "Workers with shifts retrieved successfully!")
}

// DELETE /api/workers/:id/shifts/:date/:time
func (h *WorkerHandler) RemoveShift(c *gin.Context) {
	worker, err := h.workers.RemoveShift(requestContext(c), c.Param("id"), c.Param("date"), c.Param("time"))
	h.respondWorker(c, worker, err, msgWorkerShiftNotFound, "remove shift allocation", "Shift allocation removed successfully!")
}

// GET /api/workers/organization/:organizationId/available
func (h *WorkerHandler) Available(c *gin.Context) {
	workers, err := h.workers.Available(requestContext(c), c.Param("organizationId"))
	h.respondWorkers(c, workers, err, "retrieve available workers", "Available workers retrieved successfully!")
}

// POST /api/workers/daily-schedule
func (h *WorkerHandler) CreateDailySchedule(c *gin.Context) {
	var req dailyScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.date() == "" {
		response.Error(c, response.CodeBadRequest, "Schedule date is required!")
		return
	}
	if !validDate(c, req.date()) {
		return
	}

	managerID := headerOr(c, headerManagerID, defaultManagerID)
	in := req.input(c.GetHeader(headerOrganizationID), managerID)
	workers, err := h.workers.CreateDailySchedule(requestContext(c), in, managerID)
	h.respondWorkers(c, workers, err, "create daily schedule", "Daily schedule created successfully!")
}

// GET /api/workers/organization/:organizationId/daily-schedule/:date
func (h *WorkerHandler) DailySchedule(c *gin.Context) {
	date := c.Param("date")
	if !validDate(c, date) {
		return
	}
	workers, err := h.workers.DailySchedule(requestContext(c), c.Param("organizationId"), date)
	h.respondWorkers(c, workers, err, "retrieve daily schedule", "Daily schedule retrieved successfully!")
}

// DELETE /api/workers/organization/:organizationId/daily-schedule/:date
func (h *WorkerHandler) ClearDailySchedule(c *gin.Context) {
	date := c.Param("date")
	if !validDate(c, date) {
		return
	}
	cleared, err := h.workers.ClearDailySchedule(requestContext(c), c.Param("organizationId"), date)
	if err != nil {
		respondError(c, err, "", "clear daily schedule")
		return
	}
	response.Success(c, fmt.Sprintf("Cleared %d worker schedules", cleared), "Daily schedule cleared successfully!")
}

// POST /api/workers/upload-photo
func (h *WorkerHandler) UploadPhoto(c *gin.Context) {
	var req workerPhotoRequest
	if !bindJSON(c, &req) {
		return
	}
	describe := func(result appValidator.Result) string {
		if result.IsMissing("workerId") {
			return "Worker ID is required!"
		}
		return "Photo URL is required!"
	}
	if !checkRequest(c, req, describe) {
		return
	}
	worker, err := h.workers.UploadPhoto(requestContext(c), req.WorkerID, req.PhotoURL)
	h.respondWorker(c, worker, err, msgWorkerNotFound, "upload worker photo", "Worker photo uploaded successfully!")
}

// POST /api/workers/:id/photo-file
func (h *WorkerHandler) UploadPhotoFile(c *gin.Context) {
	id := c.Param("id")
	url, ok := saveUploadedPhoto(c, h.photos, "worker_"+id)
	if !ok {
		return
	}
	worker, err := h.workers.UploadPhoto(requestContext(c), id, url)
	if err != nil {
		discardPhoto(c, h.photos, url)
		respondError(c, err, msgWorkerNotFound, "upload worker photo")
		return
	}
	response.Success(c, worker, "Worker photo uploaded successfully! URL: "+url)
}

// POST /api/workers/:id/photo-url
func (h *WorkerHandler) UpdatePhotoURL(c *gin.Context) {
	var req photoURLRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Photo URL is required!")) {
		return
	}
	worker, err := h.workers.UploadPhoto(requestContext(c), c.Param("id"), req.PhotoURL)
	h.respondWorker(c, worker, err, msgWorkerNotFound, "upload worker photo", "Worker photo URL updated successfully!")
}

// POST /api/workers/:id/photo
func (h *WorkerHandler) SetPhoto(c *gin.Context) {
	var req photoURLRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Photo URL is required!")) {
		return
	}
	worker, err := h.workers.UploadPhoto(requestContext(c), c.Param("id"), req.PhotoURL)
	h.respondWorker(c, worker, err, msgWorkerNotFound, "upload worker photo", "Worker photo uploaded successfully!")
}

// POST /api/workers/batch-upload-photos
func (h *WorkerHandler) BatchUploadPhotos(c *gin.Context) {
	var req batchPhotoRequest
	if !bindJSON(c, &req.Photos) || !checkRequest(c, req, fixedMessage("Photo upload data is required!")) {
		return
	}
	workers, err := h.workers.BatchUploadPhotos(requestContext(c), req.Photos)
	if err != nil {
		respondError(c, err, "", "batch upload worker photos")
		return
	}
	response.Success(c, workers, fmt.Sprintf("Successfully uploaded photos for %d workers!", len(workers)))
}

// DELETE /api/workers/:id/photo
func (h *WorkerHandler) DeletePhoto(c *gin.Context) {
	worker, err := h.workers.DeletePhoto(requestContext(c), c.Param("id"))
	h.respondWorker(c, worker, err, msgWorkerNotFound, "delete worker photo", "Worker photo deleted successfully!")
}

// GET /api/workers/organization/:organizationId/without-photos
func (h *WorkerHandler) WithoutPhotos(c *gin.Context) {
	workers, err := h.workers.WithoutPhotos(requestContext(c), c.Param("organizationId"))
	if err != nil {
		respondError(c, err, "", "retrieve workers without photos")
		return
	}
	response.Success(c, workers, fmt.Sprintf("Retrieved %d workers without photos!", len(workers)))
}
