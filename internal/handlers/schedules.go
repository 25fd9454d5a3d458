package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/services"
	"github.com/careapp/carecoord/internal/storage"
	"github.com/careapp/carecoord/pkg/response"
	appValidator "github.com/careapp/carecoord/pkg/validator"
)

const msgScheduleNotFound = "Schedule not found!"

// ScheduleHandler exposes worker shift schedules.
type ScheduleHandler struct {
	schedules ScheduleStore
	photos    storage.PhotoStore
}

func NewScheduleHandler(schedules ScheduleStore, photos storage.PhotoStore) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, photos: photos}
}

// dailyScheduleRequest is shared by the schedule batch-create and worker daily-schedule
// endpoints. Both date and worker list accept two spellings.
type dailyScheduleRequest struct {
	Date                    string   `json:"date"`
	ScheduleDate            string   `json:"scheduleDate"`
	WorkerIDs               []string `json:"workerIds"`
	SelectedWorkerIDs       []string `json:"selectedWorkerIds"`
	MorningShiftWorkerIDs   []string `json:"morningShiftWorkerIds"`
	AfternoonShiftWorkerIDs []string `json:"afternoonShiftWorkerIds"`
	EveningShiftWorkerIDs   []string `json:"eveningShiftWorkerIds"`
	ScheduleNotes           string   `json:"scheduleNotes"`
	ShiftType               string   `json:"shiftType"`
}

func (r dailyScheduleRequest) date() string {
	return firstNonEmpty(r.ScheduleDate, r.Date)
}

func (r dailyScheduleRequest) input(organizationID, managerID string) services.BatchCreateInput {
	workers := r.WorkerIDs
	if len(workers) == 0 {
		workers = r.SelectedWorkerIDs
	}
	return services.BatchCreateInput{
		Date:               r.date(),
		OrganizationID:     organizationID,
		ManagerID:          managerID,
		WorkerIDs:          workers,
		MorningWorkerIDs:   r.MorningShiftWorkerIDs,
		AfternoonWorkerIDs: r.AfternoonShiftWorkerIDs,
		EveningWorkerIDs:   r.EveningShiftWorkerIDs,
		ShiftType:          r.ShiftType,
		Notes:              r.ScheduleNotes,
	}
}

type photoURLRequest struct {
	PhotoURL string `json:"photoUrl" validate:"notblank"`
}

type statusRequest struct {
	Status string `json:"status" validate:"notblank"`
}

type batchStatusRequest struct {
	ScheduleIDs []string `json:"scheduleIds" validate:"notblank"`
	Status      string   `json:"status" validate:"notblank"`
}

type batchDeleteRequest struct {
	ScheduleIDs []string `json:"scheduleIds" validate:"notblank"`
}

type copySchedulesRequest struct {
	SourceDate     string `json:"sourceDate" validate:"notblank"`
	TargetDate     string `json:"targetDate" validate:"notblank"`
	OrganizationID string `json:"organizationId"`
	ManagerID      string `json:"managerId"`
}

// POST /api/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req models.Schedule
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.schedules.Create(requestContext(c), &req)
	if err != nil {
		respondError(c, err, "", "create schedule")
		return
	}
	response.Success(c, created, "Schedule created successfully!")
}

// GET /api/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	schedules, err := h.schedules.List(requestContext(c))
	if err != nil {
		respondError(c, err, "", "retrieve schedules")
		return
	}
	response.Success(c, schedules, "Schedules retrieved successfully!")
}

// GET /api/schedules/:id
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.schedules.Get(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgScheduleNotFound, "retrieve schedule")
		return
	}
	response.Success(c, schedule, "Schedule retrieved successfully!")
}

// PUT /api/schedules/:id
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req models.Schedule
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.schedules.Update(requestContext(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, msgScheduleNotFound, "update schedule")
		return
	}
	response.Success(c, updated, "Schedule updated successfully!")
}

// DELETE /api/schedules/:id
func (h *ScheduleHandler) Delete(c *gin.Context) {
	deleted, err := h.schedules.Delete(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgScheduleNotFound, "delete schedule")
		return
	}
	if !deleted {
		response.Error(c, response.CodeNotFound, msgScheduleNotFound)
		return
	}
	response.Success(c, true, "Schedule deleted successfully!")
}

// GET /api/schedules/worker/:workerId
func (h *ScheduleHandler) ListByWorker(c *gin.Context) {
	schedules, err := h.schedules.ListByWorker(requestContext(c), c.Param("workerId"))
	if err != nil {
		respondError(c, err, "", "retrieve worker schedules")
		return
	}
	response.Success(c, schedules, "Worker schedules retrieved successfully!")
}

// GET /api/schedules/date/:date
func (h *ScheduleHandler) ListByDate(c *gin.Context) {
	date := c.Param("date")
	if !validDate(c, date) {
		return
	}
	schedules, err := h.schedules.ListByDate(requestContext(c), date)
	if err != nil {
		respondError(c, err, "", "retrieve schedules")
		return
	}
	response.Success(c, schedules, "Schedules retrieved successfully!")
}

// GET /api/schedules/worker/:workerId/date/:date
func (h *ScheduleHandler) ListByWorkerAndDate(c *gin.Context) {
	date := c.Param("date")
	if !validDate(c, date) {
		return
	}
	schedules, err := h.schedules.ListByWorkerAndDate(requestContext(c), c.Param("workerId"), date)
	if err != nil {
		respondError(c, err, "", "retrieve worker schedules")
		return
	}
	response.Success(c, schedules, "Worker schedules retrieved successfully!")
}

// GET /api/schedules/organization/:organizationId
func (h *ScheduleHandler) ListByOrganization(c *gin.Context) {
	schedules, err := h.schedules.ListByOrganization(requestContext(c), c.Param("organizationId"))
	if err != nil {
		respondError(c, err, "", "retrieve organization schedules")
		return
	}
	response.Success(c, schedules, "Organization schedules retrieved successfully!")
}

// GET /api/schedules/organization/:organizationId/date/:date
func (h *ScheduleHandler) ListByOrganizationAndDate(c *gin.Context) {
	date := c.Param("date")
	if !validDate(c, date) {
		return
	}
	schedules, err := h.schedules.ListByOrganizationAndDate(requestContext(c), c.Param("organizationId"), date)
	if err != nil {
		respondError(c, err, "", "retrieve organization schedules")
		return
	}
	response.Success(c, schedules, "Organization schedules retrieved successfully!")
}

// GET /api/schedules/manager/:managerId
func (h *ScheduleHandler) ListByManager(c *gin.Context) {
	schedules, err := h.schedules.ListByManager(requestContext(c), c.Param("managerId"))
	if err != nil {
		respondError(c, err, "", "retrieve manager schedules")
		return
	}
	response.Success(c, schedules, "Manager schedules retrieved successfully!")
}

// GET /api/schedules/status/:status
func (h *ScheduleHandler) ListByStatus(c *gin.Context) {
	schedules, err := h.schedules.ListByStatus(requestContext(c), c.Param("status"))
	if err != nil {
		respondError(c, err, "", "retrieve schedules")
		return
	}
	response.Success(c, schedules, "Schedules retrieved successfully!")
}

// GET /api/schedules/shift-type/:shiftType
func (h *ScheduleHandler) ListByShiftType(c *gin.Context) {
	schedules, err := h.schedules.ListByShiftType(requestContext(c), c.Param("shiftType"))
	if err != nil {
		respondError(c, err, "", "retrieve schedules")
		return
	}
	response.Success(c, schedules, "Schedules retrieved successfully!")
}

// GET /api/schedules/date-range?startDate=&endDate=
func (h *ScheduleHandler) ListByDateRange(c *gin.Context) {
	start, end := c.Query("startDate"), c.Query("endDate")
	if !validDate(c, start, end) {
		return
	}
	schedules, err := h.schedules.ListByDateRange(requestContext(c), start, end)
	if err != nil {
		respondError(c, err, "", "retrieve schedules")
		return
	}
	response.Success(c, schedules, "Schedules retrieved successfully!")
}

// POST /api/schedules/:id/upload-photo
func (h *ScheduleHandler) UploadPhoto(c *gin.Context) {
	var req photoURLRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Photo URL is required!")) {
		return
	}
	updated, err := h.schedules.UpdatePhoto(requestContext(c), c.Param("id"), req.PhotoURL)
	if err != nil {
		respondError(c, err, msgScheduleNotFound, "upload worker photo")
		return
	}
	response.Success(c, updated, "Worker photo URL updated successfully!")
}

// POST /api/schedules/:id/upload-photo-file
func (h *ScheduleHandler) UploadPhotoFile(c *gin.Context) {
	id := c.Param("id")
	url, ok := saveUploadedPhoto(c, h.photos, "schedule_"+id)
	if !ok {
		return
	}
	updated, err := h.schedules.UpdatePhoto(requestContext(c), id, url)
	if err != nil {
		discardPhoto(c, h.photos, url)
		respondError(c, err, msgScheduleNotFound, "upload worker photo")
		return
	}
	response.Success(c, updated, "Worker photo uploaded successfully! URL: "+url)
}

// PUT /api/schedules/:id/status
func (h *ScheduleHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("status is required!")) {
		return
	}
	updated, err := h.schedules.UpdateStatus(requestContext(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, msgScheduleNotFound, "update schedule status")
		return
	}
	response.Success(c, updated, "Schedule status updated successfully!")
}

// GET /api/schedules/worker/:workerId/has-schedule/:date
func (h *ScheduleHandler) HasSchedule(c *gin.Context) {
	date := c.Param("date")
	if !validDate(c, date) {
		return
	}
	has, err := h.schedules.HasSchedule(requestContext(c), c.Param("workerId"), date)
	if err != nil {
		respondError(c, err, "", "check schedule")
		return
	}
	response.Success(c, has, "Schedule check completed successfully!")
}

// GET /api/schedules/stats/:organizationId?date=
func (h *ScheduleHandler) Stats(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date != "" && !validDate(c, date) {
		return
	}
	stats, err := h.schedules.Stats(requestContext(c), c.Param("organizationId"), date)
	if err != nil {
		respondError(c, err, "", "retrieve schedule statistics")
		return
	}
	response.Success(c, stats, "Schedule statistics retrieved successfully!")
}

// POST /api/schedules/batch-create
func (h *ScheduleHandler) BatchCreate(c *gin.Context) {
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

	in := req.input(
		headerOr(c, headerOrganizationID, defaultOrganizationID),
		headerOr(c, headerUserID, defaultManagerID),
	)
	created, err := h.schedules.BatchCreate(requestContext(c), in)
	if err != nil {
		respondError(c, err, "", "batch create schedules")
		return
	}
	response.Success(c, created, fmt.Sprintf("Schedules created successfully for %d workers!", len(created)))
}

// PUT /api/schedules/batch-update-status
func (h *ScheduleHandler) BatchUpdateStatus(c *gin.Context) {
	var req batchStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	describe := func(result appValidator.Result) string {
		if result.IsMissing("scheduleIds") {
			return "scheduleIds are required!"
		}
		return "status is required!"
	}
	if !checkRequest(c, req, describe) {
		return
	}

	updated, err := h.schedules.BatchUpdateStatus(requestContext(c), req.ScheduleIDs, req.Status)
	if err != nil {
		respondError(c, err, "", "batch update schedules")
		return
	}
	response.Success(c, updated, fmt.Sprintf("Successfully updated %d schedules!", len(updated)))
}

// DELETE /api/schedules/batch-delete
func (h *ScheduleHandler) BatchDelete(c *gin.Context) {
	var req batchDeleteRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("scheduleIds are required!")) {
		return
	}
	deleted, err := h.schedules.BatchDelete(requestContext(c), req.ScheduleIDs)
	if err != nil {
		respondError(c, err, "", "batch delete schedules")
		return
	}
	response.Success(c, deleted, fmt.Sprintf("Successfully deleted %d schedules!", deleted))
}

// DELETE /api/schedules/date/:date?organizationId=
func (h *ScheduleHandler) DeleteByDate(c *gin.Context) {
	date := c.Param("date")
	if !validDate(c, date) {
		return
	}
	organizationID := firstNonEmpty(c.Query("organizationId"), headerOr(c, headerOrganizationID, defaultOrganizationID))

	deleted, err := h.schedules.DeleteByDate(requestContext(c), date, organizationID)
	if err != nil {
		respondError(c, err, "", "delete schedules by date")
		return
	}
	response.Success(c, deleted, fmt.Sprintf("Successfully deleted %d schedules for %s", deleted, date))
}

// POST /api/schedules/copy
func (h *ScheduleHandler) Copy(c *gin.Context) {
	var req copySchedulesRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("sourceDate and targetDate are required!")) {
		return
	}
	if !validDate(c, req.SourceDate, req.TargetDate) {
		return
	}

	copied, err := h.schedules.Copy(requestContext(c), services.CopySchedulesInput{
		SourceDate:     req.SourceDate,
		TargetDate:     req.TargetDate,
		OrganizationID: firstNonEmpty(req.OrganizationID, headerOr(c, headerOrganizationID, defaultOrganizationID)),
		ManagerID:      firstNonEmpty(req.ManagerID, headerOr(c, headerUserID, defaultManagerID)),
	})
	if err != nil {
		respondError(c, err, "", "copy schedules")
		return
	}
	response.Success(c, copied, fmt.Sprintf("Successfully copied %d schedules from %s to %s",
		len(copied), req.SourceDate, req.TargetDate))
}

// GET /api/schedules/weekly?startDate=&organizationId=
func (h *ScheduleHandler) Weekly(c *gin.Context) {
	start := c.Query("startDate")
	if !validDate(c, start) {
		return
	}
	organizationID := firstNonEmpty(c.Query("organizationId"), headerOr(c, headerOrganizationID, defaultOrganizationID))

	schedules, err := h.schedules.Weekly(requestContext(c), start, organizationID)
	if err != nil {
		respondError(c, err, "", "retrieve weekly schedule")
		return
	}
	response.Success(c, schedules, "Weekly schedule retrieved successfully!")
}

// GET /api/schedules/validate?workerId=&date=&shiftType=
func (h *ScheduleHandler) Validate(c *gin.Context) {
	date := c.Query("date")
	if !validDate(c, date) {
		return
	}
	ok, err := h.schedules.Validate(requestContext(c), c.Query("workerId"), date, c.Query("shiftType"))
	if err != nil {
		respondError(c, err, "", "validate schedule")
		return
	}
	if ok {
		response.Success(c, true, "No conflicts found. Schedule can be created.")
		return
	}
	response.Success(c, false, "Conflict found. Worker already has a schedule for this shift.")
}
