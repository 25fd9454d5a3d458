package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/pkg/response"
)

const (
	msgTaskNotFound      = "Task not found!"
	msgRecurringNotFound = "Recurring task template not found!"
)

// TaskHandler exposes care tasks and recurring task templates.
type TaskHandler struct {
	tasks     TaskStore
	recurring RecurringTaskStore
}

func NewTaskHandler(tasks TaskStore, recurring RecurringTaskStore) *TaskHandler {
	return &TaskHandler{tasks: tasks, recurring: recurring}
}

type createPatientTaskRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	AssignedTo   string `json:"assignedTo"`
	AssignedToID string `json:"assignedToId"`
	Priority     string `json:"priority"`
	DueDate      string `json:"dueDate"`
}

type approvalRequest struct {
	ApprovalReason string `json:"approvalReason"`
}

type rejectionRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

type assignTaskRequest struct {
	WorkerID   string `json:"workerId" validate:"notblank"`
	WorkerName string `json:"workerName"`
}

type completeTaskRequest struct {
	CompletionNotes string `json:"completionNotes"`
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req models.Task
	if !bindJSON(c, &req) {
		return
	}
	created, err := h.tasks.Create(requestContext(c), &req)
	if err != nil {
		respondError(c, err, "", "create task")
		return
	}
	response.Success(c, created, "Task created successfully!")
}

// POST /api/tasks/create-for-patient
func (h *TaskHandler) CreateForPatient(c *gin.Context) {
	var req createPatientTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.AssignedToID) == "" && strings.TrimSpace(req.AssignedTo) != "" {
		response.Error(c, response.CodeBadRequest,
			"assignedToId is required when assigning a worker. Do not use name-only assignment.")
		return
	}

	task := &models.Task{
		Title:          req.Title,
		Description:    req.Description,
		AssignedTo:     req.AssignedTo,
		AssignedToID:   strings.TrimSpace(req.AssignedToID),
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		Status:         models.TaskStatusInProgress,
		PatientID:      headerOr(c, headerPatientID, defaultPatientID),
		CreatedBy:      headerOr(c, headerUserID, defaultManagerID),
		OrganizationID: headerOr(c, headerOrganizationID, defaultOrganizationID),
	}
	created, err := h.tasks.Create(requestContext(c), task)
	if err != nil {
		respondError(c, err, "", "create task")
		return
	}
	response.Success(c, created, "Task created successfully for patient!")
}

// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.tasks.List(requestContext(c))
	if err != nil {
		respondError(c, err, "", "retrieve tasks")
		return
	}
	response.Success(c, tasks, "Tasks retrieved successfully!")
}

// POST /api/tasks/recurring
func (h *TaskHandler) CreateRecurring(c *gin.Context) {
	var req models.RecurringTask
	if !bindJSON(c, &req) {
		return
	}
	req.CreatedBy = headerOr(c, headerUserID, req.CreatedBy)
	req.OrganizationID = headerOr(c, headerOrganizationID, req.OrganizationID)
	req.PatientID = headerOr(c, headerPatientID, req.PatientID)

	created, err := h.recurring.Create(requestContext(c), &req)
	if err != nil {
		respondError(c, err, "", "create recurring task template")
		return
	}
	response.Success(c, created, "Recurring task template created successfully!")
}

// GET /api/tasks/recurring
func (h *TaskHandler) ListRecurring(c *gin.Context) {
	templates, err := h.recurring.List(requestContext(c))
	if err != nil {
		respondError(c, err, "", "retrieve recurring task templates")
		return
	}
	response.Success(c, templates, "Recurring task templates retrieved successfully!")
}

// PUT /api/tasks/recurring/:id
func (h *TaskHandler) UpdateRecurring(c *gin.Context) {
	var req models.RecurringTask
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.recurring.Update(requestContext(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, msgRecurringNotFound, "update recurring task template")
		return
	}
	response.Success(c, updated, "Recurring task template updated successfully!")
}

// DELETE /api/tasks/recurring/:id
func (h *TaskHandler) DeleteRecurring(c *gin.Context) {
	deleted, err := h.recurring.Delete(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgRecurringNotFound, "delete recurring task template")
		return
	}
	if !deleted {
		response.Error(c, response.CodeNotFound, msgRecurringNotFound)
		return
	}
	const msg = "Recurring task template deleted successfully!"
	response.Success(c, msg, msg)
}

// POST /api/tasks/recurring/:id/toggle
func (h *TaskHandler) ToggleRecurring(c *gin.Context) {
	template, err := h.recurring.Toggle(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgRecurringNotFound, "toggle recurring task template status")
		return
	}
	state := "deactivated"
	if template.Active() {
		state = "activated"
	}
	response.Success(c, template, "Recurring task template "+state+" successfully!")
}

// POST /api/tasks/recurring/generate?date=
func (h *TaskHandler) GenerateRecurring(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date != "" && !validDate(c, date) {
		return
	}
	tasks, err := h.recurring.Generate(requestContext(c), date)
	if err != nil {
		respondError(c, err, "", "generate tasks from recurring templates")
		return
	}
	response.Success(c, tasks, "Tasks generated from recurring templates successfully!")
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.tasks.Get(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgTaskNotFound, "retrieve task")
		return
	}
	response.Success(c, task, "Task retrieved successfully!")
}

// PUT /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req models.Task
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.tasks.Update(requestContext(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err, msgTaskNotFound, "update task")
		return
	}
	response.Success(c, updated, "Task updated successfully!")
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	deleted, err := h.tasks.Delete(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgTaskNotFound, "delete task")
		return
	}
	if !deleted {
		response.Error(c, response.CodeNotFound, msgTaskNotFound)
		return
	}
	response.Success(c, true, "Task deleted successfully!")
}

func (h *TaskHandler) respondTasks(c *gin.Context, tasks []models.Task, err error, action, msg string) {
	if err != nil {
		respondError(c, err, "", action)
		return
	}
	response.Success(c, tasks, msg)
}

// GET /api/tasks/worker/:workerId
func (h *TaskHandler) ListByWorker(c *gin.Context) {
	tasks, err := h.tasks.ListByWorker(requestContext(c), c.Param("workerId"))
	h.respondTasks(c, tasks, err, "retrieve worker tasks", "Worker tasks retrieved successfully!")
}

// GET /api/tasks/worker-name/:workerName
func (h *TaskHandler) ListByWorkerName(c *gin.Context) {
	tasks, err := h.tasks.ListByWorkerName(requestContext(c), c.Param("workerName"))
	h.respondTasks(c, tasks, err, "retrieve worker tasks", "Worker tasks retrieved successfully!")
}

// GET /api/tasks/status/:status
func (h *TaskHandler) ListByStatus(c *gin.Context) {
	tasks, err := h.tasks.ListByStatus(requestContext(c), c.Param("status"))
	h.respondTasks(c, tasks, err, "retrieve tasks", "Tasks retrieved successfully!")
}

// GET /api/tasks/due-date/:dueDate
func (h *TaskHandler) ListByDueDate(c *gin.Context) {
	date := c.Param("dueDate")
	if !validDate(c, date) {
		return
	}
	tasks, err := h.tasks.ListByDueDate(requestContext(c), date)
	h.respondTasks(c, tasks, err, "retrieve tasks", "Tasks retrieved successfully!")
}

// GET /api/tasks/priority/:priority
func (h *TaskHandler) ListByPriority(c *gin.Context) {
	tasks, err := h.tasks.ListByPriority(requestContext(c), c.Param("priority"))
	h.respondTasks(c, tasks, err, "retrieve tasks", "Tasks retrieved successfully!")
}

// GET /api/tasks/today
func (h *TaskHandler) ListToday(c *gin.Context) {
	tasks, err := h.tasks.ListToday(requestContext(c))
	h.respondTasks(c, tasks, err, "retrieve today's tasks", "Today's tasks retrieved successfully!")
}

// GET /api/tasks/today/worker/:workerId
func (h *TaskHandler) ListTodayForWorker(c *gin.Context) {
	tasks, err := h.tasks.ListTodayForWorker(requestContext(c), c.Param("workerId"))
	h.respondTasks(c, tasks, err, "retrieve today's tasks", "Today's tasks for worker retrieved successfully!")
}

// GET /api/tasks/pending-approval
func (h *TaskHandler) ListPendingApproval(c *gin.Context) {
	tasks, err := h.tasks.ListByStatus(requestContext(c), models.TaskStatusWorkerCompleted)
	h.respondTasks(c, tasks, err, "retrieve pending approval tasks", "Pending approval tasks retrieved successfully!")
}

// GET /api/tasks/completed
func (h *TaskHandler) ListCompleted(c *gin.Context) {
	tasks, err := h.tasks.ListByStatus(requestContext(c), models.TaskStatusCompleted)
	h.respondTasks(c, tasks, err, "retrieve completed tasks", "Completed tasks retrieved successfully!")
}

// GET /api/tasks/in-progress
func (h *TaskHandler) ListInProgress(c *gin.Context) {
	tasks, err := h.tasks.ListByStatus(requestContext(c), models.TaskStatusInProgress)
	h.respondTasks(c, tasks, err, "retrieve in-progress tasks", "In-progress tasks retrieved successfully!")
}

// GET /api/tasks/rejected
func (h *TaskHandler) ListRejected(c *gin.Context) {
	tasks, err := h.tasks.ListByStatus(requestContext(c), models.TaskStatusRejected)
	h.respondTasks(c, tasks, err, "retrieve rejected tasks", "Rejected tasks retrieved successfully!")
}

// GET /api/tasks/patient/:patientId
func (h *TaskHandler) ListByPatient(c *gin.Context) {
	tasks, err := h.tasks.ListByPatient(requestContext(c), c.Param("patientId"))
	h.respondTasks(c, tasks, err, "retrieve patient tasks", "Patient tasks retrieved successfully!")
}

// GET /api/tasks/patient/:patientId/all
func (h *TaskHandler) ListAllByPatient(c *gin.Context) {
	tasks, err := h.tasks.ListByPatient(requestContext(c), c.Param("patientId"))
	h.respondTasks(c, tasks, err, "retrieve all patient tasks", "All patient tasks retrieved successfully!")
}

// POST /api/tasks/:id/worker-complete
func (h *TaskHandler) WorkerComplete(c *gin.Context) {
	task, err := h.tasks.WorkerComplete(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgTaskNotFound, "complete task")
		return
	}
	response.Success(c, task, "Task marked as completed by worker!")
}

// POST /api/tasks/:id/approve
func (h *TaskHandler) Approve(c *gin.Context) {
	var req approvalRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.tasks.Approve(requestContext(c), c.Param("id"), req.ApprovalReason)
	if err != nil {
		respondError(c, err, msgTaskNotFound, "approve task")
		return
	}
	response.Success(c, task, "Task completion approved!")
}

// POST /api/tasks/:id/reject
func (h *TaskHandler) Reject(c *gin.Context) {
	var req rejectionRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.tasks.Reject(requestContext(c), c.Param("id"), req.RejectionReason)
	if err != nil {
		respondError(c, err, msgTaskNotFound, "reject task")
		return
	}
	response.Success(c, task, "Task completion rejected!")
}

// PUT /api/tasks/:id/status
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("status is required!")) {
		return
	}
	task, err := h.tasks.UpdateStatus(requestContext(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err, msgTaskNotFound, "update task status")
		return
	}
	response.Success(c, task, "Task status updated successfully!")
}

// GET /api/tasks/stats
func (h *TaskHandler) Stats(c *gin.Context) {
	stats, err := h.tasks.Stats(requestContext(c))
	if err != nil {
		respondError(c, err, "", "retrieve task statistics")
		return
	}
	response.Success(c, stats, "Task statistics retrieved successfully!")
}

// GET /api/tasks/stats/worker/:workerId
func (h *TaskHandler) WorkerStats(c *gin.Context) {
	stats, err := h.tasks.WorkerStats(requestContext(c), c.Param("workerId"))
	if err != nil {
		respondError(c, err, "", "retrieve worker task statistics")
		return
	}
	response.Success(c, stats, "Worker task statistics retrieved successfully!")
}

// POST /api/tasks/:id/assign
func (h *TaskHandler) Assign(c *gin.Context) {
	var req assignTaskRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Worker ID is required!")) {
		return
	}
	task, err := h.tasks.Assign(requestContext(c), c.Param("id"), req.WorkerID, req.WorkerName)
	if err != nil {
		respondError(c, err, msgTaskNotFound, "assign task")
		return
	}
	response.Success(c, task, "Task assigned successfully!")
}

// POST /api/tasks/:id/complete
func (h *TaskHandler) Complete(c *gin.Context) {
	var req completeTaskRequest
	if !bindJSON(c, &req) {
		return
	}
	task, err := h.tasks.Complete(requestContext(c), c.Param("id"), req.CompletionNotes)
	if err != nil {
		respondError(c, err, msgTaskNotFound, "complete task")
		return
	}
	response.Success(c, task, "Task completed successfully!")
}
