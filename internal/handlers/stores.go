package handlers

import (
	"context"
	"net/http"

	iauth "github.com/careapp/carecoord/internal/auth"
	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/services"
)

// InviteCodeStore issues, redeems and lists invite codes.
type InviteCodeStore interface {
	Generate(ctx context.Context, in services.GenerateInviteInput) (string, error)
	Validate(ctx context.Context, code string) (bool, error)
	Use(ctx context.Context, code, usedBy string) (bool, error)
	ListByCreator(ctx context.Context, creatorID string) ([]models.InviteCode, error)
	Revoke(ctx context.Context, codeID string) (bool, error)
	ActiveForPatient(ctx context.Context, patientID string) ([]models.InviteCode, error)
}

// ScheduleStore persists worker shift schedules.
type ScheduleStore interface {
	Create(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error)
	List(ctx context.Context) ([]models.Schedule, error)
	Get(ctx context.Context, id string) (*models.Schedule, error)
	Update(ctx context.Context, id string, changes *models.Schedule) (*models.Schedule, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByWorker(ctx context.Context, workerID string) ([]models.Schedule, error)
	ListByDate(ctx context.Context, date string) ([]models.Schedule, error)
	ListByWorkerAndDate(ctx context.Context, workerID, date string) ([]models.Schedule, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]models.Schedule, error)
	ListByOrganizationAndDate(ctx context.Context, organizationID, date string) ([]models.Schedule, error)
	ListByManager(ctx context.Context, managerID string) ([]models.Schedule, error)
	ListByStatus(ctx context.Context, status string) ([]models.Schedule, error)
	ListByShiftType(ctx context.Context, shiftType string) ([]models.Schedule, error)
	ListByDateRange(ctx context.Context, start, end string) ([]models.Schedule, error)
	UpdatePhoto(ctx context.Context, id, photoURL string) (*models.Schedule, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Schedule, error)
	HasSchedule(ctx context.Context, workerID, date string) (bool, error)
	Stats(ctx context.Context, organizationID, date string) (map[string]int64, error)
	BatchCreate(ctx context.Context, in services.BatchCreateInput) ([]models.Schedule, error)
	BatchUpdateStatus(ctx context.Context, ids []string, status string) ([]models.Schedule, error)
	BatchDelete(ctx context.Context, ids []string) (int64, error)
	DeleteByDate(ctx context.Context, date, organizationID string) (int64, error)
	Copy(ctx context.Context, in services.CopySchedulesInput) ([]models.Schedule, error)
	Weekly(ctx context.Context, startDate, organizationID string) ([]models.Schedule, error)
	Validate(ctx context.Context, workerID, date, shiftType string) (bool, error)
}

// TaskStore persists care tasks and drives their approval workflow.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	List(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, id string, changes *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByWorker(ctx context.Context, workerID string) ([]models.Task, error)
	ListByWorkerName(ctx context.Context, workerName string) ([]models.Task, error)
	ListByStatus(ctx context.Context, status string) ([]models.Task, error)
	ListByDueDate(ctx context.Context, date string) ([]models.Task, error)
	ListByPriority(ctx context.Context, priority string) ([]models.Task, error)
	ListByPatient(ctx context.Context, patientID string) ([]models.Task, error)
	ListToday(ctx context.Context) ([]models.Task, error)
	ListTodayForWorker(ctx context.Context, workerID string) ([]models.Task, error)
	WorkerComplete(ctx context.Context, id string) (*models.Task, error)
	Approve(ctx context.Context, id, reason string) (*models.Task, error)
	Reject(ctx context.Context, id, reason string) (*models.Task, error)
	UpdateStatus(ctx context.Context, id, status string) (*models.Task, error)
	Assign(ctx context.Context, id, workerID, workerName string) (*models.Task, error)
	Complete(ctx context.Context, id, notes string) (*models.Task, error)
	Stats(ctx context.Context) (map[string]int64, error)
	WorkerStats(ctx context.Context, workerID string) (map[string]int64, error)
}

// RecurringTaskStore persists recurring task templates.
type RecurringTaskStore interface {
	Create(ctx context.Context, template *models.RecurringTask) (*models.RecurringTask, error)
	List(ctx context.Context) ([]models.RecurringTask, error)
	Update(ctx context.Context, id string, changes *models.RecurringTask) (*models.RecurringTask, error)
	Delete(ctx context.Context, id string) (bool, error)
	Toggle(ctx context.Context, id string) (*models.RecurringTask, error)
	Generate(ctx context.Context, date string) ([]models.Task, error)
}

// UserStore authenticates and manages accounts.
type UserStore interface {
	Login(ctx context.Context, uname, password string) (*models.User, error)
	LoginByEmail(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Get(ctx context.Context, id string) (*models.User, error)
	ChangePassword(ctx context.Context, identifier, oldPassword, newPassword string) (bool, error)
	RequestPasswordReset(ctx context.Context, identifier string) (bool, error)
	ResetPassword(ctx context.Context, token, newPassword string) (bool, error)
}

// WorkerStore persists care workers, their shift allocations and photos.
type WorkerStore interface {
	Create(ctx context.Context, worker *models.Worker) (*models.Worker, error)
	List(ctx context.Context) ([]models.Worker, error)
	Get(ctx context.Context, id string) (*models.Worker, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]models.Worker, error)
	Update(ctx context.Context, id string, changes *models.Worker) (*models.Worker, error)
	Delete(ctx context.Context, id string) (bool, error)
	Activate(ctx context.Context, id string) (*models.Worker, error)
	Deactivate(ctx context.Context, id string) (*models.Worker, error)
	AllocateShift(ctx context.Context, id string, shift models.ShiftAllocation) (*models.Worker, error)
	UpdateShiftStatus(ctx context.Context, id, date, shiftTime, status string) (*models.Worker, error)
	ShiftsForDate(ctx context.Context, id, date string) ([]models.ShiftAllocation, error)
	WorkersWithShifts(ctx context.Context, organizationID, date string) ([]models.Worker, error)
	RemoveShift(ctx context.Context, id, date, shiftTime string) (*models.Worker, error)
	Available(ctx context.Context, organizationID string) ([]models.Worker, error)
	CreateDailySchedule(ctx context.Context, in services.BatchCreateInput, managerID string) ([]models.Worker, error)
	DailySchedule(ctx context.Context, organizationID, date string) ([]models.Worker, error)
	ClearDailySchedule(ctx context.Context, organizationID, date string) (int64, error)
	UploadPhoto(ctx context.Context, id, photoURL string) (*models.Worker, error)
	BatchUploadPhotos(ctx context.Context, photos map[string]string) ([]models.Worker, error)
	DeletePhoto(ctx context.Context, id string) (*models.Worker, error)
	WithoutPhotos(ctx context.Context, organizationID string) ([]models.Worker, error)
}

// PatientStore persists care recipients and resolves who may see them.
type PatientStore interface {
	Create(ctx context.Context, patient *models.Patient) (*models.Patient, error)
	Get(ctx context.Context, id string) (*models.Patient, error)
	ListByFamilyMember(ctx context.Context, userID string) ([]models.Patient, error)
	ListByPOA(ctx context.Context, userID string) ([]models.Patient, error)
	Authorized(ctx context.Context, userID, userType string) ([]models.Patient, error)
	Update(ctx context.Context, id string, changes *models.Patient) (*models.Patient, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// NotificationStore persists in-app notifications and pushes them to connected users.
type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) (*models.Notification, error)
	List(ctx context.Context) ([]models.Notification, error)
	Get(ctx context.Context, id string) (*models.Notification, error)
	ListForRecipient(ctx context.Context, recipientID string) ([]models.Notification, error)
	ListUnread(ctx context.Context, recipientID string) ([]models.Notification, error)
	ListByType(ctx context.Context, recipientID, kind string) ([]models.Notification, error)
	ListByCategory(ctx context.Context, recipientID, category string) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	UrgentCount(ctx context.Context, recipientID string) (int64, error)
	MarkRead(ctx context.Context, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteAll(ctx context.Context, recipientID string) (int64, error)
	CleanupExpired(ctx context.Context) (int64, error)
	BroadcastToRole(ctx context.Context, role, title, message, organizationID string) ([]models.Notification, error)
	NotifyTaskAssigned(ctx context.Context, in services.TaskAssignedInput) (*models.Notification, error)
	NotifyTaskCompleted(ctx context.Context, in services.TaskCompletedInput) (*models.Notification, error)
	NotifyScheduleUpdated(ctx context.Context, in services.ScheduleUpdatedInput) (*models.Notification, error)
	NotifyMessageReceived(ctx context.Context, in services.MessageReceivedInput) (*models.Notification, error)
}

// TaskRequestStore persists family task requests and their review outcome.
type TaskRequestStore interface {
	Create(ctx context.Context, request *models.TaskRequest) (*models.TaskRequest, error)
	List(ctx context.Context) ([]models.TaskRequest, error)
	Get(ctx context.Context, id string) (*models.TaskRequest, error)
	ListByRequester(ctx context.Context, requesterID string) ([]models.TaskRequest, error)
	ListByStatus(ctx context.Context, status string) ([]models.TaskRequest, error)
	ListPending(ctx context.Context) ([]models.TaskRequest, error)
	ListPendingByOrganization(ctx context.Context, organizationID string) ([]models.TaskRequest, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]models.TaskRequest, error)
	Update(ctx context.Context, id string, changes *models.TaskRequest) (*models.TaskRequest, error)
	Approve(ctx context.Context, id, reviewerID, reason string) (*models.TaskRequest, error)
	Reject(ctx context.Context, id, reviewerID, reason string) (*models.TaskRequest, error)
	Delete(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context) (map[string]int64, error)
	OrganizationStats(ctx context.Context, organizationID string) (map[string]int64, error)
	RequesterStats(ctx context.Context, requesterID string) (map[string]int64, error)
}

// MessageStore persists direct messages between users.
type MessageStore interface {
	Send(ctx context.Context, message *models.Message) (*models.Message, error)
	Reply(ctx context.Context, originalID string, reply *models.Message) (*models.Message, error)
	Get(ctx context.Context, id string) (*models.Message, error)
	ListForUser(ctx context.Context, userID string) ([]models.Message, error)
	Inbox(ctx context.Context, userID string) ([]models.Message, error)
	Sent(ctx context.Context, userID string) ([]models.Message, error)
	Unread(ctx context.Context, userID string) ([]models.Message, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	Conversation(ctx context.Context, userID, otherID string) ([]models.Message, error)
	Replies(ctx context.Context, id string) ([]models.Message, error)
	ListByCategory(ctx context.Context, userID, category string) ([]models.Message, error)
	MarkRead(ctx context.Context, id string) (*models.Message, error)
	Archive(ctx context.Context, id string) (*models.Message, error)
	Delete(ctx context.Context, id string) (bool, error)
	Purge(ctx context.Context, id string) (bool, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	IssueToken(user *models.User) (string, error)
}

// TokenValidator verifies access tokens presented outside the auth middleware.
type TokenValidator interface {
	ValidateAccessToken(token string) (*iauth.Claims, error)
}

// NotificationStream upgrades a request into a live notification feed for userID.
type NotificationStream interface {
	Serve(userID string, w http.ResponseWriter, r *http.Request)
}

var (
	_ InviteCodeStore    = (*services.InviteCodeService)(nil)
	_ ScheduleStore      = (*services.ScheduleService)(nil)
	_ TaskStore          = (*services.TaskService)(nil)
	_ RecurringTaskStore = (*services.RecurringTaskService)(nil)
	_ UserStore          = (*services.UserService)(nil)
	_ WorkerStore        = (*services.WorkerService)(nil)
	_ PatientStore       = (*services.PatientService)(nil)
	_ NotificationStore  = (*services.NotificationService)(nil)
	_ TaskRequestStore   = (*services.TaskRequestService)(nil)
	_ MessageStore       = (*services.MessageService)(nil)
)
