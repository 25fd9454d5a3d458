package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/models"
)

// LegacyOrganizationID also owns requests filed before organisations were recorded.
const LegacyOrganizationID = "default-org-001"

var (
	// ErrInvalidRequestType is returned for a request type outside new, recurring, modify, remove and reschedule.
	ErrInvalidRequestType = errors.New("task request: invalid request type")
	// ErrOriginalTaskRequired is returned when a modify, remove or reschedule request names no task.
	ErrOriginalTaskRequired = errors.New("task request: original task id is required")
	// ErrTaskRequestProcessed is returned when approving or rejecting a request that is no longer pending.
	ErrTaskRequestProcessed = errors.New("task request: already processed")
)

var requestTypes = map[string]struct{}{
	models.TaskRequestNew:        {},
	models.TaskRequestRecurring:  {},
	models.TaskRequestModify:     {},
	models.TaskRequestRemove:     {},
	models.TaskRequestReschedule: {},
}

// TaskRequestOption customises TaskRequestService behaviour.
type TaskRequestOption func(*TaskRequestService)

// WithTaskRequestClock injects a custom clock primarily for testing.
func WithTaskRequestClock(clock func() time.Time) TaskRequestOption {
	return func(s *TaskRequestService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// TaskRequestService stores proposed task changes and applies them once approved.
type TaskRequestService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTaskRequestService constructs a TaskRequestService.
func NewTaskRequestService(db *gorm.DB, opts ...TaskRequestOption) (*TaskRequestService, error) {
	if db == nil {
		return nil, errors.New("task request service: db is required")
	}
	svc := &TaskRequestService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create files request as pending, stamping today's submission date.
func (s *TaskRequestService) Create(ctx context.Context, request *models.TaskRequest) (*models.TaskRequest, error) {
	if request == nil {
		return nil, errors.New("task request service: request is required")
	}
	request.RequestType = strings.ToLower(strings.TrimSpace(request.RequestType))
	if request.RequestType == "" {
		request.RequestType = models.TaskRequestNew
	}
	if _, ok := requestTypes[request.RequestType]; !ok {
		return nil, ErrInvalidRequestType
	}
	switch request.RequestType {
	case models.TaskRequestModify, models.TaskRequestRemove, models.TaskRequestReschedule:
		if strings.TrimSpace(request.OriginalTaskID) == "" {
			return nil, ErrOriginalTaskRequired
		}
	}
	for _, date := range []string{request.StartDate, request.EndDate, request.NewDueDate} {
		if date == "" {
			continue
		}
		if _, err := ParseDate(date); err != nil {
			return nil, err
		}
	}
	if request.Priority == "" {
		request.Priority = models.PriorityNormal
	}
	request.Status = models.TaskRequestPending
	request.SubmittedDate = FormatDate(s.now())
	request.ApprovedBy, request.ApprovalReason, request.RejectionReason = "", "", ""
	request.ProcessedAt = nil

	if err := s.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, fmt.Errorf("task request service: create: %w", err)
	}
	return request, nil
}

// List returns every request, newest first.
func (s *TaskRequestService) List(ctx context.Context) ([]models.TaskRequest, error) {
	return s.find(ctx, "list", nil)
}

// Get loads request id.
func (s *TaskRequestService) Get(ctx context.Context, id string) (*models.TaskRequest, error) {
	return s.get(s.db.WithContext(ctx), id)
}

// ListByRequester returns the requests filed by requesterID.
func (s *TaskRequestService) ListByRequester(ctx context.Context, requesterID string) ([]models.TaskRequest, error) {
	return s.find(ctx, "list by requester", map[string]any{"requester_id": requesterID})
}

// ListByStatus returns the requests in status.
func (s *TaskRequestService) ListByStatus(ctx context.Context, status string) ([]models.TaskRequest, error) {
	return s.find(ctx, "list by status", map[string]any{"status": status})
}

// ListPending returns every request awaiting review.
func (s *TaskRequestService) ListPending(ctx context.Context) ([]models.TaskRequest, error) {
	return s.ListByStatus(ctx, models.TaskRequestPending)
}

// ListPendingByOrganization returns the requests of organizationID awaiting review.
// The legacy organisation also sees pending requests filed without one.
func (s *TaskRequestService) ListPendingByOrganization(ctx context.Context, organizationID string) ([]models.TaskRequest, error) {
	query := s.db.WithContext(ctx).Where("status = ?", models.TaskRequestPending)
	if organizationID == LegacyOrganizationID {
		query = query.Where("(organization_id = ? OR organization_id = '' OR organization_id IS NULL)", organizationID)
	} else {
		query = query.Where("organization_id = ?", organizationID)
	}
	var requests []models.TaskRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("task request service: list pending by organization: %w", err)
	}
	return requests, nil
}

// ListByOrganization returns every request of organizationID.
func (s *TaskRequestService) ListByOrganization(ctx context.Context, organizationID string) ([]models.TaskRequest, error) {
	return s.find(ctx, "list by organization", map[string]any{"organization_id": organizationID})
}

// Update merges the non-empty fields of changes into request id.
func (s *TaskRequestService) Update(ctx context.Context, id string, changes *models.TaskRequest) (*models.TaskRequest, error) {
	request, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changes != nil {
		mergeString(&request.TaskTitle, changes.TaskTitle)
		mergeString(&request.Description, changes.Description)
		mergeString(&request.Priority, changes.Priority)
		mergeString(&request.Reason, changes.Reason)
		mergeString(&request.Frequency, changes.Frequency)
		mergeString(&request.TimeOfDay, changes.TimeOfDay)
		mergeString(&request.DayOfWeek, changes.DayOfWeek)
		mergeString(&request.StartDate, changes.StartDate)
		mergeString(&request.EndDate, changes.EndDate)
		mergeString(&request.NewDueDate, changes.NewDueDate)
		mergeString(&request.NewAssignedTo, changes.NewAssignedTo)
		if changes.FrequencyNumber > 0 {
			request.FrequencyNumber = changes.FrequencyNumber
		}
		if changes.DayOfMonth > 0 {
			request.DayOfMonth = changes.DayOfMonth
		}
		if changes.Month > 0 {
			request.Month = changes.Month
		}
	}
	if err := s.db.WithContext(ctx).Save(request).Error; err != nil {
		return nil, fmt.Errorf("task request service: update: %w", err)
	}
	return request, nil
}

// Approve applies pending request id to the task list on behalf of reviewerID and marks it approved.
// The change and the status flip commit together.
func (s *TaskRequestService) Approve(ctx context.Context, id, reviewerID, reason string) (*models.TaskRequest, error) {
	var approved *models.TaskRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		request, err := s.pending(tx, id)
		if err != nil {
			return err
		}
		if err := s.apply(tx, request, reviewerID); err != nil {
			return err
		}

		now := s.now()
		request.Status = models.TaskRequestApproved
		request.ApprovedBy = reviewerID
		request.ApprovalReason = reason
		request.ProcessedAt = &now
		if err := tx.Save(request).Error; err != nil {
			return fmt.Errorf("task request service: approve: %w", err)
		}
		approved = request
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// Reject declines pending request id with reason.
func (s *TaskRequestService) Reject(ctx context.Context, id, reviewerID, reason string) (*models.TaskRequest, error) {
	request, err := s.pending(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	request.Status = models.TaskRequestRejected
	request.ApprovedBy = reviewerID
	request.RejectionReason = reason
	request.ProcessedAt = &now
	if err := s.db.WithContext(ctx).Save(request).Error; err != nil {
		return nil, fmt.Errorf("task request service: reject: %w", err)
	}
	return request, nil
}

// Delete removes request id and reports whether it existed.
func (s *TaskRequestService) Delete(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&models.TaskRequest{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return false, fmt.Errorf("task request service: delete: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Stats counts every request by status.
func (s *TaskRequestService) Stats(ctx context.Context) (map[string]int64, error) {
	return s.stats(ctx, "", "")
}

// OrganizationStats counts organizationID's requests by status.
func (s *TaskRequestService) OrganizationStats(ctx context.Context, organizationID string) (map[string]int64, error) {
	return s.stats(ctx, "organization_id", organizationID)
}

// RequesterStats counts requesterID's requests by status.
func (s *TaskRequestService) RequesterStats(ctx context.Context, requesterID string) (map[string]int64, error) {
	return s.stats(ctx, "requester_id", requesterID)
}

func (s *TaskRequestService) stats(ctx context.Context, column, value string) (map[string]int64, error) {
	base := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.TaskRequest{})
		if column != "" {
			query = query.Where(column+" = ?", value)
		}
		return query
	}

	counts := []struct {
		key    string
		status string
	}{
		{"total", ""},
		{"pending", models.TaskRequestPending},
		{"approved", models.TaskRequestApproved},
		{"rejected", models.TaskRequestRejected},
	}

	stats := make(map[string]int64, len(counts))
	for _, c := range counts {
		query := base()
		if c.status != "" {
			query = query.Where("status = ?", c.status)
		}
		var n int64
		if err := query.Count(&n).Error; err != nil {
			return nil, fmt.Errorf("task request service: stats: %w", err)
		}
		stats[c.key] = n
	}
	return stats, nil
}

// apply performs the change request describes.
func (s *TaskRequestService) apply(tx *gorm.DB, request *models.TaskRequest, reviewerID string) error {
	switch request.RequestType {
	case models.TaskRequestNew:
		task := &models.Task{
			Title:          request.TaskTitle,
			Description:    request.Description,
			Priority:       firstNonEmpty(request.Priority, models.PriorityNormal),
			Status:         models.TaskStatusInProgress,
			DueDate:        firstNonEmpty(request.StartDate, FormatDate(s.now().AddDate(0, 0, 1))),
			CreatedBy:      reviewerID,
			PatientID:      request.PatientID,
			OrganizationID: request.OrganizationID,
		}
		if err := tx.Create(task).Error; err != nil {
			return fmt.Errorf("task request service: create task: %w", err)
		}

	case models.TaskRequestRecurring:
		active := true
		frequencyNumber := request.FrequencyNumber
		if frequencyNumber <= 0 {
			frequencyNumber = 1
		}
		template := &models.RecurringTask{
			Title:           request.TaskTitle,
			Description:     request.Description,
			Priority:        firstNonEmpty(request.Priority, models.PriorityNormal),
			Frequency:       strings.ToLower(strings.TrimSpace(request.Frequency)),
			FrequencyNumber: frequencyNumber,
			TimeOfDay:       request.TimeOfDay,
			DayOfWeek:       request.DayOfWeek,
			DayOfMonth:      request.DayOfMonth,
			Month:           request.Month,
			StartDate:       request.StartDate,
			EndDate:         request.EndDate,
			PatientID:       request.PatientID,
			OrganizationID:  request.OrganizationID,
			CreatedBy:       firstNonEmpty(reviewerID, DefaultCreatorID),
			IsActive:        &active,
		}
		if err := tx.Create(template).Error; err != nil {
			return fmt.Errorf("task request service: create recurring task: %w", err)
		}

	case models.TaskRequestModify, models.TaskRequestReschedule:
		var task models.Task
		if err := tx.First(&task, "id = ?", strings.TrimSpace(request.OriginalTaskID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return fmt.Errorf("task request service: load task: %w", err)
		}
		if request.RequestType == models.TaskRequestModify {
			mergeString(&task.Title, request.TaskTitle)
			mergeString(&task.Description, request.Description)
			mergeString(&task.Priority, request.Priority)
		} else {
			mergeString(&task.DueDate, request.NewDueDate)
			mergeString(&task.AssignedToID, request.NewAssignedTo)
		}
		if err := tx.Save(&task).Error; err != nil {
			return fmt.Errorf("task request service: update task: %w", err)
		}

	case models.TaskRequestRemove:
		result := tx.Delete(&models.Task{}, "id = ?", strings.TrimSpace(request.OriginalTaskID))
		if result.Error != nil {
			return fmt.Errorf("task request service: delete task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrTaskNotFound
		}

	default:
		return ErrInvalidRequestType
	}
	return nil
}

func (s *TaskRequestService) pending(db *gorm.DB, id string) (*models.TaskRequest, error) {
	request, err := s.get(db, id)
	if err != nil {
		return nil, err
	}
	if request.Status != models.TaskRequestPending {
		return nil, ErrTaskRequestProcessed
	}
	return request, nil
}

func (s *TaskRequestService) get(db *gorm.DB, id string) (*models.TaskRequest, error) {
	var request models.TaskRequest
	if err := db.First(&request, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskRequestNotFound
		}
		return nil, fmt.Errorf("task request service: get: %w", err)
	}
	return &request, nil
}

func (s *TaskRequestService) find(ctx context.Context, op string, where map[string]any) ([]models.TaskRequest, error) {
	query := s.db.WithContext(ctx)
	if len(where) > 0 {
		query = query.Where(where)
	}
	var requests []models.TaskRequest
	if err := query.Order("created_at DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("task request service: %s: %w", op, err)
	}
	return requests, nil
}
