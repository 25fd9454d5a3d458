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

// TaskOption customises TaskService behaviour.
type TaskOption func(*TaskService)

// WithTaskClock injects a custom clock primarily for testing.
func WithTaskClock(clock func() time.Time) TaskOption {
	return func(s *TaskService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// TaskService persists care tasks and drives their approval workflow.
type TaskService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTaskService constructs a TaskService.
func NewTaskService(db *gorm.DB, opts ...TaskOption) (*TaskService, error) {
	if db == nil {
		return nil, errors.New("task service: db is required")
	}
	svc := &TaskService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create stores task, defaulting its status and priority.
func (s *TaskService) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task == nil {
		return nil, errors.New("task service: task is required")
	}
	if task.Status == "" {
		task.Status = models.TaskStatusInProgress
	}
	if task.Priority == "" {
		task.Priority = models.PriorityNormal
	}
	if err := s.db.WithContext(ctx).Create(task).Error; err != nil {
		return nil, fmt.Errorf("task service: create: %w", err)
	}
	return task, nil
}

// List returns every task, newest first.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	return s.find(ctx, "list", nil)
}

// Get loads task id.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	var task models.Task
	if err := s.db.WithContext(ctx).First(&task, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("task service: get: %w", err)
	}
	return &task, nil
}

// Update merges the non-empty fields of changes into task id.
func (s *TaskService) Update(ctx context.Context, id string, changes *models.Task) (*models.Task, error) {
	return s.mutate(ctx, id, "update", func(task *models.Task) {
		if changes == nil {
			return
		}
		mergeString(&task.Title, changes.Title)
		mergeString(&task.Description, changes.Description)
		mergeString(&task.AssignedTo, changes.AssignedTo)
		mergeString(&task.AssignedToID, changes.AssignedToID)
		mergeString(&task.Priority, changes.Priority)
		mergeString(&task.Status, changes.Status)
		mergeString(&task.DueDate, changes.DueDate)
		mergeString(&task.ApprovalReason, changes.ApprovalReason)
		mergeString(&task.RejectionReason, changes.RejectionReason)
		mergeString(&task.PatientID, changes.PatientID)
		mergeString(&task.OrganizationID, changes.OrganizationID)
	})
}

// Delete removes task id and reports whether it existed.
func (s *TaskService) Delete(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&models.Task{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return false, fmt.Errorf("task service: delete: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListByWorker returns the tasks assigned to workerID.
func (s *TaskService) ListByWorker(ctx context.Context, workerID string) ([]models.Task, error) {
	return s.find(ctx, "list by worker", map[string]any{"assigned_to_id": workerID})
}

// ListByWorkerName returns the tasks assigned to a worker by display name.
func (s *TaskService) ListByWorkerName(ctx context.Context, workerName string) ([]models.Task, error) {
	return s.find(ctx, "list by worker name", map[string]any{"assigned_to": workerName})
}

// ListByStatus returns the tasks in status.
func (s *TaskService) ListByStatus(ctx context.Context, status string) ([]models.Task, error) {
	return s.find(ctx, "list by status", map[string]any{"status": status})
}

// ListByDueDate returns the tasks due on date.
func (s *TaskService) ListByDueDate(ctx context.Context, date string) ([]models.Task, error) {
	return s.find(ctx, "list by due date", map[string]any{"due_date": date})
}

// ListByPriority returns the tasks with priority.
func (s *TaskService) ListByPriority(ctx context.Context, priority string) ([]models.Task, error) {
	return s.find(ctx, "list by priority", map[string]any{"priority": priority})
}

// ListByPatient returns the tasks of patientID.
func (s *TaskService) ListByPatient(ctx context.Context, patientID string) ([]models.Task, error) {
	return s.find(ctx, "list by patient", map[string]any{"patient_id": patientID})
}

// ListToday returns the tasks due today.
func (s *TaskService) ListToday(ctx context.Context) ([]models.Task, error) {
	return s.find(ctx, "list today", map[string]any{"due_date": FormatDate(s.now())})
}

// ListTodayForWorker returns workerID's tasks due today.
func (s *TaskService) ListTodayForWorker(ctx context.Context, workerID string) ([]models.Task, error) {
	return s.find(ctx, "list today for worker", map[string]any{
		"assigned_to_id": workerID,
		"due_date":       FormatDate(s.now()),
	})
}

// WorkerComplete marks task id as completed by its worker, pending approval.
func (s *TaskService) WorkerComplete(ctx context.Context, id string) (*models.Task, error) {
	return s.mutate(ctx, id, "worker complete", func(task *models.Task) {
		task.Status = models.TaskStatusWorkerCompleted
	})
}

// Approve accepts the worker's completion of task id.
func (s *TaskService) Approve(ctx context.Context, id, reason string) (*models.Task, error) {
	now := s.now()
	return s.mutate(ctx, id, "approve", func(task *models.Task) {
		task.Status = models.TaskStatusCompleted
		task.ApprovalReason = reason
		task.CompletedAt = &now
	})
}

// Reject sends task id back with reason.
func (s *TaskService) Reject(ctx context.Context, id, reason string) (*models.Task, error) {
	return s.mutate(ctx, id, "reject", func(task *models.Task) {
		task.Status = models.TaskStatusRejected
		task.RejectionReason = reason
	})
}

// UpdateStatus sets the status of task id.
func (s *TaskService) UpdateStatus(ctx context.Context, id, status string) (*models.Task, error) {
	return s.mutate(ctx, id, "update status", func(task *models.Task) {
		task.Status = status
	})
}

// Assign hands task id to workerID and restarts it.
func (s *TaskService) Assign(ctx context.Context, id, workerID, workerName string) (*models.Task, error) {
	return s.mutate(ctx, id, "assign", func(task *models.Task) {
		task.AssignedToID = strings.TrimSpace(workerID)
		mergeString(&task.AssignedTo, workerName)
		task.Status = models.TaskStatusInProgress
	})
}

// Complete marks task id as completed by the worker and appends notes to its description.
func (s *TaskService) Complete(ctx context.Context, id, notes string) (*models.Task, error) {
	return s.mutate(ctx, id, "complete", func(task *models.Task) {
		task.Status = models.TaskStatusWorkerCompleted
		if notes = strings.TrimSpace(notes); notes != "" {
			task.Description = task.Description + "\n\nCompletion Notes: " + notes
		}
	})
}

// Stats counts every task by status plus the tasks due today.
func (s *TaskService) Stats(ctx context.Context) (map[string]int64, error) {
	return s.stats(ctx, "")
}

// WorkerStats counts workerID's tasks by status plus those due today.
func (s *TaskService) WorkerStats(ctx context.Context, workerID string) (map[string]int64, error) {
	return s.stats(ctx, workerID)
}

func (s *TaskService) stats(ctx context.Context, workerID string) (map[string]int64, error) {
	base := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Task{})
		if workerID != "" {
			query = query.Where("assigned_to_id = ?", workerID)
		}
		return query
	}

	counts := []struct {
		key   string
		query func() *gorm.DB
	}{
		{"total", base},
		{"completed", func() *gorm.DB { return base().Where("status = ?", models.TaskStatusCompleted) }},
		{"inProgress", func() *gorm.DB { return base().Where("status = ?", models.TaskStatusInProgress) }},
		{"workerCompleted", func() *gorm.DB { return base().Where("status = ?", models.TaskStatusWorkerCompleted) }},
		{"rejected", func() *gorm.DB { return base().Where("status = ?", models.TaskStatusRejected) }},
		{"today", func() *gorm.DB { return base().Where("due_date = ?", FormatDate(s.now())) }},
	}

	stats := make(map[string]int64, len(counts))
	for _, c := range counts {
		var n int64
		if err := c.query().Count(&n).Error; err != nil {
			return nil, fmt.Errorf("task service: stats: %w", err)
		}
		stats[c.key] = n
	}
	return stats, nil
}

func (s *TaskService) mutate(ctx context.Context, id, op string, apply func(*models.Task)) (*models.Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(task)
	if err := s.db.WithContext(ctx).Save(task).Error; err != nil {
		return nil, fmt.Errorf("task service: %s: %w", op, err)
	}
	return task, nil
}

func (s *TaskService) find(ctx context.Context, op string, where map[string]any) ([]models.Task, error) {
	query := s.db.WithContext(ctx)
	if len(where) > 0 {
		query = query.Where(where)
	}
	var tasks []models.Task
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("task service: %s: %w", op, err)
	}
	return tasks, nil
}

func mergeString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = value
	}
}
