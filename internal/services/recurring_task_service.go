package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/pkg/metrics"
)

// DefaultCreatorID is recorded on templates created without an explicit author.
const DefaultCreatorID = "manager-001"

// RecurringTaskOption customises RecurringTaskService behaviour.
type RecurringTaskOption func(*RecurringTaskService)

// WithRecurringTaskClock injects a custom clock primarily for testing.
func WithRecurringTaskClock(clock func() time.Time) RecurringTaskOption {
	return func(s *RecurringTaskService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// RecurringTaskService manages recurring task templates and materialises their tasks.
type RecurringTaskService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRecurringTaskService constructs a RecurringTaskService.
func NewRecurringTaskService(db *gorm.DB, opts ...RecurringTaskOption) (*RecurringTaskService, error) {
	if db == nil {
		return nil, errors.New("recurring task service: db is required")
	}
	svc := &RecurringTaskService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create stores a new template. Templates start active with a frequency number of one.
func (s *RecurringTaskService) Create(ctx context.Context, template *models.RecurringTask) (*models.RecurringTask, error) {
	if template == nil {
		return nil, errors.New("recurring task service: template is required")
	}
	if template.FrequencyNumber <= 0 {
		template.FrequencyNumber = 1
	}
	if strings.TrimSpace(template.CreatedBy) == "" {
		template.CreatedBy = DefaultCreatorID
	}
	if template.Priority == "" {
		template.Priority = models.PriorityNormal
	}
	if template.IsActive == nil {
		active := true
		template.IsActive = &active
	}
	template.Frequency = strings.ToLower(strings.TrimSpace(template.Frequency))
	if err := s.db.WithContext(ctx).Create(template).Error; err != nil {
		return nil, fmt.Errorf("recurring task service: create: %w", err)
	}
	return template, nil
}

// List returns every template.
func (s *RecurringTaskService) List(ctx context.Context) ([]models.RecurringTask, error) {
	var templates []models.RecurringTask
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("recurring task service: list: %w", err)
	}
	return templates, nil
}

// Get loads template id.
func (s *RecurringTaskService) Get(ctx context.Context, id string) (*models.RecurringTask, error) {
	var template models.RecurringTask
	if err := s.db.WithContext(ctx).First(&template, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecurringTaskNotFound
		}
		return nil, fmt.Errorf("recurring task service: get: %w", err)
	}
	return &template, nil
}

// Update replaces the schedule and assignment of template id. Activation is left untouched.
func (s *RecurringTaskService) Update(ctx context.Context, id string, changes *models.RecurringTask) (*models.RecurringTask, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changes != nil {
		template.Title = changes.Title
		template.Description = changes.Description
		template.AssignedTo = changes.AssignedTo
		template.AssignedToID = changes.AssignedToID
		template.Frequency = strings.ToLower(strings.TrimSpace(changes.Frequency))
		template.FrequencyNumber = changes.FrequencyNumber
		template.TimeOfDay = changes.TimeOfDay
		template.DayOfWeek = changes.DayOfWeek
		template.DayOfMonth = changes.DayOfMonth
		template.Month = changes.Month
		template.StartDate = changes.StartDate
		template.EndDate = changes.EndDate
		template.PatientID = changes.PatientID
		template.OrganizationID = changes.OrganizationID
		if changes.Priority != "" {
			template.Priority = changes.Priority
		}
	}
	if err := s.db.WithContext(ctx).Save(template).Error; err != nil {
		return nil, fmt.Errorf("recurring task service: update: %w", err)
	}
	return template, nil
}

// Delete removes template id and reports whether it existed.
func (s *RecurringTaskService) Delete(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&models.RecurringTask{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return false, fmt.Errorf("recurring task service: delete: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Toggle flips the active flag of template id and returns the updated template.
func (s *RecurringTaskService) Toggle(ctx context.Context, id string) (*models.RecurringTask, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !template.Active()
	template.IsActive = &active
	if err := s.db.WithContext(ctx).Model(template).Update("is_active", active).Error; err != nil {
		return nil, fmt.Errorf("recurring task service: toggle: %w", err)
	}
	return template, nil
}

// Generate creates the tasks due on date from every active template. An empty date means today.
// Templates whose task already exists for the same assignee, title and date are skipped.
func (s *RecurringTaskService) Generate(ctx context.Context, date string) ([]models.Task, error) {
	day := s.now()
	if strings.TrimSpace(date) != "" {
		parsed, err := ParseDate(date)
		if err != nil {
			return nil, err
		}
		day = parsed
	}
	dueDate := FormatDate(day)

	var generated []models.Task
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var templates []models.RecurringTask
		if err := tx.Where("is_active = ?", true).Find(&templates).Error; err != nil {
			return err
		}

		for _, template := range templates {
			if !ShouldGenerate(template, day) {
				continue
			}

			var existing int64
			if err := tx.Model(&models.Task{}).
				Where("assigned_to_id = ? AND title = ? AND due_date = ?", template.AssignedToID, template.Title, dueDate).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}

			task := models.Task{
				Title:               template.Title,
				Description:         template.Description,
				AssignedTo:          template.AssignedTo,
				AssignedToID:        template.AssignedToID,
				Priority:            models.PriorityNormal,
				Status:              models.TaskStatusInProgress,
				DueDate:             dueDate,
				CreatedBy:           template.CreatedBy,
				PatientID:           template.PatientID,
				OrganizationID:      template.OrganizationID,
				IsRecurring:         true,
				RecurringTemplateID: template.ID,
			}
			if err := tx.Create(&task).Error; err != nil {
				return err
			}
			generated = append(generated, task)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recurring task service: generate: %w", err)
	}

	metrics.RecurringTasksGenerated.Add(float64(len(generated)))
	return generated, nil
}

// ShouldGenerate reports whether template produces a task on day.
func ShouldGenerate(template models.RecurringTask, day time.Time) bool {
	if !template.Active() {
		return false
	}
	date := FormatDate(day)
	if template.StartDate != "" && date < template.StartDate {
		return false
	}
	if template.EndDate != "" && date > template.EndDate {
		return false
	}

	switch strings.ToLower(template.Frequency) {
	case models.FrequencyDaily:
		return true
	case models.FrequencyWeekly:
		if template.DayOfWeek == "" {
			return true
		}
		return strings.EqualFold(template.DayOfWeek, day.Weekday().String())
	case models.FrequencyMonthly:
		if template.DayOfMonth == 0 {
			return true
		}
		return day.Day() == template.DayOfMonth
	default:
		return false
	}
}
