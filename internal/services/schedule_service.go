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

// BatchCreateInput describes a day's worth of shift assignments.
type BatchCreateInput struct {
	Date               string
	OrganizationID     string
	ManagerID          string
	WorkerIDs          []string
	MorningWorkerIDs   []string
	AfternoonWorkerIDs []string
	EveningWorkerIDs   []string
	ShiftType          string
	Notes              string
}

// CopySchedulesInput identifies the schedules to clone onto another date.
type CopySchedulesInput struct {
	SourceDate     string
	TargetDate     string
	OrganizationID string
	ManagerID      string
}

// ScheduleOption customises ScheduleService behaviour.
type ScheduleOption func(*ScheduleService)

// WithScheduleClock injects a custom clock primarily for testing.
func WithScheduleClock(clock func() time.Time) ScheduleOption {
	return func(s *ScheduleService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// ScheduleService persists worker shift schedules.
type ScheduleService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewScheduleService constructs a ScheduleService.
func NewScheduleService(db *gorm.DB, opts ...ScheduleOption) (*ScheduleService, error) {
	if db == nil {
		return nil, errors.New("schedule service: db is required")
	}
	svc := &ScheduleService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create stores a new schedule, defaulting its status and shift hours.
func (s *ScheduleService) Create(ctx context.Context, schedule *models.Schedule) (*models.Schedule, error) {
	if schedule == nil {
		return nil, errors.New("schedule service: schedule is required")
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusScheduled
	}
	if schedule.ShiftStartTime == "" && schedule.ShiftEndTime == "" && schedule.ShiftType != "" {
		schedule.ShiftStartTime, schedule.ShiftEndTime = models.ShiftHours(schedule.ShiftType)
	}
	if err := s.db.WithContext(ctx).Create(schedule).Error; err != nil {
		return nil, fmt.Errorf("schedule service: create: %w", err)
	}
	return schedule, nil
}

// List returns every schedule ordered by date.
func (s *ScheduleService) List(ctx context.Context) ([]models.Schedule, error) {
	return s.find(ctx, "list", nil)
}

// Get loads a schedule by id.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := s.db.WithContext(ctx).First(&schedule, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("schedule service: get: %w", err)
	}
	return &schedule, nil
}

// Update overwrites the mutable fields of schedule id.
func (s *ScheduleService) Update(ctx context.Context, id string, changes *models.Schedule) (*models.Schedule, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changes == nil {
		return existing, nil
	}

	existing.WorkerID = changes.WorkerID
	existing.WorkerName = changes.WorkerName
	existing.ScheduleDate = changes.ScheduleDate
	existing.ShiftType = changes.ShiftType
	existing.ShiftStartTime = changes.ShiftStartTime
	existing.ShiftEndTime = changes.ShiftEndTime
	existing.OrganizationID = changes.OrganizationID
	existing.ManagerID = changes.ManagerID
	existing.Notes = changes.Notes
	if changes.Status != "" {
		existing.Status = changes.Status
	}
	if changes.WorkerPhotoURL != "" {
		existing.WorkerPhotoURL = changes.WorkerPhotoURL
	}

	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, fmt.Errorf("schedule service: update: %w", err)
	}
	return existing, nil
}

// Delete removes schedule id and reports whether it existed.
func (s *ScheduleService) Delete(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&models.Schedule{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return false, fmt.Errorf("schedule service: delete: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// ListByWorker returns the schedules of workerID.
func (s *ScheduleService) ListByWorker(ctx context.Context, workerID string) ([]models.Schedule, error) {
	return s.find(ctx, "list by worker", map[string]any{"worker_id": workerID})
}

// ListByDate returns the schedules on date.
func (s *ScheduleService) ListByDate(ctx context.Context, date string) ([]models.Schedule, error) {
	return s.find(ctx, "list by date", map[string]any{"schedule_date": date})
}

// ListByWorkerAndDate returns workerID's schedules on date.
func (s *ScheduleService) ListByWorkerAndDate(ctx context.Context, workerID, date string) ([]models.Schedule, error) {
	return s.find(ctx, "list by worker and date", map[string]any{"worker_id": workerID, "schedule_date": date})
}

// ListByOrganization returns the schedules of organizationID.
func (s *ScheduleService) ListByOrganization(ctx context.Context, organizationID string) ([]models.Schedule, error) {
	return s.find(ctx, "list by organization", map[string]any{"organization_id": organizationID})
}

// ListByOrganizationAndDate returns organizationID's schedules on date.
func (s *ScheduleService) ListByOrganizationAndDate(ctx context.Context, organizationID, date string) ([]models.Schedule, error) {
	return s.find(ctx, "list by organization and date", map[string]any{"organization_id": organizationID, "schedule_date": date})
}

// ListByManager returns the schedules created by managerID.
func (s *ScheduleService) ListByManager(ctx context.Context, managerID string) ([]models.Schedule, error) {
	return s.find(ctx, "list by manager", map[string]any{"manager_id": managerID})
}

// ListByStatus returns the schedules with status.
func (s *ScheduleService) ListByStatus(ctx context.Context, status string) ([]models.Schedule, error) {
	return s.find(ctx, "list by status", map[string]any{"status": status})
}

// ListByShiftType returns the schedules of shiftType.
func (s *ScheduleService) ListByShiftType(ctx context.Context, shiftType string) ([]models.Schedule, error) {
	return s.find(ctx, "list by shift type", map[string]any{"shift_type": shiftType})
}

// ListByDateRange returns schedules between start and end inclusive.
func (s *ScheduleService) ListByDateRange(ctx context.Context, start, end string) ([]models.Schedule, error) {
	var schedules []models.Schedule
	if err := s.db.WithContext(ctx).
		Where("schedule_date BETWEEN ? AND ?", start, end).
		Order("schedule_date, shift_start_time").
		Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("schedule service: list by date range: %w", err)
	}
	return schedules, nil
}

// UpdatePhoto stores the worker photo URL shown on schedule id.
func (s *ScheduleService) UpdatePhoto(ctx context.Context, id, photoURL string) (*models.Schedule, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	schedule.WorkerPhotoURL = strings.TrimSpace(photoURL)
	schedule.WorkerPhotoUploadedAt = &now
	if err := s.db.WithContext(ctx).Save(schedule).Error; err != nil {
		return nil, fmt.Errorf("schedule service: update photo: %w", err)
	}
	return schedule, nil
}

// UpdateStatus sets the status of schedule id.
func (s *ScheduleService) UpdateStatus(ctx context.Context, id, status string) (*models.Schedule, error) {
	schedule, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	schedule.Status = status
	if err := s.db.WithContext(ctx).Save(schedule).Error; err != nil {
		return nil, fmt.Errorf("schedule service: update status: %w", err)
	}
	return schedule, nil
}

// HasSchedule reports whether workerID is scheduled on date.
func (s *ScheduleService) HasSchedule(ctx context.Context, workerID, date string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("worker_id = ? AND schedule_date = ?", workerID, date).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("schedule service: has schedule: %w", err)
	}
	return count > 0, nil
}

// Stats counts organizationID's schedules by status plus those on date.
// An empty date counts today's schedules.
func (s *ScheduleService) Stats(ctx context.Context, organizationID, date string) (map[string]int64, error) {
	if strings.TrimSpace(date) == "" {
		date = FormatDate(s.now())
	}

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Schedule{}).Where("organization_id = ?", organizationID)
	}

	stats := make(map[string]int64, 6)
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("schedule service: stats: %w", err)
	}
	stats["total"] = total

	for _, status := range []string{
		models.ScheduleStatusScheduled,
		models.ScheduleStatusConfirmed,
		models.ScheduleStatusCompleted,
		models.ScheduleStatusCancelled,
	} {
		var count int64
		if err := base().Where("status = ?", status).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("schedule service: stats: %w", err)
		}
		stats[status] = count
	}

	var today int64
	if err := base().Where("schedule_date = ?", date).Count(&today).Error; err != nil {
		return nil, fmt.Errorf("schedule service: stats: %w", err)
	}
	stats["today"] = today
	return stats, nil
}

// BatchCreate creates one schedule per worker and shift in a single transaction.
// Unknown workers are skipped.
func (s *ScheduleService) BatchCreate(ctx context.Context, in BatchCreateInput) ([]models.Schedule, error) {
	var created []models.Schedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		created, err = createShiftSchedules(tx, in)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("schedule service: batch create: %w", err)
	}
	return created, nil
}

// BatchUpdateStatus sets status on every listed schedule and returns those that existed.
func (s *ScheduleService) BatchUpdateStatus(ctx context.Context, ids []string, status string) ([]models.Schedule, error) {
	ids = normaliseIDs(ids)
	var updated []models.Schedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Schedule{}).Where("id IN ?", ids).Update("status", status).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Order("schedule_date").Find(&updated).Error
	})
	if err != nil {
		return nil, fmt.Errorf("schedule service: batch update status: %w", err)
	}
	return updated, nil
}

// BatchDelete removes the listed schedules and returns how many existed.
func (s *ScheduleService) BatchDelete(ctx context.Context, ids []string) (int64, error) {
	ids = normaliseIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Schedule{})
	if result.Error != nil {
		return 0, fmt.Errorf("schedule service: batch delete: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteByDate removes every schedule on date, optionally limited to organizationID.
func (s *ScheduleService) DeleteByDate(ctx context.Context, date, organizationID string) (int64, error) {
	query := s.db.WithContext(ctx).Where("schedule_date = ?", date)
	if organizationID = strings.TrimSpace(organizationID); organizationID != "" {
		query = query.Where("organization_id = ?", organizationID)
	}
	result := query.Delete(&models.Schedule{})
	if result.Error != nil {
		return 0, fmt.Errorf("schedule service: delete by date: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Copy clones the organisation's schedules on the source date onto the target date.
// Copies are reset to the scheduled status.
func (s *ScheduleService) Copy(ctx context.Context, in CopySchedulesInput) ([]models.Schedule, error) {
	var copied []models.Schedule
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sources []models.Schedule
		if err := tx.Where("organization_id = ? AND schedule_date = ?", in.OrganizationID, in.SourceDate).
			Order("shift_start_time").
			Find(&sources).Error; err != nil {
			return err
		}
		for _, source := range sources {
			clone := models.Schedule{
				WorkerID:       source.WorkerID,
				WorkerName:     source.WorkerName,
				ScheduleDate:   in.TargetDate,
				ShiftType:      source.ShiftType,
				ShiftStartTime: source.ShiftStartTime,
				ShiftEndTime:   source.ShiftEndTime,
				OrganizationID: in.OrganizationID,
				ManagerID:      in.ManagerID,
				Status:         models.ScheduleStatusScheduled,
				Notes:          source.Notes,
				WorkerPhotoURL: source.WorkerPhotoURL,
			}
			if err := tx.Create(&clone).Error; err != nil {
				return err
			}
			copied = append(copied, clone)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schedule service: copy: %w", err)
	}
	return copied, nil
}

// Weekly returns organizationID's schedules from startDate through the following six days.
func (s *ScheduleService) Weekly(ctx context.Context, startDate, organizationID string) ([]models.Schedule, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	end := FormatDate(start.AddDate(0, 0, 6))

	var schedules []models.Schedule
	if err := s.db.WithContext(ctx).
		Where("organization_id = ? AND schedule_date BETWEEN ? AND ?", organizationID, FormatDate(start), end).
		Order("schedule_date, shift_start_time").
		Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("schedule service: weekly: %w", err)
	}
	return schedules, nil
}

// Validate reports whether workerID can take shiftType on date.
// A conflict is an existing schedule of the same shift type or a full-day shift.
func (s *ScheduleService) Validate(ctx context.Context, workerID, date, shiftType string) (bool, error) {
	existing, err := s.ListByWorkerAndDate(ctx, workerID, date)
	if err != nil {
		return false, err
	}
	for _, schedule := range existing {
		if schedule.ShiftType == shiftType || schedule.ShiftType == models.ShiftFullDay {
			return false, nil
		}
	}
	return true, nil
}

func (s *ScheduleService) find(ctx context.Context, op string, where map[string]any) ([]models.Schedule, error) {
	query := s.db.WithContext(ctx)
	if len(where) > 0 {
		query = query.Where(where)
	}
	var schedules []models.Schedule
	if err := query.Order("schedule_date, shift_start_time").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("schedule service: %s: %w", op, err)
	}
	return schedules, nil
}

// createShiftSchedules inserts the schedules described by in using tx.
// Workers listed in WorkerIDs but in none of the shift lists receive in.ShiftType.
func createShiftSchedules(tx *gorm.DB, in BatchCreateInput) ([]models.Schedule, error) {
	shifts := []struct {
		shiftType string
		workerIDs []string
	}{
		{models.ShiftMorning, normaliseIDs(in.MorningWorkerIDs)},
		{models.ShiftAfternoon, normaliseIDs(in.AfternoonWorkerIDs)},
		{models.ShiftEvening, normaliseIDs(in.EveningWorkerIDs)},
	}

	var unassigned []string
	for _, workerID := range normaliseIDs(in.WorkerIDs) {
		assigned := false
		for _, shift := range shifts {
			if containsString(shift.workerIDs, workerID) {
				assigned = true
				break
			}
		}
		if !assigned {
			unassigned = append(unassigned, workerID)
		}
	}
	if len(unassigned) > 0 {
		shiftType := firstNonEmpty(in.ShiftType, models.ShiftMorning)
		shifts = append(shifts, struct {
			shiftType string
			workerIDs []string
		}{shiftType, unassigned})
	}

	var created []models.Schedule
	for _, shift := range shifts {
		if len(shift.workerIDs) == 0 {
			continue
		}
		var workers []models.Worker
		if err := tx.Where("id IN ?", shift.workerIDs).Find(&workers).Error; err != nil {
			return nil, err
		}
		byID := make(map[string]models.Worker, len(workers))
		for _, worker := range workers {
			byID[worker.ID] = worker
		}

		start, end := models.ShiftHours(shift.shiftType)
		for _, workerID := range shift.workerIDs {
			worker, ok := byID[workerID]
			if !ok {
				continue
			}
			schedule := models.Schedule{
				WorkerID:       worker.ID,
				WorkerName:     worker.Name,
				ScheduleDate:   in.Date,
				ShiftType:      shift.shiftType,
				ShiftStartTime: start,
				ShiftEndTime:   end,
				OrganizationID: in.OrganizationID,
				ManagerID:      in.ManagerID,
				Status:         models.ScheduleStatusScheduled,
				Notes:          in.Notes,
				WorkerPhotoURL: worker.PhotoURL,
			}
			if err := tx.Create(&schedule).Error; err != nil {
				return nil, err
			}
			created = append(created, schedule)
		}
	}
	return created, nil
}
