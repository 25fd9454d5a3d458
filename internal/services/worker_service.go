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

const fallbackOrganizationID = "org-001"

// WorkerOption customises WorkerService behaviour.
type WorkerOption func(*WorkerService)

// WithWorkerClock injects a custom clock primarily for testing.
func WithWorkerClock(clock func() time.Time) WorkerOption {
	return func(s *WorkerService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WorkerService manages carers, their inline shift allocations and photos.
type WorkerService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewWorkerService constructs a WorkerService.
func NewWorkerService(db *gorm.DB, opts ...WorkerOption) (*WorkerService, error) {
	if db == nil {
		return nil, errors.New("worker service: db is required")
	}
	svc := &WorkerService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create stores worker. A W### identifier is assigned when none is provided.
func (s *WorkerService) Create(ctx context.Context, worker *models.Worker) (*models.Worker, error) {
	if worker == nil {
		return nil, errors.New("worker service: worker is required")
	}
	if worker.Status == "" {
		worker.Status = models.WorkerStatusPending
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if strings.TrimSpace(worker.WorkerID) == "" {
			id, err := nextWorkerID(tx)
			if err != nil {
				return err
			}
			worker.WorkerID = id
		}
		return tx.Create(worker).Error
	})
	if err != nil {
		return nil, fmt.Errorf("worker service: create: %w", err)
	}
	return worker, nil
}

// List returns every worker.
func (s *WorkerService) List(ctx context.Context) ([]models.Worker, error) {
	return s.find(ctx, "list", nil)
}

// Get loads worker id.
func (s *WorkerService) Get(ctx context.Context, id string) (*models.Worker, error) {
	return s.get(ctx, s.db, id)
}

// ListByOrganization returns the workers of organizationID.
func (s *WorkerService) ListByOrganization(ctx context.Context, organizationID string) ([]models.Worker, error) {
	return s.find(ctx, "list by organization", map[string]any{"organization_id": organizationID})
}

// Update replaces the profile fields of worker id. Shift allocations are kept.
func (s *WorkerService) Update(ctx context.Context, id string, changes *models.Worker) (*models.Worker, error) {
	return s.mutate(ctx, id, "update", func(worker *models.Worker) error {
		if changes == nil {
			return nil
		}
		worker.Name = changes.Name
		worker.Email = changes.Email
		worker.Phone = changes.Phone
		worker.Notes = changes.Notes
		worker.Specializations = changes.Specializations
		mergeString(&worker.WorkerID, changes.WorkerID)
		mergeString(&worker.Status, changes.Status)
		mergeString(&worker.OrganizationID, changes.OrganizationID)
		mergeString(&worker.ManagerID, changes.ManagerID)
		mergeString(&worker.PhotoURL, changes.PhotoURL)
		return nil
	})
}

// Delete removes worker id and reports whether it existed.
func (s *WorkerService) Delete(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&models.Worker{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return false, fmt.Errorf("worker service: delete: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Activate marks worker id as active and records the activation time.
func (s *WorkerService) Activate(ctx context.Context, id string) (*models.Worker, error) {
	now := s.now()
	return s.mutate(ctx, id, "activate", func(worker *models.Worker) error {
		worker.Status = models.WorkerStatusActive
		worker.ActivatedAt = &now
		return nil
	})
}

// Deactivate marks worker id as inactive.
func (s *WorkerService) Deactivate(ctx context.Context, id string) (*models.Worker, error) {
	return s.mutate(ctx, id, "deactivate", func(worker *models.Worker) error {
		worker.Status = models.WorkerStatusInactive
		return nil
	})
}

// AllocateShift appends shift to worker id's allocations.
func (s *WorkerService) AllocateShift(ctx context.Context, id string, shift models.ShiftAllocation) (*models.Worker, error) {
	now := s.now()
	return s.mutate(ctx, id, "allocate shift", func(worker *models.Worker) error {
		appendAllocation(worker, shift, now)
		return nil
	})
}

// UpdateShiftStatus sets the status of the allocation on date at shiftTime.
// It returns ErrShiftNotFound when the worker has no such allocation.
func (s *WorkerService) UpdateShiftStatus(ctx context.Context, id, date, shiftTime, status string) (*models.Worker, error) {
	return s.mutate(ctx, id, "update shift status", func(worker *models.Worker) error {
		for i := range worker.ShiftAllocations {
			shift := &worker.ShiftAllocations[i]
			if shift.ShiftDate == date && shift.ShiftTime == shiftTime {
				shift.Status = status
				return nil
			}
		}
		return ErrShiftNotFound
	})
}

// ShiftsForDate returns worker id's allocations on date.
func (s *WorkerService) ShiftsForDate(ctx context.Context, id, date string) ([]models.ShiftAllocation, error) {
	worker, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	shifts := make([]models.ShiftAllocation, 0, len(worker.ShiftAllocations))
	for _, shift := range worker.ShiftAllocations {
		if shift.ShiftDate == date {
			shifts = append(shifts, shift)
		}
	}
	return shifts, nil
}

// WorkersWithShifts returns the workers of organizationID holding at least one allocation on date.
func (s *WorkerService) WorkersWithShifts(ctx context.Context, organizationID, date string) ([]models.Worker, error) {
	workers, err := s.ListByOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	matched := make([]models.Worker, 0, len(workers))
	for _, worker := range workers {
		if hasShiftOn(worker, date) {
			matched = append(matched, worker)
		}
	}
	return matched, nil
}

// RemoveShift drops the allocation on date at shiftTime from worker id.
func (s *WorkerService) RemoveShift(ctx context.Context, id, date, shiftTime string) (*models.Worker, error) {
	return s.mutate(ctx, id, "remove shift", func(worker *models.Worker) error {
		kept := worker.ShiftAllocations[:0]
		for _, shift := range worker.ShiftAllocations {
			if shift.ShiftDate == date && shift.ShiftTime == shiftTime {
				continue
			}
			kept = append(kept, shift)
		}
		worker.ShiftAllocations = kept
		return nil
	})
}

// Available returns the active workers of organizationID.
func (s *WorkerService) Available(ctx context.Context, organizationID string) ([]models.Worker, error) {
	return s.find(ctx, "list available", map[string]any{
		"organization_id": organizationID,
		"status":          models.WorkerStatusActive,
	})
}

// CreateDailySchedule books the listed workers onto their shifts for in.Date. Each booking becomes a
// Schedule row and an allocation on the worker. The organisation is taken from the manager account,
// then from the first booked worker.
func (s *WorkerService) CreateDailySchedule(ctx context.Context, in BatchCreateInput, managerID string) ([]models.Worker, error) {
	if _, err := ParseDate(in.Date); err != nil {
		return nil, err
	}
	in.ManagerID = firstNonEmpty(managerID, in.ManagerID, DefaultCreatorID)
	now := s.now()

	var updated []models.Worker
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		organizationID, err := s.resolveOrganization(tx, in)
		if err != nil {
			return err
		}
		in.OrganizationID = organizationID

		schedules, err := createShiftSchedules(tx, in)
		if err != nil {
			return err
		}

		byWorker := make(map[string]*models.Worker)
		var order []string
		for _, schedule := range schedules {
			worker, ok := byWorker[schedule.WorkerID]
			if !ok {
				loaded, err := s.get(ctx, tx, schedule.WorkerID)
				if err != nil {
					return err
				}
				worker = loaded
				byWorker[schedule.WorkerID] = worker
				order = append(order, schedule.WorkerID)
			}
			appendAllocation(worker, models.ShiftAllocation{
				ShiftDate:   in.Date,
				ShiftTime:   schedule.ShiftStartTime + "-" + schedule.ShiftEndTime,
				AllocatedBy: in.ManagerID,
				Notes:       in.Notes,
			}, now)
		}

		for _, id := range order {
			worker := byWorker[id]
			if err := tx.Save(worker).Error; err != nil {
				return err
			}
			updated = append(updated, *worker)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("worker service: create daily schedule: %w", err)
	}
	return updated, nil
}

// DailySchedule returns the workers booked for organizationID on date, each carrying that day's shifts
// as recorded in the schedule table. Workers no longer on file are rebuilt from their schedules.
func (s *WorkerService) DailySchedule(ctx context.Context, organizationID, date string) ([]models.Worker, error) {
	var schedules []models.Schedule
	if err := s.db.WithContext(ctx).
		Where("organization_id = ? AND schedule_date = ?", organizationID, date).
		Order("shift_start_time ASC").
		Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("worker service: daily schedule: %w", err)
	}
	if len(schedules) == 0 {
		return []models.Worker{}, nil
	}

	ids := make([]string, 0, len(schedules))
	for _, schedule := range schedules {
		ids = append(ids, schedule.WorkerID)
	}
	var workers []models.Worker
	if err := s.db.WithContext(ctx).Where("id IN ?", normaliseIDs(ids)).Find(&workers).Error; err != nil {
		return nil, fmt.Errorf("worker service: daily schedule: %w", err)
	}
	known := make(map[string]models.Worker, len(workers))
	for _, worker := range workers {
		known[worker.ID] = worker
	}

	grouped := make(map[string]*models.Worker)
	var order []string
	for _, schedule := range schedules {
		worker, ok := grouped[schedule.WorkerID]
		if !ok {
			base, found := known[schedule.WorkerID]
			if !found {
				base = models.Worker{
					BaseModel:      models.BaseModel{ID: schedule.WorkerID},
					Name:           schedule.WorkerName,
					OrganizationID: schedule.OrganizationID,
					ManagerID:      schedule.ManagerID,
					PhotoURL:       schedule.WorkerPhotoURL,
					Status:         models.WorkerStatusActive,
				}
			}
			base.ShiftAllocations = nil
			worker = &base
			grouped[schedule.WorkerID] = worker
			order = append(order, schedule.WorkerID)
		}
		worker.ShiftAllocations = append(worker.ShiftAllocations, models.ShiftAllocation{
			ShiftDate:   schedule.ScheduleDate,
			ShiftTime:   schedule.ShiftStartTime + "-" + schedule.ShiftEndTime,
			AllocatedBy: schedule.ManagerID,
			Status:      schedule.Status,
			Notes:       schedule.Notes,
		})
	}

	result := make([]models.Worker, 0, len(order))
	for _, id := range order {
		result = append(result, *grouped[id])
	}
	return result, nil
}

// ClearDailySchedule deletes organizationID's schedules on date, strips the matching allocations
// from its workers and returns the number of schedules removed.
func (s *WorkerService) ClearDailySchedule(ctx context.Context, organizationID, date string) (int64, error) {
	var cleared int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("organization_id = ? AND schedule_date = ?", organizationID, date).Delete(&models.Schedule{})
		if result.Error != nil {
			return result.Error
		}
		cleared = result.RowsAffected

		var workers []models.Worker
		if err := tx.Where("organization_id = ?", organizationID).Find(&workers).Error; err != nil {
			return err
		}
		for i := range workers {
			worker := &workers[i]
			if !hasShiftOn(*worker, date) {
				continue
			}
			kept := make([]models.ShiftAllocation, 0, len(worker.ShiftAllocations))
			for _, shift := range worker.ShiftAllocations {
				if shift.ShiftDate != date {
					kept = append(kept, shift)
				}
			}
			worker.ShiftAllocations = kept
			if err := tx.Save(worker).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("worker service: clear daily schedule: %w", err)
	}
	return cleared, nil
}

// UploadPhoto records photoURL as worker id's photo.
func (s *WorkerService) UploadPhoto(ctx context.Context, id, photoURL string) (*models.Worker, error) {
	return s.mutate(ctx, id, "upload photo", func(worker *models.Worker) error {
		worker.PhotoURL = strings.TrimSpace(photoURL)
		return nil
	})
}

// BatchUploadPhotos records a photo for each worker id in photos. Unknown workers are skipped.
func (s *WorkerService) BatchUploadPhotos(ctx context.Context, photos map[string]string) ([]models.Worker, error) {
	var updated []models.Worker
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, photoURL := range photos {
			worker, err := s.get(ctx, tx, id)
			if errors.Is(err, ErrWorkerNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			worker.PhotoURL = strings.TrimSpace(photoURL)
			if err := tx.Save(worker).Error; err != nil {
				return err
			}
			updated = append(updated, *worker)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("worker service: batch upload photos: %w", err)
	}
	return updated, nil
}

// DeletePhoto clears worker id's photo.
func (s *WorkerService) DeletePhoto(ctx context.Context, id string) (*models.Worker, error) {
	return s.mutate(ctx, id, "delete photo", func(worker *models.Worker) error {
		worker.PhotoURL = ""
		return nil
	})
}

// WithoutPhotos returns the workers of organizationID that have no photo.
func (s *WorkerService) WithoutPhotos(ctx context.Context, organizationID string) ([]models.Worker, error) {
	var workers []models.Worker
	if err := s.db.WithContext(ctx).
		Where("organization_id = ? AND (photo_url IS NULL OR photo_url = '')", organizationID).
		Order("created_at DESC").
		Find(&workers).Error; err != nil {
		return nil, fmt.Errorf("worker service: list without photos: %w", err)
	}
	return workers, nil
}

func (s *WorkerService) resolveOrganization(tx *gorm.DB, in BatchCreateInput) (string, error) {
	if organizationID := strings.TrimSpace(in.OrganizationID); organizationID != "" {
		return organizationID, nil
	}

	var manager models.User
	err := tx.First(&manager, "id = ?", in.ManagerID).Error
	switch {
	case err == nil && manager.OrganizationID != "":
		return manager.OrganizationID, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return "", err
	}

	ids := normaliseIDs(append(append(append(append([]string{}, in.MorningWorkerIDs...),
		in.AfternoonWorkerIDs...), in.EveningWorkerIDs...), in.WorkerIDs...))
	if len(ids) > 0 {
		var workers []models.Worker
		if err := tx.Where("id IN ?", ids).Find(&workers).Error; err != nil {
			return "", err
		}
		for _, worker := range workers {
			if worker.OrganizationID != "" {
				return worker.OrganizationID, nil
			}
		}
	}
	return fallbackOrganizationID, nil
}

func (s *WorkerService) get(ctx context.Context, db *gorm.DB, id string) (*models.Worker, error) {
	var worker models.Worker
	if err := db.WithContext(ctx).First(&worker, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWorkerNotFound
		}
		return nil, fmt.Errorf("worker service: get: %w", err)
	}
	return &worker, nil
}

func (s *WorkerService) mutate(ctx context.Context, id, op string, apply func(*models.Worker) error) (*models.Worker, error) {
	worker, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(worker); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(worker).Error; err != nil {
		return nil, fmt.Errorf("worker service: %s: %w", op, err)
	}
	return worker, nil
}

func (s *WorkerService) find(ctx context.Context, op string, where map[string]any) ([]models.Worker, error) {
	query := s.db.WithContext(ctx)
	if len(where) > 0 {
		query = query.Where(where)
	}
	var workers []models.Worker
	if err := query.Order("created_at DESC").Find(&workers).Error; err != nil {
		return nil, fmt.Errorf("worker service: %s: %w", op, err)
	}
	return workers, nil
}

func appendAllocation(worker *models.Worker, shift models.ShiftAllocation, now time.Time) {
	if shift.AllocatedAt == nil {
		shift.AllocatedAt = &now
	}
	if shift.Status == "" {
		shift.Status = models.ScheduleStatusScheduled
	}
	worker.ShiftAllocations = append(worker.ShiftAllocations, shift)
}

func hasShiftOn(worker models.Worker, date string) bool {
	for _, shift := range worker.ShiftAllocations {
		if shift.ShiftDate == date {
			return true
		}
	}
	return false
}

// nextWorkerID returns the first free W### identifier, starting after the current worker count.
func nextWorkerID(db *gorm.DB) (string, error) {
	var count int64
	if err := db.Model(&models.Worker{}).Count(&count).Error; err != nil {
		return "", fmt.Errorf("worker service: count workers: %w", err)
	}
	for n := count + 1; ; n++ {
		candidate := fmt.Sprintf("W%03d", n)
		var taken int64
		if err := db.Model(&models.Worker{}).Where("worker_id = ?", candidate).Count(&taken).Error; err != nil {
			return "", fmt.Errorf("worker service: check worker id: %w", err)
		}
		if taken == 0 {
			return candidate, nil
		}
	}
}
