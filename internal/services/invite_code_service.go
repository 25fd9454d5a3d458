package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/pkg/metrics"
)

const (
	inviteCodeAlphabet      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	defaultInviteCodeLength = 8
	defaultInviteExpiry     = 7 * 24 * time.Hour
	maxInviteCodeAttempts   = 10
)

// GenerateInviteInput carries the fields required to issue an invite code.
type GenerateInviteInput struct {
	CreatedBy      string
	CreatedByType  string
	TargetType     string
	PatientID      string
	OrganizationID string
}

// InviteCodeOption customises InviteCodeService behaviour.
type InviteCodeOption func(*InviteCodeService)

// WithInviteCodeExpiry overrides the invite code lifetime.
func WithInviteCodeExpiry(d time.Duration) InviteCodeOption {
	return func(s *InviteCodeService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithInviteCodeLength adjusts the generated code length.
func WithInviteCodeLength(length int) InviteCodeOption {
	return func(s *InviteCodeService) {
		if length > 0 {
			s.length = length
		}
	}
}

// WithInviteCodeClock injects a custom clock primarily for testing.
func WithInviteCodeClock(clock func() time.Time) InviteCodeOption {
	return func(s *InviteCodeService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithInviteCodeGenerator replaces the random code generator.
func WithInviteCodeGenerator(gen func(length int) (string, error)) InviteCodeOption {
	return func(s *InviteCodeService) {
		if gen != nil {
			s.generate = gen
		}
	}
}

// InviteCodeService issues and redeems invite codes that attach managers and workers to patients.
type InviteCodeService struct {
	db       *gorm.DB
	expiry   time.Duration
	length   int
	now      func() time.Time
	generate func(length int) (string, error)
}

// NewInviteCodeService constructs an InviteCodeService.
func NewInviteCodeService(db *gorm.DB, opts ...InviteCodeOption) (*InviteCodeService, error) {
	if db == nil {
		return nil, errors.New("invite code service: db is required")
	}

	svc := &InviteCodeService{
		db:     db,
		expiry: defaultInviteExpiry,
		length: defaultInviteCodeLength,
		now:    time.Now,
		generate: func(length int) (string, error) {
			return gonanoid.Generate(inviteCodeAlphabet, length)
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Generate issues a new unique invite code and returns it.
func (s *InviteCodeService) Generate(ctx context.Context, in GenerateInviteInput) (string, error) {
	now := s.now()
	for attempt := 0; attempt < maxInviteCodeAttempts; attempt++ {
		code, err := s.generate(s.length)
		if err != nil {
			return "", fmt.Errorf("invite code service: generate code: %w", err)
		}

		invite := models.InviteCode{
			Code:           code,
			CreatedBy:      strings.TrimSpace(in.CreatedBy),
			CreatedByType:  in.CreatedByType,
			TargetType:     in.TargetType,
			PatientID:      strings.TrimSpace(in.PatientID),
			OrganizationID: strings.TrimSpace(in.OrganizationID),
			ExpiresAt:      now.Add(s.expiry),
		}
		err = s.db.WithContext(ctx).Create(&invite).Error
		if err == nil {
			metrics.InviteCodes.WithLabelValues("generated").Inc()
			return code, nil
		}
		if !isUniqueConstraintError(err) {
			return "", fmt.Errorf("invite code service: create: %w", err)
		}
	}
	return "", errors.New("invite code service: could not allocate a unique code")
}

// Validate reports whether code exists and has not expired.
func (s *InviteCodeService) Validate(ctx context.Context, code string) (bool, error) {
	invite, err := s.findByCode(ctx, s.db, code)
	if errors.Is(err, ErrInviteCodeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !invite.IsExpired(s.now()), nil
}

// Use redeems code on behalf of usedBy and binds the user according to the code's target type.
// Codes remain redeemable until they expire; the last redemption is recorded on the code.
func (s *InviteCodeService) Use(ctx context.Context, code, usedBy string) (bool, error) {
	usedBy = strings.TrimSpace(usedBy)
	now := s.now()
	used := false

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invite, err := s.findByCode(ctx, tx, code)
		if errors.Is(err, ErrInviteCodeNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if invite.IsExpired(now) {
			return nil
		}

		var user models.User
		if err := tx.First(&user, "id = ?", usedBy).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("invite code service: load user: %w", err)
		}
		if user.Role != "" && !strings.EqualFold(user.Role, invite.TargetType) {
			return nil
		}

		updates := map[string]any{"has_used_invite_code": true}
		switch invite.TargetType {
		case models.TargetTypeManager:
			if invite.PatientID != "" {
				updates["patient_id"] = invite.PatientID
			}
			if invite.OrganizationID != "" {
				updates["organization_id"] = invite.OrganizationID
			}
		case models.TargetTypeWorker:
			updates["manager_id"] = invite.CreatedBy
			var manager models.User
			if err := tx.First(&manager, "id = ?", invite.CreatedBy).Error; err == nil && manager.PatientID != "" {
				updates["patient_id"] = manager.PatientID
			}
			if err := s.bindWorker(tx, &user, invite); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("invite code service: update user: %w", err)
		}

		if err := tx.Model(&models.InviteCode{}).Where("id = ?", invite.ID).
			Updates(map[string]any{"used_by": usedBy, "used_at": now}).Error; err != nil {
			return fmt.Errorf("invite code service: record usage: %w", err)
		}
		used = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if used {
		metrics.InviteCodes.WithLabelValues("used").Inc()
	} else {
		metrics.InviteCodes.WithLabelValues("rejected").Inc()
	}
	return used, nil
}

// ListByCreator returns every code issued by creatorID, newest first.
func (s *InviteCodeService) ListByCreator(ctx context.Context, creatorID string) ([]models.InviteCode, error) {
	var codes []models.InviteCode
	if err := s.db.WithContext(ctx).
		Where("created_by = ?", strings.TrimSpace(creatorID)).
		Order("created_at DESC").
		Find(&codes).Error; err != nil {
		return nil, fmt.Errorf("invite code service: list by creator: %w", err)
	}
	return codes, nil
}

// Revoke deletes the code identified by its id or code value.
func (s *InviteCodeService) Revoke(ctx context.Context, codeID string) (bool, error) {
	codeID = strings.TrimSpace(codeID)
	result := s.db.WithContext(ctx).
		Where("id = ? OR code = ?", codeID, strings.ToUpper(codeID)).
		Delete(&models.InviteCode{})
	if result.Error != nil {
		return false, fmt.Errorf("invite code service: revoke: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	metrics.InviteCodes.WithLabelValues("revoked").Inc()
	return true, nil
}

// ActiveForPatient returns unused and unexpired codes for patientID.
func (s *InviteCodeService) ActiveForPatient(ctx context.Context, patientID string) ([]models.InviteCode, error) {
	var codes []models.InviteCode
	if err := s.db.WithContext(ctx).
		Where("patient_id = ? AND is_used = ? AND expires_at > ?", strings.TrimSpace(patientID), false, s.now()).
		Order("created_at DESC").
		Find(&codes).Error; err != nil {
		return nil, fmt.Errorf("invite code service: list active: %w", err)
	}
	return codes, nil
}

// CleanupExpired deletes unused codes past their expiry and returns how many were removed.
func (s *InviteCodeService) CleanupExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("is_used = ? AND expires_at <= ?", false, s.now()).
		Delete(&models.InviteCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("invite code service: cleanup expired: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		metrics.InviteCodes.WithLabelValues("expired").Add(float64(result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *InviteCodeService) findByCode(ctx context.Context, db *gorm.DB, code string) (*models.InviteCode, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrInviteCodeNotFound
	}
	var invite models.InviteCode
	if err := db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteCodeNotFound
		}
		return nil, fmt.Errorf("invite code service: find code: %w", err)
	}
	return &invite, nil
}

// bindWorker attaches the worker record for user to the manager who issued invite, creating it when absent.
func (s *InviteCodeService) bindWorker(tx *gorm.DB, user *models.User, invite *models.InviteCode) error {
	var worker models.Worker
	err := tx.First(&worker, "id = ?", user.ID).Error
	switch {
	case err == nil:
		if err := tx.Model(&worker).Update("manager_id", invite.CreatedBy).Error; err != nil {
			return fmt.Errorf("invite code service: bind worker: %w", err)
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("invite code service: load worker: %w", err)
	}

	workerID, err := nextWorkerID(tx)
	if err != nil {
		return err
	}
	now := s.now()
	worker = models.Worker{
		BaseModel:      models.BaseModel{ID: user.ID},
		Name:           strings.TrimSpace(user.FullName()),
		Email:          user.Email,
		WorkerID:       workerID,
		Status:         models.WorkerStatusActive,
		OrganizationID: firstNonEmpty(invite.OrganizationID, user.OrganizationID),
		ManagerID:      invite.CreatedBy,
		ActivatedAt:    &now,
	}
	if err := tx.Create(&worker).Error; err != nil {
		return fmt.Errorf("invite code service: create worker: %w", err)
	}
	return nil
}
