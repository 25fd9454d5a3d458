package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/models"
)

// PatientService persists patients and resolves which of them a user may see.
type PatientService struct {
	db *gorm.DB
}

// NewPatientService constructs a PatientService.
func NewPatientService(db *gorm.DB) (*PatientService, error) {
	if db == nil {
		return nil, errors.New("patient service: db is required")
	}
	return &PatientService{db: db}, nil
}

// Create stores patient.
func (s *PatientService) Create(ctx context.Context, patient *models.Patient) (*models.Patient, error) {
	if patient == nil {
		return nil, errors.New("patient service: patient is required")
	}
	patient.FirstName = strings.TrimSpace(patient.FirstName)
	patient.LastName = strings.TrimSpace(patient.LastName)
	if patient.DateOfBirth != "" {
		if _, err := ParseDate(patient.DateOfBirth); err != nil {
			return nil, err
		}
	}
	if err := s.db.WithContext(ctx).Create(patient).Error; err != nil {
		return nil, fmt.Errorf("patient service: create: %w", err)
	}
	return patient, nil
}

// Get loads patient id.
func (s *PatientService) Get(ctx context.Context, id string) (*models.Patient, error) {
	var patient models.Patient
	if err := s.db.WithContext(ctx).First(&patient, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("patient service: get: %w", err)
	}
	return &patient, nil
}

// ListByFamilyMember returns the patients linked to family member userID.
func (s *PatientService) ListByFamilyMember(ctx context.Context, userID string) ([]models.Patient, error) {
	return s.find(ctx, "list by family member", "family_member_id = ?", strings.TrimSpace(userID))
}

// ListByPOA returns the patients whose power of attorney is userID.
func (s *PatientService) ListByPOA(ctx context.Context, userID string) ([]models.Patient, error) {
	return s.find(ctx, "list by poa", "poa_id = ?", strings.TrimSpace(userID))
}

// Authorized returns the patients userID may access. Family members and POAs see the
// patients they are linked to. Managers and workers see their own patient plus every
// patient whose invite code they redeemed. An empty userType falls back to the user's role.
func (s *PatientService) Authorized(ctx context.Context, userID, userType string) ([]models.Patient, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return []models.Patient{}, nil
	}

	var user models.User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("patient service: authorized: %w", err)
	}
	found := err == nil

	role := strings.ToUpper(strings.TrimSpace(userType))
	if role == "" {
		role = strings.ToUpper(user.Role)
	}

	switch role {
	case models.RoleFM:
		return s.ListByFamilyMember(ctx, userID)
	case models.RolePOA:
		return s.ListByPOA(ctx, userID)
	}

	var ids []string
	if found {
		ids = append(ids, user.PatientID)
	}
	var invited []string
	if err := s.db.WithContext(ctx).Model(&models.InviteCode{}).
		Where("used_by = ?", userID).
		Pluck("patient_id", &invited).Error; err != nil {
		return nil, fmt.Errorf("patient service: authorized: %w", err)
	}
	ids = normaliseIDs(append(ids, invited...))
	if len(ids) == 0 {
		return []models.Patient{}, nil
	}
	return s.find(ctx, "authorized", "id IN ?", ids)
}

// Update merges the non-empty fields of changes into patient id.
func (s *PatientService) Update(ctx context.Context, id string, changes *models.Patient) (*models.Patient, error) {
	patient, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changes != nil {
		if changes.DateOfBirth != "" {
			if _, err := ParseDate(changes.DateOfBirth); err != nil {
				return nil, err
			}
		}
		mergeString(&patient.FirstName, changes.FirstName)
		mergeString(&patient.LastName, changes.LastName)
		mergeString(&patient.DateOfBirth, changes.DateOfBirth)
		mergeString(&patient.CurrentStatus, changes.CurrentStatus)
		mergeString(&patient.Notes, changes.Notes)
		mergeString(&patient.FamilyMemberID, changes.FamilyMemberID)
		mergeString(&patient.POAID, changes.POAID)
		mergeString(&patient.MedicalRecordNumber, changes.MedicalRecordNumber)
	}
	if err := s.db.WithContext(ctx).Save(patient).Error; err != nil {
		return nil, fmt.Errorf("patient service: update: %w", err)
	}
	return patient, nil
}

// Delete removes patient id and reports whether it existed.
func (s *PatientService) Delete(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&models.Patient{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return false, fmt.Errorf("patient service: delete: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *PatientService) find(ctx context.Context, op, where string, args ...any) ([]models.Patient, error) {
	var patients []models.Patient
	if err := s.db.WithContext(ctx).Where(where, args...).Order("created_at DESC").Find(&patients).Error; err != nil {
		return nil, fmt.Errorf("patient service: %s: %w", op, err)
	}
	return patients, nil
}
