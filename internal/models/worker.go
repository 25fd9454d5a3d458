package models

import (
	"time"

	"gorm.io/datatypes"
)

// Worker statuses.
const (
	WorkerStatusActive   = "active"
	WorkerStatusInactive = "inactive"
	WorkerStatusPending  = "pending"
	WorkerStatusBlocked  = "blocked"
)

// ShiftAllocation is one shift booked on a worker, stored inline as JSON.
type ShiftAllocation struct {
	ShiftDate   string     `json:"shiftDate"`
	ShiftTime   string     `json:"shiftTime"`
	PatientID   string     `json:"patientId,omitempty"`
	AllocatedBy string     `json:"allocatedBy,omitempty"`
	AllocatedAt *time.Time `json:"allocatedAt,omitempty"`
	Status      string     `json:"status,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

// Worker is a carer managed by an organisation.
type Worker struct {
	BaseModel

	Name             string                               `gorm:"not null" json:"name"`
	Email            string                               `gorm:"index" json:"email"`
	Phone            string                               `json:"phone,omitempty"`
	WorkerID         string                               `gorm:"index;size:16" json:"workerId"`
	Status           string                               `gorm:"size:16;default:pending" json:"status"`
	OrganizationID   string                               `gorm:"index" json:"organizationId"`
	ManagerID        string                               `gorm:"index" json:"managerId"`
	ActivatedAt      *time.Time                           `json:"activatedAt,omitempty"`
	LastLoginAt      *time.Time                           `json:"lastLoginAt,omitempty"`
	Notes            string                               `json:"notes,omitempty"`
	Specializations  datatypes.JSONSlice[string]          `json:"specializations"`
	PhotoURL         string                               `json:"photoUrl,omitempty"`
	ShiftAllocations datatypes.JSONSlice[ShiftAllocation] `json:"shiftAllocations"`
}
