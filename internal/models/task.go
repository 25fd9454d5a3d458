package models

import "time"

// Task statuses.
const (
	TaskStatusInProgress      = "In Progress"
	TaskStatusWorkerCompleted = "Worker Completed"
	TaskStatusCompleted       = "Completed"
	TaskStatusRejected        = "Rejected"
)

// Task priorities.
const (
	PriorityNormal     = "normal"
	PriorityUrgent     = "urgent"
	PriorityVeryUrgent = "very-urgent"
)

// Task is a unit of care work assigned to a worker.
type Task struct {
	BaseModel

	Title               string     `gorm:"not null" json:"title"`
	Description         string     `gorm:"type:text" json:"description"`
	AssignedTo          string     `gorm:"index" json:"assignedTo"`
	AssignedToID        string     `gorm:"index" json:"assignedToId"`
	Priority            string     `gorm:"size:16;default:normal" json:"priority"`
	Status              string     `gorm:"size:32;index" json:"status"`
	DueDate             string     `gorm:"index;size:10" json:"dueDate"`
	CreatedBy           string     `json:"createdBy"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	ApprovalReason      string     `json:"approvalReason,omitempty"`
	RejectionReason     string     `json:"rejectionReason,omitempty"`
	PatientID           string     `gorm:"index" json:"patientId"`
	OrganizationID      string     `gorm:"index" json:"organizationId"`
	IsRecurring         bool       `gorm:"default:false" json:"isRecurring"`
	RecurringTemplateID string     `gorm:"index" json:"recurringTemplateId,omitempty"`
}
