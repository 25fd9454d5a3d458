package models

import "time"

// Task request kinds.
const (
	TaskRequestNew        = "new"
	TaskRequestRecurring  = "recurring"
	TaskRequestModify     = "modify"
	TaskRequestRemove     = "remove"
	TaskRequestReschedule = "reschedule"
)

// Task request statuses.
const (
	TaskRequestPending  = "Pending"
	TaskRequestApproved = "Approved"
	TaskRequestRejected = "Rejected"
)

// TaskRequest is a change to the task list proposed by a family member or worker and
// applied only once a manager approves it.
type TaskRequest struct {
	BaseModel

	RequesterID     string     `gorm:"index" json:"requesterId"`
	Requester       string     `json:"requester"`
	TaskTitle       string     `json:"taskTitle"`
	RequestType     string     `gorm:"size:16;default:new" json:"requestType"`
	Description     string     `gorm:"type:text" json:"description"`
	Priority        string     `gorm:"size:16;default:normal" json:"priority"`
	Reason          string     `gorm:"type:text" json:"reason,omitempty"`
	Status          string     `gorm:"size:16;index" json:"status"`
	OrganizationID  string     `gorm:"index" json:"organizationId"`
	PatientID       string     `gorm:"index" json:"patientId"`
	Frequency       string     `gorm:"size:16" json:"frequency,omitempty"`
	FrequencyNumber int        `json:"frequencyNumber,omitempty"`
	TimeOfDay       string     `gorm:"size:5" json:"timeOfDay,omitempty"`
	DayOfWeek       string     `gorm:"size:16" json:"dayOfWeek,omitempty"`
	DayOfMonth      int        `json:"dayOfMonth,omitempty"`
	Month           int        `json:"month,omitempty"`
	StartDate       string     `gorm:"size:10" json:"startDate,omitempty"`
	EndDate         string     `gorm:"size:10" json:"endDate,omitempty"`
	OriginalTaskID  string     `json:"originalTaskId,omitempty"`
	NewDueDate      string     `gorm:"size:10" json:"newDueDate,omitempty"`
	NewAssignedTo   string     `json:"newAssignedTo,omitempty"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovalReason  string     `json:"approvalReason,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	SubmittedDate   string     `gorm:"size:10" json:"submittedDate"`
	ProcessedAt     *time.Time `json:"processedAt,omitempty"`
}
