package models

// Recurrence frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// RecurringTask is a template that materialises tasks on matching days.
type RecurringTask struct {
	BaseModel

	Title           string `gorm:"not null" json:"title"`
	Description     string `gorm:"type:text" json:"description"`
	AssignedTo      string `json:"assignedTo"`
	AssignedToID    string `gorm:"index" json:"assignedToId"`
	Priority        string `gorm:"size:16;default:normal" json:"priority"`
	Frequency       string `gorm:"size:16" json:"frequency"`
	FrequencyNumber int    `gorm:"default:1" json:"frequencyNumber"`
	TimeOfDay       string `gorm:"size:5" json:"timeOfDay,omitempty"`
	DayOfWeek       string `gorm:"size:16" json:"dayOfWeek,omitempty"`
	DayOfMonth      int    `json:"dayOfMonth,omitempty"`
	Month           int    `json:"month,omitempty"`
	StartDate       string `gorm:"size:10" json:"startDate,omitempty"`
	EndDate         string `gorm:"size:10" json:"endDate,omitempty"`
	PatientID       string `gorm:"index" json:"patientId"`
	OrganizationID  string `gorm:"index" json:"organizationId"`
	CreatedBy       string `json:"createdBy"`
	IsActive        *bool  `gorm:"default:true" json:"isActive"`
}

// Active reports whether the template currently generates tasks.
func (r *RecurringTask) Active() bool {
	return r.IsActive == nil || *r.IsActive
}
