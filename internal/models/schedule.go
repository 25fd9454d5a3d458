package models

import "time"

// Schedule statuses.
const (
	ScheduleStatusScheduled = "scheduled"
	ScheduleStatusConfirmed = "confirmed"
	ScheduleStatusCompleted = "completed"
	ScheduleStatusCancelled = "cancelled"
)

// Shift types.
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftEvening   = "evening"
	ShiftFullDay   = "full-day"
)

// Schedule assigns a worker to a shift on a given date.
type Schedule struct {
	BaseModel

	WorkerID              string     `gorm:"index" json:"workerId"`
	WorkerName            string     `json:"workerName"`
	ScheduleDate          string     `gorm:"index;size:10" json:"scheduleDate"`
	ShiftType             string     `gorm:"size:32" json:"shiftType"`
	ShiftStartTime        string     `gorm:"size:5" json:"shiftStartTime"`
	ShiftEndTime          string     `gorm:"size:5" json:"shiftEndTime"`
	OrganizationID        string     `gorm:"index" json:"organizationId"`
	ManagerID             string     `gorm:"index" json:"managerId"`
	Status                string     `gorm:"size:16;default:scheduled" json:"status"`
	WorkerPhotoURL        string     `json:"workerPhotoUrl,omitempty"`
	WorkerPhotoUploadedAt *time.Time `json:"workerPhotoUploadedAt,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
}

// ShiftHours returns the start and end times of a standard shift type.
func ShiftHours(shiftType string) (string, string) {
	switch shiftType {
	case ShiftAfternoon:
		return "12:00", "20:00"
	case ShiftEvening:
		return "16:00", "24:00"
	default:
		return "08:00", "16:00"
	}
}
