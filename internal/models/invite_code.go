package models

import "time"

// Invite creator and target types.
const (
	CreatorTypeFM      = "FM"
	CreatorTypePOA     = "POA"
	CreatorTypeManager = "MANAGER"

	TargetTypeManager = "MANAGER"
	TargetTypeWorker  = "WORKER"
)

// InviteCode grants a manager or worker access to a patient's care team.
type InviteCode struct {
	BaseModel

	Code           string     `gorm:"uniqueIndex;size:32;not null" json:"code"`
	CreatedBy      string     `gorm:"index;not null" json:"createdBy"`
	CreatedByType  string     `gorm:"size:16;not null" json:"createdByType"`
	TargetType     string     `gorm:"size:16;not null" json:"targetType"`
	PatientID      string     `gorm:"index" json:"patientId"`
	OrganizationID string     `gorm:"index" json:"organizationId"`
	ExpiresAt      time.Time  `gorm:"index" json:"expiresAt"`
	IsUsed         bool       `gorm:"default:false" json:"isUsed"`
	UsedBy         string     `json:"usedBy,omitempty"`
	UsedAt         *time.Time `json:"usedAt,omitempty"`
}

// IsExpired reports whether the code is past its expiry at now.
func (c *InviteCode) IsExpired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
