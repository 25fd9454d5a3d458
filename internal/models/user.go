package models

import "time"

// User roles and types.
const (
	RoleManager = "MANAGER"
	RoleWorker  = "WORKER"
	RoleFM      = "FM"
	RolePOA     = "POA"
)

// User is an account able to sign in to the care platform.
type User struct {
	BaseModel

	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Uname                string     `gorm:"uniqueIndex;size:128" json:"uname"`
	Email                string     `gorm:"uniqueIndex;size:255" json:"email"`
	Password             string     `gorm:"not null" json:"-"`
	Role                 string     `gorm:"size:32" json:"role"`
	UserType             string     `gorm:"size:32" json:"userType"`
	Status               string     `gorm:"size:32" json:"status,omitempty"`
	OrganizationID       string     `gorm:"index" json:"organizationId"`
	OrganizationName     string     `json:"organizationName"`
	PatientID            string     `gorm:"index" json:"patientId,omitempty"`
	ManagerID            string     `json:"managerId,omitempty"`
	HasUsedInviteCode    bool       `gorm:"default:false" json:"hasUsedInviteCode"`
	PasswordResetToken   string     `gorm:"index" json:"-"`
	PasswordResetExpires *time.Time `json:"-"`
}

// FullName joins the first and last name.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}
