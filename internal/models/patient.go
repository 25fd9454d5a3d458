package models

// Patient is the person receiving care. Family members and POAs are linked by user id.
type Patient struct {
	BaseModel

	FirstName           string `gorm:"not null" json:"firstName"`
	LastName            string `json:"lastName"`
	DateOfBirth         string `gorm:"size:10" json:"dateOfBirth,omitempty"`
	CurrentStatus       string `gorm:"size:64" json:"currentStatus,omitempty"`
	Notes               string `gorm:"type:text" json:"notes,omitempty"`
	FamilyMemberID      string `gorm:"index" json:"familyMemberId,omitempty"`
	POAID               string `gorm:"column:poa_id;index" json:"poaId,omitempty"`
	MedicalRecordNumber string `gorm:"index" json:"medicalRecordNumber,omitempty"`
}
