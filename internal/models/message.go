package models

import (
	"time"

	"gorm.io/datatypes"
)

// Message statuses.
const (
	MessageStatusSent     = "sent"
	MessageStatusRead     = "read"
	MessageStatusArchived = "archived"
	MessageStatusDeleted  = "deleted"
)

// MessageCategoryGeneral is applied to messages sent without a category.
const MessageCategoryGeneral = "general"

// Attachment describes a file linked from a message, stored inline as JSON.
type Attachment struct {
	FileName string `json:"fileName"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// Message is a direct message between two users of an organisation.
type Message struct {
	BaseModel

	Subject           string                          `gorm:"not null" json:"subject"`
	Content           string                          `gorm:"type:text" json:"content"`
	FromUserID        string                          `gorm:"index" json:"fromUserId"`
	FromUserName      string                          `json:"fromUserName"`
	ToUserID          string                          `gorm:"index" json:"toUserId"`
	ToUserName        string                          `json:"toUserName"`
	Status            string                          `gorm:"size:16;index" json:"status"`
	OrganizationID    string                          `gorm:"index" json:"organizationId"`
	ReadAt            *time.Time                      `json:"readAt,omitempty"`
	IsReply           bool                            `gorm:"default:false" json:"isReply"`
	OriginalMessageID string                          `gorm:"index" json:"originalMessageId,omitempty"`
	Category          string                          `gorm:"size:32;default:general" json:"category"`
	Attachments       datatypes.JSONSlice[Attachment] `json:"attachments"`
	ReplyCount        int                             `gorm:"default:0" json:"replyCount"`
}
