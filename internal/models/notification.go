package models

import "time"

// Notification types raised by domain events.
const (
	NotificationTaskAssigned    = "TASK_ASSIGNED"
	NotificationTaskCompleted   = "TASK_COMPLETED"
	NotificationScheduleUpdated = "SCHEDULE_UPDATED"
	NotificationMessageReceived = "MESSAGE_RECEIVED"
	NotificationBroadcast       = "BROADCAST"
)

// Notification priorities. Urgent notifications are counted separately.
const (
	NotificationPriorityLow    = "low"
	NotificationPriorityNormal = "normal"
	NotificationPriorityHigh   = "high"
	NotificationPriorityUrgent = "urgent"
)

// Notification categories.
const (
	NotificationCategoryTask     = "task"
	NotificationCategorySchedule = "schedule"
	NotificationCategoryMessage  = "message"
	NotificationCategorySystem   = "system"
)

// Notification is an in-app alert addressed to one recipient.
type Notification struct {
	BaseModel

	RecipientID       string     `gorm:"index;not null" json:"recipientId"`
	RecipientRole     string     `gorm:"size:16" json:"recipientRole,omitempty"`
	SenderID          string     `json:"senderId,omitempty"`
	SenderName        string     `json:"senderName,omitempty"`
	Type              string     `gorm:"size:32;index" json:"type"`
	Title             string     `gorm:"not null" json:"title"`
	Message           string     `gorm:"type:text" json:"message"`
	IsRead            bool       `gorm:"default:false;index" json:"isRead"`
	Priority          string     `gorm:"size:16;default:normal" json:"priority"`
	RelatedEntityType string     `gorm:"size:32" json:"relatedEntityType,omitempty"`
	RelatedEntityID   string     `json:"relatedEntityId,omitempty"`
	ActionURL         string     `json:"actionUrl,omitempty"`
	OrganizationID    string     `gorm:"index" json:"organizationId,omitempty"`
	Category          string     `gorm:"size:32;index" json:"category,omitempty"`
	ReadAt            *time.Time `json:"readAt,omitempty"`
	ExpiresAt         *time.Time `gorm:"index" json:"expiresAt,omitempty"`
}

// IsExpired reports whether the notification has an expiry at or before now.
func (n *Notification) IsExpired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}
