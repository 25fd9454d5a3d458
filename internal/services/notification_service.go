package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/notifications"
)

// unreadOrder ranks unread notifications by priority, then newest first.
const unreadOrder = "CASE priority WHEN 'urgent' THEN 3 WHEN 'high' THEN 2 WHEN 'normal' THEN 1 ELSE 0 END DESC, created_at DESC"

// NotificationPublisher receives notification events for live delivery.
type NotificationPublisher interface {
	Broadcast(userID string, event notifications.Event)
}

// NotificationOption customises NotificationService behaviour.
type NotificationOption func(*NotificationService)

// WithNotificationClock injects a custom clock primarily for testing.
func WithNotificationClock(clock func() time.Time) NotificationOption {
	return func(s *NotificationService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithNotificationPublisher pushes every change to publisher as it is stored.
func WithNotificationPublisher(publisher NotificationPublisher) NotificationOption {
	return func(s *NotificationService) {
		s.publisher = publisher
	}
}

// NotificationService persists in-app notifications and publishes their lifecycle events.
type NotificationService struct {
	db        *gorm.DB
	now       func() time.Time
	publisher NotificationPublisher
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB, opts ...NotificationOption) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	svc := &NotificationService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// TaskAssignedInput describes a task handed to a worker.
type TaskAssignedInput struct {
	WorkerID   string
	TaskID     string
	TaskTitle  string
	AssignedBy string
}

// TaskCompletedInput describes a task awaiting a manager's approval.
type TaskCompletedInput struct {
	ManagerID   string
	TaskID      string
	TaskTitle   string
	CompletedBy string
}

// ScheduleUpdatedInput describes a changed shift.
type ScheduleUpdatedInput struct {
	WorkerID     string
	ScheduleDate string
	ShiftType    string
	UpdatedBy    string
}

// MessageReceivedInput describes a newly delivered direct message.
type MessageReceivedInput struct {
	RecipientID    string
	MessageID      string
	SenderName     string
	MessageSubject string
}

// Create stores notification unread, defaulting its priority, and publishes it to the recipient.
func (s *NotificationService) Create(ctx context.Context, notification *models.Notification) (*models.Notification, error) {
	if notification == nil {
		return nil, errors.New("notification service: notification is required")
	}
	notification.RecipientID = strings.TrimSpace(notification.RecipientID)
	if notification.RecipientID == "" {
		return nil, errors.New("notification service: recipient is required")
	}
	if strings.TrimSpace(notification.Priority) == "" {
		notification.Priority = models.NotificationPriorityNormal
	}
	notification.IsRead = false
	notification.ReadAt = nil
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create: %w", err)
	}
	s.publish(notification.RecipientID, notifications.Event{
		Event:          notifications.EventCreated,
		Notification:   notification,
		NotificationID: notification.ID,
	})
	return notification, nil
}

// List returns every notification, newest first.
func (s *NotificationService) List(ctx context.Context) ([]models.Notification, error) {
	return s.find(ctx, "list", nil)
}

// Get loads notification id.
func (s *NotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	if err := s.db.WithContext(ctx).First(&notification, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("notification service: get: %w", err)
	}
	return &notification, nil
}

// ListForRecipient returns recipientID's notifications, newest first.
func (s *NotificationService) ListForRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	return s.find(ctx, "list for recipient", map[string]any{"recipient_id": recipientID})
}

// ListUnread returns recipientID's unread notifications, most urgent first.
func (s *NotificationService) ListUnread(ctx context.Context, recipientID string) ([]models.Notification, error) {
	var items []models.Notification
	err := s.db.WithContext(ctx).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Order(unreadOrder).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("notification service: list unread: %w", err)
	}
	return items, nil
}

// ListByType returns recipientID's notifications of type kind.
func (s *NotificationService) ListByType(ctx context.Context, recipientID, kind string) ([]models.Notification, error) {
	return s.find(ctx, "list by type", map[string]any{"recipient_id": recipientID, "type": kind})
}

// ListByCategory returns recipientID's notifications in category.
func (s *NotificationService) ListByCategory(ctx context.Context, recipientID, category string) ([]models.Notification, error) {
	return s.find(ctx, "list by category", map[string]any{"recipient_id": recipientID, "category": category})
}

// UnreadCount counts recipientID's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.count(ctx, "unread count", map[string]any{"recipient_id": recipientID, "is_read": false})
}

// UrgentCount counts recipientID's urgent notifications, read or not.
func (s *NotificationService) UrgentCount(ctx context.Context, recipientID string) (int64, error) {
	return s.count(ctx, "urgent count", map[string]any{
		"recipient_id": recipientID,
		"priority":     models.NotificationPriorityUrgent,
	})
}

// MarkRead flags notification id as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) (*models.Notification, error) {
	notification, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !notification.IsRead {
		now := s.now()
		notification.IsRead = true
		notification.ReadAt = &now
		if err := s.db.WithContext(ctx).Save(notification).Error; err != nil {
			return nil, fmt.Errorf("notification service: mark read: %w", err)
		}
	}
	s.publish(notification.RecipientID, notifications.Event{
		Event:          notifications.EventRead,
		NotificationID: notification.ID,
	})
	return notification, nil
}

// MarkAllRead flags every unread notification of recipientID as read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Updates(map[string]any{"is_read": true, "read_at": s.now()})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		s.publish(recipientID, notifications.Event{Event: notifications.EventReadAll, Count: result.RowsAffected})
	}
	return result.RowsAffected, nil
}

// Delete removes notification id and reports whether it existed.
func (s *NotificationService) Delete(ctx context.Context, id string) (bool, error) {
	notification, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := s.db.WithContext(ctx).Delete(notification).Error; err != nil {
		return false, fmt.Errorf("notification service: delete: %w", err)
	}
	s.publish(notification.RecipientID, notifications.Event{
		Event:          notifications.EventDeleted,
		NotificationID: notification.ID,
	})
	return true, nil
}

// DeleteAll removes every notification of recipientID and returns how many were removed.
func (s *NotificationService) DeleteAll(ctx context.Context, recipientID string) (int64, error) {
	result := s.db.WithContext(ctx).Where("recipient_id = ?", recipientID).Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: delete all: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CleanupExpired removes notifications whose expiry has passed.
func (s *NotificationService) CleanupExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).
		Delete(&models.Notification{})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: cleanup expired: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// BroadcastToRole creates one system notification for every user of organizationID holding role.
func (s *NotificationService) BroadcastToRole(ctx context.Context, role, title, message, organizationID string) ([]models.Notification, error) {
	role = strings.ToUpper(strings.TrimSpace(role))

	var recipients []models.User
	if err := s.db.WithContext(ctx).
		Where("UPPER(role) = ? AND organization_id = ?", role, strings.TrimSpace(organizationID)).
		Find(&recipients).Error; err != nil {
		return nil, fmt.Errorf("notification service: broadcast: %w", err)
	}

	created := make([]models.Notification, 0, len(recipients))
	for _, user := range recipients {
		notification, err := s.Create(ctx, &models.Notification{
			RecipientID:    user.ID,
			RecipientRole:  role,
			Type:           models.NotificationBroadcast,
			Title:          title,
			Message:        message,
			Category:       models.NotificationCategorySystem,
			Priority:       models.NotificationPriorityNormal,
			OrganizationID: organizationID,
		})
		if err != nil {
			return nil, err
		}
		created = append(created, *notification)
	}
	return created, nil
}

// NotifyTaskAssigned tells a worker about a newly assigned task.
func (s *NotificationService) NotifyTaskAssigned(ctx context.Context, in TaskAssignedInput) (*models.Notification, error) {
	return s.Create(ctx, &models.Notification{
		RecipientID:       in.WorkerID,
		RecipientRole:     models.RoleWorker,
		SenderID:          in.AssignedBy,
		Type:              models.NotificationTaskAssigned,
		Title:             "New Task Assigned",
		Message:           "You have been assigned a new task: " + in.TaskTitle,
		Category:          models.NotificationCategoryTask,
		Priority:          models.NotificationPriorityNormal,
		RelatedEntityType: "task",
		RelatedEntityID:   in.TaskID,
		ActionURL:         "/tasks/" + in.TaskID,
	})
}

// NotifyTaskCompleted asks a manager to approve a completed task.
func (s *NotificationService) NotifyTaskCompleted(ctx context.Context, in TaskCompletedInput) (*models.Notification, error) {
	return s.Create(ctx, &models.Notification{
		RecipientID:       in.ManagerID,
		RecipientRole:     models.RoleManager,
		SenderID:          in.CompletedBy,
		Type:              models.NotificationTaskCompleted,
		Title:             "Task Completed",
		Message:           "Task \"" + in.TaskTitle + "\" has been marked as completed and awaits your approval.",
		Category:          models.NotificationCategoryTask,
		Priority:          models.NotificationPriorityHigh,
		RelatedEntityType: "task",
		RelatedEntityID:   in.TaskID,
		ActionURL:         "/tasks/" + in.TaskID,
	})
}

// NotifyScheduleUpdated tells a worker that one of their shifts changed.
func (s *NotificationService) NotifyScheduleUpdated(ctx context.Context, in ScheduleUpdatedInput) (*models.Notification, error) {
	return s.Create(ctx, &models.Notification{
		RecipientID:       in.WorkerID,
		RecipientRole:     models.RoleWorker,
		SenderID:          in.UpdatedBy,
		Type:              models.NotificationScheduleUpdated,
		Title:             "Schedule Updated",
		Message:           fmt.Sprintf("Your schedule for %s (%s shift) has been updated.", in.ScheduleDate, in.ShiftType),
		Category:          models.NotificationCategorySchedule,
		Priority:          models.NotificationPriorityNormal,
		RelatedEntityType: "schedule",
		ActionURL:         "/schedules",
	})
}

// NotifyMessageReceived tells a user about a new direct message.
func (s *NotificationService) NotifyMessageReceived(ctx context.Context, in MessageReceivedInput) (*models.Notification, error) {
	return s.Create(ctx, &models.Notification{
		RecipientID:       in.RecipientID,
		SenderName:        in.SenderName,
		Type:              models.NotificationMessageReceived,
		Title:             "New Message",
		Message:           "You have received a new message from " + in.SenderName + ": " + in.MessageSubject,
		Category:          models.NotificationCategoryMessage,
		Priority:          models.NotificationPriorityNormal,
		RelatedEntityType: "message",
		RelatedEntityID:   in.MessageID,
		ActionURL:         "/messages/" + in.MessageID,
	})
}

func (s *NotificationService) publish(userID string, event notifications.Event) {
	if s.publisher != nil {
		s.publisher.Broadcast(userID, event)
	}
}

func (s *NotificationService) find(ctx context.Context, op string, where map[string]any) ([]models.Notification, error) {
	query := s.db.WithContext(ctx)
	if len(where) > 0 {
		query = query.Where(where)
	}
	var items []models.Notification
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("notification service: %s: %w", op, err)
	}
	return items, nil
}

func (s *NotificationService) count(ctx context.Context, op string, where map[string]any) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).Where(where).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("notification service: %s: %w", op, err)
	}
	return n, nil
}
