package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/pkg/logger"
)

// ErrMessageIncomplete is returned when a message lacks a subject, content or recipient.
var ErrMessageIncomplete = errors.New("message: subject, content and recipient are required")

// MessageNotifier is told about every delivered message.
type MessageNotifier interface {
	NotifyMessageReceived(ctx context.Context, in MessageReceivedInput) (*models.Notification, error)
}

// MessageOption customises MessageService behaviour.
type MessageOption func(*MessageService)

// WithMessageClock injects a custom clock primarily for testing.
func WithMessageClock(clock func() time.Time) MessageOption {
	return func(s *MessageService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithMessageNotifier raises a notification for the recipient of every sent message.
func WithMessageNotifier(notifier MessageNotifier) MessageOption {
	return func(s *MessageService) {
		s.notifier = notifier
	}
}

// MessageService stores direct messages between users. Deleted messages stay in the
// table with status deleted and are hidden from every listing.
type MessageService struct {
	db       *gorm.DB
	now      func() time.Time
	notifier MessageNotifier
}

// NewMessageService constructs a MessageService.
func NewMessageService(db *gorm.DB, opts ...MessageOption) (*MessageService, error) {
	if db == nil {
		return nil, errors.New("message service: db is required")
	}
	svc := &MessageService{db: db, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Send stores message as sent and notifies its recipient. A failed notification does not fail the send.
func (s *MessageService) Send(ctx context.Context, message *models.Message) (*models.Message, error) {
	if message == nil {
		return nil, errors.New("message service: message is required")
	}
	if err := s.prepare(message); err != nil {
		return nil, err
	}
	message.IsReply = false
	message.OriginalMessageID = ""
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, fmt.Errorf("message service: send: %w", err)
	}
	s.notify(ctx, message)
	return message, nil
}

// Reply answers message originalID, addressing the reply to the original sender. An empty
// subject becomes "Re: <original subject>" and the original's reply count is incremented.
func (s *MessageService) Reply(ctx context.Context, originalID string, reply *models.Message) (*models.Message, error) {
	if reply == nil {
		return nil, errors.New("message service: reply is required")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		original, err := s.get(tx, originalID)
		if err != nil {
			return err
		}

		if strings.TrimSpace(reply.Subject) == "" {
			reply.Subject = "Re: " + original.Subject
		}
		reply.ToUserID = original.FromUserID
		reply.ToUserName = original.FromUserName
		reply.OrganizationID = firstNonEmpty(reply.OrganizationID, original.OrganizationID)
		if err := s.prepare(reply); err != nil {
			return err
		}
		reply.IsReply = true
		reply.OriginalMessageID = original.ID

		if err := tx.Create(reply).Error; err != nil {
			return fmt.Errorf("message service: reply: %w", err)
		}
		if err := tx.Model(&models.Message{}).Where("id = ?", original.ID).
			UpdateColumn("reply_count", gorm.Expr("reply_count + ?", 1)).Error; err != nil {
			return fmt.Errorf("message service: count reply: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, reply)
	return reply, nil
}

// Get loads message id.
func (s *MessageService) Get(ctx context.Context, id string) (*models.Message, error) {
	return s.get(s.db.WithContext(ctx), id)
}

// ListForUser returns the messages userID sent or received.
func (s *MessageService) ListForUser(ctx context.Context, userID string) ([]models.Message, error) {
	return s.find(ctx, "list for user", "(from_user_id = ? OR to_user_id = ?)", userID, userID)
}

// Inbox returns the messages addressed to userID.
func (s *MessageService) Inbox(ctx context.Context, userID string) ([]models.Message, error) {
	return s.find(ctx, "inbox", "to_user_id = ?", userID)
}

// Sent returns the messages sent by userID.
func (s *MessageService) Sent(ctx context.Context, userID string) ([]models.Message, error) {
	return s.find(ctx, "sent", "from_user_id = ?", userID)
}

// Unread returns the messages addressed to userID that were never opened.
func (s *MessageService) Unread(ctx context.Context, userID string) ([]models.Message, error) {
	return s.find(ctx, "unread", "to_user_id = ? AND read_at IS NULL", userID)
}

// UnreadCount counts the messages addressed to userID that were never opened.
func (s *MessageService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Message{}).
		Where("to_user_id = ? AND read_at IS NULL AND status <> ?", userID, models.MessageStatusDeleted).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("message service: unread count: %w", err)
	}
	return n, nil
}

// Conversation returns every message exchanged between userID and otherID, newest first.
func (s *MessageService) Conversation(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	return s.find(ctx, "conversation",
		"((from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?))",
		userID, otherID, otherID, userID)
}

// Replies returns the replies to message id.
func (s *MessageService) Replies(ctx context.Context, id string) ([]models.Message, error) {
	return s.find(ctx, "replies", "original_message_id = ?", strings.TrimSpace(id))
}

// ListByCategory returns the messages addressed to userID in category.
func (s *MessageService) ListByCategory(ctx context.Context, userID, category string) ([]models.Message, error) {
	return s.find(ctx, "list by category", "to_user_id = ? AND category = ?", userID, category)
}

// MarkRead records that message id was opened.
func (s *MessageService) MarkRead(ctx context.Context, id string) (*models.Message, error) {
	return s.mutate(ctx, id, "mark read", func(message *models.Message) {
		if message.ReadAt == nil {
			now := s.now()
			message.ReadAt = &now
		}
		message.Status = models.MessageStatusRead
	})
}

// Archive marks message id as archived.
func (s *MessageService) Archive(ctx context.Context, id string) (*models.Message, error) {
	return s.mutate(ctx, id, "archive", func(message *models.Message) {
		message.Status = models.MessageStatusArchived
	})
}

// Delete soft-deletes message id and reports whether it existed.
func (s *MessageService) Delete(ctx context.Context, id string) (bool, error) {
	_, err := s.mutate(ctx, id, "delete", func(message *models.Message) {
		message.Status = models.MessageStatusDeleted
	})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Purge removes message id from storage and reports whether it existed.
func (s *MessageService) Purge(ctx context.Context, id string) (bool, error) {
	result := s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", strings.TrimSpace(id))
	if result.Error != nil {
		return false, fmt.Errorf("message service: purge: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *MessageService) prepare(message *models.Message) error {
	message.Subject = strings.TrimSpace(message.Subject)
	message.ToUserID = strings.TrimSpace(message.ToUserID)
	if message.Subject == "" || strings.TrimSpace(message.Content) == "" || message.ToUserID == "" {
		return ErrMessageIncomplete
	}
	message.Status = models.MessageStatusSent
	message.ReadAt = nil
	message.ReplyCount = 0
	if strings.TrimSpace(message.Category) == "" {
		message.Category = models.MessageCategoryGeneral
	}
	return nil
}

func (s *MessageService) notify(ctx context.Context, message *models.Message) {
	if s.notifier == nil {
		return
	}
	_, err := s.notifier.NotifyMessageReceived(ctx, MessageReceivedInput{
		RecipientID:    message.ToUserID,
		MessageID:      message.ID,
		SenderName:     firstNonEmpty(message.FromUserName, "User"),
		MessageSubject: message.Subject,
	})
	if err != nil {
		logger.WithModule("messages").Warn("message notification failed",
			zap.String("message_id", message.ID),
			zap.Error(err),
		)
	}
}

func (s *MessageService) mutate(ctx context.Context, id, op string, apply func(*models.Message)) (*models.Message, error) {
	message, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(message)
	if err := s.db.WithContext(ctx).Save(message).Error; err != nil {
		return nil, fmt.Errorf("message service: %s: %w", op, err)
	}
	return message, nil
}

func (s *MessageService) get(db *gorm.DB, id string) (*models.Message, error) {
	var message models.Message
	if err := db.First(&message, "id = ?", strings.TrimSpace(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("message service: get: %w", err)
	}
	return &message, nil
}

func (s *MessageService) find(ctx context.Context, op, where string, args ...any) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.WithContext(ctx).
		Where(where, args...).
		Where("status <> ?", models.MessageStatusDeleted).
		Order("created_at DESC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("message service: %s: %w", op, err)
	}
	return messages, nil
}
