package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/services"
	"github.com/careapp/carecoord/pkg/response"
	appValidator "github.com/careapp/carecoord/pkg/validator"
)

const (
	msgMessageNotFound  = "Message not found!"
	defaultSenderName   = "Current User"
	defaultMessageActor = "default-user-001"
)

// MessageHandler exposes direct messages between users.
type MessageHandler struct {
	messages MessageStore
}

func NewMessageHandler(messages MessageStore) *MessageHandler {
	return &MessageHandler{messages: messages}
}

type sendMessageRequest struct {
	Subject      string              `json:"subject" validate:"notblank"`
	Content      string              `json:"content" validate:"notblank"`
	ToUserID     string              `json:"toUserId" validate:"notblank"`
	ToUserName   string              `json:"toUserName"`
	FromUserName string              `json:"fromUserName"`
	Category     string              `json:"category"`
	Attachments  []models.Attachment `json:"attachments"`
}

type replyMessageRequest struct {
	Subject      string `json:"subject"`
	Content      string `json:"content" validate:"notblank"`
	FromUserName string `json:"fromUserName"`
}

func currentUser(c *gin.Context) string {
	return headerOr(c, headerUserID, defaultMessageActor)
}

// POST /api/messages
func (h *MessageHandler) Send(c *gin.Context) {
	var req sendMessageRequest
	if !bindJSON(c, &req) {
		return
	}
	describe := func(result appValidator.Result) string {
		if result.IsMissing("subject") || result.IsMissing("content") {
			return "Subject and content are required!"
		}
		return "Recipient (toUserId) is required!"
	}
	if !checkRequest(c, req, describe) {
		return
	}

	message := &models.Message{
		Subject:        req.Subject,
		Content:        req.Content,
		FromUserID:     currentUser(c),
		FromUserName:   firstNonEmpty(req.FromUserName, defaultSenderName),
		ToUserID:       req.ToUserID,
		ToUserName:     req.ToUserName,
		Category:       req.Category,
		OrganizationID: headerOr(c, headerOrganizationID, defaultOrganizationID),
		Attachments:    req.Attachments,
	}
	sent, err := h.messages.Send(requestContext(c), message)
	if errors.Is(err, services.ErrMessageIncomplete) {
		response.Error(c, response.CodeBadRequest, "Subject and content are required!")
		return
	}
	if err != nil {
		respondError(c, err, "", "send message")
		return
	}
	response.Success(c, sent, "Message sent successfully!")
}

// POST /api/messages/:id/reply
func (h *MessageHandler) Reply(c *gin.Context) {
	var req replyMessageRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Content is required!")) {
		return
	}
	reply := &models.Message{
		Subject:        req.Subject,
		Content:        req.Content,
		FromUserID:     currentUser(c),
		FromUserName:   firstNonEmpty(req.FromUserName, defaultSenderName),
		OrganizationID: headerOr(c, headerOrganizationID, ""),
	}
	sent, err := h.messages.Reply(requestContext(c), c.Param("id"), reply)
	if err != nil {
		respondError(c, err, "Original message not found!", "send reply")
		return
	}
	response.Success(c, sent, "Reply sent successfully!")
}

// GET /api/messages
func (h *MessageHandler) List(c *gin.Context) {
	items, err := h.messages.ListForUser(requestContext(c), currentUser(c))
	respondMessages(c, items, err, "retrieve messages", "Messages retrieved successfully!")
}

// GET /api/messages/inbox
func (h *MessageHandler) Inbox(c *gin.Context) {
	items, err := h.messages.Inbox(requestContext(c), currentUser(c))
	respondMessages(c, items, err, "retrieve inbox messages", "Inbox messages retrieved successfully!")
}

// GET /api/messages/sent
func (h *MessageHandler) Sent(c *gin.Context) {
	items, err := h.messages.Sent(requestContext(c), currentUser(c))
	respondMessages(c, items, err, "retrieve sent messages", "Sent messages retrieved successfully!")
}

// GET /api/messages/unread
func (h *MessageHandler) Unread(c *gin.Context) {
	items, err := h.messages.Unread(requestContext(c), currentUser(c))
	respondMessages(c, items, err, "retrieve unread messages", "Unread messages retrieved successfully!")
}

// GET /api/messages/unread/count
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	count, err := h.messages.UnreadCount(requestContext(c), currentUser(c))
	if err != nil {
		respondError(c, err, "", "retrieve unread count")
		return
	}
	response.Success(c, count, "Unread count retrieved successfully!")
}

// GET /api/messages/conversation/:userId
func (h *MessageHandler) Conversation(c *gin.Context) {
	items, err := h.messages.Conversation(requestContext(c), currentUser(c), c.Param("userId"))
	respondMessages(c, items, err, "retrieve conversation", "Conversation retrieved successfully!")
}

// GET /api/messages/category/:category
func (h *MessageHandler) ListByCategory(c *gin.Context) {
	items, err := h.messages.ListByCategory(requestContext(c), currentUser(c), c.Param("category"))
	respondMessages(c, items, err, "retrieve messages", "Messages retrieved successfully!")
}

// GET /api/messages/:id
func (h *MessageHandler) Get(c *gin.Context) {
	message, err := h.messages.Get(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgMessageNotFound, "retrieve message")
		return
	}
	response.Success(c, message, "Message retrieved successfully!")
}

// GET /api/messages/:id/replies
func (h *MessageHandler) Replies(c *gin.Context) {
	items, err := h.messages.Replies(requestContext(c), c.Param("id"))
	respondMessages(c, items, err, "retrieve replies", "Replies retrieved successfully!")
}

// PUT /api/messages/:id/read
func (h *MessageHandler) MarkRead(c *gin.Context) {
	message, err := h.messages.MarkRead(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgMessageNotFound, "mark message as read")
		return
	}
	response.Success(c, message, "Message marked as read!")
}

// PUT /api/messages/:id/archive
func (h *MessageHandler) Archive(c *gin.Context) {
	message, err := h.messages.Archive(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgMessageNotFound, "archive message")
		return
	}
	response.Success(c, message, "Message archived successfully!")
}

// DELETE /api/messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	h.remove(c, h.messages.Delete, "delete message", "Message deleted successfully!")
}

// DELETE /api/messages/:id/permanent
func (h *MessageHandler) Purge(c *gin.Context) {
	h.remove(c, h.messages.Purge, "permanently delete message", "Message permanently deleted!")
}

func (h *MessageHandler) remove(c *gin.Context, op func(ctx context.Context, id string) (bool, error), action, msg string) {
	removed, err := op(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgMessageNotFound, action)
		return
	}
	if !removed {
		response.Error(c, response.CodeNotFound, msgMessageNotFound)
		return
	}
	response.Success(c, true, msg)
}

func respondMessages(c *gin.Context, items []models.Message, err error, action, msg string) {
	if err != nil {
		respondError(c, err, "", action)
		return
	}
	response.Success(c, items, msg)
}
