package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/careapp/carecoord/internal/models"
	"github.com/careapp/carecoord/internal/services"
	"github.com/careapp/carecoord/pkg/response"
)

const (
	msgNotificationNotFound = "Notification not found!"
	defaultRecipientID      = "default-user-001"
)

// NotificationHandler exposes in-app notifications and their live stream.
type NotificationHandler struct {
	notifications NotificationStore
	jwt           TokenValidator
	stream        NotificationStream
}

func NewNotificationHandler(notifications NotificationStore, jwt TokenValidator, stream NotificationStream) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, jwt: jwt, stream: stream}
}

type taskAssignedRequest struct {
	WorkerID   string `json:"workerId"`
	TaskID     string `json:"taskId"`
	TaskTitle  string `json:"taskTitle"`
	AssignedBy string `json:"assignedBy"`
}

type taskCompletedRequest struct {
	ManagerID   string `json:"managerId"`
	TaskID      string `json:"taskId"`
	TaskTitle   string `json:"taskTitle"`
	CompletedBy string `json:"completedBy"`
}

type scheduleUpdatedRequest struct {
	WorkerID     string `json:"workerId"`
	ScheduleDate string `json:"scheduleDate"`
	ShiftType    string `json:"shiftType"`
	UpdatedBy    string `json:"updatedBy"`
}

type messageReceivedRequest struct {
	RecipientID    string `json:"recipientId"`
	MessageID      string `json:"messageId"`
	SenderName     string `json:"senderName"`
	MessageSubject string `json:"messageSubject"`
}

type broadcastRequest struct {
	Role    string `json:"role" validate:"notblank"`
	Title   string `json:"title" validate:"notblank"`
	Message string `json:"message"`
}

func recipient(c *gin.Context) string {
	return headerOr(c, headerUserID, defaultRecipientID)
}

// POST /api/notifications
func (h *NotificationHandler) Create(c *gin.Context) {
	var req models.Notification
	if !bindJSON(c, &req) {
		return
	}
	if strings.TrimSpace(req.RecipientID) == "" {
		response.Error(c, response.CodeBadRequest, "Recipient is required!")
		return
	}
	created, err := h.notifications.Create(requestContext(c), &req)
	if err != nil {
		respondError(c, err, "", "create notification")
		return
	}
	response.Success(c, created, "Notification created successfully!")
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	items, err := h.notifications.List(requestContext(c))
	respondNotifications(c, items, err, "retrieve notifications", "Notifications retrieved successfully!")
}

// GET /api/notifications/my
func (h *NotificationHandler) ListMine(c *gin.Context) {
	items, err := h.notifications.ListForRecipient(requestContext(c), recipient(c))
	respondNotifications(c, items, err, "retrieve notifications", "Notifications retrieved successfully!")
}

// GET /api/notifications/recipient/:recipientId
func (h *NotificationHandler) ListByRecipient(c *gin.Context) {
	items, err := h.notifications.ListForRecipient(requestContext(c), c.Param("recipientId"))
	respondNotifications(c, items, err, "retrieve notifications", "Notifications retrieved successfully!")
}

// GET /api/notifications/unread
func (h *NotificationHandler) ListUnread(c *gin.Context) {
	items, err := h.notifications.ListUnread(requestContext(c), recipient(c))
	respondNotifications(c, items, err, "retrieve unread notifications", "Unread notifications retrieved successfully!")
}

// GET /api/notifications/unread/count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(requestContext(c), recipient(c))
	if err != nil {
		respondError(c, err, "", "retrieve unread count")
		return
	}
	response.Success(c, count, "Unread count retrieved successfully!")
}

// GET /api/notifications/urgent/count
func (h *NotificationHandler) UrgentCount(c *gin.Context) {
	count, err := h.notifications.UrgentCount(requestContext(c), recipient(c))
	if err != nil {
		respondError(c, err, "", "retrieve urgent count")
		return
	}
	response.Success(c, count, "Urgent count retrieved successfully!")
}

// GET /api/notifications/type/:type
func (h *NotificationHandler) ListByType(c *gin.Context) {
	items, err := h.notifications.ListByType(requestContext(c), recipient(c), strings.ToUpper(c.Param("type")))
	respondNotifications(c, items, err, "retrieve notifications", "Notifications retrieved successfully!")
}

// GET /api/notifications/category/:category
func (h *NotificationHandler) ListByCategory(c *gin.Context) {
	items, err := h.notifications.ListByCategory(requestContext(c), recipient(c), strings.ToLower(c.Param("category")))
	respondNotifications(c, items, err, "retrieve notifications", "Notifications retrieved successfully!")
}

// GET /api/notifications/:id
func (h *NotificationHandler) Get(c *gin.Context) {
	notification, err := h.notifications.Get(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgNotificationNotFound, "retrieve notification")
		return
	}
	response.Success(c, notification, "Notification retrieved successfully!")
}

// PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notification, err := h.notifications.MarkRead(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgNotificationNotFound, "mark notification as read")
		return
	}
	response.Success(c, notification, "Notification marked as read!")
}

// PUT /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	count, err := h.notifications.MarkAllRead(requestContext(c), recipient(c))
	if err != nil {
		respondError(c, err, "", "mark all notifications as read")
		return
	}
	response.Success(c, count, "Marked "+strconv.FormatInt(count, 10)+" notifications as read!")
}

// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	deleted, err := h.notifications.Delete(requestContext(c), c.Param("id"))
	if err != nil {
		respondError(c, err, msgNotificationNotFound, "delete notification")
		return
	}
	if !deleted {
		response.Error(c, response.CodeNotFound, msgNotificationNotFound)
		return
	}
	response.Success(c, true, "Notification deleted successfully!")
}

// DELETE /api/notifications/delete-all
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	count, err := h.notifications.DeleteAll(requestContext(c), recipient(c))
	if err != nil {
		respondError(c, err, "", "delete all notifications")
		return
	}
	response.Success(c, count, "Deleted "+strconv.FormatInt(count, 10)+" notifications!")
}

// POST /api/notifications/cleanup
func (h *NotificationHandler) Cleanup(c *gin.Context) {
	count, err := h.notifications.CleanupExpired(requestContext(c))
	if err != nil {
		respondError(c, err, "", "cleanup notifications")
		return
	}
	response.Success(c, count, "Cleaned up "+strconv.FormatInt(count, 10)+" expired notifications!")
}

// POST /api/notifications/broadcast
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if !bindJSON(c, &req) || !checkRequest(c, req, fixedMessage("Role and title are required!")) {
		return
	}
	organizationID := headerOr(c, headerOrganizationID, defaultOrganizationID)
	sent, err := h.notifications.BroadcastToRole(requestContext(c), req.Role, req.Title, req.Message, organizationID)
	respondNotifications(c, sent, err, "broadcast notification", "Broadcast notification sent!")
}

// POST /api/notifications/task-assigned
func (h *NotificationHandler) TaskAssigned(c *gin.Context) {
	var req taskAssignedRequest
	if !bindJSON(c, &req) {
		return
	}
	notification, err := h.notifications.NotifyTaskAssigned(requestContext(c), services.TaskAssignedInput(req))
	respondNotification(c, notification, err, "Task assigned notification created!")
}

// POST /api/notifications/task-completed
func (h *NotificationHandler) TaskCompleted(c *gin.Context) {
	var req taskCompletedRequest
	if !bindJSON(c, &req) {
		return
	}
	notification, err := h.notifications.NotifyTaskCompleted(requestContext(c), services.TaskCompletedInput(req))
	respondNotification(c, notification, err, "Task completed notification created!")
}

// POST /api/notifications/schedule-updated
func (h *NotificationHandler) ScheduleUpdated(c *gin.Context) {
	var req scheduleUpdatedRequest
	if !bindJSON(c, &req) {
		return
	}
	notification, err := h.notifications.NotifyScheduleUpdated(requestContext(c), services.ScheduleUpdatedInput(req))
	respondNotification(c, notification, err, "Schedule updated notification created!")
}

// POST /api/notifications/message-received
func (h *NotificationHandler) MessageReceived(c *gin.Context) {
	var req messageReceivedRequest
	if !bindJSON(c, &req) {
		return
	}
	notification, err := h.notifications.NotifyMessageReceived(requestContext(c), services.MessageReceivedInput(req))
	respondNotification(c, notification, err, "Message received notification created!")
}

// GET /api/notifications/stream?token=
func (h *NotificationHandler) Stream(c *gin.Context) {
	if h.jwt == nil || h.stream == nil {
		response.Error(c, response.CodeNotFound, "Notification stream unavailable!")
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		authz := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			token = strings.TrimSpace(authz[7:])
		}
	}
	if token == "" {
		response.Error(c, response.CodeUnauthorized, "Authentication required!")
		return
	}

	claims, err := h.jwt.ValidateAccessToken(token)
	if err != nil {
		response.Error(c, response.CodeUnauthorized, "Invalid or expired token!")
		return
	}

	h.stream.Serve(claims.UserID, c.Writer, c.Request)
}

func respondNotifications(c *gin.Context, items []models.Notification, err error, action, msg string) {
	if err != nil {
		respondError(c, err, "", action)
		return
	}
	response.Success(c, items, msg)
}

func respondNotification(c *gin.Context, notification *models.Notification, err error, msg string) {
	if err != nil {
		respondError(c, err, "", "create notification")
		return
	}
	response.Success(c, notification, msg)
}
