package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/careapp/carecoord/internal/models"
)

type stubMessageNotifier struct {
	calls []MessageReceivedInput
	err   error
}

func (s *stubMessageNotifier) NotifyMessageReceived(_ context.Context, in MessageReceivedInput) (*models.Notification, error) {
	s.calls = append(s.calls, in)
	return nil, s.err
}

func newMessageTestService(t *testing.T, notifier MessageNotifier) *MessageService {
	t.Helper()
	svc, err := NewMessageService(openServiceTestDB(t), WithMessageClock(fixedClock), WithMessageNotifier(notifier))
	require.NoError(t, err)
	return svc
}

func TestMessageServiceSendNotifiesRecipient(t *testing.T) {
	notifier := &stubMessageNotifier{}
	svc := newMessageTestService(t, notifier)
	ctx := context.Background()

	sent, err := svc.Send(ctx, &models.Message{
		Subject: " Lunch ", Content: "Noon?", FromUserID: "u1", FromUserName: "Ann", ToUserID: "u2",
		Status: models.MessageStatusRead, ReplyCount: 7,
		Attachments: []models.Attachment{{FileName: "menu.pdf", FileURL: "/uploads/menu.pdf"}},
	})
	require.NoError(t, err)
	require.Equal(t, "Lunch", sent.Subject)
	require.Equal(t, models.MessageStatusSent, sent.Status)
	require.Equal(t, models.MessageCategoryGeneral, sent.Category)
	require.Zero(t, sent.ReplyCount)

	stored, err := svc.Get(ctx, sent.ID)
	require.NoError(t, err)
	require.Len(t, stored.Attachments, 1)
	require.Equal(t, "menu.pdf", stored.Attachments[0].FileName)

	require.Equal(t, []MessageReceivedInput{{RecipientID: "u2", MessageID: sent.ID, SenderName: "Ann", MessageSubject: "Lunch"}}, notifier.calls)

	for _, incomplete := range []*models.Message{
		{Content: "x", ToUserID: "u2"},
		{Subject: "x", ToUserID: "u2"},
		{Subject: "x", Content: "y"},
	} {
		_, err := svc.Send(ctx, incomplete)
		require.ErrorIs(t, err, ErrMessageIncomplete)
	}
	require.Len(t, notifier.calls, 1)
}

func TestMessageServiceSendSurvivesNotificationFailure(t *testing.T) {
	svc := newMessageTestService(t, &stubMessageNotifier{err: errors.New("boom")})

	sent, err := svc.Send(context.Background(), &models.Message{Subject: "Hi", Content: "there", ToUserID: "u2"})
	require.NoError(t, err)
	require.NotEmpty(t, sent.ID)
}

func TestMessageServiceReplyThreads(t *testing.T) {
	notifier := &stubMessageNotifier{}
	svc := newMessageTestService(t, notifier)
	ctx := context.Background()

	original, err := svc.Send(ctx, &models.Message{Subject: "Lunch", Content: "Noon?", FromUserID: "u1",
		FromUserName: "Ann", ToUserID: "u2", OrganizationID: "org-7"})
	require.NoError(t, err)

	reply, err := svc.Reply(ctx, original.ID, &models.Message{Content: "Sure", FromUserID: "u2", FromUserName: "Bob"})
	require.NoError(t, err)
	require.True(t, reply.IsReply)
	require.Equal(t, original.ID, reply.OriginalMessageID)
	require.Equal(t, "Re: Lunch", reply.Subject)
	require.Equal(t, "u1", reply.ToUserID)
	require.Equal(t, "Ann", reply.ToUserName)
	require.Equal(t, "org-7", reply.OrganizationID)

	_, err = svc.Reply(ctx, original.ID, &models.Message{Subject: "Also", Content: "Bring cake", FromUserID: "u2"})
	require.NoError(t, err)

	refreshed, err := svc.Get(ctx, original.ID)
	require.NoError(t, err)
	require.Equal(t, 2, refreshed.ReplyCount)

	replies, err := svc.Replies(ctx, original.ID)
	require.NoError(t, err)
	require.Len(t, replies, 2)

	_, err = svc.Reply(ctx, "missing", &models.Message{Content: "x"})
	require.ErrorIs(t, err, ErrMessageNotFound)

	_, err = svc.Reply(ctx, original.ID, &models.Message{Content: "  "})
	require.ErrorIs(t, err, ErrMessageIncomplete)

	refreshed, err = svc.Get(ctx, original.ID)
	require.NoError(t, err)
	require.Equal(t, 2, refreshed.ReplyCount)

	require.Len(t, notifier.calls, 3)
	require.Equal(t, "u1", notifier.calls[1].RecipientID)
	require.Equal(t, "Bob", notifier.calls[1].SenderName)
	require.Equal(t, "User", notifier.calls[2].SenderName)
}

func TestMessageServiceMailboxViews(t *testing.T) {
	svc := newMessageTestService(t, nil)
	ctx := context.Background()

	send := func(from, to, category string) *models.Message {
		t.Helper()
		m, err := svc.Send(ctx, &models.Message{Subject: from + "->" + to, Content: "body", FromUserID: from, ToUserID: to, Category: category})
		require.NoError(t, err)
		return m
	}
	a := send("u1", "u2", "")
	b := send("u2", "u1", "care")
	send("u3", "u1", "care")
	send("u3", "u2", "")

	inbox, err := svc.Inbox(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, inbox, 2)

	sent, err := svc.Sent(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sent, 1)

	all, err := svc.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, all, 3)

	conversation, err := svc.Conversation(ctx, "u1", "u2")
	require.NoError(t, err)
	require.Len(t, conversation, 2)

	care, err := svc.ListByCategory(ctx, "u1", "care")
	require.NoError(t, err)
	require.Len(t, care, 2)

	count, err := svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	read, err := svc.MarkRead(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusRead, read.Status)
	require.NotNil(t, read.ReadAt)

	unread, err := svc.Unread(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, unread, 1)

	archived, err := svc.Archive(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusArchived, archived.Status)

	deleted, err := svc.Delete(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, deleted)

	conversation, err = svc.Conversation(ctx, "u1", "u2")
	require.NoError(t, err)
	require.Len(t, conversation, 1)

	stillStored, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusDeleted, stillStored.Status)

	deleted, err = svc.Delete(ctx, "missing")
	require.NoError(t, err)
	require.False(t, deleted)

	purged, err := svc.Purge(ctx, b.ID)
	require.NoError(t, err)
	require.True(t, purged)

	_, err = svc.Get(ctx, b.ID)
	require.ErrorIs(t, err, ErrMessageNotFound)

	purged, err = svc.Purge(ctx, b.ID)
	require.NoError(t, err)
	require.False(t, purged)
}
