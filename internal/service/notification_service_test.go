package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ai-studynotes-core/internal/entity"
	"ai-studynotes-core/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDelivery struct {
	sent []entity.Notification
}

func (d *recordingDelivery) Send(sessionId string, notification entity.Notification) {
	d.sent = append(d.sent, notification)
}

func lifecycleEvent(eventType, sessionId, filename string) events.BaseEvent {
	return events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"session_id": sessionId,
			"note_id":    "6f1d9db4-0000-0000-0000-000000000001",
			"filename":   filename,
		},
		OccurredAt: time.Now(),
	}
}

func TestHandleEventRendersTemplate(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := NewNotificationService(delivery, noopLogger{})

	err := svc.HandleEvent(context.Background(), lifecycleEvent(events.TypeNoteCompleted, "s1", "algebra.png"))
	require.NoError(t, err)

	require.Len(t, delivery.sent, 1)
	notif := delivery.sent[0]
	assert.Equal(t, events.TypeNoteCompleted, notif.TypeCode)
	assert.Equal(t, "s1", notif.SessionId)
	assert.Contains(t, notif.Message, "algebra.png")
	assert.NotContains(t, notif.Message, "{filename}")
	assert.Equal(t, "/notes/6f1d9db4-0000-0000-0000-000000000001", notif.Metadata["action_url"])
}

func TestHandleEventIgnoresUnknownTypes(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := NewNotificationService(delivery, noopLogger{})

	err := svc.HandleEvent(context.Background(), events.BaseEvent{
		Type:       "SOMETHING_ELSE",
		Data:       map[string]interface{}{"session_id": "s1"},
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Empty(t, delivery.sent)
}

func TestHandleEventNeedsSessionId(t *testing.T) {
	delivery := &recordingDelivery{}
	svc := NewNotificationService(delivery, noopLogger{})

	err := svc.HandleEvent(context.Background(), events.BaseEvent{
		Type:       events.TypeNoteCompleted,
		Data:       map[string]interface{}{"filename": "a.png"},
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Empty(t, delivery.sent)
	assert.Empty(t, svc.GetNotifications(""))
}

func TestGetNotificationsNewestFirstAndScoped(t *testing.T) {
	svc := NewNotificationService(nil, noopLogger{})
	ctx := context.Background()

	require.NoError(t, svc.HandleEvent(ctx, lifecycleEvent(events.TypeNoteUploaded, "s1", "first.png")))
	require.NoError(t, svc.HandleEvent(ctx, lifecycleEvent(events.TypeNoteCompleted, "s1", "first.png")))
	require.NoError(t, svc.HandleEvent(ctx, lifecycleEvent(events.TypeNoteUploaded, "s2", "other.png")))

	s1 := svc.GetNotifications("s1")
	require.Len(t, s1, 2)
	assert.Equal(t, events.TypeNoteCompleted, s1[0].TypeCode)
	assert.Equal(t, events.TypeNoteUploaded, s1[1].TypeCode)

	assert.Len(t, svc.GetNotifications("s2"), 1)
	assert.Empty(t, svc.GetNotifications("s3"))
}

func TestRecentNotificationsCapped(t *testing.T) {
	svc := NewNotificationService(nil, noopLogger{})
	ctx := context.Background()

	for i := 0; i < maxRecentNotifications+10; i++ {
		evt := lifecycleEvent(events.TypeNoteUploaded, "s1", fmt.Sprintf("n%d.png", i))
		require.NoError(t, svc.HandleEvent(ctx, evt))
	}

	assert.Len(t, svc.GetNotifications("s1"), maxRecentNotifications)
}
