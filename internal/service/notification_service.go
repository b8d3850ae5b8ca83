package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-studynotes-core/internal/entity"
	"ai-studynotes-core/internal/pkg/logger"
	"ai-studynotes-core/pkg/events"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(sessionId string, notification entity.Notification)
}

// notificationType is the static config for one lifecycle event. Placeholders
// in the template are {key} lookups into the event payload.
type notificationType struct {
	Code     string
	Title    string
	Template string
}

var notificationTypes = map[string]notificationType{
	events.TypeNoteUploaded: {
		Code:     events.TypeNoteUploaded,
		Title:    "Note uploaded",
		Template: "Your note {filename} was uploaded and is being processed.",
	},
	events.TypeNoteCompleted: {
		Code:     events.TypeNoteCompleted,
		Title:    "Note ready",
		Template: "Processing of {filename} finished. Summary and study tools are ready.",
	},
	events.TypeNoteFailed: {
		Code:     events.TypeNoteFailed,
		Title:    "Note failed",
		Template: "We could not process {filename}. Please try uploading it again.",
	},
	events.TypeAllNotesCompleted: {
		Code:     events.TypeAllNotesCompleted,
		Title:    "All notes ready",
		Template: "All {completed} of your uploaded notes finished processing.",
	},
}

const maxRecentNotifications = 50

// NotificationService turns lifecycle events into user-facing notifications:
// a recent inbox per session and a real-time push through the delivery hub.
type NotificationService struct {
	recent   *cache.Cache
	delivery NotificationDelivery
	logger   logger.ILogger
}

func NewNotificationService(delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		recent:   cache.New(24*time.Hour, 10*time.Minute),
		delivery: delivery,
		logger:   log,
	}
}

// Start subscribes the service to the event bus.
func (s *NotificationService) Start(ctx context.Context, bus *events.Bus) error {
	if err := bus.Subscribe(ctx, s.HandleEvent); err != nil {
		s.logger.Error("NotificationService", "Failed to subscribe to event bus", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("NotificationService", "Notification service started", nil)
	return nil
}

func (s *NotificationService) HandleEvent(ctx context.Context, event events.Event) error {
	config, ok := notificationTypes[event.EventType()]
	if !ok {
		s.logger.Debug("NotificationService", fmt.Sprintf("No notification configured for event %s", event.EventType()), nil)
		return nil
	}

	payload := event.Payload()
	sessionId, _ := payload["session_id"].(string)
	if sessionId == "" {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s carries no session_id", event.EventType()), nil)
		return nil
	}

	notif := s.buildNotification(sessionId, config, event)
	s.store(sessionId, notif)

	if s.delivery != nil {
		s.delivery.Send(sessionId, notif)
	}
	return nil
}

func (s *NotificationService) buildNotification(sessionId string, config notificationType, event events.Event) entity.Notification {
	payload := event.Payload()

	// Simple template engine: {key} placeholders from the payload.
	msg := config.Template
	for k, v := range payload {
		placeholder := fmt.Sprintf("{%s}", k)
		msg = strings.ReplaceAll(msg, placeholder, fmt.Sprintf("%v", v))
	}

	meta := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		meta[k] = v
	}
	if noteId, ok := payload["note_id"].(string); ok {
		meta["action_url"] = "/notes/" + noteId
	}

	return entity.Notification{
		Id:        uuid.New(),
		SessionId: sessionId,
		TypeCode:  config.Code,
		Title:     config.Title,
		Message:   msg,
		Metadata:  meta,
		CreatedAt: time.Now(),
		IsRead:    false,
	}
}

// store prepends the notification to the session's recent list, newest first,
// capped so an abandoned tab cannot grow unbounded state.
func (s *NotificationService) store(sessionId string, notif entity.Notification) {
	var list []entity.Notification
	if x, found := s.recent.Get(sessionId); found {
		list = x.([]entity.Notification)
	}

	list = append([]entity.Notification{notif}, list...)
	if len(list) > maxRecentNotifications {
		list = list[:maxRecentNotifications]
	}
	s.recent.SetDefault(sessionId, list)
}

// GetNotifications returns the session's recent notifications, newest first.
func (s *NotificationService) GetNotifications(sessionId string) []entity.Notification {
	if x, found := s.recent.Get(sessionId); found {
		list := x.([]entity.Notification)
		return append([]entity.Notification(nil), list...)
	}
	return []entity.Notification{}
}
