package service

import (
	"context"
	"time"

	"ai-studynotes-core/internal/gateway"
	"ai-studynotes-core/internal/pkg/logger"
	"ai-studynotes-core/internal/repository/memory"
	"ai-studynotes-core/pkg/events"
)

// IMonitorService drives the background reconciliation loop that keeps every
// session's monitored notes in sync with the processing backend.
type IMonitorService interface {
	// Run blocks until ctx is cancelled, polling at the configured interval.
	Run(ctx context.Context) error

	// Wake triggers an immediate poll tick ahead of the next interval,
	// typically right after an upload.
	Wake()
}

type monitorService struct {
	gw        gateway.NoteGateway
	trackers  *memory.TrackerRepository
	publisher events.Publisher
	logger    logger.ILogger

	interval time.Duration
	maxWait  time.Duration
	wake     chan struct{}
}

func NewMonitorService(
	gw gateway.NoteGateway,
	trackers *memory.TrackerRepository,
	publisher events.Publisher,
	log logger.ILogger,
	interval time.Duration,
	maxWait time.Duration,
) IMonitorService {
	return &monitorService{
		gw:        gw,
		trackers:  trackers,
		publisher: publisher,
		logger:    log,
		interval:  interval,
		maxWait:   maxWait,
		wake:      make(chan struct{}, 1),
	}
}

func (m *monitorService) Run(ctx context.Context) error {
	m.logger.Info("MonitorService", "Note monitor started", map[string]interface{}{
		"interval": m.interval.String(),
		"max_wait": m.maxWait.String(),
	})

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("MonitorService", "Note monitor stopped", nil)
			return ctx.Err()
		case <-ticker.C:
			m.pollOnce(ctx)
		case <-m.wake:
			m.pollOnce(ctx)
		}
	}
}

func (m *monitorService) Wake() {
	select {
	case m.wake <- struct{}{}:
	default:
		// A tick is already pending.
	}
}

// pollOnce reconciles every session that still has monitored notes. A fetch
// failure for one session is logged and leaves that session's state for the
// next tick; other sessions proceed.
func (m *monitorService) pollOnce(ctx context.Context) {
	for _, tracker := range m.trackers.ActiveTrackers() {
		m.pollSession(ctx, tracker)
	}
}

func (m *monitorService) pollSession(ctx context.Context, tracker *memory.NoteTracker) {
	sessionId := tracker.SessionId()

	fresh, err := m.gw.GetNotes(ctx, sessionId)
	if err != nil {
		m.logger.Warn("MonitorService", "Poll fetch failed", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}

	result := tracker.Reconcile(fresh, m.maxWait, time.Now())

	for _, completed := range result.CompletedNow {
		m.publish(ctx, events.TypeNoteCompleted, map[string]interface{}{
			"session_id": sessionId,
			"note_id":    completed.NoteId.String(),
			"filename":   completed.Filename,
		})
	}
	for _, failed := range result.FailedNow {
		m.logger.Warn("MonitorService", "Monitored note failed", map[string]interface{}{
			"session_id": sessionId,
			"note_id":    failed.NoteId.String(),
			"reason":     failed.Reason,
		})
		m.publish(ctx, events.TypeNoteFailed, map[string]interface{}{
			"session_id": sessionId,
			"note_id":    failed.NoteId.String(),
			"filename":   failed.Filename,
			"reason":     failed.Reason,
		})
	}
	if result.AllCompleted {
		m.publish(ctx, events.TypeAllNotesCompleted, map[string]interface{}{
			"session_id": sessionId,
			"completed":  result.Completed,
		})
	}
}

func (m *monitorService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if m.publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := m.publisher.Publish(ctx, evt); err != nil {
		m.logger.Warn("MonitorService", "Failed to publish event", map[string]interface{}{
			"type": eventType, "error": err.Error(),
		})
	}
}
