package service

import (
	"context"
	"testing"
	"time"

	"ai-studynotes-core/internal/entity"
	"ai-studynotes-core/internal/gateway"
	"ai-studynotes-core/internal/repository/memory"
	"ai-studynotes-core/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMonitorFixture(gw *stubGateway, maxWait time.Duration) (*monitorService, *memory.TrackerRepository, *recordingPublisher) {
	trackers := memory.NewTrackerRepository()
	publisher := &recordingPublisher{}
	m := NewMonitorService(gw, trackers, publisher, noopLogger{}, time.Second, maxWait).(*monitorService)
	return m, trackers, publisher
}

func monitored(trackers *memory.TrackerRepository, sessionId string, names ...string) []*entity.Note {
	notes := make([]*entity.Note, 0, len(names))
	for _, name := range names {
		notes = append(notes, &entity.Note{
			Id:        uuid.New(),
			Filename:  name,
			Status:    entity.NoteStatusProcessing,
			CreatedAt: time.Now(),
		})
	}
	trackers.GetOrCreate(sessionId).BeginMonitoring(notes)
	return notes
}

func TestPollOncePublishesCompletionEvents(t *testing.T) {
	gw := &stubGateway{}
	m, trackers, publisher := newMonitorFixture(gw, time.Minute)
	notes := monitored(trackers, "s1", "a.png", "b.png")

	gw.getNotesFn = func(ctx context.Context, sessionId string) ([]*entity.Note, error) {
		fresh := make([]*entity.Note, 0, len(notes))
		for _, n := range notes {
			c := *n
			c.Status = entity.NoteStatusCompleted
			fresh = append(fresh, &c)
		}
		return fresh, nil
	}

	m.pollOnce(context.Background())

	types := publisher.types()
	require.Len(t, types, 3)
	assert.Equal(t, events.TypeNoteCompleted, types[0])
	assert.Equal(t, events.TypeNoteCompleted, types[1])
	assert.Equal(t, events.TypeAllNotesCompleted, types[2])

	// The set resolved; a second poll has no sessions to visit.
	m.pollOnce(context.Background())
	assert.Len(t, publisher.types(), 3)
}

func TestPollOncePublishesFailureWithReason(t *testing.T) {
	gw := &stubGateway{}
	m, trackers, publisher := newMonitorFixture(gw, time.Minute)
	notes := monitored(trackers, "s1", "a.png")

	gw.getNotesFn = func(ctx context.Context, sessionId string) ([]*entity.Note, error) {
		c := *notes[0]
		c.Status = entity.NoteStatusFailed
		return []*entity.Note{&c}, nil
	}

	m.pollOnce(context.Background())

	require.Len(t, publisher.events, 1)
	evt := publisher.events[0]
	assert.Equal(t, events.TypeNoteFailed, evt.EventType())
	assert.Equal(t, memory.FailReasonBackend, evt.Payload()["reason"])
	assert.Equal(t, "s1", evt.Payload()["session_id"])
}

func TestPollOnceTimesOutAbsentNotes(t *testing.T) {
	gw := &stubGateway{}
	m, trackers, publisher := newMonitorFixture(gw, time.Nanosecond)
	monitored(trackers, "s1", "a.png")

	// Backend never saw the note.
	gw.getNotesFn = func(ctx context.Context, sessionId string) ([]*entity.Note, error) {
		return nil, nil
	}

	time.Sleep(time.Millisecond)
	m.pollOnce(context.Background())

	require.Len(t, publisher.events, 1)
	evt := publisher.events[0]
	assert.Equal(t, events.TypeNoteFailed, evt.EventType())
	assert.Equal(t, memory.FailReasonTimeout, evt.Payload()["reason"])
}

func TestPollOnceGatewayErrorLeavesStateUntouched(t *testing.T) {
	gw := &stubGateway{}
	m, trackers, publisher := newMonitorFixture(gw, time.Minute)
	monitored(trackers, "s1", "a.png")

	gw.getNotesFn = func(ctx context.Context, sessionId string) ([]*entity.Note, error) {
		return nil, &gateway.BackendError{Op: "list notes", StatusCode: 500}
	}

	m.pollOnce(context.Background())

	assert.Empty(t, publisher.types())
	assert.True(t, trackers.GetOrCreate("s1").HasMonitored())
}

func TestPollOnceVisitsEachActiveSession(t *testing.T) {
	gw := &stubGateway{}
	m, trackers, _ := newMonitorFixture(gw, time.Minute)
	monitored(trackers, "s1", "a.png")
	monitored(trackers, "s2", "b.png")
	trackers.GetOrCreate("idle")

	var visited []string
	gw.getNotesFn = func(ctx context.Context, sessionId string) ([]*entity.Note, error) {
		visited = append(visited, sessionId)
		return nil, nil
	}

	m.pollOnce(context.Background())

	assert.ElementsMatch(t, []string{"s1", "s2"}, visited)
}

func TestWakeNeverBlocks(t *testing.T) {
	gw := &stubGateway{getNotesFn: func(ctx context.Context, sessionId string) ([]*entity.Note, error) {
		return nil, nil
	}}
	m, _, _ := newMonitorFixture(gw, time.Minute)

	// Repeated wakes with nobody draining must not block the caller.
	for i := 0; i < 5; i++ {
		m.Wake()
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	gw := &stubGateway{getNotesFn: func(ctx context.Context, sessionId string) ([]*entity.Note, error) {
		return nil, nil
	}}
	m, _, _ := newMonitorFixture(gw, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop on cancel")
	}
}
