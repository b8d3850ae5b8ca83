package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ai-studynotes-core/internal/dto"
	"ai-studynotes-core/internal/entity"
	"ai-studynotes-core/internal/gateway"
	"ai-studynotes-core/internal/mapper"
	"ai-studynotes-core/internal/pkg/upload"
	"ai-studynotes-core/internal/repository/memory"
	"ai-studynotes-core/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

// stubGateway lets each test script the backend per call.
type stubGateway struct {
	uploadFn      func(ctx context.Context, sessionId string, file gateway.UploadFile) (*entity.Note, error)
	getNotesFn    func(ctx context.Context, sessionId string) ([]*entity.Note, error)
	getNoteFn     func(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Note, error)
	deleteFn      func(ctx context.Context, sessionId string, id uuid.UUID) error
	quizFn        func(ctx context.Context, sessionId string, id uuid.UUID, params gateway.QuizParams) (*entity.Quiz, error)
	explanationFn func(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Explanation, error)
	additionalFn  func(ctx context.Context, sessionId string, filters gateway.ContentFilters, summaries []gateway.NoteSummary) ([]entity.AdditionalContent, error)
}

func (s *stubGateway) UploadNote(ctx context.Context, sessionId string, file gateway.UploadFile) (*entity.Note, error) {
	return s.uploadFn(ctx, sessionId, file)
}

func (s *stubGateway) GetNotes(ctx context.Context, sessionId string) ([]*entity.Note, error) {
	return s.getNotesFn(ctx, sessionId)
}

func (s *stubGateway) GetNote(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Note, error) {
	return s.getNoteFn(ctx, sessionId, id)
}

func (s *stubGateway) DeleteNote(ctx context.Context, sessionId string, id uuid.UUID) error {
	return s.deleteFn(ctx, sessionId, id)
}

func (s *stubGateway) GenerateQuiz(ctx context.Context, sessionId string, id uuid.UUID, params gateway.QuizParams) (*entity.Quiz, error) {
	return s.quizFn(ctx, sessionId, id, params)
}

func (s *stubGateway) GenerateExplanation(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Explanation, error) {
	return s.explanationFn(ctx, sessionId, id)
}

func (s *stubGateway) GenerateAdditionalContent(ctx context.Context, sessionId string, filters gateway.ContentFilters, summaries []gateway.NoteSummary) ([]entity.AdditionalContent, error) {
	return s.additionalFn(ctx, sessionId, filters, summaries)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type stubMonitor struct {
	mu    sync.Mutex
	wakes int
}

func (m *stubMonitor) Run(ctx context.Context) error { return nil }

func (m *stubMonitor) Wake() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wakes++
}

func (m *stubMonitor) wakeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.wakes
}

func validPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

type serviceFixture struct {
	service   INoteService
	gw        *stubGateway
	trackers  *memory.TrackerRepository
	publisher *recordingPublisher
	monitor   *stubMonitor
	uploads   string
}

func newFixture(t *testing.T, gw *stubGateway) *serviceFixture {
	t.Helper()
	trackers := memory.NewTrackerRepository()
	publisher := &recordingPublisher{}
	monitor := &stubMonitor{}
	uploads := t.TempDir()

	svc := NewNoteService(
		gw,
		trackers,
		publisher,
		monitor,
		upload.NewValidator(1024*1024, []string{"image/png", "image/jpeg", "image/webp", "image/gif"}),
		mapper.NewNoteMapper(),
		noopLogger{},
		uploads,
		5,
		"medium",
	)
	return &serviceFixture{
		service:   svc,
		gw:        gw,
		trackers:  trackers,
		publisher: publisher,
		monitor:   monitor,
		uploads:   uploads,
	}
}

func acceptingUpload() func(ctx context.Context, sessionId string, file gateway.UploadFile) (*entity.Note, error) {
	return func(ctx context.Context, sessionId string, file gateway.UploadFile) (*entity.Note, error) {
		return &entity.Note{
			Id:        uuid.New(),
			Filename:  file.Filename,
			Status:    entity.NoteStatusProcessing,
			CreatedAt: time.Now(),
		}, nil
	}
}

func TestUploadNotesPartialSuccess(t *testing.T) {
	gw := &stubGateway{}
	gw.uploadFn = func(ctx context.Context, sessionId string, file gateway.UploadFile) (*entity.Note, error) {
		if file.Filename == "broken.png" {
			return nil, &gateway.BackendError{Op: "upload note", StatusCode: 500}
		}
		return acceptingUpload()(ctx, sessionId, file)
	}
	f := newFixture(t, gw)

	res, err := f.service.UploadNotes(context.Background(), "s1", []gateway.UploadFile{
		{Filename: "good.png", Data: validPNG(t)},
		{Filename: "broken.png", Data: validPNG(t)},
		{Filename: "notes.txt", Data: []byte("plain text")},
	})
	require.NoError(t, err)

	require.Len(t, res.Accepted, 1)
	assert.Equal(t, "good.png", res.Accepted[0].Filename)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "broken.png", res.Failed[0].Filename)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "notes.txt", res.Rejected[0].Filename)

	// Monitoring covers exactly the accepted upload.
	tracker := f.trackers.GetOrCreate("s1")
	require.Len(t, tracker.MonitoredIds(), 1)
	assert.Equal(t, res.Accepted[0].Id, tracker.MonitoredIds()[0])

	assert.Equal(t, []string{events.TypeNoteUploaded}, f.publisher.types())
	assert.Equal(t, 1, f.monitor.wakeCount())
}

func TestUploadNotesAllFailed(t *testing.T) {
	gw := &stubGateway{}
	gw.uploadFn = func(ctx context.Context, sessionId string, file gateway.UploadFile) (*entity.Note, error) {
		return nil, &gateway.BackendError{Op: "upload note", StatusCode: 502}
	}
	f := newFixture(t, gw)

	res, err := f.service.UploadNotes(context.Background(), "s1", []gateway.UploadFile{
		{Filename: "a.png", Data: validPNG(t)},
		{Filename: "b.png", Data: validPNG(t)},
	})
	assert.ErrorIs(t, err, ErrAllUploadsFailed)
	require.NotNil(t, res)
	assert.Empty(t, res.Accepted)
	assert.Len(t, res.Failed, 2)

	assert.False(t, f.trackers.GetOrCreate("s1").HasMonitored())
	assert.Zero(t, f.monitor.wakeCount())
}

func TestUploadNotesSavesPreview(t *testing.T) {
	gw := &stubGateway{uploadFn: acceptingUpload()}
	f := newFixture(t, gw)

	res, err := f.service.UploadNotes(context.Background(), "s1", []gateway.UploadFile{
		{Filename: "a.png", Data: validPNG(t)},
	})
	require.NoError(t, err)
	require.Len(t, res.Accepted, 1)

	note := f.trackers.GetOrCreate("s1").Note(res.Accepted[0].Id)
	require.NotNil(t, note)
	assert.NotEmpty(t, note.OriginalImageURL)
	assert.Equal(t, note.OriginalImageURL, note.ThumbnailURL)

	entries, err := os.ReadDir(f.uploads)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, filepath.Ext(entries[0].Name()), ".png")
}

func TestUploadReplacesMonitoringSet(t *testing.T) {
	gw := &stubGateway{uploadFn: acceptingUpload()}
	f := newFixture(t, gw)
	ctx := context.Background()

	first, err := f.service.UploadNotes(ctx, "s1", []gateway.UploadFile{
		{Filename: "a.png", Data: validPNG(t)},
		{Filename: "b.png", Data: validPNG(t)},
	})
	require.NoError(t, err)
	require.Len(t, first.Accepted, 2)

	second, err := f.service.UploadNotes(ctx, "s1", []gateway.UploadFile{
		{Filename: "c.png", Data: validPNG(t)},
	})
	require.NoError(t, err)

	ids := f.trackers.GetOrCreate("s1").MonitoredIds()
	require.Len(t, ids, 1)
	assert.Equal(t, second.Accepted[0].Id, ids[0])
}

func TestFetchNotesErrorLeavesStateUntouched(t *testing.T) {
	gw := &stubGateway{uploadFn: acceptingUpload()}
	f := newFixture(t, gw)
	ctx := context.Background()

	res, err := f.service.UploadNotes(ctx, "s1", []gateway.UploadFile{
		{Filename: "a.png", Data: validPNG(t)},
	})
	require.NoError(t, err)

	gw.getNotesFn = func(ctx context.Context, sessionId string) ([]*entity.Note, error) {
		return nil, &gateway.BackendError{Op: "list notes", StatusCode: 500}
	}

	_, err = f.service.FetchNotes(ctx, "s1")
	require.Error(t, err)

	// Prior replica is intact.
	assert.NotNil(t, f.trackers.GetOrCreate("s1").Note(res.Accepted[0].Id))
}

func TestFetchNoteNotFoundRemovesLocal(t *testing.T) {
	gw := &stubGateway{uploadFn: acceptingUpload()}
	f := newFixture(t, gw)
	ctx := context.Background()

	res, err := f.service.UploadNotes(ctx, "s1", []gateway.UploadFile{
		{Filename: "a.png", Data: validPNG(t)},
	})
	require.NoError(t, err)
	id := res.Accepted[0].Id

	gw.getNoteFn = func(ctx context.Context, sessionId string, noteId uuid.UUID) (*entity.Note, error) {
		return nil, gateway.ErrNoteNotFound
	}

	_, err = f.service.FetchNote(ctx, "s1", id)
	assert.ErrorIs(t, err, gateway.ErrNoteNotFound)
	assert.Nil(t, f.trackers.GetOrCreate("s1").Note(id))
	assert.False(t, f.trackers.GetOrCreate("s1").HasMonitored())
}

func TestDeleteNoteIdempotent(t *testing.T) {
	gw := &stubGateway{uploadFn: acceptingUpload()}
	deleted := 0
	gw.deleteFn = func(ctx context.Context, sessionId string, id uuid.UUID) error {
		deleted++
		if deleted > 1 {
			return gateway.ErrNoteNotFound
		}
		return nil
	}
	f := newFixture(t, gw)
	ctx := context.Background()

	res, err := f.service.UploadNotes(ctx, "s1", []gateway.UploadFile{
		{Filename: "a.png", Data: validPNG(t)},
	})
	require.NoError(t, err)
	id := res.Accepted[0].Id

	require.NoError(t, f.service.DeleteNote(ctx, "s1", id))
	assert.Nil(t, f.trackers.GetOrCreate("s1").Note(id))

	// An upstream not-found on repeat is benign.
	require.NoError(t, f.service.DeleteNote(ctx, "s1", id))

	// The preview file is gone too.
	entries, err := os.ReadDir(f.uploads)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGenerateQuizQueuedAndStored(t *testing.T) {
	gw := &stubGateway{uploadFn: acceptingUpload()}
	f := newFixture(t, gw)
	ctx := context.Background()

	res, err := f.service.UploadNotes(ctx, "s1", []gateway.UploadFile{
		{Filename: "a.png", Data: validPNG(t)},
	})
	require.NoError(t, err)
	id := res.Accepted[0].Id

	// Backend queued the quiz.
	gw.quizFn = func(ctx context.Context, sessionId string, noteId uuid.UUID, params gateway.QuizParams) (*entity.Quiz, error) {
		assert.Equal(t, 3, params.QuestionCount)
		assert.Equal(t, "easy", params.Difficulty)
		return nil, nil
	}
	quizRes, err := f.service.GenerateQuiz(ctx, "s1", id, &dto.GenerateQuizRequest{QuestionCount: 3, Difficulty: "easy"})
	require.NoError(t, err)
	assert.True(t, quizRes.Queued)
	assert.Nil(t, quizRes.Quiz)

	// Backend answered inline; defaults apply when the request is empty.
	gw.quizFn = func(ctx context.Context, sessionId string, noteId uuid.UUID, params gateway.QuizParams) (*entity.Quiz, error) {
		assert.Equal(t, 5, params.QuestionCount)
		assert.Equal(t, "medium", params.Difficulty)
		return &entity.Quiz{ShortAnswer: []entity.QuizQuestion{{Question: "Q", Answer: "A"}}}, nil
	}
	quizRes, err = f.service.GenerateQuiz(ctx, "s1", id, &dto.GenerateQuizRequest{})
	require.NoError(t, err)
	assert.False(t, quizRes.Queued)
	require.NotNil(t, quizRes.Quiz)

	stored := f.trackers.GetOrCreate("s1").Note(id)
	require.NotNil(t, stored.Quiz)
	assert.Equal(t, 1, stored.Quiz.QuestionCount())
}

func TestGenerateExplanationStored(t *testing.T) {
	gw := &stubGateway{uploadFn: acceptingUpload()}
	gw.explanationFn = func(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Explanation, error) {
		return &entity.Explanation{Text: "step by step"}, nil
	}
	f := newFixture(t, gw)
	ctx := context.Background()

	res, err := f.service.UploadNotes(ctx, "s1", []gateway.UploadFile{
		{Filename: "a.png", Data: validPNG(t)},
	})
	require.NoError(t, err)
	id := res.Accepted[0].Id

	explanation, err := f.service.GenerateExplanation(ctx, "s1", id)
	require.NoError(t, err)
	require.NotNil(t, explanation)

	stored := f.trackers.GetOrCreate("s1").Note(id)
	require.NotNil(t, stored.Explanation)
	assert.Equal(t, explanation.Text, stored.Explanation.Text)
}

func TestGenerateAdditionalContentAccumulates(t *testing.T) {
	gw := &stubGateway{uploadFn: acceptingUpload()}
	titles := []string{"First", "Second"}
	call := 0
	gw.additionalFn = func(ctx context.Context, sessionId string, filters gateway.ContentFilters, summaries []gateway.NoteSummary) ([]entity.AdditionalContent, error) {
		title := titles[call]
		call++
		return []entity.AdditionalContent{{Title: title}}, nil
	}
	f := newFixture(t, gw)
	ctx := context.Background()

	res, err := f.service.UploadNotes(ctx, "s1", []gateway.UploadFile{
		{Filename: "a.png", Data: validPNG(t)},
	})
	require.NoError(t, err)
	id := res.Accepted[0].Id

	req := &dto.GenerateAdditionalContentRequest{
		Summaries: []dto.NoteSummaryItem{{NoteId: id, Filename: "a.png", Summary: "sum"}},
	}

	first, err := f.service.GenerateAdditionalContent(ctx, "s1", req)
	require.NoError(t, err)
	assert.Len(t, first.Accumulated, 1)

	second, err := f.service.GenerateAdditionalContent(ctx, "s1", req)
	require.NoError(t, err)
	require.Len(t, second.Accumulated, 2)
	assert.Equal(t, "First", second.Accumulated[0].Title)
	assert.Equal(t, "Second", second.Accumulated[1].Title)
}

func TestGenerateQuizGatewayErrorPropagates(t *testing.T) {
	gw := &stubGateway{uploadFn: acceptingUpload()}
	gw.quizFn = func(ctx context.Context, sessionId string, id uuid.UUID, params gateway.QuizParams) (*entity.Quiz, error) {
		return nil, gateway.ErrNoteNotFound
	}
	f := newFixture(t, gw)

	_, err := f.service.GenerateQuiz(context.Background(), "s1", uuid.New(), nil)
	assert.True(t, errors.Is(err, gateway.ErrNoteNotFound))
}
