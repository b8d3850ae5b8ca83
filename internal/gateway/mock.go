package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"ai-studynotes-core/internal/config"
	"ai-studynotes-core/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MockGateway fulfills the NoteGateway contract without network I/O. Uploads
// land as processing notes and flip to completed after a bounded random delay,
// emulating the OCR/LLM pipeline. Per-session state lives in a go-cache with
// sliding expiry so abandoned dev sessions clean themselves up.
type MockGateway struct {
	sessions  *cache.Cache
	scheduler Scheduler
	delays    config.MockConfig
}

type mockSession struct {
	mu      sync.Mutex
	notes   map[uuid.UUID]*entity.Note
	order   []uuid.UUID
	cancels map[uuid.UUID]CancelFunc
}

func NewMockGateway(delays config.MockConfig, scheduler Scheduler) *MockGateway {
	if scheduler == nil {
		scheduler = NewTimerScheduler()
	}
	return &MockGateway{
		sessions:  cache.New(24*time.Hour, 1*time.Hour),
		scheduler: scheduler,
		delays:    delays,
	}
}

func (g *MockGateway) session(sessionId string) *mockSession {
	if x, found := g.sessions.Get(sessionId); found {
		return x.(*mockSession)
	}
	s := &mockSession{
		notes:   make(map[uuid.UUID]*entity.Note),
		cancels: make(map[uuid.UUID]CancelFunc),
	}
	// Add fails if another goroutine created the session first; use theirs.
	if err := g.sessions.Add(sessionId, s, cache.DefaultExpiration); err != nil {
		if x, found := g.sessions.Get(sessionId); found {
			return x.(*mockSession)
		}
	}
	return s
}

func (g *MockGateway) delay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func (g *MockGateway) UploadNote(ctx context.Context, sessionId string, file UploadFile) (*entity.Note, error) {
	s := g.session(sessionId)

	note := &entity.Note{
		Id:        uuid.New(),
		Filename:  file.Filename,
		Status:    entity.NoteStatusProcessing,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.notes[note.Id] = note
	s.order = append(s.order, note.Id)
	s.mu.Unlock()

	id := note.Id
	cancel := g.scheduler.Schedule(g.delay(g.delays.UploadDelayMin, g.delays.UploadDelayMax), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		n, ok := s.notes[id]
		if !ok || n.Status != entity.NoteStatusProcessing {
			return
		}
		now := time.Now()
		n.Status = entity.NoteStatusCompleted
		n.Summary = mockSummary(n.Filename)
		n.UpdatedAt = &now
		delete(s.cancels, id)
	})

	s.mu.Lock()
	s.cancels[id] = cancel
	s.mu.Unlock()

	return cloneNote(note), nil
}

func (g *MockGateway) GetNotes(ctx context.Context, sessionId string) ([]*entity.Note, error) {
	s := g.session(sessionId)

	s.mu.Lock()
	defer s.mu.Unlock()

	notes := make([]*entity.Note, 0, len(s.order))
	for _, id := range s.order {
		if n, ok := s.notes[id]; ok {
			notes = append(notes, cloneNote(n))
		}
	}
	return notes, nil
}

func (g *MockGateway) GetNote(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Note, error) {
	s := g.session(sessionId)

	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	return cloneNote(n), nil
}

func (g *MockGateway) DeleteNote(ctx context.Context, sessionId string, id uuid.UUID) error {
	s := g.session(sessionId)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return ErrNoteNotFound
	}
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	delete(s.notes, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (g *MockGateway) GenerateQuiz(ctx context.Context, sessionId string, id uuid.UUID, params QuizParams) (*entity.Quiz, error) {
	s := g.session(sessionId)

	s.mu.Lock()
	_, ok := s.notes[id]
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoteNotFound
	}

	// Quiz generation is asynchronous: the quiz lands on the stored note after
	// the simulated delay and surfaces via a subsequent fetch or poll tick.
	g.scheduler.Schedule(g.delay(g.delays.QuizDelayMin, g.delays.QuizDelayMax), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		n, ok := s.notes[id]
		if !ok || n.Quiz != nil {
			return
		}
		n.Quiz = mockQuiz(n.Filename, params)
		now := time.Now()
		n.UpdatedAt = &now
	})

	return nil, nil
}

func (g *MockGateway) GenerateExplanation(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Explanation, error) {
	s := g.session(sessionId)

	s.mu.Lock()
	n, ok := s.notes[id]
	var filename string
	if ok {
		filename = n.Filename
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoteNotFound
	}

	// Explanation is a synchronous operation per the backend contract, so the
	// latency is simulated inline (context-aware, zero in tests).
	select {
	case <-time.After(g.delay(g.delays.ExplainDelayMin, g.delays.ExplainDelayMax)):
	case <-ctx.Done():
		return nil, &BackendError{Op: "generate explanation", Err: ctx.Err()}
	}

	explanation := mockExplanation(filename)

	s.mu.Lock()
	if n, ok := s.notes[id]; ok {
		n.Explanation = explanation
		now := time.Now()
		n.UpdatedAt = &now
	}
	s.mu.Unlock()

	return cloneExplanation(explanation), nil
}

func (g *MockGateway) GenerateAdditionalContent(ctx context.Context, sessionId string, filters ContentFilters, summaries []NoteSummary) ([]entity.AdditionalContent, error) {
	difficulty := entity.ContentDifficulty(filters.Difficulty)
	if difficulty == "" {
		difficulty = entity.DifficultyIntermediate
	}

	items := make([]entity.AdditionalContent, 0, len(summaries))
	for _, sum := range summaries {
		subject := filters.Subject
		if subject == "" {
			subject = "General Study"
		}
		items = append(items, entity.AdditionalContent{
			Title:         fmt.Sprintf("Deep Dive: %s", baseName(sum.Filename)),
			Subject:       subject,
			Description:   fmt.Sprintf("Supplementary material expanding on %s", baseName(sum.Filename)),
			Body:          fmt.Sprintf("Building on your notes: %s", sum.Summary),
			KeyPoints:     []string{"Review the core definitions", "Work through the derivations yourself", "Connect this topic to the previous chapter"},
			Difficulty:    difficulty,
			EstimatedTime: "15 min",
			LastUpdated:   time.Now().Format("Jan 2, 2006"),
		})
	}
	return items, nil
}

func mockSummary(filename string) string {
	return fmt.Sprintf("Key concepts extracted from %s: definitions, worked examples and the main theorem with its proof sketch.", baseName(filename))
}

func mockQuiz(filename string, params QuizParams) *entity.Quiz {
	count := params.QuestionCount
	if count <= 0 {
		count = 5
	}
	topic := baseName(filename)

	quiz := &entity.Quiz{GeneratedAt: time.Now()}
	for i := 0; i < count; i++ {
		q := entity.QuizQuestion{
			Question:    fmt.Sprintf("Question %d about %s", i+1, topic),
			Explanation: "See the highlighted section of your notes.",
		}
		switch i % 3 {
		case 0:
			q.Options = []string{"Option A", "Option B", "Option C", "Option D"}
			q.Answer = "Option A"
			quiz.MultipleChoice = append(quiz.MultipleChoice, q)
		case 1:
			q.Answer = "true"
			quiz.TrueFalse = append(quiz.TrueFalse, q)
		default:
			q.Answer = fmt.Sprintf("Short answer about %s", topic)
			quiz.ShortAnswer = append(quiz.ShortAnswer, q)
		}
	}
	return quiz
}

func mockExplanation(filename string) *entity.Explanation {
	topic := baseName(filename)
	return &entity.Explanation{
		Text: fmt.Sprintf("These notes on %s cover three connected ideas, explained step by step below.", topic),
		Concepts: []entity.ConceptBreakdown{
			{Concept: "Core definition", Detail: fmt.Sprintf("The central term in %s and what it formally means.", topic), Example: "A worked example from your notes."},
			{Concept: "Main result", Detail: "How the definition leads to the main theorem.", Example: "The derivation on the second page."},
		},
	}
}

func baseName(filename string) string {
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i]
	}
	return filename
}

func cloneNote(n *entity.Note) *entity.Note {
	c := *n
	if n.UpdatedAt != nil {
		t := *n.UpdatedAt
		c.UpdatedAt = &t
	}
	if n.Quiz != nil {
		q := *n.Quiz
		c.Quiz = &q
	}
	if n.Explanation != nil {
		c.Explanation = cloneExplanation(n.Explanation)
	}
	if len(n.AdditionalContent) > 0 {
		c.AdditionalContent = append([]entity.AdditionalContent(nil), n.AdditionalContent...)
	}
	return &c
}

func cloneExplanation(e *entity.Explanation) *entity.Explanation {
	c := *e
	if len(e.Concepts) > 0 {
		c.Concepts = append([]entity.ConceptBreakdown(nil), e.Concepts...)
	}
	return &c
}
