package gateway

import (
	"context"
	"errors"
	"fmt"

	"ai-studynotes-core/internal/entity"

	"github.com/google/uuid"
)

// ErrNoteNotFound signals that the backend has no note with the requested id.
// Callers must be able to tell this apart from a transport failure.
var ErrNoteNotFound = errors.New("note not found")

// BackendError is any network or non-2xx failure talking to the processing
// backend. The store layer classifies these and never leaks them raw.
type BackendError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("backend %s failed: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsBackendError reports whether err originated at the backend boundary.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}

// UploadFile is one validated image heading to the backend.
type UploadFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type QuizParams struct {
	QuestionCount int
	Difficulty    string
}

// NoteSummary is the caller-supplied seed for additional-content generation.
type NoteSummary struct {
	NoteId   uuid.UUID `json:"note_id"`
	Filename string    `json:"filename"`
	Summary  string    `json:"summary"`
}

type ContentFilters struct {
	Subject    string `json:"subject,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// NoteGateway is the single contract between the note store and whichever
// backend fulfills note operations. The remote HTTP client and the in-memory
// mock both implement it; nothing above this interface may branch on which
// one is in use.
type NoteGateway interface {
	UploadNote(ctx context.Context, sessionId string, file UploadFile) (*entity.Note, error)
	GetNotes(ctx context.Context, sessionId string) ([]*entity.Note, error)
	GetNote(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Note, error)
	DeleteNote(ctx context.Context, sessionId string, id uuid.UUID) error
	GenerateQuiz(ctx context.Context, sessionId string, id uuid.UUID, params QuizParams) (*entity.Quiz, error)
	GenerateExplanation(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Explanation, error)
	GenerateAdditionalContent(ctx context.Context, sessionId string, filters ContentFilters, summaries []NoteSummary) ([]entity.AdditionalContent, error)
}
