package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"ai-studynotes-core/internal/entity"

	"github.com/google/uuid"
)

// RemoteGateway is the HTTP client for the real processing backend. Every
// call is a stateless request/response wrapper; the session id rides along
// as a correlation header with no auth semantics.
type RemoteGateway struct {
	baseURL string
	client  *http.Client
}

const sessionHeader = "X-Session-Id"

func NewRemoteGateway(baseURL string, timeout time.Duration) *RemoteGateway {
	return &RemoteGateway{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type remoteNote struct {
	Id          uuid.UUID                  `json:"id"`
	Filename    string                     `json:"filename"`
	Status      string                     `json:"status"`
	Summary     string                     `json:"summary,omitempty"`
	Quiz        *entity.Quiz               `json:"quiz,omitempty"`
	Explanation *entity.Explanation        `json:"explanation,omitempty"`
	Additional  []entity.AdditionalContent `json:"additional_content,omitempty"`
	CreatedAt   time.Time                  `json:"created_at"`
	UpdatedAt   *time.Time                 `json:"updated_at,omitempty"`
}

func (n *remoteNote) toEntity() *entity.Note {
	status := entity.NoteStatus(n.Status)
	switch status {
	case entity.NoteStatusProcessing, entity.NoteStatusCompleted, entity.NoteStatusFailed:
	default:
		// Unknown backend status is treated as still processing rather than
		// inventing a terminal state.
		status = entity.NoteStatusProcessing
	}
	return &entity.Note{
		Id:                n.Id,
		Filename:          n.Filename,
		Status:            status,
		Summary:           n.Summary,
		Quiz:              n.Quiz,
		Explanation:       n.Explanation,
		AdditionalContent: n.Additional,
		CreatedAt:         n.CreatedAt,
		UpdatedAt:         n.UpdatedAt,
	}
}

func (g *RemoteGateway) UploadNote(ctx context.Context, sessionId string, file UploadFile) (*entity.Note, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", file.Filename)
	if err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/v1/notes/upload", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(sessionHeader, sessionId)

	var res remoteNote
	if err := g.do(req, "upload note", &res); err != nil {
		return nil, err
	}
	return res.toEntity(), nil
}

func (g *RemoteGateway) GetNotes(ctx context.Context, sessionId string) ([]*entity.Note, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/v1/notes", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(sessionHeader, sessionId)

	var res struct {
		Notes []remoteNote `json:"notes"`
	}
	if err := g.do(req, "list notes", &res); err != nil {
		return nil, err
	}

	notes := make([]*entity.Note, 0, len(res.Notes))
	for i := range res.Notes {
		notes = append(notes, res.Notes[i].toEntity())
	}
	return notes, nil
}

func (g *RemoteGateway) GetNote(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Note, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api/v1/notes/%s", g.baseURL, id), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(sessionHeader, sessionId)

	var res remoteNote
	if err := g.do(req, "get note", &res); err != nil {
		return nil, err
	}
	return res.toEntity(), nil
}

func (g *RemoteGateway) DeleteNote(ctx context.Context, sessionId string, id uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/api/v1/notes/%s", g.baseURL, id), nil)
	if err != nil {
		return err
	}
	req.Header.Set(sessionHeader, sessionId)

	return g.do(req, "delete note", nil)
}

func (g *RemoteGateway) GenerateQuiz(ctx context.Context, sessionId string, id uuid.UUID, params QuizParams) (*entity.Quiz, error) {
	payload := map[string]interface{}{
		"question_count": params.QuestionCount,
		"difficulty":     params.Difficulty,
	}
	req, err := g.jsonRequest(ctx, sessionId, fmt.Sprintf("%s/api/v1/notes/%s/quiz", g.baseURL, id), payload)
	if err != nil {
		return nil, err
	}

	var res struct {
		Quiz *entity.Quiz `json:"quiz"`
	}
	if err := g.do(req, "generate quiz", &res); err != nil {
		return nil, err
	}
	return res.Quiz, nil
}

func (g *RemoteGateway) GenerateExplanation(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Explanation, error) {
	req, err := g.jsonRequest(ctx, sessionId, fmt.Sprintf("%s/api/v1/notes/%s/explanation", g.baseURL, id), map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	var res entity.Explanation
	if err := g.do(req, "generate explanation", &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (g *RemoteGateway) GenerateAdditionalContent(ctx context.Context, sessionId string, filters ContentFilters, summaries []NoteSummary) ([]entity.AdditionalContent, error) {
	payload := map[string]interface{}{
		"filters":   filters,
		"summaries": summaries,
	}
	req, err := g.jsonRequest(ctx, sessionId, g.baseURL+"/api/v1/additional-content", payload)
	if err != nil {
		return nil, err
	}

	var res struct {
		Items []entity.AdditionalContent `json:"items"`
	}
	if err := g.do(req, "generate additional content", &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (g *RemoteGateway) jsonRequest(ctx context.Context, sessionId, url string, payload interface{}) (*http.Request, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(sessionHeader, sessionId)
	return req, nil
}

// do executes the request and decodes a 2xx body into out (when non-nil).
// 404 maps to ErrNoteNotFound; everything else non-2xx becomes a BackendError.
func (g *RemoteGateway) do(req *http.Request, op string, out interface{}) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &BackendError{Op: op, Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNoteNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &BackendError{Op: op, StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return &BackendError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
