package dto

import (
	"time"

	"ai-studynotes-core/internal/entity"
	"ai-studynotes-core/internal/pkg/upload"

	"github.com/google/uuid"
)

type NoteResponse struct {
	Id                uuid.UUID                  `json:"id"`
	Filename          string                     `json:"filename"`
	Status            entity.NoteStatus          `json:"status"`
	ThumbnailURL      string                     `json:"thumbnail_url,omitempty"`
	OriginalImageURL  string                     `json:"original_image_url,omitempty"`
	Summary           string                     `json:"summary,omitempty"`
	Quiz              *entity.Quiz               `json:"quiz,omitempty"`
	Explanation       *entity.Explanation        `json:"explanation,omitempty"`
	AdditionalContent []entity.AdditionalContent `json:"additional_content,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         *time.Time                 `json:"updated_at,omitempty"`
}

// UploadAcceptedItem is the immediate answer for one successfully submitted
// file; artifacts arrive later via polling.
type UploadAcceptedItem struct {
	Id       uuid.UUID         `json:"id"`
	Filename string            `json:"filename"`
	Status   entity.NoteStatus `json:"status"`
}

// UploadNotesResponse separates files refused before any network call
// (Rejected) from files that passed validation but failed to reach the
// backend (Failed).
type UploadNotesResponse struct {
	Accepted []UploadAcceptedItem `json:"accepted"`
	Rejected []upload.Rejection   `json:"rejected,omitempty"`
	Failed   []upload.Rejection   `json:"failed,omitempty"`
}

type GenerateQuizRequest struct {
	QuestionCount int    `json:"question_count" validate:"omitempty,min=1,max=20"`
	Difficulty    string `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
}

type GenerateQuizResponse struct {
	Id     uuid.UUID    `json:"id"`
	Quiz   *entity.Quiz `json:"quiz,omitempty"`
	Queued bool         `json:"queued"`
}

type GenerateExplanationResponse struct {
	Id          uuid.UUID          `json:"id"`
	Explanation entity.Explanation `json:"explanation"`
}

type NoteSummaryItem struct {
	NoteId   uuid.UUID `json:"note_id" validate:"required"`
	Filename string    `json:"filename"`
	Summary  string    `json:"summary" validate:"required"`
}

type ContentFilterItem struct {
	Subject    string `json:"subject"`
	Difficulty string `json:"difficulty" validate:"omitempty,oneof=Beginner Intermediate Advanced"`
	Count      int    `json:"count" validate:"omitempty,min=1,max=10"`
}

type GenerateAdditionalContentRequest struct {
	Filters   ContentFilterItem `json:"filters"`
	Summaries []NoteSummaryItem `json:"summaries" validate:"required,min=1,dive"`
}

type AdditionalContentResponse struct {
	Generated   []entity.AdditionalContent `json:"generated"`
	Accumulated []entity.AdditionalContent `json:"accumulated"`
}

type ProgressResponse struct {
	Percent      float64 `json:"percent"`
	Monitored    int     `json:"monitored"`
	Completed    int     `json:"completed"`
	AllCompleted bool    `json:"all_completed"`
}
