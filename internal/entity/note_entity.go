package entity

import (
	"time"

	"github.com/google/uuid"
)

type NoteStatus string

const (
	NoteStatusProcessing NoteStatus = "processing"
	NoteStatusCompleted  NoteStatus = "completed"
	NoteStatusFailed     NoteStatus = "failed"
)

// Note is one uploaded handwritten-note image plus its derived AI artifacts.
// The processing backend owns the authoritative copy; ThumbnailURL and
// OriginalImageURL are local references that the backend never sees.
type Note struct {
	Id                uuid.UUID
	Filename          string
	Status            NoteStatus
	ThumbnailURL      string
	OriginalImageURL  string
	Summary           string
	Quiz              *Quiz
	Explanation       *Explanation
	AdditionalContent []AdditionalContent
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// IsTerminal reports whether the note reached a final processing state.
func (n *Note) IsTerminal() bool {
	return n.Status == NoteStatusCompleted || n.Status == NoteStatusFailed
}
