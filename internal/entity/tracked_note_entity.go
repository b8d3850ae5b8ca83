package entity

import (
	"time"

	"github.com/google/uuid"
)

// StatusOrigin tags where a tracked note's status came from. An optimistic
// status is the local placeholder set at upload time; a confirmed status was
// adopted from the backend and always wins over a guess.
type StatusOrigin string

const (
	StatusOriginOptimistic StatusOrigin = "optimistic"
	StatusOriginConfirmed  StatusOrigin = "confirmed"
)

// TrackedNote is one entry of the monitoring set: a note uploaded this
// session whose processing completion the poller is still waiting on.
type TrackedNote struct {
	NoteId    uuid.UUID
	Filename  string
	Status    NoteStatus
	Origin    StatusOrigin
	FirstSeen time.Time
}

// Confirm adopts the backend's status. Transitions are monotonic: a note that
// already reached a terminal state never goes back to processing.
func (t *TrackedNote) Confirm(status NoteStatus) {
	if t.Status != NoteStatusProcessing && status == NoteStatusProcessing {
		return
	}
	t.Status = status
	t.Origin = StatusOriginConfirmed
}
