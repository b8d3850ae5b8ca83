package memory

import (
	"sync"
	"time"

	"ai-studynotes-core/internal/entity"

	"github.com/google/uuid"
)

// NoteTracker is one session's authoritative note-store state: the local
// note replica, the monitoring set of in-flight uploads, and the accumulated
// additional content. All mutation goes through its methods; the monitoring
// set and the note collection are always updated under the same lock so no
// caller can observe them disagreeing.
type NoteTracker struct {
	mu        sync.Mutex
	sessionId string

	notes map[uuid.UUID]*entity.Note
	order []uuid.UUID

	monitored        map[uuid.UUID]*entity.TrackedNote
	surfaced         map[uuid.UUID]bool
	allCompleteFired bool

	additional []entity.AdditionalContent
	uploadFlag bool
}

func NewNoteTracker(sessionId string) *NoteTracker {
	return &NoteTracker{
		sessionId: sessionId,
		notes:     make(map[uuid.UUID]*entity.Note),
		monitored: make(map[uuid.UUID]*entity.TrackedNote),
		surfaced:  make(map[uuid.UUID]bool),
	}
}

func (t *NoteTracker) SessionId() string {
	return t.sessionId
}

// BeginMonitoring registers freshly uploaded notes and resets the monitoring
// set to exactly their ids. Leftovers from an earlier batch are dropped so a
// new upload always starts from a clean progress baseline.
func (t *NoteTracker) BeginMonitoring(notes []*entity.Note) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.monitored = make(map[uuid.UUID]*entity.TrackedNote, len(notes))
	t.surfaced = make(map[uuid.UUID]bool)
	t.allCompleteFired = false

	now := time.Now()
	for _, n := range notes {
		t.upsertLocked(n)
		t.monitored[n.Id] = &entity.TrackedNote{
			NoteId:    n.Id,
			Filename:  n.Filename,
			Status:    entity.NoteStatusProcessing,
			Origin:    entity.StatusOriginOptimistic,
			FirstSeen: now,
		}
	}
}

func (t *NoteTracker) upsertLocked(n *entity.Note) {
	if _, ok := t.notes[n.Id]; !ok {
		t.order = append(t.order, n.Id)
	}
	t.notes[n.Id] = n
}

// ReplaceNotes adopts a fresh full collection from the gateway, carrying over
// the locally-owned fields (preview URLs, artifacts the backend does not
// echo back) from any existing entry. Notes absent upstream are dropped from
// the replica; the monitoring set keeps its own view of them.
func (t *NoteTracker) ReplaceNotes(fresh []*entity.Note) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.replaceNotesLocked(fresh)
}

func (t *NoteTracker) replaceNotesLocked(fresh []*entity.Note) {
	notes := make(map[uuid.UUID]*entity.Note, len(fresh))
	order := make([]uuid.UUID, 0, len(fresh))

	for _, n := range fresh {
		merged := *n
		if prev, ok := t.notes[n.Id]; ok {
			merged.ThumbnailURL = prev.ThumbnailURL
			merged.OriginalImageURL = prev.OriginalImageURL
			if merged.Quiz == nil {
				merged.Quiz = prev.Quiz
			}
			if merged.Explanation == nil {
				merged.Explanation = prev.Explanation
			}
			if len(merged.AdditionalContent) == 0 {
				merged.AdditionalContent = prev.AdditionalContent
			}
		}
		notes[n.Id] = &merged
		order = append(order, n.Id)
	}

	t.notes = notes
	t.order = order
}

// MergeNote adopts a single fresh note from the gateway, preserving the
// locally-owned fields, and returns the merged copy.
func (t *NoteTracker) MergeNote(fresh *entity.Note) *entity.Note {
	t.mu.Lock()
	defer t.mu.Unlock()

	merged := *fresh
	if prev, ok := t.notes[fresh.Id]; ok {
		merged.ThumbnailURL = prev.ThumbnailURL
		merged.OriginalImageURL = prev.OriginalImageURL
		if merged.Quiz == nil {
			merged.Quiz = prev.Quiz
		}
		if merged.Explanation == nil {
			merged.Explanation = prev.Explanation
		}
		if len(merged.AdditionalContent) == 0 {
			merged.AdditionalContent = prev.AdditionalContent
		}
	}
	t.upsertLocked(&merged)

	copied := merged
	return &copied
}

// FailedNote is a monitored note that resolved to failed during a poll tick.
type FailedNote struct {
	entity.TrackedNote
	Reason string
}

const (
	FailReasonBackend = "backend_failed"
	FailReasonTimeout = "timeout"
)

// ReconcileResult reports what one poll tick changed.
type ReconcileResult struct {
	CompletedNow []entity.TrackedNote
	FailedNow    []FailedNote
	AllCompleted bool
	Progress     float64
	Monitored    int
	Completed    int
}

// Reconcile merges a fresh gateway collection into the replica and drives the
// monitoring set forward in one atomic step:
//
//  1. Confirmed backend status always beats the optimistic local guess.
//  2. A note absent upstream keeps its prior status until maxWait expires,
//     at which point it is forced to failed.
//  3. Failed notes are surfaced once and removed from the set; the remaining
//     notes keep completing independently.
//  4. When every monitored note is completed, AllCompleted is reported
//     exactly once and the set is cleared.
func (t *NoteTracker) Reconcile(fresh []*entity.Note, maxWait time.Duration, now time.Time) ReconcileResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.replaceNotesLocked(fresh)

	var result ReconcileResult

	for id, tracked := range t.monitored {
		if n, ok := t.notes[id]; ok {
			tracked.Confirm(n.Status)
		} else if maxWait > 0 && tracked.Status == entity.NoteStatusProcessing && now.Sub(tracked.FirstSeen) > maxWait {
			tracked.Status = entity.NoteStatusFailed
		}

		switch tracked.Status {
		case entity.NoteStatusCompleted:
			if !t.surfaced[id] {
				t.surfaced[id] = true
				result.CompletedNow = append(result.CompletedNow, *tracked)
			}
		case entity.NoteStatusFailed:
			reason := FailReasonBackend
			if tracked.Origin == entity.StatusOriginOptimistic {
				reason = FailReasonTimeout
			}
			result.FailedNow = append(result.FailedNow, FailedNote{TrackedNote: *tracked, Reason: reason})
			delete(t.monitored, id)
			delete(t.surfaced, id)
		}
	}

	result.Monitored = len(t.monitored)
	for _, tracked := range t.monitored {
		if tracked.Status == entity.NoteStatusCompleted {
			result.Completed++
		}
	}
	if result.Monitored > 0 {
		result.Progress = float64(result.Completed) / float64(result.Monitored) * 100

		if result.Completed == result.Monitored && !t.allCompleteFired {
			t.allCompleteFired = true
			result.AllCompleted = true
			t.monitored = make(map[uuid.UUID]*entity.TrackedNote)
			t.surfaced = make(map[uuid.UUID]bool)
		}
	}

	return result
}

// Progress reports the aggregate completion of the current monitoring set.
// After the set resolved completely it latches at 100%.
type Progress struct {
	Percent      float64 `json:"percent"`
	Monitored    int     `json:"monitored"`
	Completed    int     `json:"completed"`
	AllCompleted bool    `json:"all_completed"`
}

func (t *NoteTracker) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.monitored) == 0 {
		if t.allCompleteFired {
			return Progress{Percent: 100, AllCompleted: true}
		}
		return Progress{}
	}

	completed := 0
	for _, tracked := range t.monitored {
		if tracked.Status == entity.NoteStatusCompleted {
			completed++
		}
	}
	return Progress{
		Percent:   float64(completed) / float64(len(t.monitored)) * 100,
		Monitored: len(t.monitored),
		Completed: completed,
	}
}

// HasMonitored reports whether the poller still has work for this session.
func (t *NoteTracker) HasMonitored() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.monitored) > 0
}

// MonitoredIds returns the current monitoring set.
func (t *NoteTracker) MonitoredIds() []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	ids := make([]uuid.UUID, 0, len(t.monitored))
	for id := range t.monitored {
		ids = append(ids, id)
	}
	return ids
}

// Note returns the replica entry for id, or nil.
func (t *NoteTracker) Note(id uuid.UUID) *entity.Note {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n, ok := t.notes[id]; ok {
		copied := *n
		return &copied
	}
	return nil
}

// Notes returns the full replica in upload order.
func (t *NoteTracker) Notes() []*entity.Note {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collectLocked(func(*entity.Note) bool { return true })
}

// Processing returns the notes still being processed.
func (t *NoteTracker) Processing() []*entity.Note {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collectLocked(func(n *entity.Note) bool { return n.Status == entity.NoteStatusProcessing })
}

// Completed returns the notes whose artifacts are ready.
func (t *NoteTracker) Completed() []*entity.Note {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collectLocked(func(n *entity.Note) bool { return n.Status == entity.NoteStatusCompleted })
}

func (t *NoteTracker) collectLocked(keep func(*entity.Note) bool) []*entity.Note {
	notes := make([]*entity.Note, 0, len(t.order))
	for _, id := range t.order {
		if n, ok := t.notes[id]; ok && keep(n) {
			copied := *n
			notes = append(notes, &copied)
		}
	}
	return notes
}

// RemoveNote drops a note from the replica and the monitoring set together.
// Returns whether it existed plus the local file references to release.
func (t *NoteTracker) RemoveNote(id uuid.UUID) (bool, []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.notes[id]
	if !ok {
		if _, monitored := t.monitored[id]; !monitored {
			return false, nil
		}
	}

	var refs []string
	if n != nil {
		if n.OriginalImageURL != "" {
			refs = append(refs, n.OriginalImageURL)
		}
		if n.ThumbnailURL != "" && n.ThumbnailURL != n.OriginalImageURL {
			refs = append(refs, n.ThumbnailURL)
		}
	}

	delete(t.notes, id)
	delete(t.monitored, id)
	delete(t.surfaced, id)
	for i, oid := range t.order {
		if oid == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true, refs
}

// SetQuiz attaches a generated quiz to the note, if still present.
func (t *NoteTracker) SetQuiz(id uuid.UUID, quiz *entity.Quiz) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n, ok := t.notes[id]; ok {
		n.Quiz = quiz
	}
}

// SetExplanation attaches a generated explanation to the note, if present.
func (t *NoteTracker) SetExplanation(id uuid.UUID, explanation *entity.Explanation) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n, ok := t.notes[id]; ok {
		n.Explanation = explanation
	}
}

// AppendAdditional accumulates generated study material. Generation is
// append-only; earlier items are never replaced. Notes referenced for the
// first time also receive the items; a note's own list is immutable once set.
func (t *NoteTracker) AppendAdditional(items []entity.AdditionalContent, noteIds []uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.additional = append(t.additional, items...)
	for _, id := range noteIds {
		if n, ok := t.notes[id]; ok && len(n.AdditionalContent) == 0 {
			n.AdditionalContent = append([]entity.AdditionalContent(nil), items...)
		}
	}
}

// Additional returns all accumulated study material for the session.
func (t *NoteTracker) Additional() []entity.AdditionalContent {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]entity.AdditionalContent(nil), t.additional...)
}

// SetUploadFlag marks that the user just came from the upload flow.
func (t *NoteTracker) SetUploadFlag() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.uploadFlag = true
}

// ConsumeUploadFlag reads and clears the flag; the dashboard gate is one-shot.
func (t *NoteTracker) ConsumeUploadFlag() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.uploadFlag
	t.uploadFlag = false
	return was
}
