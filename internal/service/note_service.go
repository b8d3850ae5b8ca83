package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"ai-studynotes-core/internal/dto"
	"ai-studynotes-core/internal/entity"
	"ai-studynotes-core/internal/gateway"
	"ai-studynotes-core/internal/mapper"
	"ai-studynotes-core/internal/pkg/logger"
	"ai-studynotes-core/internal/pkg/upload"
	"ai-studynotes-core/internal/repository/memory"
	"ai-studynotes-core/pkg/events"

	"github.com/google/uuid"
)

// ErrAllUploadsFailed is returned when not a single file of an upload batch
// made it through; one success is enough for the batch to succeed.
var ErrAllUploadsFailed = errors.New("all uploads failed")

type INoteService interface {
	UploadNotes(ctx context.Context, sessionId string, files []gateway.UploadFile) (*dto.UploadNotesResponse, error)
	FetchNotes(ctx context.Context, sessionId string) ([]*entity.Note, error)
	FetchNote(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Note, error)
	DeleteNote(ctx context.Context, sessionId string, id uuid.UUID) error
	GenerateQuiz(ctx context.Context, sessionId string, id uuid.UUID, req *dto.GenerateQuizRequest) (*dto.GenerateQuizResponse, error)
	GenerateExplanation(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Explanation, error)
	GenerateAdditionalContent(ctx context.Context, sessionId string, req *dto.GenerateAdditionalContentRequest) (*dto.AdditionalContentResponse, error)
	Processing(sessionId string) []*entity.Note
	Completed(sessionId string) []*entity.Note
	Progress(sessionId string) memory.Progress
}

type noteService struct {
	gw            gateway.NoteGateway
	trackers      *memory.TrackerRepository
	publisher     events.Publisher
	monitor       IMonitorService
	validator     *upload.Validator
	mapper        *mapper.NoteMapper
	logger        logger.ILogger
	uploadsDir    string
	quizCount     int
	quizDifficulty string
}

func NewNoteService(
	gw gateway.NoteGateway,
	trackers *memory.TrackerRepository,
	publisher events.Publisher,
	monitor IMonitorService,
	validator *upload.Validator,
	noteMapper *mapper.NoteMapper,
	log logger.ILogger,
	uploadsDir string,
	quizCount int,
	quizDifficulty string,
) INoteService {
	return &noteService{
		gw:             gw,
		trackers:       trackers,
		publisher:      publisher,
		monitor:        monitor,
		validator:      validator,
		mapper:         noteMapper,
		logger:         log,
		uploadsDir:     uploadsDir,
		quizCount:      quizCount,
		quizDifficulty: quizDifficulty,
	}
}

// UploadNotes validates and submits a batch of images. Validation rejections
// never reach the network; network failures skip the file. Each accepted
// note enters the monitoring set, which is reset to exactly this batch, and
// the poll loop is woken up.
func (c *noteService) UploadNotes(ctx context.Context, sessionId string, files []gateway.UploadFile) (*dto.UploadNotesResponse, error) {
	tracker := c.trackers.GetOrCreate(sessionId)

	res := &dto.UploadNotesResponse{Accepted: []dto.UploadAcceptedItem{}}
	var uploaded []*entity.Note

	for _, f := range files {
		if rejection := c.validator.Validate(f.Filename, f.Data); rejection != nil {
			res.Rejected = append(res.Rejected, *rejection)
			continue
		}

		localRef, err := c.savePreview(f)
		if err != nil {
			c.logger.Error("NoteService", "Failed to store upload preview", map[string]interface{}{
				"filename": f.Filename, "error": err.Error(),
			})
			res.Failed = append(res.Failed, upload.Rejection{Filename: f.Filename, Reason: "could not store preview locally"})
			continue
		}

		note, err := c.gw.UploadNote(ctx, sessionId, f)
		if err != nil {
			c.logger.Warn("NoteService", "Upload failed for file", map[string]interface{}{
				"filename": f.Filename, "session_id": sessionId, "error": err.Error(),
			})
			c.removeLocalRefs([]string{localRef})
			res.Failed = append(res.Failed, upload.Rejection{Filename: f.Filename, Reason: "upload to processing backend failed"})
			continue
		}

		note.OriginalImageURL = localRef
		note.ThumbnailURL = localRef
		if note.Status == "" {
			note.Status = entity.NoteStatusProcessing
		}

		uploaded = append(uploaded, note)
		res.Accepted = append(res.Accepted, c.mapper.ToAcceptedItem(note))
	}

	if len(files) > 0 && len(uploaded) == 0 {
		return res, ErrAllUploadsFailed
	}

	tracker.BeginMonitoring(uploaded)

	for _, note := range uploaded {
		c.publishEvent(ctx, events.TypeNoteUploaded, map[string]interface{}{
			"session_id": sessionId,
			"note_id":    note.Id.String(),
			"filename":   note.Filename,
		})
	}
	if len(uploaded) > 0 && c.monitor != nil {
		c.monitor.Wake()
	}

	return res, nil
}

// FetchNotes replaces the local replica with the backend's collection. A
// gateway failure leaves prior state untouched.
func (c *noteService) FetchNotes(ctx context.Context, sessionId string) ([]*entity.Note, error) {
	tracker := c.trackers.GetOrCreate(sessionId)

	fresh, err := c.gw.GetNotes(ctx, sessionId)
	if err != nil {
		return nil, fmt.Errorf("fetch notes: %w", err)
	}

	tracker.ReplaceNotes(fresh)
	return tracker.Notes(), nil
}

func (c *noteService) FetchNote(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Note, error) {
	tracker := c.trackers.GetOrCreate(sessionId)

	fresh, err := c.gw.GetNote(ctx, sessionId, id)
	if err != nil {
		if errors.Is(err, gateway.ErrNoteNotFound) {
			// Gone upstream: reconcile by dropping any local leftover.
			if existed, refs := tracker.RemoveNote(id); existed {
				c.removeLocalRefs(refs)
			}
			return nil, gateway.ErrNoteNotFound
		}
		return nil, fmt.Errorf("fetch note %s: %w", id, err)
	}

	return tracker.MergeNote(fresh), nil
}

// DeleteNote removes the note locally and upstream. Idempotent at the store
// layer: a second delete of the same id is a no-op, and an upstream 404 is
// benign.
func (c *noteService) DeleteNote(ctx context.Context, sessionId string, id uuid.UUID) error {
	tracker := c.trackers.GetOrCreate(sessionId)

	if existed, refs := tracker.RemoveNote(id); existed {
		c.removeLocalRefs(refs)
	}

	if err := c.gw.DeleteNote(ctx, sessionId, id); err != nil {
		if errors.Is(err, gateway.ErrNoteNotFound) {
			return nil
		}
		return fmt.Errorf("delete note %s: %w", id, err)
	}
	return nil
}

func (c *noteService) GenerateQuiz(ctx context.Context, sessionId string, id uuid.UUID, req *dto.GenerateQuizRequest) (*dto.GenerateQuizResponse, error) {
	tracker := c.trackers.GetOrCreate(sessionId)

	params := gateway.QuizParams{QuestionCount: c.quizCount, Difficulty: c.quizDifficulty}
	if req != nil {
		if req.QuestionCount > 0 {
			params.QuestionCount = req.QuestionCount
		}
		if req.Difficulty != "" {
			params.Difficulty = req.Difficulty
		}
	}

	quiz, err := c.gw.GenerateQuiz(ctx, sessionId, id, params)
	if err != nil {
		return nil, err
	}

	if quiz != nil {
		tracker.SetQuiz(id, quiz)
	}
	return &dto.GenerateQuizResponse{
		Id:     id,
		Quiz:   quiz,
		Queued: quiz == nil,
	}, nil
}

// GenerateExplanation returns the explanation to the caller and stores the
// same value, so the direct result and a later fetch never diverge.
func (c *noteService) GenerateExplanation(ctx context.Context, sessionId string, id uuid.UUID) (*entity.Explanation, error) {
	tracker := c.trackers.GetOrCreate(sessionId)

	explanation, err := c.gw.GenerateExplanation(ctx, sessionId, id)
	if err != nil {
		return nil, err
	}

	tracker.SetExplanation(id, explanation)
	return explanation, nil
}

// GenerateAdditionalContent accumulates: repeated calls append, they never
// replace what earlier calls produced.
func (c *noteService) GenerateAdditionalContent(ctx context.Context, sessionId string, req *dto.GenerateAdditionalContentRequest) (*dto.AdditionalContentResponse, error) {
	tracker := c.trackers.GetOrCreate(sessionId)

	filters := gateway.ContentFilters{
		Subject:    req.Filters.Subject,
		Difficulty: req.Filters.Difficulty,
		Count:      req.Filters.Count,
	}

	summaries := make([]gateway.NoteSummary, 0, len(req.Summaries))
	noteIds := make([]uuid.UUID, 0, len(req.Summaries))
	for _, s := range req.Summaries {
		summaries = append(summaries, gateway.NoteSummary{
			NoteId:   s.NoteId,
			Filename: s.Filename,
			Summary:  s.Summary,
		})
		noteIds = append(noteIds, s.NoteId)
	}

	items, err := c.gw.GenerateAdditionalContent(ctx, sessionId, filters, summaries)
	if err != nil {
		return nil, err
	}

	tracker.AppendAdditional(items, noteIds)
	return &dto.AdditionalContentResponse{
		Generated:   items,
		Accumulated: tracker.Additional(),
	}, nil
}

func (c *noteService) Processing(sessionId string) []*entity.Note {
	return c.trackers.GetOrCreate(sessionId).Processing()
}

func (c *noteService) Completed(sessionId string) []*entity.Note {
	return c.trackers.GetOrCreate(sessionId).Completed()
}

func (c *noteService) Progress(sessionId string) memory.Progress {
	return c.trackers.GetOrCreate(sessionId).Progress()
}

func (c *noteService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if c.publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	// Notification delivery is auxiliary; the request does not fail on it.
	if err := c.publisher.Publish(ctx, evt); err != nil {
		c.logger.Warn("NoteService", "Failed to publish event", map[string]interface{}{
			"type": eventType, "error": err.Error(),
		})
	}
}

// savePreview writes the uploaded image under the uploads dir and returns the
// URL path it is served from.
func (c *noteService) savePreview(f gateway.UploadFile) (string, error) {
	if err := os.MkdirAll(c.uploadsDir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + filepath.Ext(f.Filename)
	if err := os.WriteFile(filepath.Join(c.uploadsDir, name), f.Data, 0o644); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}

func (c *noteService) removeLocalRefs(refs []string) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		target := filepath.Join(c.uploadsDir, path.Base(ref))
		if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
			c.logger.Debug("NoteService", "Could not remove preview file", map[string]interface{}{
				"path": target, "error": err.Error(),
			})
		}
	}
}
