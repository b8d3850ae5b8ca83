package service

import (
	"ai-studynotes-core/internal/repository/memory"
)

// ISessionService manages the anonymous per-browser session state that is not
// note data: existence and the one-shot upload-flow flag.
type ISessionService interface {
	Ensure(sessionId string) string
	SetUploadFlag(sessionId string)
	ConsumeUploadFlag(sessionId string) bool
}

type sessionService struct {
	trackers *memory.TrackerRepository
}

func NewSessionService(trackers *memory.TrackerRepository) ISessionService {
	return &sessionService{trackers: trackers}
}

// Ensure materialises the session's tracker so its TTL starts counting, and
// echoes the id back.
func (s *sessionService) Ensure(sessionId string) string {
	s.trackers.GetOrCreate(sessionId)
	return sessionId
}

func (s *sessionService) SetUploadFlag(sessionId string) {
	s.trackers.GetOrCreate(sessionId).SetUploadFlag()
}

func (s *sessionService) ConsumeUploadFlag(sessionId string) bool {
	return s.trackers.GetOrCreate(sessionId).ConsumeUploadFlag()
}
