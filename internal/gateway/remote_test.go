package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-studynotes-core/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteUploadNote(t *testing.T) {
	noteId := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/notes/upload", r.URL.Path)
		require.Equal(t, "session-1", r.Header.Get("X-Session-Id"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "algebra.png", header.Filename)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":         noteId,
			"filename":   "algebra.png",
			"status":     "processing",
			"created_at": time.Now(),
		})
	}))
	defer srv.Close()

	gw := NewRemoteGateway(srv.URL, 5*time.Second)
	note, err := gw.UploadNote(context.Background(), "session-1", UploadFile{
		Filename: "algebra.png",
		Data:     []byte("img"),
	})
	require.NoError(t, err)
	assert.Equal(t, noteId, note.Id)
	assert.Equal(t, entity.NoteStatusProcessing, note.Status)
}

func TestRemoteGetNotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/notes", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"notes": []map[string]interface{}{
				{"id": uuid.New(), "filename": "a.png", "status": "completed", "summary": "done"},
				{"id": uuid.New(), "filename": "b.png", "status": "weird-status"},
			},
		})
	}))
	defer srv.Close()

	gw := NewRemoteGateway(srv.URL, 5*time.Second)
	notes, err := gw.GetNotes(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, entity.NoteStatusCompleted, notes[0].Status)
	// Unknown statuses stay processing instead of becoming terminal.
	assert.Equal(t, entity.NoteStatusProcessing, notes[1].Status)
}

func TestRemoteNotFoundMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	gw := NewRemoteGateway(srv.URL, 5*time.Second)
	_, err := gw.GetNote(context.Background(), "session-1", uuid.New())
	assert.ErrorIs(t, err, ErrNoteNotFound)

	err = gw.DeleteNote(context.Background(), "session-1", uuid.New())
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestRemoteServerErrorIsBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "pipeline exploded")
	}))
	defer srv.Close()

	gw := NewRemoteGateway(srv.URL, 5*time.Second)
	_, err := gw.GetNotes(context.Background(), "session-1")
	require.Error(t, err)
	assert.True(t, IsBackendError(err))

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, http.StatusInternalServerError, backendErr.StatusCode)
	assert.Contains(t, backendErr.Body, "pipeline exploded")
}

func TestRemoteConnectionRefusedIsBackendError(t *testing.T) {
	gw := NewRemoteGateway("http://127.0.0.1:1", time.Second)
	_, err := gw.GetNotes(context.Background(), "session-1")
	require.Error(t, err)
	assert.True(t, IsBackendError(err))
}

func TestRemoteGenerateQuiz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(3), body["question_count"])
		assert.Equal(t, "easy", body["difficulty"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"quiz": map[string]interface{}{
				"multiple_choice": []map[string]interface{}{
					{"question": "Q1", "answer": "A"},
				},
			},
		})
	}))
	defer srv.Close()

	gw := NewRemoteGateway(srv.URL, 5*time.Second)
	quiz, err := gw.GenerateQuiz(context.Background(), "session-1", uuid.New(), QuizParams{
		QuestionCount: 3,
		Difficulty:    "easy",
	})
	require.NoError(t, err)
	require.NotNil(t, quiz)
	assert.Equal(t, 1, quiz.QuestionCount())
}

func TestRemoteGenerateAdditionalContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/additional-content", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"items": []map[string]interface{}{
				{"title": "Deep Dive", "subject": "Math", "difficulty": "Beginner"},
			},
		})
	}))
	defer srv.Close()

	gw := NewRemoteGateway(srv.URL, 5*time.Second)
	items, err := gw.GenerateAdditionalContent(context.Background(), "session-1",
		ContentFilters{Subject: "Math"},
		[]NoteSummary{{NoteId: uuid.New(), Summary: "sum"}},
	)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Deep Dive", items[0].Title)
}
