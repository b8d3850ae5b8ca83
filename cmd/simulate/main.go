package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"ai-studynotes-core/internal/config"
	"ai-studynotes-core/internal/gateway"

	"github.com/google/uuid"
)

// Drives the mock gateway through a full note lifecycle without the HTTP
// layer, using the manual scheduler so processing "time" is advanced by hand.
func main() {
	fmt.Println("=== Note Lifecycle Simulation (mock gateway) ===")

	cfg := config.Load()
	scheduler := gateway.NewManualScheduler()
	gw := gateway.NewMockGateway(cfg.Mock, scheduler)

	ctx := context.Background()
	sessionId := uuid.NewString()
	fmt.Printf("Session: %s\n", sessionId)

	// 1. Upload two notes
	files := []gateway.UploadFile{
		{Filename: "algebra.png", ContentType: "image/png", Data: []byte("fake-png")},
		{Filename: "biology.png", ContentType: "image/png", Data: []byte("fake-png")},
	}
	for _, f := range files {
		note, err := gw.UploadNote(ctx, sessionId, f)
		if err != nil {
			log.Fatalf("upload failed: %v", err)
		}
		fmt.Printf("Uploaded %s -> id=%s status=%s\n", note.Filename, note.Id, note.Status)
	}

	// 2. Processing in flight
	notes, _ := gw.GetNotes(ctx, sessionId)
	fmt.Printf("\nAfter upload: %d notes\n", len(notes))
	for _, n := range notes {
		fmt.Printf("  %s status=%s\n", n.Filename, n.Status)
	}

	// 3. Advance simulated time past the processing window
	fmt.Println("\nAdvancing simulated time...")
	scheduler.Advance(cfg.Mock.UploadDelayMax + time.Second)

	notes, _ = gw.GetNotes(ctx, sessionId)
	fmt.Println("After processing:")
	for _, n := range notes {
		fmt.Printf("  %s status=%s summary=%q\n", n.Filename, n.Status, n.Summary)
	}

	// 4. Quiz generation (async in mock, may return queued)
	first := notes[0]
	quiz, err := gw.GenerateQuiz(ctx, sessionId, first.Id, gateway.QuizParams{QuestionCount: 3, Difficulty: "easy"})
	if err != nil {
		log.Fatalf("quiz failed: %v", err)
	}
	if quiz == nil {
		fmt.Println("\nQuiz queued, advancing time...")
		scheduler.Advance(cfg.Mock.QuizDelayMax + time.Second)
		fresh, _ := gw.GetNote(ctx, sessionId, first.Id)
		quiz = fresh.Quiz
	}
	if quiz != nil {
		fmt.Printf("Quiz ready: %d questions\n", quiz.QuestionCount())
	}

	// 5. Explanation (synchronous in mock)
	explanation, err := gw.GenerateExplanation(ctx, sessionId, first.Id)
	if err != nil {
		log.Fatalf("explanation failed: %v", err)
	}
	fmt.Printf("Explanation: %d concepts\n", len(explanation.Concepts))

	// 6. Additional content from the summaries
	items, err := gw.GenerateAdditionalContent(ctx, sessionId,
		gateway.ContentFilters{Difficulty: "Beginner", Count: 2},
		[]gateway.NoteSummary{{NoteId: first.Id, Filename: first.Filename, Summary: first.Summary}},
	)
	if err != nil {
		log.Fatalf("additional content failed: %v", err)
	}
	fmt.Printf("Additional content: %d items\n", len(items))

	// 7. Delete
	if err := gw.DeleteNote(ctx, sessionId, first.Id); err != nil {
		log.Fatalf("delete failed: %v", err)
	}
	notes, _ = gw.GetNotes(ctx, sessionId)
	fmt.Printf("\nAfter delete: %d notes remain\n", len(notes))

	fmt.Println("\n=== Simulation finished ===")
}
