package main

import (
	"context"
	"log"

	"ai-studynotes-core/internal/bootstrap"
	"ai-studynotes-core/internal/config"
	"ai-studynotes-core/internal/server"
	"ai-studynotes-core/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 3. Start Background Services
	go func() {
		log.Println("Background: Starting Note Monitor...")
		if err := container.MonitorService.Run(context.Background()); err != nil {
			log.Printf("Background Monitor Error: %v", err)
		}
	}()

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
