package main

import (
	"context"
	"log"

	"resume-ai-helper-be/internal/bootstrap"
	"resume-ai-helper-be/internal/config"
	"resume-ai-helper-be/internal/server"
	"resume-ai-helper-be/internal/tracer"
)

func main() {
	// 1. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 2. Load Configuration
	cfg := config.Load()

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg)

	// 4. Initialize Server
	srv := server.New(cfg, container)

	// 5. Run Server
	log.Fatal(srv.Run())
}
