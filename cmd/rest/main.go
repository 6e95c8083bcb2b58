package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"docuchat-be/internal/bootstrap"
	"docuchat-be/internal/config"
	"docuchat-be/internal/server"
	"docuchat-be/internal/tracer"
	"docuchat-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 4. Start Background Services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go container.WebSocketHub.Run()

	go func() {
		log.Println("Background: Starting Notification Service...")
		if err := container.NotificationService.Start(ctx); err != nil {
			log.Printf("Background Notification Error: %v", err)
		}
	}()

	log.Println("Background: Starting Ingestion Watcher...")
	container.Watcher.Start(ctx)

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Graceful Shutdown
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig

		log.Println("Shutting down...")
		container.Watcher.Stop()
		cancel()
		if err := srv.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	// 7. Run Server
	if err := srv.Run(); err != nil {
		log.Fatal(err)
	}
}
