package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/justsurfingit/campus-hire/internal/auth"
	"github.com/justsurfingit/campus-hire/internal/config"
	"github.com/justsurfingit/campus-hire/internal/database"
	"github.com/justsurfingit/campus-hire/internal/handlers"
	"github.com/justsurfingit/campus-hire/internal/services"
)

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	// 2. Database Connection
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Integrations. Each one degrades to a local fallback when unconfigured.
	llm := services.NewLLMService(ctx, cfg.AI)
	emails := services.NewEmailService(services.NewMailer(ctx, cfg.Email), cfg.AppBaseURL)
	storage := services.NewStorage(cfg.Storage, cfg.APIBaseURL)
	video := services.NewVideoService(cfg.Video)
	if !video.Enabled() {
		log.Println("⚠️  100ms not configured, calls get mock rooms")
	}

	// 4. Domain services
	notify := services.NewNotificationService(db)
	profiles := services.NewProfileService(db, storage, cfg.IsAdminEmail)
	jobs := services.NewJobService(db, notify, emails)

	deps := handlers.Deps{
		CORSOrigins:  cfg.CORSOrigins,
		AppBaseURL:   cfg.AppBaseURL,
		AIPerMinute:  cfg.AI.RatePerMinute,
		Sessions:     auth.NewSessionStore(db, strings.HasPrefix(cfg.APIBaseURL, "https://")),
		Google:       auth.NewGoogleAuth(db, cfg.Google),
		Profiles:     profiles,
		Jobs:         jobs,
		Applications: services.NewApplicationService(db, llm, notify, emails),
		Calls:        services.NewCallService(db, video, notify, emails),
		Bookmarks:    services.NewBookmarkService(db),
		Resumes:      services.NewResumeService(db, storage, llm),
		Notify:       notify,
		LLM:          llm,
		Payments:     services.NewPaymentService(db, notify, emails, cfg.Stripe, cfg.AppBaseURL),
	}
	if local, ok := storage.(*services.LocalStorage); ok {
		deps.UploadDir = local.Dir
	}

	// 5. Router & Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: ", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	emails.Wait()
	log.Println("Bye")
}
