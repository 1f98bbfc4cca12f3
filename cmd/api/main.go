package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	analysis "github.com/zhouzirui/luma/backend/internal/analysis/emotion"
	"github.com/zhouzirui/luma/backend/internal/config"
	"github.com/zhouzirui/luma/backend/internal/handler"
	"github.com/zhouzirui/luma/backend/internal/model/persona"
	"github.com/zhouzirui/luma/backend/internal/service/ai"
	"github.com/zhouzirui/luma/backend/internal/service/chat"
	emotionservice "github.com/zhouzirui/luma/backend/internal/service/emotion"
	"github.com/zhouzirui/luma/backend/internal/service/reply"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())

	sessionStore, err := openSessionStore(cfg.Session)
	if err != nil {
		log.Fatalf("failed to open session store: %v", err)
	}
	defer sessionStore.Close()

	// A missing or broken model is not fatal: every message is tagged Unknown.
	var classifier *analysis.Classifier
	artifact, err := analysis.LoadArtifact(cfg.Emotion.ModelPath)
	if err != nil {
		log.Printf("warning: failed to load emotion model from %s: %v", cfg.Emotion.ModelPath, err)
		log.Println("continuing in degraded mode - every message will be labelled Unknown")
	} else {
		classifier = analysis.NewClassifier(artifact)
		log.Printf("Emotion model loaded: %d features, %d classes", artifact.NumFeatures(), len(artifact.Classes()))
	}

	emotionSvc := emotionservice.NewService(classifier, emotionservice.Config{
		DefaultProfile: cfg.Emotion.DefaultProfile,
		Profiles:       cfg.Emotion.Profiles,
	}, sessionStore)

	generator, err := ai.NewGenerator(ctx, cfg.Generation)
	if err != nil {
		log.Printf("warning: failed to initialize %s generator: %v", cfg.Generation.Provider, err)
		generator = nil
	}
	if generator == nil {
		log.Println("text generation disabled, replies fall back to canned responses")
	}

	replySvc := reply.NewService(sessionStore, personaStore, emotionSvc, generator, reply.Options{
		Timeout: cfg.Generation.Timeout,
	})

	router := handler.NewRouter(handler.Services{
		Personas: personaStore,
		Sessions: sessionStore,
		Emotions: emotionSvc,
		Replies:  replySvc,
	})

	startServer(ctx, cfg.Server, router)
}

func openSessionStore(cfg config.SessionConfig) (chat.Store, error) {
	switch cfg.Backend {
	case config.SessionStoreBolt:
		store, err := chat.OpenBoltStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		log.Printf("Session store: bolt at %s", cfg.DBPath)
		return store, nil
	default:
		log.Println("Session store: memory")
		return chat.NewMemoryStore(), nil
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Luma backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Printf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
