package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/api"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/auth"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/cache"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/config"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/service"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/store"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/stt"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	migrateOnly := flag.Bool("migrate-only", false, "apply database migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Options{Path: cfg.Database.Path, DebugSQL: cfg.Database.DebugSQL})
	if err != nil {
		log.Fatalf("❌ Database error: %v", err)
	}
	defer st.Close()

	applied, err := st.Migrate(ctx)
	if err != nil {
		log.Fatalf("❌ Migration error: %v", err)
	}
	for _, name := range applied {
		log.Printf("✅ Applied migration %s", name)
	}
	if *migrateOnly {
		log.Printf("Migrations complete (%d applied)", len(applied))
		return
	}

	transcriber, err := stt.NewRegistryFromConfig(cfg.STT)
	if err != nil {
		log.Fatalf("❌ STT error: %v", err)
	}
	log.Printf("🎙️ Transcription backend: %s", transcriber.Name())

	var sessions cache.SessionCache
	if cfg.Redis.URL != "" {
		rdb, err := cache.DialRedis(ctx, cfg.Redis.URL, cfg.Redis.SessionTTL)
		if err != nil {
			log.Fatalf("❌ Redis error: %v", err)
		}
		defer rdb.Close()
		sessions = rdb
		log.Println("✅ Connected to Redis session cache")
	} else {
		sessions = cache.NewMemory(cfg.Redis.SessionTTL)
		log.Println("No REDIS_URL set, using in-process session cache")
	}

	svc := service.NewTranscriptions(st, transcriber, sessions, service.Options{
		MaxAudioBytes: cfg.Server.MaxAudioBytes,
	})

	srv := api.New(api.Options{
		Store:   st,
		Service: svc,
		Tokens: auth.TokenConfig{
			Secret: []byte(cfg.Auth.Secret),
			Issuer: cfg.Auth.Issuer,
			TTL:    cfg.Auth.TokenTTL,
		},
		MaxAudioBytes: cfg.Server.MaxAudioBytes,
		AccessLog:     true,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Fiber server listening on %s", cfg.Addr())
		errCh <- srv.Listen(cfg.Addr())
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Printf("❌ Server error: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("❌ Shutdown error: %v", err)
		}
	}
}
