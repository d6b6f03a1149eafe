package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/citypulse/citypulse/internal/billing"
	"github.com/citypulse/citypulse/internal/database"
	"github.com/citypulse/citypulse/internal/logging"
	"github.com/citypulse/citypulse/internal/push"
	"github.com/citypulse/citypulse/internal/server"
	"github.com/citypulse/citypulse/internal/storage"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	generateKeys := flag.Bool("generate-vapid-keys", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	if *generateKeys {
		pub, priv, err := push.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("generate vapid keys: %v", err)
		}
		fmt.Printf("CITYPULSE_VAPID_PUBLIC_KEY=%s\nCITYPULSE_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	logger := logging.Setup(envOr("CITYPULSE_LOG_LEVEL", "info"), envOr("CITYPULSE_LOG_FORMAT", "text"))

	port := envOr("CITYPULSE_PORT", "8080")
	dbPath := envOr("CITYPULSE_DB_PATH", "citypulse.db")

	jwtSecret := os.Getenv("CITYPULSE_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("CITYPULSE_JWT_SECRET is required")
	}
	jwtTTL, err := time.ParseDuration(envOr("CITYPULSE_JWT_TTL", "168h"))
	if err != nil {
		log.Fatalf("invalid CITYPULSE_JWT_TTL: %v", err)
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		BaseURL:    envOr("CITYPULSE_BASE_URL", "http://localhost:"+port),
		JWTSecret:  jwtSecret,
		JWTTTL:     jwtTTL,
		DevHeaders: os.Getenv("CITYPULSE_AUTH_DEV_HEADERS") == "true",
		Billing: billing.Config{
			SecretKey:     os.Getenv("CITYPULSE_STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("CITYPULSE_STRIPE_WEBHOOK_SECRET"),
		},
		Storage: storage.Config{
			Endpoint:      os.Getenv("CITYPULSE_S3_ENDPOINT"),
			Bucket:        os.Getenv("CITYPULSE_S3_BUCKET"),
			Region:        envOr("CITYPULSE_S3_REGION", "auto"),
			AccessKey:     os.Getenv("CITYPULSE_S3_ACCESS_KEY"),
			SecretKey:     os.Getenv("CITYPULSE_S3_SECRET_KEY"),
			PublicBaseURL: os.Getenv("CITYPULSE_S3_PUBLIC_BASE_URL"),
		},
		VAPIDPublic: os.Getenv("CITYPULSE_VAPID_PUBLIC_KEY"),
		VAPIDKey:    os.Getenv("CITYPULSE_VAPID_PRIVATE_KEY"),
		VAPIDEmail:  envOr("CITYPULSE_VAPID_SUBSCRIBER", "mailto:admin@citypulse.local"),
	}

	if cfg.DevHeaders {
		logger.Warn("dev header fallback is enabled; role headers are trusted")
	}

	srv := server.New(db, cfg, logger)

	// Evict stale rate limiter buckets.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("citypulse listening", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
