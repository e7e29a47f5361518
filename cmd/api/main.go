package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civic-relay/internal/audit"
	"github.com/civic-relay/internal/config"
	"github.com/civic-relay/internal/infrastructure/dynamo"
	"github.com/civic-relay/internal/infrastructure/identity"
	jwtinfra "github.com/civic-relay/internal/infrastructure/jwt"
	"github.com/civic-relay/internal/infrastructure/mail"
	"github.com/civic-relay/internal/infrastructure/memstore"
	s3infra "github.com/civic-relay/internal/infrastructure/s3"
	"github.com/civic-relay/internal/infrastructure/sns"
	transporthttp "github.com/civic-relay/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap the complaints table (created if it doesn't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTableComplaints)
	complaintRepo := dynamo.NewComplaintRepo(dynamoClient, cfg.DynamoTableComplaints)

	// Photo storage.
	s3Client := s3infra.NewClient(cfg)
	var photos *s3infra.PhotoStore
	if cfg.S3BucketName != "" {
		photos = s3infra.NewPhotoStore(s3Client, cfg.S3BucketName)
	} else {
		log.Println("WARN: S3_BUCKET_NAME not set, photo uploads disabled")
	}

	// Ops alerts on undeliverable department mail (optional).
	var alerter sns.AlertSender
	if cfg.SNSAlertTopicARN != "" {
		if sender, err := sns.NewSender(cfg); err == nil {
			alerter = sender
		} else {
			log.Printf("WARN: SNS alert sender not available: %v", err)
		}
	}

	// Session token signer (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	mailer := mail.NewMailer(cfg)
	identityClient := identity.NewClient(cfg)
	auditLog := audit.NewLogger(cfg.AuditLogDir)

	otpStore := memstore.NewOTPStore()
	defer otpStore.Close()

	deps := &transporthttp.Deps{
		OTPStore:    otpStore,
		Mailer:      mailer,
		Complaints:  complaintRepo,
		Photos:      photos,
		Alerter:     alerter,
		Identity:    identityClient,
		JWTProvider: jwtProvider,
		Audit:       auditLog,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
