// Package main runs the recording gateway HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/clearvoice/recording-gateway/config"
	"github.com/clearvoice/recording-gateway/internal/agora"
	"github.com/clearvoice/recording-gateway/internal/middleware"
	"github.com/clearvoice/recording-gateway/internal/recordings"
	"github.com/clearvoice/recording-gateway/internal/telephony"
	"github.com/clearvoice/recording-gateway/pkg/response"
	"github.com/clearvoice/recording-gateway/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	preset, err := agora.PresetByName(cfg.Agora.Preset)
	if err != nil {
		logger.Fatal("recording preset", zap.Error(err), zap.Strings("available", agora.PresetNames()))
	}

	if cfg.BucketMismatch() {
		// Two credentials, one bucket is the intended deployment. A differing
		// signer bucket is allowed but almost always a misconfiguration.
		logger.Warn("signer bucket differs from provider recording bucket",
			zap.String("provider_bucket", cfg.ProviderStorage.Bucket),
			zap.String("signer_bucket", cfg.Signer.Bucket),
		)
	}
	if cfg.Auth.WebhookSecret == "" {
		logger.Warn("WEBHOOK_SECRET not set; /webhook accepts unauthenticated deliveries")
	}

	ctx := context.Background()
	signer, err := newSigner(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage signer", zap.Error(err))
	}

	gateway := agora.NewClient(cfg.Agora, cfg.ProviderStorage, preset, logger)
	recordingHandler := recordings.NewHandler(gateway, logger)

	urlTTL := time.Duration(cfg.Signer.URLTTLMinutes) * time.Minute
	webhookHandler := recordings.NewWebhookHandler(signer, cfg.Auth.WebhookSecret, urlTTL, logger)

	var bridge telephony.Bridge
	if cfg.SIP.Enabled() {
		bridge = telephony.NewClient(cfg.SIP, cfg.Agora, logger)
		logger.Info("telephony enabled", zap.String("gateway", cfg.SIP.GatewayURL))
	}
	telephonyHandler := telephony.NewHandler(bridge, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "recording gateway is running")
	})
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Control routes; bearer auth when AUTH_JWT_SECRET is configured.
	control := router.Group("")
	if cfg.Auth.JWTSecret != "" {
		control.Use(middleware.Auth(cfg.Auth.JWTSecret))
	} else {
		logger.Warn("AUTH_JWT_SECRET not set; control routes are unauthenticated")
	}
	{
		control.POST("/acquire", recordingHandler.Acquire)
		control.POST("/start", recordingHandler.Start)
		control.POST("/stop", recordingHandler.Stop)
		control.POST("/query", recordingHandler.Query)
		control.POST("/make-call", telephonyHandler.MakeCall)
	}

	// Webhook: provider-facing, HMAC signature instead of JWT.
	router.POST("/webhook", webhookHandler.RecordingReady)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("preset", preset.Name),
			zap.String("signer_vendor", cfg.Signer.Vendor),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newSigner(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Signer, error) {
	switch cfg.Signer.Vendor {
	case "s3":
		return storage.NewS3Signer(ctx, storage.S3Config{
			Region:          cfg.Signer.AWSRegion,
			AccessKeyID:     cfg.Signer.AWSAccessKeyID,
			SecretAccessKey: cfg.Signer.AWSSecretAccessKey,
			Bucket:          cfg.Signer.Bucket,
		}, logger)
	default:
		return storage.NewGCSSigner(ctx, cfg.Signer.Bucket,
			[]byte(cfg.Signer.GoogleServiceAccount), cfg.Signer.VerifyObjectExists, logger)
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
