// Package main runs the invitations HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/DavidValenciaX/coffeetech-invitations-service/config"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/auth"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/farms"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/identity"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/invitations"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/middleware"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/notifications"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/telemetry"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/upstream"
	"github.com/DavidValenciaX/coffeetech-invitations-service/internal/worker"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/cache"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/database"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/queue"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/redis"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/response"
	"github.com/DavidValenciaX/coffeetech-invitations-service/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	// Redis backs the lookup cache and the audit queue; both are optional.
	var lookups *cache.Cache
	var auditQueue *queue.Queue
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Warn("redis unavailable, lookup cache and audit trail disabled", zap.Error(err))
	} else {
		defer rdb.Close()
		lookups = cache.New(rdb.Client, "invitations:", cfg.Redis.CacheTTL, logger)
		auditQueue = queue.NewQueue(rdb.Client, logger)
	}

	var s3Client *storage.S3
	if cfg.AWS.Region != "" && cfg.AWS.AuditBucket != "" {
		s3Client, err = storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			AuditBucket:     cfg.AWS.AuditBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	var tokens upstream.TokenSource
	if cfg.Upstream.ServiceTokenSecret != "" {
		tokens = auth.NewJWTService(cfg.Upstream.ServiceTokenSecret, auth.DefaultIssuer, time.Minute)
	}
	usersClient := identity.NewClient(upstream.NewClient("users", cfg.Upstream.UsersURL, cfg.Upstream.Timeout, tokens, logger), lookups, logger)
	farmsClient := farms.NewClient(upstream.NewClient("farms", cfg.Upstream.FarmsURL, cfg.Upstream.Timeout, tokens, logger), lookups, logger)
	notificationsClient := notifications.NewClient(upstream.NewClient("notifications", cfg.Upstream.NotificationsURL, cfg.Upstream.Timeout, tokens, logger), lookups, logger)

	var audit invitations.AuditQueue
	if auditQueue != nil && s3Client != nil {
		audit = auditQueue
	}
	invitationRepo := invitations.NewRepository(pool, cfg.App.Location)
	invitationService := invitations.NewService(invitationRepo, usersClient, farmsClient, notificationsClient, audit, cfg.App.Location, logger)
	invitationHandler := invitations.NewHandler(invitationService, logger)

	router := newRouter(cfg, logger, usersClient, invitationHandler)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Background worker (audit events to S3)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if audit != nil {
		archiver := worker.NewAuditArchiver(auditQueue, s3Client, s3Client.AuditBucket(), logger)
		go archiver.Run(workerCtx)
		logger.Info("audit worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")
	workerCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if shutdownTracing != nil {
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown", zap.Error(err))
		}
	}
	logger.Info("server stopped")
}

func newRouter(cfg *config.Config, logger *zap.Logger, sessions middleware.SessionVerifier, invitationHandler *invitations.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/", func(c *gin.Context) {
		response.OK(c, "Bienvenido al servicio de invitaciones de CoffeeTech", nil)
	})
	router.GET("/health", func(c *gin.Context) { response.OK(c, "ok", gin.H{"status": "ok"}) })

	api := router.Group("/invitations")
	api.Use(middleware.Session(sessions, logger))
	invitationHandler.Register(api)
	return router
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
