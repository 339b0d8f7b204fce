// Package main runs the tree plantation web server with WebSocket and graceful shutdown.
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

	"github.com/treeplant/web/config"
	"github.com/treeplant/web/internal/attendance"
	"github.com/treeplant/web/internal/auth"
	"github.com/treeplant/web/internal/detection"
	"github.com/treeplant/web/internal/events"
	"github.com/treeplant/web/internal/middleware"
	"github.com/treeplant/web/internal/profiles"
	"github.com/treeplant/web/internal/realtime"
	"github.com/treeplant/web/internal/recommend"
	"github.com/treeplant/web/internal/sessionlog"
	"github.com/treeplant/web/internal/treechat"
	"github.com/treeplant/web/internal/validation"
	"github.com/treeplant/web/pkg/backend"
	"github.com/treeplant/web/pkg/database"
	"github.com/treeplant/web/pkg/queue"
	"github.com/treeplant/web/pkg/redis"
	"github.com/treeplant/web/pkg/response"
	"github.com/treeplant/web/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Enabled() {
		s3Client, err = storage.NewS3(ctx, s3Config(cfg.AWS), logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
			s3Client = nil
		}
	}

	loc := cfg.Server.Location()
	now := func() time.Time { return time.Now().In(loc) }
	validate := validation.New(now)
	bk := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, logger)

	// Sessions
	jwtService := auth.NewJWTService(cfg.Session.Secret, cfg.Session.ExpireMinutes)
	sessions := auth.NewSessions(jwtService, auth.NewRevocations(rdb.Client), cfg.Session.CookieName, cfg.Session.CookieSecure)
	authHandler := auth.NewHandler(bk, sessions, validate, logger)

	// Realtime roster push
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	// Events
	store := events.NewStore(rdb, cfg.Session.ViewStateTTL)
	mapper := events.NewMapper(cfg.Backend.BaseURL)
	explorer := events.NewExplorer(bk, store, mapper, now, logger)
	console := events.NewConsole(bk, store, mapper, validate, now, logger)
	eventsHandler := events.NewHandler(explorer, console, logger)

	// Attendance capture
	registry := attendance.NewRegistry(cfg.Attendance.IdleTimeout, now, logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	sessionLogRepo := sessionlog.NewRepository(pool)
	sessionLogHandler := sessionlog.NewHandler(sessionLogRepo, logger)
	opts := attendance.Options{
		Audits:      attendance.NewRepository(pool),
		Hub:         hub,
		SessionLog:  sessionLogRepo,
		JPEGQuality: cfg.Attendance.JPEGQuality,
		Now:         now,
	}
	if cfg.Attendance.ArchiveFrames && s3Client != nil {
		opts.Archiver = jobQueue
	}
	attendanceSvc := attendance.NewService(registry, bk, opts, logger)
	attendanceHandler := attendance.NewHandler(attendanceSvc, logger)
	// Closing the last attendance page of an operator releases the camera.
	hub.SetLeaveHandler(func(c *realtime.Client, remaining int) {
		if remaining == 0 {
			registry.End(c.EventID, c.UserKey)
		}
	})

	// Profiles
	profilesHandler := profiles.NewHandler(profiles.NewService(bk, validate, cfg.Backend.BaseURL), logger)

	// Talk with a tree
	chatOpts := treechat.Options{HistoryLimit: cfg.TreeChat.HistoryLimit, TTL: cfg.TreeChat.StateTTL}
	if s3Client != nil {
		chatOpts.Objects = s3Client
	}
	gemini := treechat.NewGemini(cfg.TreeChat.BaseURL, cfg.TreeChat.Model, cfg.TreeChat.APIKey, cfg.TreeChat.Timeout, logger)
	chatHandler := treechat.NewHandler(treechat.NewService(rdb, gemini, chatOpts, logger), logger)

	recommendHandler := recommend.NewHandler(bk, logger)
	detectionHandler := detection.NewHandler(bk, logger)

	gate := middleware.AuthGate(sessions, bk, logger)
	requireOrganizer := middleware.RequireOrganizer(bk, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	api := router.Group("/api")

	// Auth (public)
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/status", authHandler.Status)
	}

	// Signed-in users
	pr := api.Group("")
	pr.Use(gate)
	{
		pr.GET("/recommendations/popular", recommendHandler.Popular)
		pr.POST("/recommendations", recommendHandler.Recommend)
		pr.POST("/detection", detectionHandler.Detect)
		profilesHandler.RegisterRoutes(pr)
		chatHandler.RegisterRoutes(pr)
	}

	// Organizers
	org := pr.Group("")
	org.Use(requireOrganizer)
	eventsHandler.RegisterRoutes(pr, org.Group("/organizer"))
	attendanceHandler.RegisterRoutes(org)
	org.GET("/attendance/:eventId/sessions", sessionLogHandler.ListByEvent)

	// WebSocket (session cookie; organizers watching an attendance room)
	upgrader := realtime.NewUpgrader(middleware.OriginAllowed(cfg.Server.CORSAllowedOrigins))
	router.GET("/ws/attendance/:eventId", gate, requireOrganizer, realtime.ServeWs(hub, upgrader, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Idle capture sessions are released in the background.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	sweepDone := make(chan struct{})
	go func() {
		registry.Run(sweepCtx, time.Minute)
		close(sweepDone)
	}()

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
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
	sweepCancel()
	<-sweepDone
	logger.Info("server stopped")
}

func s3Config(c config.AWSConfig) storage.S3Config {
	return storage.S3Config{
		Region:               c.Region,
		AccessKeyID:          c.AccessKeyID,
		SecretAccessKey:      c.SecretAccessKey,
		CapturesBucket:       c.CapturesBucket,
		PortraitsBucket:      c.PortraitsBucket,
		PresignExpireMinutes: c.PresignExpireMinutes,
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
