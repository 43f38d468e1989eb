// Package main runs the watch-party synchronization server: HTTP surface,
// WebSocket event stream and graceful shutdown.
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

	"github.com/umeet/watchparty/config"
	"github.com/umeet/watchparty/internal/auth"
	"github.com/umeet/watchparty/internal/middleware"
	"github.com/umeet/watchparty/internal/realtime"
	"github.com/umeet/watchparty/internal/rooms"
	"github.com/umeet/watchparty/internal/watch"
	"github.com/umeet/watchparty/pkg/database"
	"github.com/umeet/watchparty/pkg/redis"
	"github.com/umeet/watchparty/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, database.PoolConfig{
		DSN:             cfg.Database.DSN(),
		MaxConns:        int32(cfg.Database.MaxConns),
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetimeMin) * time.Minute,
	}, logger)
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

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Room records live in Postgres and are owned by the external CRUD
	// service; this process only reads them to seed live sessions, through
	// a Redis read-through cache.
	roomRepo := rooms.NewRepository(pool)
	seedCache := rooms.NewSeedCache(roomRepo, rdb.Client, time.Duration(cfg.Rooms.SeedCacheTTLSeconds)*time.Second, logger)
	roomHandler := rooms.NewHandler(roomRepo)

	hub := realtime.NewHub(logger)
	directory := watch.NewDirectory(time.Duration(cfg.Rooms.EmptyGraceSeconds)*time.Second, logger)
	coordinator := watch.NewCoordinator(directory, seedCache, hub, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		dbOK := pool.Ping(checkCtx) == nil
		redisOK := rdb.Ping(checkCtx).Err() == nil
		status := "healthy"
		if !dbOK || !redisOK {
			status = "degraded"
		}
		body := gin.H{
			"status":         status,
			"dbConnected":    dbOK,
			"redisConnected": redisOK,
			"liveRooms":      directory.Len(),
		}
		if status != "healthy" {
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		response.OK(c, body)
	})

	// Identity is bound at upgrade time from the connect token; all room
	// events flow over this one connection.
	router.GET("/ws", realtime.ServeWs(hub, coordinator, jwtService.Validate, logger))

	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		api.GET("/rooms/:id", roomHandler.GetByID)
		api.GET("/rooms/:id/occupancy", roomHandler.Occupancy(coordinator))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
