package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/thereayou/study-hub/internal/books"
	"github.com/thereayou/study-hub/internal/config"
	"github.com/thereayou/study-hub/internal/database"
	"github.com/thereayou/study-hub/internal/logger"
	"github.com/thereayou/study-hub/internal/middleware"
	"github.com/thereayou/study-hub/internal/websocket"
	"github.com/thereayou/study-hub/pkg/auth"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	Config     *config.Config
	Router     *gin.Engine
	DB         *database.Database
	Redis      *redis.Client
	JWTManager *auth.JWTManager
	Hub        *websocket.Hub
	Log        *logrus.Logger
}

func NewServer() *Server {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	gin.SetMode(cfg.GinMode)

	dbConn := &database.Database{}
	if err := dbConn.Connect(cfg.DatabaseURL, cfg.DBMaxConns); err != nil {
		log.Fatalf("Postgres connect failed: %v", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)

	hub := websocket.NewHub(log)
	go hub.Run()

	router := NewRouter(Dependencies{
		DB:            dbConn,
		Blacklist:     middleware.NewRedisBlacklist(rdb),
		JWTManager:    jwtMgr,
		Hub:           hub,
		Books:         books.NewClient(cfg.BookSearchURL, cfg.KakaoAPIKey, log),
		Log:           log,
		BcryptCost:    cfg.BcryptCost,
		AuthRateLimit: cfg.AuthRateLimit,
		AuthRateBurst: cfg.AuthRateBurst,
	})

	return &Server{
		Config:     cfg,
		Router:     router,
		DB:         dbConn,
		Redis:      rdb,
		JWTManager: jwtMgr,
		Hub:        hub,
		Log:        log,
	}
}

// Run serves until SIGINT or SIGTERM, then drains connections.
func (s *Server) Run() {
	srv := &http.Server{
		Addr:              ":" + s.Config.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.Log.Infof("Server starting on port %s", s.Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Fatalf("Server run error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	s.Log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.Log.WithError(err).Error("http shutdown")
	}
	s.Hub.Stop()

	if err := s.Redis.Close(); err != nil {
		s.Log.WithError(err).Warn("redis close")
	}
	if err := s.DB.Close(); err != nil {
		s.Log.WithError(err).Warn("database close")
	}
}
