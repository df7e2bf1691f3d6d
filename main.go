package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	apirest "github.com/kasuganosora/missionboard/api/rest"
	"github.com/kasuganosora/missionboard/api/sse"
	"github.com/kasuganosora/missionboard/audit"
	"github.com/kasuganosora/missionboard/board"
	"github.com/kasuganosora/missionboard/brawler"
	"github.com/kasuganosora/missionboard/cache"
	"github.com/kasuganosora/missionboard/chat"
	"github.com/kasuganosora/missionboard/config"
	dbadapter "github.com/kasuganosora/missionboard/db"
	"github.com/kasuganosora/missionboard/events"
	mw "github.com/kasuganosora/missionboard/middleware"
	"github.com/kasuganosora/missionboard/model"
	"github.com/kasuganosora/missionboard/scheduler"
	"github.com/kasuganosora/missionboard/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}
	loc, err := cfg.Board.Location()
	if err != nil {
		log.Fatalf("board.timezone: %v", err)
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))

	// ---- Audit ----
	auditSvc := audit.New(db, audit.Options{
		BufferSize:    cfg.Audit.BufferSize,
		BatchSize:     cfg.Audit.BatchSize,
		FlushInterval: cfg.Audit.FlushInterval,
	}, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	defer c.Close()
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Metrics ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// ---- Board ----
	brawlerStore := store.NewBrawlerStore(db)
	brawlerSvc := brawler.NewService(brawlerStore, c, cfg.Security, cfg.Board.LeaderboardSize, logger)
	sink := events.NewSink(events.Options{
		Auditor:     auditSvc,
		PubSub:      pubsub,
		Leaderboard: brawlerSvc,
		Registerer:  reg,
	}, logger)
	b := board.New(board.Deps{
		Missions: store.NewMissionStore(db),
		Brawlers: brawlerStore,
		Roster:   store.NewRoster(db, store.NewCalendar(loc)),
		Crew:     store.NewCrewStore(db),
		Sink:     sink,
	}, board.Rules{
		DailyPointCap:     cfg.Board.DailyPointCap,
		DailyMissionLimit: cfg.Board.DailyMissionLimit,
		MinNameLength:     cfg.Board.MinNameLength,
	}, logger)
	chatStore := chat.NewStore(c, pubsub, cfg.Chat.HistorySize, cfg.Chat.MaxLength, logger)

	// ---- Scheduler ----
	sched := scheduler.New(loc, logger)
	defer sched.Stop()
	limiter := mw.NewRateLimiter(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst)
	gcEvery := cfg.Scheduler.RateLimitGC
	if gcEvery <= 0 {
		gcEvery = 10 * time.Minute
	}
	sched.AddTicker("ratelimit-sweep", gcEvery, func() {
		if n := limiter.Sweep(gcEvery); n > 0 {
			logger.Debug("rate limiter swept", zap.Int("removed", n))
		}
	})
	if err := sched.AddCron("leaderboard-rebuild", cfg.Scheduler.LeaderboardCron, func(ctx context.Context) error {
		_, err := brawlerSvc.RebuildLeaderboard(ctx)
		return err
	}); err != nil {
		log.Fatalf("scheduler.leaderboard_cron: %v", err)
	}

	// ---- HTTP ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.TraceID())
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(mw.NewMetricsBuilder(reg).Build())
	r.Use(limiter.Handler())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	handlers := &apirest.Handlers{
		Auth:    apirest.NewAuthHandler(brawlerSvc, logger),
		Brawler: apirest.NewBrawlerHandler(brawlerSvc, b.Viewing, logger),
		Mission: apirest.NewMissionHandler(b, logger),
		Chat:    apirest.NewChatHandler(chatStore, b.Viewing, brawlerStore, logger),
	}
	handlers.Mount(r.Group("/api/v1"), mw.Auth(cfg.Security, c))

	adminG := r.Group("/api/admin", mw.IPWhitelist(cfg.Server.AdminIPs), mw.AdminAuth(cfg.Server.AdminKey))
	apirest.NewAdminHandler(sched, brawlerSvc, logger).MountAdmin(adminG)

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, c, cfg.Security, logger)
	r.GET("/events", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		logger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
}
