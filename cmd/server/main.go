package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blues/mfs/internal/config"
	"github.com/blues/mfs/internal/database"
	"github.com/blues/mfs/internal/event"
	"github.com/blues/mfs/internal/ledger"
	"github.com/blues/mfs/internal/logger"
	"github.com/blues/mfs/internal/logic"
	"github.com/blues/mfs/internal/model"
	"github.com/blues/mfs/internal/router"
	"github.com/blues/mfs/internal/scheduler"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	configFile := flag.String("config", "", "config file path")
	flag.Parse()

	// 加载配置
	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFile(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 初始化日志
	if err := logger.Setup(cfg.Log); err != nil {
		logger.Fatal("Failed to setup logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database, cfg.Log.Level)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 事件推送
	feed, err := event.NewFeed(cfg.Feed.PoolSize)
	if err != nil {
		logger.Fatal("Failed to create event feed: %v", err)
	}
	defer feed.Close()

	engine, err := logic.NewEngine(ledger.NewStore(db), feed, cfg.Governance)
	if err != nil {
		logger.Fatal("Failed to create engine: %v", err)
	}
	unsubscribe := engine.Subscribe(func(ev model.EventModel) {
		logger.Debug("event #%d project=%d seq=%d %s ref=%s", ev.Id, ev.ProjectId, ev.Seq, ev.EventType, ev.Ref)
	})
	defer unsubscribe()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 启动定时任务
	tasks, err := scheduler.NewManager(ctx, engine, cfg.Task)
	if err != nil {
		logger.Fatal("Failed to create task manager: %v", err)
	}
	if err := tasks.Start(); err != nil {
		logger.Fatal("Failed to start task manager: %v", err)
	}
	defer tasks.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router.Setup(engine, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("Shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error: %v", err)
	}
}
