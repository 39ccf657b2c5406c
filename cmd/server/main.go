package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"followup/internal/cache"
	"followup/internal/handler"
	"followup/internal/httpserver"
	"followup/internal/notify"
	"followup/internal/repository"
	"followup/internal/service/task"
	"followup/pkg/config"
	"followup/pkg/db"
	"followup/pkg/logger"
	"followup/pkg/mq"
	"followup/pkg/redis"
)

func main() {
	cfgPath := config.GetEnv("CONFIG_PATH", "config/config.yaml")

	log := logger.NewLogger()
	defer log.Sync()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	log.Info("Starting followup-service...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("redis_addr", cfg.Redis.Addr),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis
	rdb := redis.NewClient(cfg.Redis)
	defer rdb.Close()

	// MQ publisher + background notification dispatcher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	dispatcher := notify.NewDispatcher(publisher, log)
	dispatcher.Start(dispatcherCtx)

	// Wiring
	taskRepo := repository.NewTaskRepository(dbConn, log)
	todayCache := cache.NewTodayCache(rdb, 30*time.Second, log)
	taskService := task.NewService(taskRepo, todayCache, dispatcher)
	taskHandler := handler.NewTaskHandler(taskService, log)

	router := httpserver.NewRouter(taskHandler, log, dbConn, rdb, publisher)

	port := cfg.Server.Port
	if port == "" {
		port = "8082"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("followup-service is fully initialized and running",
		zap.String("http_port", port),
	)

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down followup-service gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	// 停掉 dispatcher，排空剩余事件后再关闭 MQ 连接
	stopDispatcher()
	dispatcher.Wait()

	log.Info("followup-service shutdown complete")
}
