package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agrireport-backend-go/internal/config"
	"agrireport-backend-go/internal/db"
	httpapi "agrireport-backend-go/internal/http"
	"agrireport-backend-go/internal/logger"
	"agrireport-backend-go/internal/migrations"
	"agrireport-backend-go/internal/services"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogLevel, cfg.LogFormat, "agrireport")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("db open failed", zap.Error(err))
	}
	defer database.Close()
	if err := migrations.Apply(database); err != nil {
		zlog.Fatal("migrations failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache := services.NewReferenceCache(cfg.RedisURL, time.Duration(cfg.ReferenceCacheTTL)*time.Second, zlog)
	hub := services.NewHub()
	go hub.Run(ctx)

	server := httpapi.NewServer(database, cfg, zlog, cache, hub)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zlog.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = httpServer.Shutdown(ctxShutdown)
	zlog.Info("shutdown complete")
}
