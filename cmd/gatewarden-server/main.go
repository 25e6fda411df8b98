package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gatewarden/server/internal/config"
	"github.com/gatewarden/server/internal/db"
	"github.com/gatewarden/server/internal/gatewarden/notify"
	"github.com/gatewarden/server/internal/gatewarden/service"
	"github.com/gatewarden/server/internal/gatewarden/store/sqlite"
	"github.com/gatewarden/server/internal/httpapi"
	"github.com/gatewarden/server/internal/logging"
)

func main() {
	cfg := config.FromEnv()

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn); err != nil {
			logger.Fatal("seed dev data", zap.Error(err))
		}
	}

	writer := db.NewWriter(conn)
	defer writer.Close()

	deviceStore := sqlite.NewDeviceStore(conn, writer)
	eventStore := sqlite.NewAttendanceEventStore(conn, writer)

	// Services
	registry := service.NewDeviceRegistry(deviceStore, logger)
	attendance := service.NewAttendanceService(eventStore, logger)
	resolver := service.NewSessionResolver(eventStore, service.PresencePolicy{
		SuccessfulOnly: cfg.PresenceSuccessOnly,
	})

	var gateway service.NotificationGateway = notify.NoopGateway{}
	if cfg.NotifyBaseURL != "" {
		gateway = notify.NewHTTPGateway(cfg.NotifyBaseURL,
			time.Duration(cfg.NotifyTimeoutSeconds)*time.Second)
	}
	billing := service.NewBillingNotifier(gateway, logger)

	monitor := service.NewDeviceMonitor(registry, service.MonitorConfig{
		IntervalSeconds: cfg.MonitorIntervalSeconds,
	}, logger)
	monitor.Start(ctx)
	defer monitor.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:     logger,
		Addr:       cfg.HTTPAddr,
		Registry:   registry,
		Attendance: attendance,
		Resolver:   resolver,
		Billing:    billing,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
