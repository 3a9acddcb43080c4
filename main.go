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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"crypto-bridge/internal/api"
	"crypto-bridge/internal/monitor"
	"crypto-bridge/internal/stream"
	"crypto-bridge/pkg/config"
	"crypto-bridge/pkg/robinhood"
)

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := monitor.NewMetrics()

	client, err := robinhood.New(robinhood.Config{
		APIKey:     cfg.APIKey,
		PrivateKey: cfg.PrivateKey,
		BaseURL:    cfg.BaseURL,
		Recorder:   metrics,
	})
	if err != nil {
		logger.Fatal("robinhood client", zap.Error(err))
	}

	registry := stream.NewRegistry()
	hub := stream.NewHub(logger.Named("hub"), registry, metrics)
	poller := stream.NewPoller(logger.Named("poller"), hub, client, client, stream.PollerConfig{
		MarketDataInterval: cfg.MarketDataPollInterval,
		OrdersInterval:     cfg.OrdersPollInterval,
	}, metrics)

	server := api.NewServer(logger.Named("api"), client, metrics, api.ServerConfig{
		RateLimitEnabled:  cfg.RateLimitEnabled,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitPeriod:   cfg.RateLimitPeriod,
	})

	restSrv := &http.Server{Addr: cfg.Addr(), Handler: server.Router}

	wsMux := http.NewServeMux()
	wsMux.HandleFunc("/ws", hub.ServeWS)
	wsSrv := &http.Server{Addr: cfg.WSAddr(), Handler: wsMux}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go poller.Run(ctx)

	go func() {
		logger.Info("rest server started", zap.String("addr", cfg.Addr()))
		if err := restSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("rest server", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("websocket server started", zap.String("addr", cfg.WSAddr()))
		if err := wsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("websocket server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")

	// Stop the pollers first so no new frames enter the hub, then drain
	// the servers and sweep remaining connections.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := restSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("rest shutdown", zap.Error(err))
	}
	if err := wsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("websocket shutdown", zap.Error(err))
	}
	hub.Close()

	logger.Info("shutdown complete")
}
