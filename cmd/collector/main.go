package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HieuPC11/Tiki-Phone/internal/collector"
	"github.com/HieuPC11/Tiki-Phone/internal/config"
	"github.com/HieuPC11/Tiki-Phone/internal/pkg/logger"
	"github.com/HieuPC11/Tiki-Phone/internal/pkg/metrics"
	"github.com/HieuPC11/Tiki-Phone/internal/store"
)

// main 是采集器的入口函数。
//
// 它负责：
// 1. 加载配置
// 2. 初始化日志
// 3. 顺序采集全部配置分类
// 4. 将完整快照写入 CSV 文件（整体替换）
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	appLogger := logger.NewDefault(cfg.App.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Collector.Categories) == 0 {
		appLogger.Error("no categories configured, nothing to collect")
		os.Exit(1)
	}

	metrics.InitMetrics()

	// 指标监听是可选的：一次性批处理任务通常不需要
	var metricsServer *http.Server
	if cfg.Collector.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.Collector.MetricsAddr,
			Handler: promhttp.Handler(),
		}
		go func() {
			appLogger.Info("collector metrics server started", slog.String("addr", cfg.Collector.MetricsAddr))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("metrics server stopped with error", slog.String("error", err.Error()))
			}
		}()
	}

	service := collector.NewService(&cfg.Collector, appLogger)

	appLogger.Info("starting crawl run",
		slog.String("api_base_url", cfg.Collector.APIBaseURL),
		slog.Int("categories", len(cfg.Collector.Categories)))

	records, err := service.CollectAll(ctx)
	if err != nil {
		appLogger.Error("crawl run aborted", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := store.Save(cfg.App.SnapshotPath, records); err != nil {
		appLogger.Error("write snapshot failed",
			slog.String("path", cfg.App.SnapshotPath),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	appLogger.Info("snapshot written",
		slog.String("path", cfg.App.SnapshotPath),
		slog.Int("records", len(records)))

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("metrics shutdown error", slog.String("error", err.Error()))
		}
	}
}
