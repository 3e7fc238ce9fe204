package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HieuPC11/Tiki-Phone/internal/config"
	"github.com/HieuPC11/Tiki-Phone/internal/dashboard"
	"github.com/HieuPC11/Tiki-Phone/internal/pkg/logger"
)

// main 是仪表盘服务的入口函数。
//
// 唯一的命令行参数是 -port；快照文件不可读时启动失败。
func main() {
	port := flag.Int("port", 0, "listen port (overrides configured address)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port > 0 {
		cfg.Dashboard.HTTPAddr = fmt.Sprintf(":%d", *port)
	}

	appLogger := logger.NewDefault(cfg.App.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := dashboard.NewServer(cfg, appLogger, nil)
	if err != nil {
		appLogger.Error("init dashboard failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    cfg.Dashboard.HTTPAddr,
		Handler: srv.Router(),
	}

	go func() {
		appLogger.Info("dashboard listening", slog.String("addr", cfg.Dashboard.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server run failed", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down dashboard...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown failed", slog.String("error", err.Error()))
	}
}
