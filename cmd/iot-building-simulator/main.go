package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/config"
	"github.com/Oliver369X/iot-building-simulator/internal/service"
	"github.com/Oliver369X/iot-building-simulator/pkg/logger"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "iot-building-simulator")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建服务
	sim, err := service.NewSimulatorService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create simulator service",
			zap.Error(err),
		)
	}
	defer sim.Stop()

	// 4. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. 启动后台组件与HTTP服务
	sim.Start(ctx)
	server := service.NewServer(cfg.HTTP.Addr, sim.Handler(ctx), log)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	// 6. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case err := <-serverErrChan:
		log.Fatal("HTTP server error",
			zap.Error(err),
		)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Failed to stop HTTP server",
			zap.Error(err),
		)
	}
	cancel()

	log.Info("Simulator service stopped")
}
