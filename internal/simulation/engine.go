package simulation

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// 引擎状态
const (
	StatusInitialized = "initialized"
	StatusRunning     = "running"
	StatusStopped     = "stopped"
)

// Engine 引擎生命周期控制器
// 管理两个相互独立的后台worker（模拟循环、聚合worker）
// Start/Stop 均幂等：重复Start是no-op，重复Stop是no-op
type Engine struct {
	loop       *Loop
	aggregator *Aggregator
	logger     *zap.Logger

	mu     sync.Mutex
	status string
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine 创建引擎（初始状态 initialized）
func NewEngine(loop *Loop, aggregator *Aggregator, logger *zap.Logger) *Engine {
	return &Engine{
		loop:       loop,
		aggregator: aggregator,
		logger:     logger,
		status:     StatusInitialized,
	}
}

// Start 启动两个worker；已在运行时是no-op
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status == StatusRunning {
		e.logger.Info("Engine already running, start is a no-op")
		return
	}

	workerCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel

	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.loop.Run(workerCtx)
	}()
	go func() {
		defer e.wg.Done()
		e.aggregator.Run(workerCtx)
	}()

	e.status = StatusRunning
	e.logger.Info("Engine started")
}

// Stop 取消两个worker并等待完全退出；返回后没有遗留的后台任务
// 未在运行时是no-op
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.status != StatusRunning {
		e.logger.Info("Engine not running, stop is a no-op")
		return
	}

	e.cancel()
	e.wg.Wait()
	e.status = StatusStopped
	e.logger.Info("Engine stopped")
}

// Status 当前状态：initialized / running / stopped
func (e *Engine) Status() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}
