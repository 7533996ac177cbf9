package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// EngineController 引擎生命周期接口（由 simulation.Engine 实现）
type EngineController interface {
	Start(ctx context.Context)
	Stop()
	Status() string
}

// EngineHandler 引擎控制 Handler
// worker与请求生命周期解耦：Start 使用服务级ctx而非请求ctx，
// 请求结束不会连带取消后台worker
type EngineHandler struct {
	engine    EngineController
	serverCtx context.Context
	logger    *zap.Logger
}

// NewEngineHandler 创建引擎控制 Handler
func NewEngineHandler(engine EngineController, serverCtx context.Context, logger *zap.Logger) *EngineHandler {
	return &EngineHandler{
		engine:    engine,
		serverCtx: serverCtx,
		logger:    logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *EngineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/sim/api/v1/engine/start" && r.Method == http.MethodPost:
		h.StartEngine(w, r)
	case r.URL.Path == "/sim/api/v1/engine/stop" && r.Method == http.MethodPost:
		h.StopEngine(w, r)
	case r.URL.Path == "/sim/api/v1/engine/status" && r.Method == http.MethodGet:
		h.EngineStatus(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *EngineHandler) StartEngine(w http.ResponseWriter, _ *http.Request) {
	h.engine.Start(h.serverCtx)
	writeJSON(w, http.StatusOK, Ok(map[string]any{"status": h.engine.Status()}))
}

func (h *EngineHandler) StopEngine(w http.ResponseWriter, _ *http.Request) {
	h.engine.Stop()
	writeJSON(w, http.StatusOK, Ok(map[string]any{"status": h.engine.Status()}))
}

func (h *EngineHandler) EngineStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]any{"status": h.engine.Status()}))
}
