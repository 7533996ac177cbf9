package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterSimulatorRoutes 注册模拟器全部路由
func (r *Router) RegisterSimulatorRoutes(
	hierarchy *HierarchyHandler,
	devices *DeviceHandler,
	engine *EngineHandler,
	readings *ReadingsHandler,
	live *LiveTelemetryHandler,
) {
	// 层级：建筑/楼层/房间
	r.Handle("/sim/api/v1/buildings", hierarchy)
	r.Handle("/sim/api/v1/buildings/", hierarchy)
	r.Handle("/sim/api/v1/floors", hierarchy)
	r.Handle("/sim/api/v1/floors/", hierarchy)
	r.Handle("/sim/api/v1/rooms", hierarchy)
	r.Handle("/sim/api/v1/rooms/", hierarchy)

	// 设备与设备类型
	r.Handle("/sim/api/v1/devices", devices)
	r.Handle("/sim/api/v1/devices/", devices)
	r.Handle("/sim/api/v1/device-types", devices)
	r.Handle("/sim/api/v1/device-types/", devices)

	// 引擎生命周期
	r.Handle("/sim/api/v1/engine/", engine)

	// 遥测查询与导出
	r.Handle("/sim/api/v1/readings", readings)
	r.Handle("/sim/api/v1/readings/", readings)

	// 实时遥测
	r.Handle("/sim/api/v1/telemetry/live", live)

	// 健康检查
	r.Handle("/sim/api/v1/health", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
	}))
}
