package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsSendBuffer   = 64
)

// LiveTelemetryHandler 实时遥测 WebSocket Handler
// 从发布器通道消费遥测消息并广播给所有已连接的客户端
type LiveTelemetryHandler struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	conn *websocket.Conn
	send chan domain.TelemetryMessage
}

// NewLiveTelemetryHandler 创建实时遥测 Handler
func NewLiveTelemetryHandler(logger *zap.Logger) *LiveTelemetryHandler {
	return &LiveTelemetryHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// Run 消费遥测通道并广播，直到上下文取消
func (h *LiveTelemetryHandler) Run(ctx context.Context, messages <-chan domain.TelemetryMessage) {
	h.logger.Info("Live telemetry broadcaster started")
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Live telemetry broadcaster stopped")
			h.closeAll()
			return
		case msg, ok := <-messages:
			if !ok {
				h.closeAll()
				return
			}
			h.broadcast(msg)
		}
	}
}

func (h *LiveTelemetryHandler) broadcast(msg domain.TelemetryMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			// 慢客户端：丢弃并断开，避免阻塞广播
			delete(h.clients, client)
			close(client.send)
			h.logger.Warn("Dropping slow websocket client",
				zap.String("remote_addr", client.conn.RemoteAddr().String()))
		}
	}
}

func (h *LiveTelemetryHandler) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

func (h *LiveTelemetryHandler) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

func (h *LiveTelemetryHandler) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// ServeHTTP 升级连接并推送遥测消息
func (h *LiveTelemetryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Failed to upgrade websocket connection", zap.Error(err))
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan domain.TelemetryMessage, wsSendBuffer),
	}
	h.register(client)
	h.logger.Info("Websocket client connected",
		zap.String("remote_addr", conn.RemoteAddr().String()))

	go h.readLoop(client)
	h.writeLoop(client)
}

// readLoop 读取并丢弃客户端消息，感知连接关闭
func (h *LiveTelemetryHandler) readLoop(client *wsClient) {
	defer func() {
		h.unregister(client)
		client.conn.Close()
	}()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveTelemetryHandler) writeLoop(client *wsClient) {
	defer client.conn.Close()
	for msg := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := client.conn.WriteJSON(msg); err != nil {
			h.unregister(client)
			return
		}
	}
	_ = client.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = client.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
