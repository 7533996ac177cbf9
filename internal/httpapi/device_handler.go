package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
	"github.com/Oliver369X/iot-building-simulator/internal/repository"
)

// DeviceHandler 设备与设备类型管理 Handler
type DeviceHandler struct {
	devices     repository.DevicesRepository
	deviceTypes repository.DeviceTypesRepository
	logger      *zap.Logger
}

// NewDeviceHandler 创建设备管理 Handler
func NewDeviceHandler(
	devices repository.DevicesRepository,
	deviceTypes repository.DeviceTypesRepository,
	logger *zap.Logger,
) *DeviceHandler {
	return &DeviceHandler{
		devices:     devices,
		deviceTypes: deviceTypes,
		logger:      logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *DeviceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	// Device types
	case r.URL.Path == "/sim/api/v1/device-types" && r.Method == http.MethodGet:
		h.ListDeviceTypes(w, r)
	case r.URL.Path == "/sim/api/v1/device-types" && r.Method == http.MethodPost:
		h.CreateDeviceType(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/device-types/") && r.Method == http.MethodGet:
		h.GetDeviceType(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/device-types/") && r.Method == http.MethodDelete:
		h.DeleteDeviceType(w, r)

	// Devices
	case r.URL.Path == "/sim/api/v1/devices" && r.Method == http.MethodGet:
		h.ListDevices(w, r)
	case r.URL.Path == "/sim/api/v1/devices" && r.Method == http.MethodPost:
		h.CreateDevice(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/devices/") && r.Method == http.MethodGet:
		h.GetDevice(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/devices/") && r.Method == http.MethodPut:
		h.UpdateDevice(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/devices/") && r.Method == http.MethodDelete:
		h.DeleteDevice(w, r)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ============================================
// DeviceType 方法
// ============================================

func (h *DeviceHandler) ListDeviceTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	types, err := h.deviceTypes.ListDeviceTypes(ctx)
	if err != nil {
		h.logger.Error("Failed to list device types", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list device types"))
		return
	}

	items := make([]map[string]any, 0, len(types))
	for _, t := range types {
		items = append(items, t.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *DeviceHandler) CreateDeviceType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		TypeName   string         `json:"type_name"`
		Properties map[string]any `json:"properties"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil || req.TypeName == "" {
		writeJSON(w, http.StatusBadRequest, Fail("type_name is required"))
		return
	}

	t := &domain.DeviceType{TypeName: req.TypeName, Properties: req.Properties}
	id, err := h.deviceTypes.CreateDeviceType(ctx, t)
	if err != nil {
		h.logger.Error("Failed to create device type", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create device type"))
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{"device_type_id": id}))
}

func (h *DeviceHandler) GetDeviceType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathSegment(r.URL.Path, "/sim/api/v1/device-types/", 0)

	t, err := h.deviceTypes.GetDeviceType(ctx, id)
	if err != nil {
		h.logger.Error("Failed to get device type", zap.String("device_type_id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get device type"))
		return
	}
	if t == nil {
		writeJSON(w, http.StatusNotFound, Fail("device type not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(t.ToJSON()))
}

func (h *DeviceHandler) DeleteDeviceType(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := pathSegment(r.URL.Path, "/sim/api/v1/device-types/", 0)

	if err := h.deviceTypes.DeleteDeviceType(ctx, id); err != nil {
		h.logger.Error("Failed to delete device type", zap.String("device_type_id", id), zap.Error(err))
		writeJSON(w, http.StatusNotFound, Fail("device type not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": id}))
}

// ============================================
// Device 方法
// ============================================

func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	roomID := r.URL.Query().Get("room_id")
	if roomID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("room_id query parameter is required"))
		return
	}

	devices, err := h.devices.ListDevices(ctx, roomID)
	if err != nil {
		h.logger.Error("Failed to list devices", zap.String("room_id", roomID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list devices"))
		return
	}

	items := make([]map[string]any, 0, len(devices))
	for _, d := range devices {
		items = append(items, d.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *DeviceHandler) CreateDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		RoomID       string         `json:"room_id"`
		DeviceTypeID string         `json:"device_type_id"`
		DeviceName   string         `json:"device_name"`
		State        map[string]any `json:"state"`
		IsActive     *bool          `json:"is_active"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil || req.RoomID == "" || req.DeviceTypeID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("room_id and device_type_id are required"))
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	if req.State == nil {
		req.State = map[string]any{}
	}

	d := &domain.Device{
		RoomID:       req.RoomID,
		DeviceTypeID: req.DeviceTypeID,
		DeviceName:   req.DeviceName,
		State:        req.State,
		IsActive:     isActive,
	}
	id, err := h.devices.CreateDevice(ctx, d)
	if err != nil {
		h.logger.Error("Failed to create device", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create device"))
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{"device_id": id}))
}

func (h *DeviceHandler) GetDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := pathSegment(r.URL.Path, "/sim/api/v1/devices/", 0)

	d, err := h.devices.GetDevice(ctx, deviceID)
	if err != nil {
		h.logger.Error("Failed to get device", zap.String("device_id", deviceID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get device"))
		return
	}
	if d == nil {
		writeJSON(w, http.StatusNotFound, Fail("device not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(d.ToJSON()))
}

func (h *DeviceHandler) UpdateDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := pathSegment(r.URL.Path, "/sim/api/v1/devices/", 0)

	existing, err := h.devices.GetDevice(ctx, deviceID)
	if err != nil {
		h.logger.Error("Failed to get device", zap.String("device_id", deviceID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get device"))
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, Fail("device not found"))
		return
	}

	var req struct {
		DeviceName *string        `json:"device_name"`
		State      map[string]any `json:"state"`
		IsActive   *bool          `json:"is_active"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if req.DeviceName != nil {
		existing.DeviceName = *req.DeviceName
	}
	if req.State != nil {
		existing.State = req.State
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}

	if err := h.devices.UpdateDevice(ctx, deviceID, existing); err != nil {
		h.logger.Error("Failed to update device", zap.String("device_id", deviceID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to update device"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(existing.ToJSON()))
}

func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deviceID := pathSegment(r.URL.Path, "/sim/api/v1/devices/", 0)

	if err := h.devices.DeleteDevice(ctx, deviceID); err != nil {
		h.logger.Error("Failed to delete device", zap.String("device_id", deviceID), zap.Error(err))
		writeJSON(w, http.StatusNotFound, Fail("device not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": deviceID}))
}
