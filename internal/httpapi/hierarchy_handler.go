package httpapi

import (
	"database/sql"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
	"github.com/Oliver369X/iot-building-simulator/internal/repository"
)

// HierarchyHandler 楼栋/楼层/房间管理 Handler
type HierarchyHandler struct {
	buildings repository.BuildingsRepository
	floors    repository.FloorsRepository
	rooms     repository.RoomsRepository
	logger    *zap.Logger
}

// NewHierarchyHandler 创建层级管理 Handler
func NewHierarchyHandler(
	buildings repository.BuildingsRepository,
	floors repository.FloorsRepository,
	rooms repository.RoomsRepository,
	logger *zap.Logger,
) *HierarchyHandler {
	return &HierarchyHandler{
		buildings: buildings,
		floors:    floors,
		rooms:     rooms,
		logger:    logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *HierarchyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	// Buildings
	case r.URL.Path == "/sim/api/v1/buildings" && r.Method == http.MethodGet:
		h.ListBuildings(w, r)
	case r.URL.Path == "/sim/api/v1/buildings" && r.Method == http.MethodPost:
		h.CreateBuilding(w, r)
	case strings.HasSuffix(r.URL.Path, "/simulation") && strings.HasPrefix(r.URL.Path, "/sim/api/v1/buildings/") && r.Method == http.MethodPut:
		h.SetBuildingSimulating(w, r)
	case strings.HasSuffix(r.URL.Path, "/floors") && strings.HasPrefix(r.URL.Path, "/sim/api/v1/buildings/") && r.Method == http.MethodGet:
		h.ListFloors(w, r)
	case strings.HasSuffix(r.URL.Path, "/floors") && strings.HasPrefix(r.URL.Path, "/sim/api/v1/buildings/") && r.Method == http.MethodPost:
		h.CreateFloor(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/buildings/") && r.Method == http.MethodGet:
		h.GetBuilding(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/buildings/") && r.Method == http.MethodPut:
		h.UpdateBuilding(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/buildings/") && r.Method == http.MethodDelete:
		h.DeleteBuilding(w, r)

	// Floors
	case strings.HasSuffix(r.URL.Path, "/simulation") && strings.HasPrefix(r.URL.Path, "/sim/api/v1/floors/") && r.Method == http.MethodPut:
		h.SetFloorSimulating(w, r)
	case strings.HasSuffix(r.URL.Path, "/rooms") && strings.HasPrefix(r.URL.Path, "/sim/api/v1/floors/") && r.Method == http.MethodGet:
		h.ListRooms(w, r)
	case strings.HasSuffix(r.URL.Path, "/rooms") && strings.HasPrefix(r.URL.Path, "/sim/api/v1/floors/") && r.Method == http.MethodPost:
		h.CreateRoom(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/floors/") && r.Method == http.MethodGet:
		h.GetFloor(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/floors/") && r.Method == http.MethodDelete:
		h.DeleteFloor(w, r)

	// Rooms
	case strings.HasSuffix(r.URL.Path, "/simulation") && strings.HasPrefix(r.URL.Path, "/sim/api/v1/rooms/") && r.Method == http.MethodPut:
		h.SetRoomSimulating(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/rooms/") && r.Method == http.MethodGet:
		h.GetRoom(w, r)
	case strings.HasPrefix(r.URL.Path, "/sim/api/v1/rooms/") && r.Method == http.MethodDelete:
		h.DeleteRoom(w, r)

	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ============================================
// Building 方法
// ============================================

func (h *HierarchyHandler) ListBuildings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	buildings, err := h.buildings.ListBuildings(ctx)
	if err != nil {
		h.logger.Error("Failed to list buildings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list buildings"))
		return
	}

	items := make([]map[string]any, 0, len(buildings))
	for _, b := range buildings {
		items = append(items, b.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *HierarchyHandler) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		BuildingName string `json:"building_name"`
		Address      string `json:"address"`
		IsSimulating bool   `json:"is_simulating"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil || req.BuildingName == "" {
		writeJSON(w, http.StatusBadRequest, Fail("building_name is required"))
		return
	}

	b := &domain.Building{
		BuildingName: req.BuildingName,
		IsSimulating: req.IsSimulating,
	}
	if req.Address != "" {
		b.Address = sql.NullString{String: req.Address, Valid: true}
	}

	id, err := h.buildings.CreateBuilding(ctx, b)
	if err != nil {
		h.logger.Error("Failed to create building", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create building"))
		return
	}

	writeJSON(w, http.StatusCreated, Ok(map[string]any{"building_id": id}))
}

func (h *HierarchyHandler) GetBuilding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := pathSegment(r.URL.Path, "/sim/api/v1/buildings/", 0)

	b, err := h.buildings.GetBuilding(ctx, buildingID)
	if err != nil {
		h.logger.Error("Failed to get building", zap.String("building_id", buildingID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get building"))
		return
	}
	if b == nil {
		writeJSON(w, http.StatusNotFound, Fail("building not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(b.ToJSON()))
}

func (h *HierarchyHandler) UpdateBuilding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := pathSegment(r.URL.Path, "/sim/api/v1/buildings/", 0)

	existing, err := h.buildings.GetBuilding(ctx, buildingID)
	if err != nil {
		h.logger.Error("Failed to get building", zap.String("building_id", buildingID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get building"))
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, Fail("building not found"))
		return
	}

	var req struct {
		BuildingName *string `json:"building_name"`
		Address      *string `json:"address"`
		IsSimulating *bool   `json:"is_simulating"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if req.BuildingName != nil {
		existing.BuildingName = *req.BuildingName
	}
	if req.Address != nil {
		existing.Address = sql.NullString{String: *req.Address, Valid: *req.Address != ""}
	}
	if req.IsSimulating != nil {
		existing.IsSimulating = *req.IsSimulating
	}

	if err := h.buildings.UpdateBuilding(ctx, buildingID, existing); err != nil {
		h.logger.Error("Failed to update building", zap.String("building_id", buildingID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to update building"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(existing.ToJSON()))
}

func (h *HierarchyHandler) DeleteBuilding(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := pathSegment(r.URL.Path, "/sim/api/v1/buildings/", 0)

	if err := h.buildings.DeleteBuilding(ctx, buildingID); err != nil {
		h.logger.Error("Failed to delete building", zap.String("building_id", buildingID), zap.Error(err))
		writeJSON(w, http.StatusNotFound, Fail("building not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": buildingID}))
}

func (h *HierarchyHandler) SetBuildingSimulating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := pathSegment(r.URL.Path, "/sim/api/v1/buildings/", 0)

	var req struct {
		IsSimulating bool `json:"is_simulating"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if err := h.buildings.SetSimulating(ctx, buildingID, req.IsSimulating); err != nil {
		h.logger.Error("Failed to toggle building simulation", zap.String("building_id", buildingID), zap.Error(err))
		writeJSON(w, http.StatusNotFound, Fail("building not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"building_id": buildingID, "is_simulating": req.IsSimulating}))
}

// ============================================
// Floor 方法
// ============================================

func (h *HierarchyHandler) ListFloors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := pathSegment(r.URL.Path, "/sim/api/v1/buildings/", 0)

	floors, err := h.floors.ListFloors(ctx, buildingID)
	if err != nil {
		h.logger.Error("Failed to list floors", zap.String("building_id", buildingID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list floors"))
		return
	}

	items := make([]map[string]any, 0, len(floors))
	for _, f := range floors {
		items = append(items, f.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *HierarchyHandler) CreateFloor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buildingID := pathSegment(r.URL.Path, "/sim/api/v1/buildings/", 0)

	var req struct {
		FloorNumber  int  `json:"floor_number"`
		IsSimulating bool `json:"is_simulating"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	f := &domain.Floor{
		BuildingID:   buildingID,
		FloorNumber:  req.FloorNumber,
		IsSimulating: req.IsSimulating,
	}
	id, err := h.floors.CreateFloor(ctx, f)
	if err != nil {
		h.logger.Error("Failed to create floor", zap.String("building_id", buildingID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create floor"))
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{"floor_id": id}))
}

func (h *HierarchyHandler) GetFloor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	floorID := pathSegment(r.URL.Path, "/sim/api/v1/floors/", 0)

	f, err := h.floors.GetFloor(ctx, floorID)
	if err != nil {
		h.logger.Error("Failed to get floor", zap.String("floor_id", floorID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get floor"))
		return
	}
	if f == nil {
		writeJSON(w, http.StatusNotFound, Fail("floor not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(f.ToJSON()))
}

func (h *HierarchyHandler) DeleteFloor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	floorID := pathSegment(r.URL.Path, "/sim/api/v1/floors/", 0)

	if err := h.floors.DeleteFloor(ctx, floorID); err != nil {
		h.logger.Error("Failed to delete floor", zap.String("floor_id", floorID), zap.Error(err))
		writeJSON(w, http.StatusNotFound, Fail("floor not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": floorID}))
}

func (h *HierarchyHandler) SetFloorSimulating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	floorID := pathSegment(r.URL.Path, "/sim/api/v1/floors/", 0)

	var req struct {
		IsSimulating bool `json:"is_simulating"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if err := h.floors.SetSimulating(ctx, floorID, req.IsSimulating); err != nil {
		h.logger.Error("Failed to toggle floor simulation", zap.String("floor_id", floorID), zap.Error(err))
		writeJSON(w, http.StatusNotFound, Fail("floor not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"floor_id": floorID, "is_simulating": req.IsSimulating}))
}

// ============================================
// Room 方法
// ============================================

func (h *HierarchyHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	floorID := pathSegment(r.URL.Path, "/sim/api/v1/floors/", 0)

	rooms, err := h.rooms.ListRooms(ctx, floorID)
	if err != nil {
		h.logger.Error("Failed to list rooms", zap.String("floor_id", floorID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to list rooms"))
		return
	}

	items := make([]map[string]any, 0, len(rooms))
	for _, room := range rooms {
		items = append(items, room.ToJSON())
	}
	writeJSON(w, http.StatusOK, Ok(items))
}

func (h *HierarchyHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	floorID := pathSegment(r.URL.Path, "/sim/api/v1/floors/", 0)

	var req struct {
		RoomName     string `json:"room_name"`
		IsSimulating bool   `json:"is_simulating"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil || req.RoomName == "" {
		writeJSON(w, http.StatusBadRequest, Fail("room_name is required"))
		return
	}

	room := &domain.Room{
		FloorID:      floorID,
		RoomName:     req.RoomName,
		IsSimulating: req.IsSimulating,
	}
	id, err := h.rooms.CreateRoom(ctx, room)
	if err != nil {
		h.logger.Error("Failed to create room", zap.String("floor_id", floorID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to create room"))
		return
	}
	writeJSON(w, http.StatusCreated, Ok(map[string]any{"room_id": id}))
}

func (h *HierarchyHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := pathSegment(r.URL.Path, "/sim/api/v1/rooms/", 0)

	room, err := h.rooms.GetRoom(ctx, roomID)
	if err != nil {
		h.logger.Error("Failed to get room", zap.String("room_id", roomID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("failed to get room"))
		return
	}
	if room == nil {
		writeJSON(w, http.StatusNotFound, Fail("room not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(room.ToJSON()))
}

func (h *HierarchyHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := pathSegment(r.URL.Path, "/sim/api/v1/rooms/", 0)

	if err := h.rooms.DeleteRoom(ctx, roomID); err != nil {
		h.logger.Error("Failed to delete room", zap.String("room_id", roomID), zap.Error(err))
		writeJSON(w, http.StatusNotFound, Fail("room not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deleted": roomID}))
}

func (h *HierarchyHandler) SetRoomSimulating(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	roomID := pathSegment(r.URL.Path, "/sim/api/v1/rooms/", 0)

	var req struct {
		IsSimulating bool `json:"is_simulating"`
	}
	if err := readBodyJSON(r, 1<<20, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if err := h.rooms.SetSimulating(ctx, roomID, req.IsSimulating); err != nil {
		h.logger.Error("Failed to toggle room simulation", zap.String("room_id", roomID), zap.Error(err))
		writeJSON(w, http.StatusNotFound, Fail("room not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"room_id": roomID, "is_simulating": req.IsSimulating}))
}
