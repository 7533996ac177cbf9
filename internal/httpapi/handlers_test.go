package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
	"github.com/Oliver369X/iot-building-simulator/internal/repository"
)

// ============================================
// 内存版fake Repository
// ============================================

type fakeBuildingsRepo struct {
	buildings map[string]*domain.Building
}

func newFakeBuildingsRepo() *fakeBuildingsRepo {
	return &fakeBuildingsRepo{buildings: map[string]*domain.Building{}}
}

func (f *fakeBuildingsRepo) ListBuildings(ctx context.Context) ([]*domain.Building, error) {
	var out []*domain.Building
	for _, b := range f.buildings {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBuildingsRepo) GetBuilding(ctx context.Context, id string) (*domain.Building, error) {
	return f.buildings[id], nil
}

func (f *fakeBuildingsRepo) CreateBuilding(ctx context.Context, b *domain.Building) (string, error) {
	if b.BuildingID == "" {
		b.BuildingID = "bld-1"
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	f.buildings[b.BuildingID] = b
	return b.BuildingID, nil
}

func (f *fakeBuildingsRepo) UpdateBuilding(ctx context.Context, id string, b *domain.Building) error {
	if _, ok := f.buildings[id]; !ok {
		return errors.New("building not found")
	}
	f.buildings[id] = b
	return nil
}

func (f *fakeBuildingsRepo) DeleteBuilding(ctx context.Context, id string) error {
	if _, ok := f.buildings[id]; !ok {
		return errors.New("building not found")
	}
	delete(f.buildings, id)
	return nil
}

func (f *fakeBuildingsRepo) SetSimulating(ctx context.Context, id string, simulating bool) error {
	b, ok := f.buildings[id]
	if !ok {
		return errors.New("building not found")
	}
	b.IsSimulating = simulating
	return nil
}

type fakeFloorsRepo struct {
	floors map[string]*domain.Floor
}

func newFakeFloorsRepo() *fakeFloorsRepo {
	return &fakeFloorsRepo{floors: map[string]*domain.Floor{}}
}

func (f *fakeFloorsRepo) ListFloors(ctx context.Context, buildingID string) ([]*domain.Floor, error) {
	var out []*domain.Floor
	for _, fl := range f.floors {
		if fl.BuildingID == buildingID {
			out = append(out, fl)
		}
	}
	return out, nil
}

func (f *fakeFloorsRepo) GetFloor(ctx context.Context, id string) (*domain.Floor, error) {
	return f.floors[id], nil
}

func (f *fakeFloorsRepo) CreateFloor(ctx context.Context, fl *domain.Floor) (string, error) {
	if fl.FloorID == "" {
		fl.FloorID = "floor-1"
	}
	f.floors[fl.FloorID] = fl
	return fl.FloorID, nil
}

func (f *fakeFloorsRepo) DeleteFloor(ctx context.Context, id string) error {
	if _, ok := f.floors[id]; !ok {
		return errors.New("floor not found")
	}
	delete(f.floors, id)
	return nil
}

func (f *fakeFloorsRepo) SetSimulating(ctx context.Context, id string, simulating bool) error {
	fl, ok := f.floors[id]
	if !ok {
		return errors.New("floor not found")
	}
	fl.IsSimulating = simulating
	return nil
}

type fakeRoomsRepo struct {
	rooms map[string]*domain.Room
}

func newFakeRoomsRepo() *fakeRoomsRepo {
	return &fakeRoomsRepo{rooms: map[string]*domain.Room{}}
}

func (f *fakeRoomsRepo) ListRooms(ctx context.Context, floorID string) ([]*domain.Room, error) {
	var out []*domain.Room
	for _, r := range f.rooms {
		if r.FloorID == floorID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRoomsRepo) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	return f.rooms[id], nil
}

func (f *fakeRoomsRepo) CreateRoom(ctx context.Context, r *domain.Room) (string, error) {
	if r.RoomID == "" {
		r.RoomID = "room-1"
	}
	f.rooms[r.RoomID] = r
	return r.RoomID, nil
}

func (f *fakeRoomsRepo) DeleteRoom(ctx context.Context, id string) error {
	if _, ok := f.rooms[id]; !ok {
		return errors.New("room not found")
	}
	delete(f.rooms, id)
	return nil
}

func (f *fakeRoomsRepo) SetSimulating(ctx context.Context, id string, simulating bool) error {
	r, ok := f.rooms[id]
	if !ok {
		return errors.New("room not found")
	}
	r.IsSimulating = simulating
	return nil
}

func newHierarchyHandlerForTest() (*HierarchyHandler, *fakeBuildingsRepo, *fakeFloorsRepo, *fakeRoomsRepo) {
	buildings := newFakeBuildingsRepo()
	floors := newFakeFloorsRepo()
	rooms := newFakeRoomsRepo()
	h := NewHierarchyHandler(buildings, floors, rooms, zap.NewNop())
	return h, buildings, floors, rooms
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) Result[any] {
	t.Helper()
	var res Result[any]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	return res
}

// ============================================
// Building CRUD
// ============================================

func TestCreateAndGetBuilding(t *testing.T) {
	h, _, _, _ := newHierarchyHandlerForTest()

	body := `{"building_name": "HQ", "address": "1 Main St"}`
	req := httptest.NewRequest(http.MethodPost, "/sim/api/v1/buildings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, ResultSuccess, res.Code)

	req = httptest.NewRequest(http.MethodGet, "/sim/api/v1/buildings/bld-1", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	res = decodeResult(t, rec)
	payload := res.Result.(map[string]any)
	assert.Equal(t, "HQ", payload["building_name"])
	assert.Equal(t, "1 Main St", payload["address"])
	assert.Equal(t, false, payload["is_simulating"])
}

func TestCreateBuildingMissingName(t *testing.T) {
	h, _, _, _ := newHierarchyHandlerForTest()

	req := httptest.NewRequest(http.MethodPost, "/sim/api/v1/buildings", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, ResultError, res.Code)
}

func TestGetBuildingNotFound(t *testing.T) {
	h, _, _, _ := newHierarchyHandlerForTest()

	req := httptest.NewRequest(http.MethodGet, "/sim/api/v1/buildings/ghost", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateBuildingPartial(t *testing.T) {
	h, buildings, _, _ := newHierarchyHandlerForTest()
	buildings.buildings["bld-1"] = &domain.Building{BuildingID: "bld-1", BuildingName: "HQ"}

	// 只改名字，模拟开关不受影响
	body := `{"building_name": "HQ-2"}`
	req := httptest.NewRequest(http.MethodPut, "/sim/api/v1/buildings/bld-1", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HQ-2", buildings.buildings["bld-1"].BuildingName)
	assert.False(t, buildings.buildings["bld-1"].IsSimulating)
}

func TestSetBuildingSimulating(t *testing.T) {
	h, buildings, _, _ := newHierarchyHandlerForTest()
	buildings.buildings["bld-1"] = &domain.Building{BuildingID: "bld-1", BuildingName: "HQ"}

	body := `{"is_simulating": true}`
	req := httptest.NewRequest(http.MethodPut, "/sim/api/v1/buildings/bld-1/simulation", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, buildings.buildings["bld-1"].IsSimulating)
}

func TestDeleteBuilding(t *testing.T) {
	h, buildings, _, _ := newHierarchyHandlerForTest()
	buildings.buildings["bld-1"] = &domain.Building{BuildingID: "bld-1", BuildingName: "HQ"}

	req := httptest.NewRequest(http.MethodDelete, "/sim/api/v1/buildings/bld-1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, buildings.buildings)
}

// ============================================
// Floor / Room 嵌套路由
// ============================================

func TestCreateFloorUnderBuilding(t *testing.T) {
	h, buildings, floors, _ := newHierarchyHandlerForTest()
	buildings.buildings["bld-1"] = &domain.Building{BuildingID: "bld-1", BuildingName: "HQ"}

	body := `{"floor_number": 3}`
	req := httptest.NewRequest(http.MethodPost, "/sim/api/v1/buildings/bld-1/floors", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, floors.floors, 1)
	assert.Equal(t, "bld-1", floors.floors["floor-1"].BuildingID)
	assert.Equal(t, 3, floors.floors["floor-1"].FloorNumber)
}

func TestCreateRoomUnderFloor(t *testing.T) {
	h, _, floors, rooms := newHierarchyHandlerForTest()
	floors.floors["floor-1"] = &domain.Floor{FloorID: "floor-1", BuildingID: "bld-1"}

	body := `{"room_name": "conference"}`
	req := httptest.NewRequest(http.MethodPost, "/sim/api/v1/floors/floor-1/rooms", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, rooms.rooms, 1)
	assert.Equal(t, "floor-1", rooms.rooms["room-1"].FloorID)
}

func TestSetRoomSimulating(t *testing.T) {
	h, _, _, rooms := newHierarchyHandlerForTest()
	rooms.rooms["room-1"] = &domain.Room{RoomID: "room-1", FloorID: "floor-1", RoomName: "office"}

	body := `{"is_simulating": true}`
	req := httptest.NewRequest(http.MethodPut, "/sim/api/v1/rooms/room-1/simulation", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, rooms.rooms["room-1"].IsSimulating)
}

// ============================================
// 引擎控制
// ============================================

type fakeEngine struct {
	status string
}

func (f *fakeEngine) Start(ctx context.Context) { f.status = "running" }
func (f *fakeEngine) Stop()                     { f.status = "stopped" }
func (f *fakeEngine) Status() string            { return f.status }

func TestEngineRoutes(t *testing.T) {
	engine := &fakeEngine{status: "initialized"}
	h := NewEngineHandler(engine, context.Background(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/sim/api/v1/engine/status", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res := decodeResult(t, rec)
	assert.Equal(t, "initialized", res.Result.(map[string]any)["status"])

	req = httptest.NewRequest(http.MethodPost, "/sim/api/v1/engine/start", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res = decodeResult(t, rec)
	assert.Equal(t, "running", res.Result.(map[string]any)["status"])

	req = httptest.NewRequest(http.MethodPost, "/sim/api/v1/engine/stop", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res = decodeResult(t, rec)
	assert.Equal(t, "stopped", res.Result.(map[string]any)["status"])
}

func TestEngineStartRejectsGet(t *testing.T) {
	h := NewEngineHandler(&fakeEngine{}, context.Background(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/sim/api/v1/engine/start", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// ============================================
// 遥测查询/导出
// ============================================

type fakeReadingsRepo struct {
	readings    []*domain.SensorReading
	lastFilters repository.ReadingFilters
}

func (f *fakeReadingsRepo) InsertReading(ctx context.Context, r *domain.SensorReading) error {
	f.readings = append(f.readings, r)
	return nil
}

func (f *fakeReadingsRepo) ListReadings(ctx context.Context, filters repository.ReadingFilters) ([]*domain.SensorReading, error) {
	f.lastFilters = filters
	return f.readings, nil
}

func (f *fakeReadingsRepo) SumByEntity(ctx context.Context, entityType, key string, from, to time.Time) ([]repository.EntitySum, error) {
	return nil, nil
}

type fakeAggsRepo struct {
	aggs []*domain.AggregatedReading
}

func (f *fakeAggsRepo) InsertAggregated(ctx context.Context, a *domain.AggregatedReading) error {
	f.aggs = append(f.aggs, a)
	return nil
}

func (f *fakeAggsRepo) ListAggregated(ctx context.Context, filters repository.AggregatedFilters) ([]*domain.AggregatedReading, error) {
	return f.aggs, nil
}

func TestListReadingsParsesFilters(t *testing.T) {
	readings := &fakeReadingsRepo{
		readings: []*domain.SensorReading{{
			ID:        1,
			DeviceID:  "dev-1",
			Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Key:       "temperature",
			Value:     21.5,
			Unit:      "°C",
		}},
	}
	h := NewReadingsHandler(readings, &fakeAggsRepo{}, zap.NewNop())

	url := "/sim/api/v1/readings?device_id=dev-1&key=temperature&from=2025-06-01T00:00:00Z&limit=10"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev-1", readings.lastFilters.DeviceID)
	assert.Equal(t, "temperature", readings.lastFilters.Key)
	assert.Equal(t, 10, readings.lastFilters.Limit)
	assert.False(t, readings.lastFilters.From.IsZero())
	assert.True(t, readings.lastFilters.To.IsZero())

	res := decodeResult(t, rec)
	items := res.Result.([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "2025-06-01T12:00:00Z", items[0].(map[string]any)["timestamp"])
}

func TestListAggregatedReadings(t *testing.T) {
	aggs := &fakeAggsRepo{
		aggs: []*domain.AggregatedReading{{
			ID:            1,
			EntityType:    domain.EntityRoom,
			EntityID:      "room-1",
			Timestamp:     time.Now(),
			Key:           "power_consumption",
			Value:         3.5,
			Unit:          "kWh",
			PeriodSeconds: 60,
		}},
	}
	h := NewReadingsHandler(&fakeReadingsRepo{}, aggs, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/sim/api/v1/readings/aggregated?entity_type=room", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec)
	items := res.Result.([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "room", items[0].(map[string]any)["entity_type"])
}

func TestExportReadingsXLSX(t *testing.T) {
	readings := &fakeReadingsRepo{
		readings: []*domain.SensorReading{{
			ID:        1,
			DeviceID:  "dev-1",
			Timestamp: time.Now(),
			Key:       "temperature",
			Value:     21.5,
			Unit:      "°C",
		}},
	}
	h := NewReadingsHandler(readings, &fakeAggsRepo{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/sim/api/v1/readings/export", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

// ============================================
// 路由
// ============================================

func TestRouterHealth(t *testing.T) {
	router := NewRouter(zap.NewNop())
	router.RegisterSimulatorRoutes(
		NewHierarchyHandler(newFakeBuildingsRepo(), newFakeFloorsRepo(), newFakeRoomsRepo(), zap.NewNop()),
		NewDeviceHandler(nil, nil, zap.NewNop()),
		NewEngineHandler(&fakeEngine{status: "initialized"}, context.Background(), zap.NewNop()),
		NewReadingsHandler(&fakeReadingsRepo{}, &fakeAggsRepo{}, zap.NewNop()),
		NewLiveTelemetryHandler(zap.NewNop()),
	)

	req := httptest.NewRequest(http.MethodGet, "/sim/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeResult(t, rec)
	assert.Equal(t, ResultSuccess, res.Code)
}

func TestRouterDispatchesEngine(t *testing.T) {
	engine := &fakeEngine{status: "initialized"}
	router := NewRouter(zap.NewNop())
	router.RegisterSimulatorRoutes(
		NewHierarchyHandler(newFakeBuildingsRepo(), newFakeFloorsRepo(), newFakeRoomsRepo(), zap.NewNop()),
		NewDeviceHandler(nil, nil, zap.NewNop()),
		NewEngineHandler(engine, context.Background(), zap.NewNop()),
		NewReadingsHandler(&fakeReadingsRepo{}, &fakeAggsRepo{}, zap.NewNop()),
		NewLiveTelemetryHandler(zap.NewNop()),
	)

	req := httptest.NewRequest(http.MethodPost, "/sim/api/v1/engine/start", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "running", engine.status)
}
