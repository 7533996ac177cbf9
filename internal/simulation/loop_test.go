package simulation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
	"github.com/Oliver369X/iot-building-simulator/internal/repository"
	"github.com/Oliver369X/iot-building-simulator/internal/telemetry"
)

// fakeDevicesRepo 可编程的设备Repository
type fakeDevicesRepo struct {
	mu          sync.Mutex
	targets     []*domain.SimTarget
	targetsErr  error
	savedStates map[string]map[string]any
	stateErr    error
}

func newFakeDevicesRepo() *fakeDevicesRepo {
	return &fakeDevicesRepo{savedStates: map[string]map[string]any{}}
}

func (f *fakeDevicesRepo) ListDevices(ctx context.Context, roomID string) ([]*domain.Device, error) {
	return nil, nil
}

func (f *fakeDevicesRepo) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	return nil, nil
}

func (f *fakeDevicesRepo) CreateDevice(ctx context.Context, d *domain.Device) (string, error) {
	return "", nil
}

func (f *fakeDevicesRepo) UpdateDevice(ctx context.Context, deviceID string, d *domain.Device) error {
	return nil
}

func (f *fakeDevicesRepo) DeleteDevice(ctx context.Context, deviceID string) error {
	return nil
}

func (f *fakeDevicesRepo) ListSimTargets(ctx context.Context) ([]*domain.SimTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.targetsErr != nil {
		return nil, f.targetsErr
	}
	return f.targets, nil
}

func (f *fakeDevicesRepo) UpdateDeviceState(ctx context.Context, deviceID string, state map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stateErr != nil {
		return f.stateErr
	}
	f.savedStates[deviceID] = state
	return nil
}

func (f *fakeDevicesRepo) setTargets(targets []*domain.SimTarget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.targets = targets
}

// fakeSink 收集落库调用
type fakeSink struct {
	mu       sync.Mutex
	readings []*domain.SensorReading
	err      error
}

func (f *fakeSink) StoreAndPublish(ctx context.Context, r *domain.SensorReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.readings = append(f.readings, r)
	return nil
}

func (f *fakeSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.readings)
}

func powerMeterTarget(deviceID string) *domain.SimTarget {
	return &domain.SimTarget{
		Device: domain.Device{
			DeviceID:     deviceID,
			RoomID:       "room-1",
			DeviceTypeID: "dt-power",
			DeviceName:   "meter",
			State:        map[string]any{"power": "ON"},
			IsActive:     true,
		},
		TypeName:   domain.TypePowerMeter,
		Properties: map[string]any{},
		FloorID:    "floor-1",
		BuildingID: "bld-1",
	}
}

func newTestLoop(devices repository.DevicesRepository, sink TelemetrySink) *Loop {
	gen := telemetry.NewGenerator(zap.NewNop(), 1)
	return NewLoop(devices, sink, gen, 10*time.Millisecond, zap.NewNop())
}

func TestTickGeneratesForScopedDevices(t *testing.T) {
	repo := newFakeDevicesRepo()
	repo.setTargets([]*domain.SimTarget{powerMeterTarget("dev-1")})
	sink := &fakeSink{}

	loop := newTestLoop(repo, sink)
	loop.tick(context.Background())

	require.Equal(t, 1, sink.count())
	assert.Equal(t, "dev-1", sink.readings[0].DeviceID)
	assert.Equal(t, "power_consumption", sink.readings[0].Key)
	assert.Equal(t, "kWh", sink.readings[0].Unit)

	// 遥测模型更新过的state写回
	saved, ok := repo.savedStates["dev-1"]
	require.True(t, ok)
	assert.Contains(t, saved, "power_consumption")
}

func TestTickEmptyScope(t *testing.T) {
	repo := newFakeDevicesRepo()
	sink := &fakeSink{}

	loop := newTestLoop(repo, sink)
	loop.tick(context.Background())

	assert.Equal(t, 0, sink.count())
	assert.Empty(t, repo.savedStates)
}

func TestTickScopeQueryFailureSkipsTick(t *testing.T) {
	repo := newFakeDevicesRepo()
	repo.targetsErr = errors.New("db down")
	sink := &fakeSink{}

	loop := newTestLoop(repo, sink)
	loop.tick(context.Background())

	assert.Equal(t, 0, sink.count())
}

// 单设备存储失败不阻止其余设备处理
func TestTickStoreFailureDoesNotAbort(t *testing.T) {
	repo := newFakeDevicesRepo()
	repo.setTargets([]*domain.SimTarget{
		powerMeterTarget("dev-1"),
		powerMeterTarget("dev-2"),
	})
	sink := &fakeSink{err: errors.New("store failed")}

	loop := newTestLoop(repo, sink)
	loop.tick(context.Background())

	// 两个设备都被处理（都失败），state仍然写回
	assert.Equal(t, 0, sink.count())
	assert.Len(t, repo.savedStates, 2)
}

func TestTickInitializesNilState(t *testing.T) {
	target := powerMeterTarget("dev-1")
	target.State = nil
	repo := newFakeDevicesRepo()
	repo.setTargets([]*domain.SimTarget{target})
	sink := &fakeSink{}

	loop := newTestLoop(repo, sink)
	loop.tick(context.Background())

	require.Equal(t, 1, sink.count())
	assert.NotNil(t, repo.savedStates["dev-1"])
}

// 范围切换：关闭模拟开关后的tick不再产生遥测
func TestScopeToggleTakesEffectNextTick(t *testing.T) {
	repo := newFakeDevicesRepo()
	repo.setTargets([]*domain.SimTarget{powerMeterTarget("dev-1")})
	sink := &fakeSink{}

	loop := newTestLoop(repo, sink)
	loop.tick(context.Background())
	require.Equal(t, 1, sink.count())

	repo.setTargets(nil)
	loop.tick(context.Background())
	assert.Equal(t, 1, sink.count())
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := newFakeDevicesRepo()
	repo.setTargets([]*domain.SimTarget{powerMeterTarget("dev-1")})
	sink := &fakeSink{}

	loop := newTestLoop(repo, sink)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		loop.Run(ctx)
		close(done)
	}()

	// 至少首个tick已执行
	require.Eventually(t, func() bool { return sink.count() >= 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after context cancel")
	}
}
