package repository

import (
	"context"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

// DeviceTypesRepository 设备类型Repository接口
type DeviceTypesRepository interface {
	ListDeviceTypes(ctx context.Context) ([]*domain.DeviceType, error)
	GetDeviceType(ctx context.Context, deviceTypeID string) (*domain.DeviceType, error)
	CreateDeviceType(ctx context.Context, t *domain.DeviceType) (string, error)
	DeleteDeviceType(ctx context.Context, deviceTypeID string) error
}

// DevicesRepository 设备Repository接口
type DevicesRepository interface {
	ListDevices(ctx context.Context, roomID string) ([]*domain.Device, error)
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)
	CreateDevice(ctx context.Context, d *domain.Device) (string, error)
	UpdateDevice(ctx context.Context, deviceID string, d *domain.Device) error
	DeleteDevice(ctx context.Context, deviceID string) error

	// ListSimTargets 解析本tick的模拟范围：
	// is_active 且 (房间 OR 楼层 OR 楼栋 任一 is_simulating) 的设备，
	// 连同类型名与调参一次批量带出（单条JOIN查询，设备数增长时无N+1）
	ListSimTargets(ctx context.Context) ([]*domain.SimTarget, error)

	// UpdateDeviceState 持久化遥测模型对 state 的更新（tick末调用）
	UpdateDeviceState(ctx context.Context, deviceID string, state map[string]any) error
}
