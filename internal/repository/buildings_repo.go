package repository

import (
	"context"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

// BuildingsRepository 楼栋Repository接口
type BuildingsRepository interface {
	ListBuildings(ctx context.Context) ([]*domain.Building, error)
	GetBuilding(ctx context.Context, buildingID string) (*domain.Building, error)
	CreateBuilding(ctx context.Context, b *domain.Building) (string, error)
	UpdateBuilding(ctx context.Context, buildingID string, b *domain.Building) error
	// DeleteBuilding 物理删除；楼层/房间/设备随外键级联删除
	DeleteBuilding(ctx context.Context, buildingID string) error
	// SetSimulating 切换模拟开关；模拟循环每tick重新读取该标志
	SetSimulating(ctx context.Context, buildingID string, simulating bool) error
}

// FloorsRepository 楼层Repository接口
type FloorsRepository interface {
	ListFloors(ctx context.Context, buildingID string) ([]*domain.Floor, error)
	GetFloor(ctx context.Context, floorID string) (*domain.Floor, error)
	CreateFloor(ctx context.Context, f *domain.Floor) (string, error)
	DeleteFloor(ctx context.Context, floorID string) error
	SetSimulating(ctx context.Context, floorID string, simulating bool) error
}

// RoomsRepository 房间Repository接口
type RoomsRepository interface {
	ListRooms(ctx context.Context, floorID string) ([]*domain.Room, error)
	GetRoom(ctx context.Context, roomID string) (*domain.Room, error)
	CreateRoom(ctx context.Context, r *domain.Room) (string, error)
	DeleteRoom(ctx context.Context, roomID string) error
	SetSimulating(ctx context.Context, roomID string, simulating bool) error
}
