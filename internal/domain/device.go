package domain

import "time"

// Device 设备领域模型（对应 devices 表）
// State 是设备在两次模拟tick之间的持久"记忆"，由遥测模型原地更新
type Device struct {
	DeviceID     string         `db:"device_id"`
	RoomID       string         `db:"room_id"`        // FK → rooms, ON DELETE CASCADE
	DeviceTypeID string         `db:"device_type_id"` // FK → device_types
	DeviceName   string         `db:"device_name"`
	State        map[string]any `db:"state"` // JSONB, NOT NULL default '{}'
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (d *Device) ToJSON() map[string]any {
	state := d.State
	if state == nil {
		state = map[string]any{}
	}
	return map[string]any{
		"device_id":      d.DeviceID,
		"room_id":        d.RoomID,
		"device_type_id": d.DeviceTypeID,
		"device_name":    d.DeviceName,
		"state":          state,
		"is_active":      d.IsActive,
		"created_at":     d.CreatedAt,
		"updated_at":     d.UpdatedAt,
	}
}

// SimTarget 本tick待模拟的设备（含类型信息，一次批量查询带出，避免N+1）
type SimTarget struct {
	Device
	TypeName   string         `db:"type_name"`
	Properties map[string]any `db:"properties"`
	FloorID    string         `db:"floor_id"`
	BuildingID string         `db:"building_id"`
}
