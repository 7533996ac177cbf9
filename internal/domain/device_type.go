package domain

import "time"

// 模拟器内置的设备类型名（type_name），未识别的类型走默认生成器
const (
	TypeTemperatureSensor = "temperature_sensor"
	TypeHumiditySensor    = "humidity_sensor"
	TypeLightSensor       = "light_sensor"
	TypeOccupancySensor   = "occupancy_sensor"
	TypePowerMeter        = "power_meter"
)

// DeviceType 设备类型领域模型（对应 device_types 表）
// Properties 为该类型的模拟调参（change_speed、min_temp 等），均可缺省
type DeviceType struct {
	DeviceTypeID string         `db:"device_type_id"`
	TypeName     string         `db:"type_name"` // NOT NULL
	Properties   map[string]any `db:"properties"` // JSONB, nullable
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (t *DeviceType) ToJSON() map[string]any {
	props := t.Properties
	if props == nil {
		props = map[string]any{}
	}
	return map[string]any{
		"device_type_id": t.DeviceTypeID,
		"type_name":      t.TypeName,
		"properties":     props,
		"created_at":     t.CreatedAt,
		"updated_at":     t.UpdatedAt,
	}
}
