package domain

import "time"

// SensorReading 原始遥测记录（对应 sensor_readings 表，仅追加）
type SensorReading struct {
	ID        int64     `db:"id"` // BIGSERIAL
	DeviceID  string    `db:"device_id"` // NOT NULL
	Timestamp time.Time `db:"timestamp"` // TIMESTAMPTZ
	Key       string    `db:"key"`       // "temperature"/"humidity"/...
	Value     float64   `db:"value"`
	Unit      string    `db:"unit"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (r *SensorReading) ToJSON() map[string]any {
	return map[string]any{
		"id":        r.ID,
		"device_id": r.DeviceID,
		"timestamp": r.Timestamp.UTC().Format(time.RFC3339),
		"key":       r.Key,
		"value":     r.Value,
		"unit":      r.Unit,
	}
}

// TelemetryMessage 实时推送消息（WebSocket/Redis Stream/MQTT 统一格式）
type TelemetryMessage struct {
	DeviceID  string  `json:"device_id"`
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	Timestamp string  `json:"timestamp"` // ISO-8601 UTC，带Z后缀
}

// NewTelemetryMessage 由一条遥测记录构造推送消息
func NewTelemetryMessage(r *SensorReading) TelemetryMessage {
	return TelemetryMessage{
		DeviceID:  r.DeviceID,
		Key:       r.Key,
		Value:     r.Value,
		Unit:      r.Unit,
		Timestamp: r.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
