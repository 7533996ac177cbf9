package domain

import "time"

// 聚合粒度（entity_type 的合法取值）
const (
	EntityBuilding = "building"
	EntityFloor    = "floor"
	EntityRoom     = "room"
	EntityDevice   = "device"
)

// AggregatedReading 窗口聚合记录（对应 aggregated_readings 表，仅追加）
// 每个聚合tick，每个实体、每个粒度最多一行；窗口内无原始数据的实体不落行
type AggregatedReading struct {
	ID            int64     `db:"id"` // BIGSERIAL
	EntityType    string    `db:"entity_type"` // building/floor/room/device
	EntityID      string    `db:"entity_id"`
	Timestamp     time.Time `db:"timestamp"`
	Key           string    `db:"key"`
	Value         float64   `db:"value"` // 窗口内原始值求和
	Unit          string    `db:"unit"`
	PeriodSeconds int       `db:"period_seconds"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (a *AggregatedReading) ToJSON() map[string]any {
	return map[string]any{
		"id":             a.ID,
		"entity_type":    a.EntityType,
		"entity_id":      a.EntityID,
		"timestamp":      a.Timestamp.UTC().Format(time.RFC3339),
		"key":            a.Key,
		"value":          a.Value,
		"unit":           a.Unit,
		"period_seconds": a.PeriodSeconds,
	}
}
