package domain

import "time"

// Floor 楼层领域模型（对应 floors 表）
type Floor struct {
	FloorID      string    `db:"floor_id"`
	BuildingID   string    `db:"building_id"` // FK → buildings, ON DELETE CASCADE
	FloorNumber  int       `db:"floor_number"`
	IsSimulating bool      `db:"is_simulating"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (f *Floor) ToJSON() map[string]any {
	return map[string]any{
		"floor_id":      f.FloorID,
		"building_id":   f.BuildingID,
		"floor_number":  f.FloorNumber,
		"is_simulating": f.IsSimulating,
		"created_at":    f.CreatedAt,
		"updated_at":    f.UpdatedAt,
	}
}
