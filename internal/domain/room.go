package domain

import "time"

// Room 房间领域模型（对应 rooms 表）
type Room struct {
	RoomID       string    `db:"room_id"`
	FloorID      string    `db:"floor_id"` // FK → floors, ON DELETE CASCADE
	RoomName     string    `db:"room_name"`
	IsSimulating bool      `db:"is_simulating"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (r *Room) ToJSON() map[string]any {
	return map[string]any{
		"room_id":       r.RoomID,
		"floor_id":      r.FloorID,
		"room_name":     r.RoomName,
		"is_simulating": r.IsSimulating,
		"created_at":    r.CreatedAt,
		"updated_at":    r.UpdatedAt,
	}
}
