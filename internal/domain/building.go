package domain

import (
	"database/sql"
	"time"
)

// Building 楼栋领域模型（对应 buildings 表）
type Building struct {
	BuildingID   string         `db:"building_id"`
	BuildingName string         `db:"building_name"` // NOT NULL
	Address      sql.NullString `db:"address"`       // nullable
	IsSimulating bool           `db:"is_simulating"` // NOT NULL, default false
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

// ToJSON 转换为JSON格式（用于HTTP响应）
func (b *Building) ToJSON() map[string]any {
	m := map[string]any{
		"building_id":   b.BuildingID,
		"building_name": b.BuildingName,
		"is_simulating": b.IsSimulating,
		"created_at":    b.CreatedAt,
		"updated_at":    b.UpdatedAt,
	}
	if b.Address.Valid {
		m["address"] = b.Address.String
	} else {
		m["address"] = nil
	}
	return m
}
