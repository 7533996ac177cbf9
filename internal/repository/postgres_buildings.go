package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

// PostgresBuildingsRepo 楼栋Repository实现
type PostgresBuildingsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresBuildingsRepo(db *sql.DB, logger *zap.Logger) *PostgresBuildingsRepo {
	return &PostgresBuildingsRepo{db: db, logger: logger}
}

var _ BuildingsRepository = (*PostgresBuildingsRepo)(nil)

func (r *PostgresBuildingsRepo) ListBuildings(ctx context.Context) ([]*domain.Building, error) {
	q := `
		SELECT building_id::text, building_name, address, is_simulating, created_at, updated_at
		FROM buildings
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list buildings: %w", err)
	}
	defer rows.Close()

	var buildings []*domain.Building
	for rows.Next() {
		b := &domain.Building{}
		if err := rows.Scan(&b.BuildingID, &b.BuildingName, &b.Address, &b.IsSimulating, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan building: %w", err)
		}
		buildings = append(buildings, b)
	}
	return buildings, rows.Err()
}

func (r *PostgresBuildingsRepo) GetBuilding(ctx context.Context, buildingID string) (*domain.Building, error) {
	q := `
		SELECT building_id::text, building_name, address, is_simulating, created_at, updated_at
		FROM buildings
		WHERE building_id = $1`
	b := &domain.Building{}
	err := r.db.QueryRowContext(ctx, q, buildingID).
		Scan(&b.BuildingID, &b.BuildingName, &b.Address, &b.IsSimulating, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get building %s: %w", buildingID, err)
	}
	return b, nil
}

func (r *PostgresBuildingsRepo) CreateBuilding(ctx context.Context, b *domain.Building) (string, error) {
	if b.BuildingID == "" {
		b.BuildingID = uuid.New().String()
	}
	q := `
		INSERT INTO buildings (building_id, building_name, address, is_simulating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`
	if _, err := r.db.ExecContext(ctx, q, b.BuildingID, b.BuildingName, b.Address, b.IsSimulating); err != nil {
		return "", fmt.Errorf("failed to create building: %w", err)
	}
	return b.BuildingID, nil
}

func (r *PostgresBuildingsRepo) UpdateBuilding(ctx context.Context, buildingID string, b *domain.Building) error {
	q := `
		UPDATE buildings
		SET building_name = $2, address = $3, is_simulating = $4, updated_at = NOW()
		WHERE building_id = $1`
	res, err := r.db.ExecContext(ctx, q, buildingID, b.BuildingName, b.Address, b.IsSimulating)
	if err != nil {
		return fmt.Errorf("failed to update building %s: %w", buildingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("building %s not found", buildingID)
	}
	return nil
}

func (r *PostgresBuildingsRepo) DeleteBuilding(ctx context.Context, buildingID string) error {
	// floors/rooms/devices 由外键 ON DELETE CASCADE 级联删除
	res, err := r.db.ExecContext(ctx, `DELETE FROM buildings WHERE building_id = $1`, buildingID)
	if err != nil {
		return fmt.Errorf("failed to delete building %s: %w", buildingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("building %s not found", buildingID)
	}
	return nil
}

func (r *PostgresBuildingsRepo) SetSimulating(ctx context.Context, buildingID string, simulating bool) error {
	q := `UPDATE buildings SET is_simulating = $2, updated_at = NOW() WHERE building_id = $1`
	res, err := r.db.ExecContext(ctx, q, buildingID, simulating)
	if err != nil {
		return fmt.Errorf("failed to set building %s simulating: %w", buildingID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("building %s not found", buildingID)
	}
	return nil
}
