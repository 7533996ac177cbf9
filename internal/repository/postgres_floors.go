package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

// PostgresFloorsRepo 楼层Repository实现
type PostgresFloorsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresFloorsRepo(db *sql.DB, logger *zap.Logger) *PostgresFloorsRepo {
	return &PostgresFloorsRepo{db: db, logger: logger}
}

var _ FloorsRepository = (*PostgresFloorsRepo)(nil)

func (r *PostgresFloorsRepo) ListFloors(ctx context.Context, buildingID string) ([]*domain.Floor, error) {
	q := `
		SELECT floor_id::text, building_id::text, floor_number, is_simulating, created_at, updated_at
		FROM floors
		WHERE building_id = $1
		ORDER BY floor_number`
	rows, err := r.db.QueryContext(ctx, q, buildingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list floors: %w", err)
	}
	defer rows.Close()

	var floors []*domain.Floor
	for rows.Next() {
		f := &domain.Floor{}
		if err := rows.Scan(&f.FloorID, &f.BuildingID, &f.FloorNumber, &f.IsSimulating, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan floor: %w", err)
		}
		floors = append(floors, f)
	}
	return floors, rows.Err()
}

func (r *PostgresFloorsRepo) GetFloor(ctx context.Context, floorID string) (*domain.Floor, error) {
	q := `
		SELECT floor_id::text, building_id::text, floor_number, is_simulating, created_at, updated_at
		FROM floors
		WHERE floor_id = $1`
	f := &domain.Floor{}
	err := r.db.QueryRowContext(ctx, q, floorID).
		Scan(&f.FloorID, &f.BuildingID, &f.FloorNumber, &f.IsSimulating, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get floor %s: %w", floorID, err)
	}
	return f, nil
}

func (r *PostgresFloorsRepo) CreateFloor(ctx context.Context, f *domain.Floor) (string, error) {
	if f.FloorID == "" {
		f.FloorID = uuid.New().String()
	}
	q := `
		INSERT INTO floors (floor_id, building_id, floor_number, is_simulating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`
	if _, err := r.db.ExecContext(ctx, q, f.FloorID, f.BuildingID, f.FloorNumber, f.IsSimulating); err != nil {
		return "", fmt.Errorf("failed to create floor: %w", err)
	}
	return f.FloorID, nil
}

func (r *PostgresFloorsRepo) DeleteFloor(ctx context.Context, floorID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM floors WHERE floor_id = $1`, floorID)
	if err != nil {
		return fmt.Errorf("failed to delete floor %s: %w", floorID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("floor %s not found", floorID)
	}
	return nil
}

func (r *PostgresFloorsRepo) SetSimulating(ctx context.Context, floorID string, simulating bool) error {
	q := `UPDATE floors SET is_simulating = $2, updated_at = NOW() WHERE floor_id = $1`
	res, err := r.db.ExecContext(ctx, q, floorID, simulating)
	if err != nil {
		return fmt.Errorf("failed to set floor %s simulating: %w", floorID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("floor %s not found", floorID)
	}
	return nil
}
