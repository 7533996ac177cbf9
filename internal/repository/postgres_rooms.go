package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

// PostgresRoomsRepo 房间Repository实现
type PostgresRoomsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresRoomsRepo(db *sql.DB, logger *zap.Logger) *PostgresRoomsRepo {
	return &PostgresRoomsRepo{db: db, logger: logger}
}

var _ RoomsRepository = (*PostgresRoomsRepo)(nil)

func (r *PostgresRoomsRepo) ListRooms(ctx context.Context, floorID string) ([]*domain.Room, error) {
	q := `
		SELECT room_id::text, floor_id::text, room_name, is_simulating, created_at, updated_at
		FROM rooms
		WHERE floor_id = $1
		ORDER BY room_name`
	rows, err := r.db.QueryContext(ctx, q, floorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*domain.Room
	for rows.Next() {
		room := &domain.Room{}
		if err := rows.Scan(&room.RoomID, &room.FloorID, &room.RoomName, &room.IsSimulating, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *PostgresRoomsRepo) GetRoom(ctx context.Context, roomID string) (*domain.Room, error) {
	q := `
		SELECT room_id::text, floor_id::text, room_name, is_simulating, created_at, updated_at
		FROM rooms
		WHERE room_id = $1`
	room := &domain.Room{}
	err := r.db.QueryRowContext(ctx, q, roomID).
		Scan(&room.RoomID, &room.FloorID, &room.RoomName, &room.IsSimulating, &room.CreatedAt, &room.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", roomID, err)
	}
	return room, nil
}

func (r *PostgresRoomsRepo) CreateRoom(ctx context.Context, room *domain.Room) (string, error) {
	if room.RoomID == "" {
		room.RoomID = uuid.New().String()
	}
	q := `
		INSERT INTO rooms (room_id, floor_id, room_name, is_simulating, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`
	if _, err := r.db.ExecContext(ctx, q, room.RoomID, room.FloorID, room.RoomName, room.IsSimulating); err != nil {
		return "", fmt.Errorf("failed to create room: %w", err)
	}
	return room.RoomID, nil
}

func (r *PostgresRoomsRepo) DeleteRoom(ctx context.Context, roomID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE room_id = $1`, roomID)
	if err != nil {
		return fmt.Errorf("failed to delete room %s: %w", roomID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %s not found", roomID)
	}
	return nil
}

func (r *PostgresRoomsRepo) SetSimulating(ctx context.Context, roomID string, simulating bool) error {
	q := `UPDATE rooms SET is_simulating = $2, updated_at = NOW() WHERE room_id = $1`
	res, err := r.db.ExecContext(ctx, q, roomID, simulating)
	if err != nil {
		return fmt.Errorf("failed to set room %s simulating: %w", roomID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("room %s not found", roomID)
	}
	return nil
}
