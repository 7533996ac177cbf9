package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"database/sql"

	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

// PostgresSensorReadingsRepo 原始遥测Repository实现
type PostgresSensorReadingsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresSensorReadingsRepo(db *sql.DB, logger *zap.Logger) *PostgresSensorReadingsRepo {
	return &PostgresSensorReadingsRepo{db: db, logger: logger}
}

var _ SensorReadingsRepository = (*PostgresSensorReadingsRepo)(nil)

func (r *PostgresSensorReadingsRepo) InsertReading(ctx context.Context, reading *domain.SensorReading) error {
	q := `
		INSERT INTO sensor_readings (device_id, timestamp, key, value, unit)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, q, reading.DeviceID, reading.Timestamp, reading.Key, reading.Value, reading.Unit); err != nil {
		return fmt.Errorf("failed to insert sensor reading: %w", err)
	}
	return nil
}

func (r *PostgresSensorReadingsRepo) ListReadings(ctx context.Context, filters ReadingFilters) ([]*domain.SensorReading, error) {
	var where []string
	var args []interface{}
	argN := 1

	if filters.DeviceID != "" {
		where = append(where, fmt.Sprintf("device_id = $%d", argN))
		args = append(args, filters.DeviceID)
		argN++
	}
	if filters.Key != "" {
		where = append(where, fmt.Sprintf("key = $%d", argN))
		args = append(args, filters.Key)
		argN++
	}
	if !filters.From.IsZero() {
		where = append(where, fmt.Sprintf("timestamp >= $%d", argN))
		args = append(args, filters.From)
		argN++
	}
	if !filters.To.IsZero() {
		where = append(where, fmt.Sprintf("timestamp < $%d", argN))
		args = append(args, filters.To)
		argN++
	}

	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	q := `SELECT id, device_id::text, timestamp, key, value, unit FROM sensor_readings`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT $%d`, argN)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sensor readings: %w", err)
	}
	defer rows.Close()

	var readings []*domain.SensorReading
	for rows.Next() {
		reading := &domain.SensorReading{}
		if err := rows.Scan(&reading.ID, &reading.DeviceID, &reading.Timestamp, &reading.Key, &reading.Value, &reading.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan sensor reading: %w", err)
		}
		readings = append(readings, reading)
	}
	return readings, rows.Err()
}

// SumByEntity 按实体粒度对窗口内原始值求和（GROUP BY天然跳过无数据实体）
func (r *PostgresSensorReadingsRepo) SumByEntity(ctx context.Context, entityType, key string, from, to time.Time) ([]EntitySum, error) {
	var q string
	switch entityType {
	case domain.EntityDevice:
		q = `
			SELECT sr.device_id::text, SUM(sr.value), MAX(sr.unit)
			FROM sensor_readings sr
			WHERE sr.key = $1 AND sr.timestamp >= $2 AND sr.timestamp < $3
			GROUP BY sr.device_id`
	case domain.EntityRoom:
		q = `
			SELECT d.room_id::text, SUM(sr.value), MAX(sr.unit)
			FROM sensor_readings sr
			JOIN devices d ON sr.device_id = d.device_id
			WHERE sr.key = $1 AND sr.timestamp >= $2 AND sr.timestamp < $3
			GROUP BY d.room_id`
	case domain.EntityFloor:
		q = `
			SELECT r.floor_id::text, SUM(sr.value), MAX(sr.unit)
			FROM sensor_readings sr
			JOIN devices d ON sr.device_id = d.device_id
			JOIN rooms r ON d.room_id = r.room_id
			WHERE sr.key = $1 AND sr.timestamp >= $2 AND sr.timestamp < $3
			GROUP BY r.floor_id`
	case domain.EntityBuilding:
		q = `
			SELECT f.building_id::text, SUM(sr.value), MAX(sr.unit)
			FROM sensor_readings sr
			JOIN devices d ON sr.device_id = d.device_id
			JOIN rooms r ON d.room_id = r.room_id
			JOIN floors f ON r.floor_id = f.floor_id
			WHERE sr.key = $1 AND sr.timestamp >= $2 AND sr.timestamp < $3
			GROUP BY f.building_id`
	default:
		return nil, fmt.Errorf("unknown entity type: %s", entityType)
	}

	rows, err := r.db.QueryContext(ctx, q, key, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum readings by %s: %w", entityType, err)
	}
	defer rows.Close()

	var sums []EntitySum
	for rows.Next() {
		var s EntitySum
		if err := rows.Scan(&s.EntityID, &s.Value, &s.Unit); err != nil {
			return nil, fmt.Errorf("failed to scan entity sum: %w", err)
		}
		sums = append(sums, s)
	}
	return sums, rows.Err()
}

// PostgresAggregatedReadingsRepo 聚合记录Repository实现
type PostgresAggregatedReadingsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresAggregatedReadingsRepo(db *sql.DB, logger *zap.Logger) *PostgresAggregatedReadingsRepo {
	return &PostgresAggregatedReadingsRepo{db: db, logger: logger}
}

var _ AggregatedReadingsRepository = (*PostgresAggregatedReadingsRepo)(nil)

func (r *PostgresAggregatedReadingsRepo) InsertAggregated(ctx context.Context, a *domain.AggregatedReading) error {
	q := `
		INSERT INTO aggregated_readings (entity_type, entity_id, timestamp, key, value, unit, period_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := r.db.ExecContext(ctx, q, a.EntityType, a.EntityID, a.Timestamp, a.Key, a.Value, a.Unit, a.PeriodSeconds); err != nil {
		return fmt.Errorf("failed to insert aggregated reading: %w", err)
	}
	return nil
}

func (r *PostgresAggregatedReadingsRepo) ListAggregated(ctx context.Context, filters AggregatedFilters) ([]*domain.AggregatedReading, error) {
	var where []string
	var args []interface{}
	argN := 1

	if filters.EntityType != "" {
		where = append(where, fmt.Sprintf("entity_type = $%d", argN))
		args = append(args, filters.EntityType)
		argN++
	}
	if filters.EntityID != "" {
		where = append(where, fmt.Sprintf("entity_id = $%d", argN))
		args = append(args, filters.EntityID)
		argN++
	}
	if filters.Key != "" {
		where = append(where, fmt.Sprintf("key = $%d", argN))
		args = append(args, filters.Key)
		argN++
	}
	if filters.PeriodSeconds > 0 {
		where = append(where, fmt.Sprintf("period_seconds = $%d", argN))
		args = append(args, filters.PeriodSeconds)
		argN++
	}
	if !filters.From.IsZero() {
		where = append(where, fmt.Sprintf("timestamp >= $%d", argN))
		args = append(args, filters.From)
		argN++
	}
	if !filters.To.IsZero() {
		where = append(where, fmt.Sprintf("timestamp < $%d", argN))
		args = append(args, filters.To)
		argN++
	}

	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	q := `SELECT id, entity_type, entity_id::text, timestamp, key, value, unit, period_seconds FROM aggregated_readings`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += fmt.Sprintf(` ORDER BY timestamp DESC LIMIT $%d`, argN)
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list aggregated readings: %w", err)
	}
	defer rows.Close()

	var aggs []*domain.AggregatedReading
	for rows.Next() {
		a := &domain.AggregatedReading{}
		if err := rows.Scan(&a.ID, &a.EntityType, &a.EntityID, &a.Timestamp, &a.Key, &a.Value, &a.Unit, &a.PeriodSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan aggregated reading: %w", err)
		}
		aggs = append(aggs, a)
	}
	return aggs, rows.Err()
}
