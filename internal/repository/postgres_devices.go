package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

// PostgresDeviceTypesRepo 设备类型Repository实现
type PostgresDeviceTypesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresDeviceTypesRepo(db *sql.DB, logger *zap.Logger) *PostgresDeviceTypesRepo {
	return &PostgresDeviceTypesRepo{db: db, logger: logger}
}

var _ DeviceTypesRepository = (*PostgresDeviceTypesRepo)(nil)

func (r *PostgresDeviceTypesRepo) ListDeviceTypes(ctx context.Context) ([]*domain.DeviceType, error) {
	q := `
		SELECT device_type_id::text, type_name, COALESCE(properties, '{}'::jsonb), created_at, updated_at
		FROM device_types
		ORDER BY type_name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list device types: %w", err)
	}
	defer rows.Close()

	var types []*domain.DeviceType
	for rows.Next() {
		t := &domain.DeviceType{}
		var props []byte
		if err := rows.Scan(&t.DeviceTypeID, &t.TypeName, &props, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan device type: %w", err)
		}
		t.Properties = unmarshalJSONMap(props)
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *PostgresDeviceTypesRepo) GetDeviceType(ctx context.Context, deviceTypeID string) (*domain.DeviceType, error) {
	q := `
		SELECT device_type_id::text, type_name, COALESCE(properties, '{}'::jsonb), created_at, updated_at
		FROM device_types
		WHERE device_type_id = $1`
	t := &domain.DeviceType{}
	var props []byte
	err := r.db.QueryRowContext(ctx, q, deviceTypeID).
		Scan(&t.DeviceTypeID, &t.TypeName, &props, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device type %s: %w", deviceTypeID, err)
	}
	t.Properties = unmarshalJSONMap(props)
	return t, nil
}

func (r *PostgresDeviceTypesRepo) CreateDeviceType(ctx context.Context, t *domain.DeviceType) (string, error) {
	if t.DeviceTypeID == "" {
		t.DeviceTypeID = uuid.New().String()
	}
	props, err := marshalJSONMap(t.Properties)
	if err != nil {
		return "", fmt.Errorf("failed to marshal device type properties: %w", err)
	}
	q := `
		INSERT INTO device_types (device_type_id, type_name, properties, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())`
	if _, err := r.db.ExecContext(ctx, q, t.DeviceTypeID, t.TypeName, props); err != nil {
		return "", fmt.Errorf("failed to create device type: %w", err)
	}
	return t.DeviceTypeID, nil
}

func (r *PostgresDeviceTypesRepo) DeleteDeviceType(ctx context.Context, deviceTypeID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM device_types WHERE device_type_id = $1`, deviceTypeID)
	if err != nil {
		return fmt.Errorf("failed to delete device type %s: %w", deviceTypeID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("device type %s not found", deviceTypeID)
	}
	return nil
}

// PostgresDevicesRepo 设备Repository实现
type PostgresDevicesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresDevicesRepo(db *sql.DB, logger *zap.Logger) *PostgresDevicesRepo {
	return &PostgresDevicesRepo{db: db, logger: logger}
}

var _ DevicesRepository = (*PostgresDevicesRepo)(nil)

const deviceColumns = `
	d.device_id::text, d.room_id::text, d.device_type_id::text, d.device_name,
	COALESCE(d.state, '{}'::jsonb), d.is_active, d.created_at, d.updated_at`

func (r *PostgresDevicesRepo) ListDevices(ctx context.Context, roomID string) ([]*domain.Device, error) {
	q := `SELECT ` + deviceColumns + `
		FROM devices d
		WHERE d.room_id = $1
		ORDER BY d.device_name`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*domain.Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

func (r *PostgresDevicesRepo) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	q := `SELECT ` + deviceColumns + `
		FROM devices d
		WHERE d.device_id = $1`
	row := r.db.QueryRowContext(ctx, q, deviceID)

	d := &domain.Device{}
	var state []byte
	err := row.Scan(&d.DeviceID, &d.RoomID, &d.DeviceTypeID, &d.DeviceName, &state, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device %s: %w", deviceID, err)
	}
	d.State = unmarshalJSONMap(state)
	return d, nil
}

func (r *PostgresDevicesRepo) CreateDevice(ctx context.Context, d *domain.Device) (string, error) {
	if d.DeviceID == "" {
		d.DeviceID = uuid.New().String()
	}
	state, err := marshalJSONMap(d.State)
	if err != nil {
		return "", fmt.Errorf("failed to marshal device state: %w", err)
	}
	q := `
		INSERT INTO devices (device_id, room_id, device_type_id, device_name, state, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`
	if _, err := r.db.ExecContext(ctx, q, d.DeviceID, d.RoomID, d.DeviceTypeID, d.DeviceName, state, d.IsActive); err != nil {
		return "", fmt.Errorf("failed to create device: %w", err)
	}
	return d.DeviceID, nil
}

func (r *PostgresDevicesRepo) UpdateDevice(ctx context.Context, deviceID string, d *domain.Device) error {
	state, err := marshalJSONMap(d.State)
	if err != nil {
		return fmt.Errorf("failed to marshal device state: %w", err)
	}
	q := `
		UPDATE devices
		SET device_name = $2, state = $3, is_active = $4, updated_at = NOW()
		WHERE device_id = $1`
	res, err := r.db.ExecContext(ctx, q, deviceID, d.DeviceName, state, d.IsActive)
	if err != nil {
		return fmt.Errorf("failed to update device %s: %w", deviceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("device %s not found", deviceID)
	}
	return nil
}

func (r *PostgresDevicesRepo) DeleteDevice(ctx context.Context, deviceID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM devices WHERE device_id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete device %s: %w", deviceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("device %s not found", deviceID)
	}
	return nil
}

// ListSimTargets 模拟范围解析
// 取值语义为三级标志的逻辑OR（任一祖先开启即纳入），不是覆盖优先级
func (r *PostgresDevicesRepo) ListSimTargets(ctx context.Context) ([]*domain.SimTarget, error) {
	q := `
		SELECT
			d.device_id::text, d.room_id::text, d.device_type_id::text, d.device_name,
			COALESCE(d.state, '{}'::jsonb), d.is_active, d.created_at, d.updated_at,
			dt.type_name, COALESCE(dt.properties, '{}'::jsonb),
			f.floor_id::text, b.building_id::text
		FROM devices d
		JOIN rooms r ON d.room_id = r.room_id
		JOIN floors f ON r.floor_id = f.floor_id
		JOIN buildings b ON f.building_id = b.building_id
		JOIN device_types dt ON d.device_type_id = dt.device_type_id
		WHERE d.is_active = true
		  AND (r.is_simulating = true OR f.is_simulating = true OR b.is_simulating = true)`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve simulation scope: %w", err)
	}
	defer rows.Close()

	var targets []*domain.SimTarget
	for rows.Next() {
		t := &domain.SimTarget{}
		var state, props []byte
		err := rows.Scan(
			&t.DeviceID, &t.RoomID, &t.DeviceTypeID, &t.DeviceName,
			&state, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
			&t.TypeName, &props,
			&t.FloorID, &t.BuildingID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sim target: %w", err)
		}
		t.State = unmarshalJSONMap(state)
		t.Properties = unmarshalJSONMap(props)
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (r *PostgresDevicesRepo) UpdateDeviceState(ctx context.Context, deviceID string, state map[string]any) error {
	data, err := marshalJSONMap(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state for device %s: %w", deviceID, err)
	}
	q := `UPDATE devices SET state = $2, updated_at = NOW() WHERE device_id = $1`
	res, err := r.db.ExecContext(ctx, q, deviceID, data)
	if err != nil {
		return fmt.Errorf("failed to update state for device %s: %w", deviceID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("device %s not found", deviceID)
	}
	return nil
}

func scanDevice(rows *sql.Rows) (*domain.Device, error) {
	d := &domain.Device{}
	var state []byte
	if err := rows.Scan(&d.DeviceID, &d.RoomID, &d.DeviceTypeID, &d.DeviceName, &state, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to scan device: %w", err)
	}
	d.State = unmarshalJSONMap(state)
	return d, nil
}

// unmarshalJSONMap JSONB列解码；解码失败时返回空map（不让单行坏数据中断扫描）
func unmarshalJSONMap(data []byte) map[string]any {
	m := map[string]any{}
	if len(data) == 0 {
		return m
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return map[string]any{}
	}
	return m
}

func marshalJSONMap(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
