package repository

import (
	"context"
	"time"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

// EntitySum 窗口内某实体的遥测求和结果
type EntitySum struct {
	EntityID string
	Value    float64
	Unit     string
}

// ReadingFilters 原始遥测查询过滤器
type ReadingFilters struct {
	DeviceID string
	Key      string
	From     time.Time // 零值表示不限
	To       time.Time
	Limit    int
}

// SensorReadingsRepository 原始遥测Repository接口（仅追加）
type SensorReadingsRepository interface {
	InsertReading(ctx context.Context, r *domain.SensorReading) error
	ListReadings(ctx context.Context, filters ReadingFilters) ([]*domain.SensorReading, error)

	// SumByEntity 对窗口 [from, to) 内 key 的原始值按实体求和
	// entityType 决定JOIN深度：device 直接分组，room/floor/building 逐级JOIN
	// 窗口内无匹配数据的实体不出现在结果中
	SumByEntity(ctx context.Context, entityType, key string, from, to time.Time) ([]EntitySum, error)
}

// AggregatedFilters 聚合记录查询过滤器
type AggregatedFilters struct {
	EntityType    string
	EntityID      string
	Key           string
	PeriodSeconds int
	From          time.Time
	To            time.Time
	Limit         int
}

// AggregatedReadingsRepository 聚合记录Repository接口（仅追加）
type AggregatedReadingsRepository interface {
	InsertAggregated(ctx context.Context, a *domain.AggregatedReading) error
	ListAggregated(ctx context.Context, filters AggregatedFilters) ([]*domain.AggregatedReading, error)
}
