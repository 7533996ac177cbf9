package simulation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
	"github.com/Oliver369X/iot-building-simulator/internal/repository"
)

// 聚合粒度的固定顺序（楼栋 → 楼层 → 房间 → 设备）
var aggregationLevels = []string{
	domain.EntityBuilding,
	domain.EntityFloor,
	domain.EntityRoom,
	domain.EntityDevice,
}

// Aggregator 聚合worker
// 独立于模拟循环按自身间隔tick：对指定遥测key在尾随窗口 [now-period, now)
// 内的原始值求和，按四级粒度各落一行聚合记录；窗口内无数据的实体跳过
// 每tick全量重扫（非增量），重启后无需恢复任何累计状态
type Aggregator struct {
	readings repository.SensorReadingsRepository
	aggs     repository.AggregatedReadingsRepository
	key      string
	interval time.Duration
	logger   *zap.Logger
}

// NewAggregator 创建聚合worker；interval 同时是聚合窗口长度
func NewAggregator(
	readings repository.SensorReadingsRepository,
	aggs repository.AggregatedReadingsRepository,
	key string,
	interval time.Duration,
	logger *zap.Logger,
) *Aggregator {
	return &Aggregator{
		readings: readings,
		aggs:     aggs,
		key:      key,
		interval: interval,
		logger:   logger,
	}
}

// Run 运行worker直到ctx取消
func (a *Aggregator) Run(ctx context.Context) {
	a.logger.Info("Aggregation worker started",
		zap.String("key", a.key),
		zap.Duration("interval", a.interval),
	)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Aggregation worker stopped")
			return
		case <-ticker.C:
			a.aggregate(ctx, time.Now().UTC())
		}
	}
}

// aggregate 一次聚合tick
// 单个粒度失败只记日志，其余粒度照常执行；下个tick重扫自愈
func (a *Aggregator) aggregate(ctx context.Context, now time.Time) {
	from := now.Add(-a.interval)
	periodSeconds := int(a.interval.Seconds())
	inserted := 0

	for _, level := range aggregationLevels {
		sums, err := a.readings.SumByEntity(ctx, level, a.key, from, now)
		if err != nil {
			a.logger.Error("Failed to aggregate level",
				zap.String("entity_type", level),
				zap.String("key", a.key),
				zap.Error(err),
			)
			continue
		}

		for _, s := range sums {
			agg := &domain.AggregatedReading{
				EntityType:    level,
				EntityID:      s.EntityID,
				Timestamp:     now,
				Key:           a.key,
				Value:         s.Value,
				Unit:          s.Unit,
				PeriodSeconds: periodSeconds,
			}
			if err := a.aggs.InsertAggregated(ctx, agg); err != nil {
				// 单实体失败不阻止同级其余实体落库
				a.logger.Error("Failed to insert aggregated reading",
					zap.String("entity_type", level),
					zap.String("entity_id", s.EntityID),
					zap.Error(err),
				)
				continue
			}
			inserted++
		}
	}

	a.logger.Debug("Aggregation tick completed",
		zap.Int("rows", inserted),
		zap.Time("window_from", from),
		zap.Time("window_to", now),
	)
}
