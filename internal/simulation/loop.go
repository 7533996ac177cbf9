package simulation

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
	"github.com/Oliver369X/iot-building-simulator/internal/repository"
	"github.com/Oliver369X/iot-building-simulator/internal/telemetry"
)

// TelemetrySink 遥测落库+分发接口（由 publisher.Publisher 实现）
type TelemetrySink interface {
	StoreAndPublish(ctx context.Context, reading *domain.SensorReading) error
}

// Loop 持续模拟循环
// 每tick：解析模拟范围 → 逐设备生成遥测 → 落库+分发 → 持久化设备state
// 单设备失败只记日志不中断本tick；循环仅在ctx取消时退出
type Loop struct {
	devices  repository.DevicesRepository
	sink     TelemetrySink
	gen      *telemetry.Generator
	interval time.Duration
	logger   *zap.Logger
}

// NewLoop 创建模拟循环
func NewLoop(
	devices repository.DevicesRepository,
	sink TelemetrySink,
	gen *telemetry.Generator,
	interval time.Duration,
	logger *zap.Logger,
) *Loop {
	return &Loop{
		devices:  devices,
		sink:     sink,
		gen:      gen,
		interval: interval,
		logger:   logger,
	}
}

// Run 运行循环直到ctx取消；取消发生在tick间睡眠时立即返回
func (l *Loop) Run(ctx context.Context) {
	l.logger.Info("Simulation loop started",
		zap.Duration("tick_interval", l.interval),
	)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	// 启动后立即执行首个tick
	l.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Simulation loop stopped")
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// tick 一次模拟tick；范围每tick重新解析，控制面切换的开关最晚下个tick生效
func (l *Loop) tick(ctx context.Context) {
	targets, err := l.devices.ListSimTargets(ctx)
	if err != nil {
		l.logger.Error("Failed to resolve simulation scope, skipping tick", zap.Error(err))
		return
	}

	if len(targets) == 0 {
		l.logger.Debug("No devices in simulation scope")
		return
	}

	now := time.Now().UTC()
	generated := 0
	failed := 0

	for _, target := range targets {
		// ctx取消时尽快结束本tick
		select {
		case <-ctx.Done():
			return
		default:
		}

		if target.State == nil {
			target.State = map[string]any{}
		}

		readings := l.gen.Generate(target.TypeName, target.Properties, target.State, now)

		for _, r := range readings {
			reading := &domain.SensorReading{
				DeviceID:  target.DeviceID,
				Timestamp: now,
				Key:       r.Key,
				Value:     r.Value,
				Unit:      r.Unit,
			}
			if err := l.sink.StoreAndPublish(ctx, reading); err != nil {
				// 单设备的存储失败不阻止其余设备处理
				l.logger.Error("Failed to store telemetry",
					zap.String("device_id", target.DeviceID),
					zap.String("key", r.Key),
					zap.Error(err),
				)
				failed++
				continue
			}
			generated++
		}

		// 遥测模型更新过的state写回，供下个tick延续
		if err := l.devices.UpdateDeviceState(ctx, target.DeviceID, target.State); err != nil {
			l.logger.Error("Failed to persist device state",
				zap.String("device_id", target.DeviceID),
				zap.Error(err),
			)
		}
	}

	l.logger.Debug("Simulation tick completed",
		zap.Int("devices", len(targets)),
		zap.Int("readings", generated),
		zap.Int("failures", failed),
	)
}
