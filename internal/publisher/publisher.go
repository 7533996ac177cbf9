package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
	"github.com/Oliver369X/iot-building-simulator/internal/repository"
	"github.com/Oliver369X/iot-building-simulator/pkg/mqttx"
	"github.com/Oliver369X/iot-building-simulator/pkg/redisx"
)

// Options 发布器配置
type Options struct {
	Stream        string // Redis Stream 名称
	StreamMaxLen  int64
	ChannelBuffer int    // 进程内实时通道容量
	MQTTTopicPrefix string
}

// Publisher 遥测落库+实时分发
// 落库是持久化事实；分发（进程内通道/Redis Stream/MQTT）是尽力而为，
// 任何分发失败只记日志，不影响遥测持久化，也不中断tick
type Publisher struct {
	readings    repository.SensorReadingsRepository
	redisClient *redis.Client
	mqttClient  *mqttx.Client // 可为nil（MQTT转发关闭）
	opts        Options
	ch          chan domain.TelemetryMessage
	logger      *zap.Logger
}

// New 创建发布器；redisClient、mqttClient 均可为nil（对应通道被跳过）
func New(
	readings repository.SensorReadingsRepository,
	redisClient *redis.Client,
	mqttClient *mqttx.Client,
	opts Options,
	logger *zap.Logger,
) *Publisher {
	buffer := opts.ChannelBuffer
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		readings:    readings,
		redisClient: redisClient,
		mqttClient:  mqttClient,
		opts:        opts,
		ch:          make(chan domain.TelemetryMessage, buffer),
		logger:      logger,
	}
}

// Channel 实时消息通道；外部传输层（WebSocket网关）从这里取走并转发
func (p *Publisher) Channel() <-chan domain.TelemetryMessage {
	return p.ch
}

// StoreAndPublish 先落库，再尽力分发
// 返回的错误仅代表落库失败；调用方记日志后继续处理其余设备
func (p *Publisher) StoreAndPublish(ctx context.Context, reading *domain.SensorReading) error {
	if err := p.readings.InsertReading(ctx, reading); err != nil {
		return fmt.Errorf("failed to store reading for device %s: %w", reading.DeviceID, err)
	}

	msg := domain.NewTelemetryMessage(reading)

	// 进程内通道：非阻塞投递，满了就丢（实时流允许丢帧）
	select {
	case p.ch <- msg:
	default:
		p.logger.Warn("Telemetry channel full, dropping message",
			zap.String("device_id", msg.DeviceID),
			zap.String("key", msg.Key),
		)
	}

	// Redis Stream：外部WebSocket网关等从此消费
	if p.redisClient != nil {
		if _, err := redisx.PublishJSON(ctx, p.redisClient, p.opts.Stream, p.opts.StreamMaxLen, msg); err != nil {
			p.logger.Warn("Failed to publish telemetry to redis stream",
				zap.String("device_id", msg.DeviceID),
				zap.String("stream", p.opts.Stream),
				zap.Error(err),
			)
		}
	}

	// MQTT：按设备主题转发（可选）
	if p.mqttClient != nil {
		payload, err := json.Marshal(msg)
		if err == nil {
			topic := p.opts.MQTTTopicPrefix + msg.DeviceID
			if err := p.mqttClient.Publish(topic, payload); err != nil {
				p.logger.Warn("Failed to publish telemetry to MQTT",
					zap.String("device_id", msg.DeviceID),
					zap.String("topic", topic),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}
