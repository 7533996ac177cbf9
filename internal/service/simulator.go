package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/config"
	"github.com/Oliver369X/iot-building-simulator/internal/httpapi"
	"github.com/Oliver369X/iot-building-simulator/internal/publisher"
	"github.com/Oliver369X/iot-building-simulator/internal/repository"
	"github.com/Oliver369X/iot-building-simulator/internal/simulation"
	"github.com/Oliver369X/iot-building-simulator/internal/telemetry"
	"github.com/Oliver369X/iot-building-simulator/pkg/database"
	"github.com/Oliver369X/iot-building-simulator/pkg/mqttx"
	"github.com/Oliver369X/iot-building-simulator/pkg/redisx"
)

// SimulatorService 模拟器服务（整合各层）
type SimulatorService struct {
	config      *config.Config
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *mqttx.Client // 可为nil（MQTT转发关闭）
	logger      *zap.Logger

	// 各层组件
	buildingsRepo *repository.PostgresBuildingsRepo
	floorsRepo    *repository.PostgresFloorsRepo
	roomsRepo     *repository.PostgresRoomsRepo
	typesRepo     *repository.PostgresDeviceTypesRepo
	devicesRepo   *repository.PostgresDevicesRepo
	readingsRepo  *repository.PostgresSensorReadingsRepo
	aggsRepo      *repository.PostgresAggregatedReadingsRepo

	pub    *publisher.Publisher
	engine *simulation.Engine
	live   *httpapi.LiveTelemetryHandler
	router *httpapi.Router
}

// NewSimulatorService 创建模拟器服务
func NewSimulatorService(cfg *config.Config, logger *zap.Logger) (*SimulatorService, error) {
	// 1. 连接数据库
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	// 2. 连接 Redis
	redisClient := redisx.NewClient(&cfg.Redis)
	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. MQTT 转发（可选）
	var mqttClient *mqttx.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqttx.NewClient(&cfg.MQTT.Config)
		if err != nil {
			db.Close()
			redisClient.Close()
			return nil, fmt.Errorf("failed to connect mqtt broker: %w", err)
		}
	}

	// 4. 创建 Repository 层
	buildingsRepo := repository.NewPostgresBuildingsRepo(db, logger)
	floorsRepo := repository.NewPostgresFloorsRepo(db, logger)
	roomsRepo := repository.NewPostgresRoomsRepo(db, logger)
	typesRepo := repository.NewPostgresDeviceTypesRepo(db, logger)
	devicesRepo := repository.NewPostgresDevicesRepo(db, logger)
	readingsRepo := repository.NewPostgresSensorReadingsRepo(db, logger)
	aggsRepo := repository.NewPostgresAggregatedReadingsRepo(db, logger)

	// 5. 创建遥测生成器与发布器
	gen := telemetry.NewGenerator(logger, time.Now().UnixNano())
	pub := publisher.New(readingsRepo, redisClient, mqttClient, publisher.Options{
		Stream:          cfg.Simulation.Stream,
		StreamMaxLen:    cfg.Simulation.StreamMaxLen,
		ChannelBuffer:   cfg.Simulation.ChannelBuffer,
		MQTTTopicPrefix: cfg.MQTT.TopicPrefix,
	}, logger)

	// 6. 创建模拟循环/聚合worker/引擎
	loop := simulation.NewLoop(
		devicesRepo,
		pub,
		gen,
		time.Duration(cfg.Simulation.TickInterval)*time.Second,
		logger,
	)
	aggregator := simulation.NewAggregator(
		readingsRepo,
		aggsRepo,
		cfg.Aggregation.Key,
		time.Duration(cfg.Aggregation.Interval)*time.Second,
		logger,
	)
	engine := simulation.NewEngine(loop, aggregator, logger)

	// 7. 实时遥测广播
	live := httpapi.NewLiveTelemetryHandler(logger)

	s := &SimulatorService{
		config:        cfg,
		db:            db,
		redisClient:   redisClient,
		mqttClient:    mqttClient,
		logger:        logger,
		buildingsRepo: buildingsRepo,
		floorsRepo:    floorsRepo,
		roomsRepo:     roomsRepo,
		typesRepo:     typesRepo,
		devicesRepo:   devicesRepo,
		readingsRepo:  readingsRepo,
		aggsRepo:      aggsRepo,
		pub:           pub,
		engine:        engine,
		live:          live,
	}
	return s, nil
}

// Handler 构建HTTP路由（需要服务级上下文，引擎由API启动时挂在该上下文下）
func (s *SimulatorService) Handler(serverCtx context.Context) *httpapi.Router {
	router := httpapi.NewRouter(s.logger)
	router.RegisterSimulatorRoutes(
		httpapi.NewHierarchyHandler(s.buildingsRepo, s.floorsRepo, s.roomsRepo, s.logger),
		httpapi.NewDeviceHandler(s.devicesRepo, s.typesRepo, s.logger),
		httpapi.NewEngineHandler(s.engine, serverCtx, s.logger),
		httpapi.NewReadingsHandler(s.readingsRepo, s.aggsRepo, s.logger),
		s.live,
	)
	s.router = router
	return router
}

// Start 启动后台组件（实时广播）；引擎由 /engine/start API 触发
func (s *SimulatorService) Start(ctx context.Context) {
	go s.live.Run(ctx, s.pub.Channel())
}

// Engine 暴露引擎（供测试与管理命令）
func (s *SimulatorService) Engine() *simulation.Engine {
	return s.engine
}

// Stop 停止服务并释放连接
func (s *SimulatorService) Stop() error {
	s.logger.Info("Stopping simulator service")

	// 先停引擎，保证不再写入
	s.engine.Stop()

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database",
			zap.Error(err),
		)
	}

	return nil
}
