package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/Oliver369X/iot-building-simulator/pkg/database"
	"github.com/Oliver369X/iot-building-simulator/pkg/mqttx"
	"github.com/Oliver369X/iot-building-simulator/pkg/redisx"
)

// Config 模拟器服务配置
type Config struct {
	Database database.Config `yaml:"database"`
	Redis    redisx.Config   `yaml:"redis"`

	// MQTT遥测转发（可选）
	MQTT struct {
		Enabled     bool   `yaml:"enabled"`
		TopicPrefix string `yaml:"topic_prefix"` // 遥测主题前缀，如 "telemetry/"
		mqttx.Config `yaml:",inline"`
	} `yaml:"mqtt"`

	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`

	// 模拟引擎配置
	Simulation struct {
		TickInterval  int    `yaml:"tick_interval"`  // 模拟循环间隔（秒），默认 5秒
		ChannelBuffer int    `yaml:"channel_buffer"` // 实时推送通道容量，默认 256
		Stream        string `yaml:"stream"`         // Redis Stream 名称
		StreamMaxLen  int64  `yaml:"stream_max_len"` // Stream 最大长度（近似裁剪）
	} `yaml:"simulation"`

	// 聚合worker配置
	Aggregation struct {
		Interval int    `yaml:"interval"` // 聚合间隔（秒），默认 60秒；同时是聚合窗口长度
		Key      string `yaml:"key"`      // 聚合的遥测指标，默认 "power_consumption"
	} `yaml:"aggregation"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Load 加载配置
// 先填充默认值与环境变量，再按需叠加 CONFIG_FILE 指向的YAML文件
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "iot_simulator")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "iot-building-simulator")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 0
	cfg.MQTT.TopicPrefix = getEnv("MQTT_TOPIC_PREFIX", "telemetry/")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Simulation.TickInterval = getEnvInt("SIM_TICK_INTERVAL", 5)
	cfg.Simulation.ChannelBuffer = getEnvInt("SIM_CHANNEL_BUFFER", 256)
	cfg.Simulation.Stream = getEnv("SIM_STREAM", "telemetry:readings")
	cfg.Simulation.StreamMaxLen = int64(getEnvInt("SIM_STREAM_MAX_LEN", 10000))

	cfg.Aggregation.Interval = getEnvInt("AGG_INTERVAL", 60)
	cfg.Aggregation.Key = getEnv("AGG_KEY", "power_consumption")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	// 可选YAML配置文件（覆盖环境变量）
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.TickInterval <= 0 {
		return fmt.Errorf("simulation tick_interval must be positive, got %d", c.Simulation.TickInterval)
	}
	if c.Aggregation.Interval <= 0 {
		return fmt.Errorf("aggregation interval must be positive, got %d", c.Aggregation.Interval)
	}
	if c.Aggregation.Key == "" {
		return fmt.Errorf("aggregation key must not be empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
