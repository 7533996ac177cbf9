package telemetry

import (
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

// Reading 一次生成的遥测元组
type Reading struct {
	Key   string
	Value float64
	Unit  string
}

// Generator 按设备类型生成合成遥测
// 纯计算：输入（类型名、state、时刻）决定输出；state 原地更新以保证tick间连续性
// 非并发安全：模拟循环在单个goroutine内串行调用
type Generator struct {
	logger *zap.Logger
	rng    *rand.Rand
}

// NewGenerator 创建遥测生成器；seed 固定时输出可复现（测试用）
func NewGenerator(logger *zap.Logger, seed int64) *Generator {
	return &Generator{
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Generate 为一个设备生成本tick的遥测
// 未识别的类型回退到默认生成器（unknown_metric），绝不返回错误，循环不会因坏类型中断
func (g *Generator) Generate(typeName string, props, state map[string]any, now time.Time) []Reading {
	switch typeName {
	case domain.TypeTemperatureSensor:
		return g.temperature(props, state)
	case domain.TypeHumiditySensor:
		return g.humidity(props, state)
	case domain.TypeLightSensor:
		return g.light(props, state, now)
	case domain.TypeOccupancySensor:
		return g.occupancy(props, state)
	case domain.TypePowerMeter:
		return g.powerMeter(props, state)
	default:
		g.logger.Warn("Unknown device type, falling back to default generator",
			zap.String("type_name", typeName),
		)
		return []Reading{{Key: "unknown_metric", Value: round(g.rng.Float64()*100, 2), Unit: ""}}
	}
}

// temperature 热惯性模型：开机向目标温度靠拢，关机向环境温度半速衰减
func (g *Generator) temperature(props, state map[string]any) []Reading {
	p := temperatureParamsFrom(props)

	current := floatState(state, "current_temp", p.InitialTemp)
	target := floatState(state, "target_temp", p.TargetTemp)
	noise := g.symmetricNoise(p.FluctuationMagnitude)

	if stringState(state, "power", "ON") == "ON" {
		current += (target-current)*p.ChangeSpeed + noise
	} else {
		current += (p.AmbientTemp-current)*p.ChangeSpeed/2 + noise
	}

	current = clamp(current, p.MinTemp, p.MaxTemp)
	current = round(current, 2)
	state["current_temp"] = current

	return []Reading{{Key: "temperature", Value: current, Unit: "°C"}}
}

// humidity 均值回归模型
func (g *Generator) humidity(props, state map[string]any) []Reading {
	p := humidityParamsFrom(props)

	current := floatState(state, "humidity", p.InitialHumidity)
	current += (p.MeanHumidity-current)*p.ReversionRate + g.symmetricNoise(p.FluctuationMagnitude)

	current = clamp(current, p.MinHumidity, p.MaxHumidity)
	current = round(current, 2)
	state["humidity"] = current

	return []Reading{{Key: "humidity", Value: current, Unit: "%"}}
}

// light 按小时分段的昼夜周期：夜间低照度，晨昏线性过渡，白天峰值
func (g *Generator) light(props, state map[string]any, now time.Time) []Reading {
	p := lightParamsFrom(props)
	hour := float64(now.Hour()) + float64(now.Minute())/60

	nightBase := (p.NightMinLux + p.NightMaxLux) / 2
	dayBase := (p.DayMinLux + p.DayMaxLux) / 2

	var base float64
	switch {
	case hour < p.MorningStart || hour >= p.EveningEnd:
		base = nightBase
	case hour < p.MorningEnd:
		// 晨间过渡：夜间照度线性爬升到白天照度
		frac := (hour - p.MorningStart) / (p.MorningEnd - p.MorningStart)
		base = nightBase + (dayBase-nightBase)*frac
	case hour < p.EveningStart:
		base = dayBase
	default:
		// 傍晚过渡：白天照度线性回落到夜间照度
		frac := (hour - p.EveningStart) / (p.EveningEnd - p.EveningStart)
		base = dayBase + (nightBase-dayBase)*frac
	}

	value := clamp(base+g.symmetricNoise(p.Fluctuation), 0, 1000)
	value = round(value, 1)
	state["light_intensity"] = value

	return []Reading{{Key: "light_intensity", Value: value, Unit: "lux"}}
}

// occupancy 二值状态按概率翻转（有偏随机游走，不是独立采样）
func (g *Generator) occupancy(props, state map[string]any) []Reading {
	p := occupancyParamsFrom(props)

	occupied := floatState(state, "occupancy", 0) >= 0.5
	if g.rng.Float64() < p.ChangeProbability {
		occupied = !occupied
	}

	value := 0.0
	if occupied {
		value = 1.0
	}
	state["occupancy"] = value

	return []Reading{{Key: "occupancy", Value: value, Unit: ""}}
}

// powerMeter 开机：基础功耗±噪声（有下限）；关机：仅正值的待机噪声
func (g *Generator) powerMeter(props, state map[string]any) []Reading {
	p := powerMeterParamsFrom(props)

	var value float64
	if stringState(state, "power", "OFF") == "ON" {
		value = p.BaseConsumptionOn + g.symmetricNoise(p.FluctuationMagnitude)
		if value < p.MinConsumption {
			value = p.MinConsumption
		}
	} else {
		value = g.rng.Float64() * p.StandbyMax
	}

	value = round(value, 3)
	state["power_consumption"] = value

	return []Reading{{Key: "power_consumption", Value: value, Unit: "kWh"}}
}

// symmetricNoise [-magnitude, +magnitude) 均匀噪声
func (g *Generator) symmetricNoise(magnitude float64) float64 {
	return (g.rng.Float64()*2 - 1) * magnitude
}

// floatState 从state读取数值；JSONB解码后数字统一为float64
func floatState(state map[string]any, key string, def float64) float64 {
	if state == nil {
		return def
	}
	switch v := state[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return def
	}
}

func stringState(state map[string]any, key, def string) string {
	if state == nil {
		return def
	}
	if v, ok := state[key].(string); ok {
		return v
	}
	return def
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
