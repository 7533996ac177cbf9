package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Oliver369X/iot-building-simulator/internal/domain"
)

func newTestGenerator() *Generator {
	return NewGenerator(zap.NewNop(), 42)
}

func TestGenerateTemperatureBounds(t *testing.T) {
	g := newTestGenerator()
	state := map[string]any{}

	for i := 0; i < 500; i++ {
		readings := g.Generate(domain.TypeTemperatureSensor, nil, state, time.Now())
		require.Len(t, readings, 1)
		assert.Equal(t, "temperature", readings[0].Key)
		assert.Equal(t, "°C", readings[0].Unit)
		assert.GreaterOrEqual(t, readings[0].Value, 15.0)
		assert.LessOrEqual(t, readings[0].Value, 30.0)
	}
}

// 开机状态下温度应向目标温度收敛
func TestGenerateTemperatureConvergesToTarget(t *testing.T) {
	g := newTestGenerator()
	state := map[string]any{"power": "ON"}

	var last float64
	for i := 0; i < 300; i++ {
		readings := g.Generate(domain.TypeTemperatureSensor, nil, state, time.Now())
		last = readings[0].Value
	}

	// 默认目标 22.0，噪声幅度 0.2，300tick后应在目标附近
	assert.InDelta(t, 22.0, last, 1.5)
}

func TestGenerateTemperatureOffDecaysTowardAmbient(t *testing.T) {
	g := newTestGenerator()
	state := map[string]any{"power": "OFF", "current_temp": 28.0}

	var last float64
	for i := 0; i < 300; i++ {
		readings := g.Generate(domain.TypeTemperatureSensor, nil, state, time.Now())
		last = readings[0].Value
	}

	// 默认环境温度 18.0
	assert.InDelta(t, 18.0, last, 2.0)
}

func TestGenerateHumidityBounds(t *testing.T) {
	g := newTestGenerator()
	state := map[string]any{}

	for i := 0; i < 500; i++ {
		readings := g.Generate(domain.TypeHumiditySensor, nil, state, time.Now())
		require.Len(t, readings, 1)
		assert.Equal(t, "humidity", readings[0].Key)
		assert.Equal(t, "%", readings[0].Unit)
		assert.GreaterOrEqual(t, readings[0].Value, 30.0)
		assert.LessOrEqual(t, readings[0].Value, 70.0)
	}
}

func TestGenerateLightDayNight(t *testing.T) {
	g := newTestGenerator()

	// 深夜：低照度
	night := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	readings := g.Generate(domain.TypeLightSensor, nil, map[string]any{}, night)
	require.Len(t, readings, 1)
	assert.Equal(t, "lux", readings[0].Unit)
	assert.LessOrEqual(t, readings[0].Value, 50.0)

	// 正午：高照度
	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	readings = g.Generate(domain.TypeLightSensor, nil, map[string]any{}, noon)
	assert.GreaterOrEqual(t, readings[0].Value, 300.0)
	assert.LessOrEqual(t, readings[0].Value, 1000.0)
}

func TestGenerateLightBounds(t *testing.T) {
	g := newTestGenerator()
	for hour := 0; hour < 24; hour++ {
		now := time.Date(2025, 6, 1, hour, 30, 0, 0, time.UTC)
		readings := g.Generate(domain.TypeLightSensor, nil, map[string]any{}, now)
		require.Len(t, readings, 1)
		assert.GreaterOrEqual(t, readings[0].Value, 0.0)
		assert.LessOrEqual(t, readings[0].Value, 1000.0)
	}
}

func TestGenerateOccupancyBinary(t *testing.T) {
	g := newTestGenerator()
	state := map[string]any{}

	flips := 0
	prev := 0.0
	for i := 0; i < 500; i++ {
		readings := g.Generate(domain.TypeOccupancySensor, nil, state, time.Now())
		require.Len(t, readings, 1)
		assert.Contains(t, []float64{0, 1}, readings[0].Value)
		if i > 0 && readings[0].Value != prev {
			flips++
		}
		prev = readings[0].Value
	}

	// 默认翻转概率 0.2：500tick下翻转次数应明显大于0且小于总数
	assert.Greater(t, flips, 20)
	assert.Less(t, flips, 300)
}

func TestGeneratePowerMeterOn(t *testing.T) {
	g := newTestGenerator()
	state := map[string]any{"power": "ON"}

	for i := 0; i < 500; i++ {
		readings := g.Generate(domain.TypePowerMeter, nil, state, time.Now())
		require.Len(t, readings, 1)
		assert.Equal(t, "power_consumption", readings[0].Key)
		assert.Equal(t, "kWh", readings[0].Unit)
		// 开机：下限 0.05，基础 0.35 + 噪声 0.25
		assert.GreaterOrEqual(t, readings[0].Value, 0.05)
		assert.LessOrEqual(t, readings[0].Value, 0.6)
	}
}

func TestGeneratePowerMeterStandby(t *testing.T) {
	g := newTestGenerator()
	state := map[string]any{"power": "OFF"}

	for i := 0; i < 500; i++ {
		readings := g.Generate(domain.TypePowerMeter, nil, state, time.Now())
		require.Len(t, readings, 1)
		assert.GreaterOrEqual(t, readings[0].Value, 0.0)
		assert.LessOrEqual(t, readings[0].Value, 0.02)
	}
}

func TestGenerateUnknownTypeFallback(t *testing.T) {
	g := newTestGenerator()

	readings := g.Generate("vibration_sensor", nil, map[string]any{}, time.Now())
	require.Len(t, readings, 1)
	assert.Equal(t, "unknown_metric", readings[0].Key)
	assert.Equal(t, "", readings[0].Unit)
	assert.GreaterOrEqual(t, readings[0].Value, 0.0)
	assert.LessOrEqual(t, readings[0].Value, 100.0)
}

// 属性覆盖默认参数
func TestGenerateTemperaturePropsOverride(t *testing.T) {
	g := newTestGenerator()
	props := map[string]any{
		"initial_temp":          25.0,
		"target_temp":           25.0,
		"fluctuation_magnitude": 0.0,
		"change_speed":          0.5,
	}
	state := map[string]any{"power": "ON"}

	readings := g.Generate(domain.TypeTemperatureSensor, props, state, time.Now())
	require.Len(t, readings, 1)
	assert.Equal(t, 25.0, readings[0].Value)
}

// state在tick间保持连续：上一tick的输出是下一tick的输入
func TestGenerateStateContinuity(t *testing.T) {
	g := newTestGenerator()
	state := map[string]any{}

	first := g.Generate(domain.TypeTemperatureSensor, nil, state, time.Now())
	require.Len(t, first, 1)
	assert.Equal(t, first[0].Value, state["current_temp"])

	second := g.Generate(domain.TypeTemperatureSensor, nil, state, time.Now())
	assert.Equal(t, second[0].Value, state["current_temp"])
}

func TestGenerateReproducibleWithSeed(t *testing.T) {
	a := NewGenerator(zap.NewNop(), 7)
	b := NewGenerator(zap.NewNop(), 7)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stateA := map[string]any{}
	stateB := map[string]any{}
	for i := 0; i < 10; i++ {
		ra := a.Generate(domain.TypeHumiditySensor, nil, stateA, now)
		rb := b.Generate(domain.TypeHumiditySensor, nil, stateB, now)
		assert.Equal(t, ra, rb)
	}
}
