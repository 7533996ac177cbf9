package telemetry

// 各设备类型的模拟调参。DeviceType.properties 是开放的JSONB属性包，
// 这里转换为带默认值的强类型结构，缺省项回退到默认值

// TemperatureParams 温度传感器调参
type TemperatureParams struct {
	InitialTemp          float64 // 初始温度
	TargetTemp           float64 // 默认目标温度（state.target_temp 优先）
	ChangeSpeed          float64 // 每tick向目标靠拢的比例
	FluctuationMagnitude float64 // 对称随机噪声幅度
	AmbientTemp          float64 // 关机时衰减趋向的环境温度
	MinTemp              float64
	MaxTemp              float64
}

func temperatureParamsFrom(props map[string]any) TemperatureParams {
	return TemperatureParams{
		InitialTemp:          floatProp(props, "initial_temp", 20.0),
		TargetTemp:           floatProp(props, "target_temp", 22.0),
		ChangeSpeed:          floatProp(props, "change_speed", 0.1),
		FluctuationMagnitude: floatProp(props, "fluctuation_magnitude", 0.2),
		AmbientTemp:          floatProp(props, "ambient_temp", 18.0),
		MinTemp:              floatProp(props, "min_temp", 15.0),
		MaxTemp:              floatProp(props, "max_temp", 30.0),
	}
}

// HumidityParams 湿度传感器调参
type HumidityParams struct {
	InitialHumidity      float64
	MeanHumidity         float64 // 均值回归目标
	ReversionRate        float64 // 每tick回归比例
	FluctuationMagnitude float64
	MinHumidity          float64
	MaxHumidity          float64
}

func humidityParamsFrom(props map[string]any) HumidityParams {
	return HumidityParams{
		InitialHumidity:      floatProp(props, "initial_humidity", 50.0),
		MeanHumidity:         floatProp(props, "mean_humidity", 50.0),
		ReversionRate:        floatProp(props, "reversion_rate", 0.1),
		FluctuationMagnitude: floatProp(props, "fluctuation_magnitude", 1.5),
		MinHumidity:          floatProp(props, "min_humidity", 30.0),
		MaxHumidity:          floatProp(props, "max_humidity", 70.0),
	}
}

// LightParams 光照传感器调参（按小时分段：夜间/晨间过渡/白天峰值/傍晚过渡）
type LightParams struct {
	MorningStart float64 // 晨间过渡开始小时
	MorningEnd   float64 // 白天开始小时
	EveningStart float64 // 傍晚过渡开始小时
	EveningEnd   float64 // 夜间开始小时
	NightMinLux  float64
	NightMaxLux  float64
	DayMinLux    float64
	DayMaxLux    float64
	Fluctuation  float64
}

func lightParamsFrom(props map[string]any) LightParams {
	return LightParams{
		MorningStart: floatProp(props, "morning_start_hour", 6),
		MorningEnd:   floatProp(props, "morning_end_hour", 9),
		EveningStart: floatProp(props, "evening_start_hour", 17),
		EveningEnd:   floatProp(props, "evening_end_hour", 20),
		NightMinLux:  floatProp(props, "night_min_lux", 0),
		NightMaxLux:  floatProp(props, "night_max_lux", 5),
		DayMinLux:    floatProp(props, "day_min_lux", 400),
		DayMaxLux:    floatProp(props, "day_max_lux", 800),
		Fluctuation:  floatProp(props, "fluctuation_magnitude", 20),
	}
}

// OccupancyParams 占用传感器调参
type OccupancyParams struct {
	ChangeProbability float64 // 每tick翻转概率（有偏随机游走，状态跨tick保持）
}

func occupancyParamsFrom(props map[string]any) OccupancyParams {
	return OccupancyParams{
		ChangeProbability: floatProp(props, "change_probability", 0.2),
	}
}

// PowerMeterParams 电表调参
type PowerMeterParams struct {
	BaseConsumptionOn    float64 // 开机基础功耗
	FluctuationMagnitude float64
	MinConsumption       float64 // 开机时的功耗下限
	StandbyMax           float64 // 关机待机噪声上限（仅正值）
}

func powerMeterParamsFrom(props map[string]any) PowerMeterParams {
	return PowerMeterParams{
		BaseConsumptionOn:    floatProp(props, "base_consumption_on", 0.35),
		FluctuationMagnitude: floatProp(props, "fluctuation_magnitude", 0.25),
		MinConsumption:       floatProp(props, "min_consumption", 0.05),
		StandbyMax:           floatProp(props, "standby_max", 0.02),
	}
}

// floatProp 从属性包读取数值，缺失或类型不符时回退默认值
func floatProp(props map[string]any, key string, def float64) float64 {
	if props == nil {
		return def
	}
	switch v := props[key].(type) {
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
