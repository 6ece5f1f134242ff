package weather

// Extraction tables mapping upstream paths (gjson syntax) onto Reading fields.
// The paths follow the documented shape of the Google Weather
// currentConditions:lookup response. A path the upstream does not actually
// populate simply resolves to the field's default.

type numberField struct {
	path   string
	assign func(r *Reading, v float64)
}

type stringField struct {
	path   string
	def    string
	assign func(r *Reading, v string)
}

var numberFields = []numberField{
	{"temperature.degrees", func(r *Reading, v float64) { r.Temperature = v }},
	{"relativeHumidity", func(r *Reading, v float64) { r.Humidity = v }},
	{"airAndPollen.airQuality.index", func(r *Reading, v float64) { r.AirQuality = v }},
	{"feelsLikeTemperature.degrees", func(r *Reading, v float64) { r.FeelsLikeTemperature = v }},
	{"dewPoint.degrees", func(r *Reading, v float64) { r.DewPoint = v }},
	{"heatIndex.degrees", func(r *Reading, v float64) { r.HeatIndex = v }},
	{"windChill.degrees", func(r *Reading, v float64) { r.WindChill = v }},
	{"uvIndex", func(r *Reading, v float64) { r.UVIndex = v }},
	{"precipitation.probability.percent", func(r *Reading, v float64) { r.Precipitation.Probability.Percent = v }},
	{"precipitation.snowQpf.quantity", func(r *Reading, v float64) { r.Precipitation.SnowQpf.Quantity = v }},
	{"precipitation.qpf.quantity", func(r *Reading, v float64) { r.Precipitation.Qpf.Quantity = v }},
	{"thunderstormProbability", func(r *Reading, v float64) { r.ThunderstormProbability = v }},
	{"airPressure.meanSeaLevelMillibars", func(r *Reading, v float64) { r.AirPressure = v }},
	{"wind.speed.value", func(r *Reading, v float64) { r.Wind.Speed = v }},
	{"wind.gust.value", func(r *Reading, v float64) { r.Wind.Gust = v }},
	{"visibility.distance", func(r *Reading, v float64) { r.Visibility = v }},
	{"cloudCover", func(r *Reading, v float64) { r.CloudCover = v }},
	{"currentConditionsHistory.temperatureChange.degrees", func(r *Reading, v float64) { r.CurrentConditionsHistory.TemperatureChange = v }},
	{"currentConditionsHistory.maxTemperature.degrees", func(r *Reading, v float64) { r.CurrentConditionsHistory.MaxTemperature = v }},
	{"currentConditionsHistory.minTemperature.degrees", func(r *Reading, v float64) { r.CurrentConditionsHistory.MinTemperature = v }},
}

var stringFields = []stringField{
	{"weatherCondition.description.text", "", func(r *Reading, v string) { r.WeatherCondition = v }},
	{"precipitation.probability.type", "", func(r *Reading, v string) { r.Precipitation.Probability.Type = v }},
	{"precipitation.type", "", func(r *Reading, v string) { r.Precipitation.Type = v }},
	{"precipitation.snowQpf.unit", DefaultQuantityUnit, func(r *Reading, v string) { r.Precipitation.SnowQpf.Unit = v }},
	{"precipitation.qpf.unit", DefaultQuantityUnit, func(r *Reading, v string) { r.Precipitation.Qpf.Unit = v }},
	{"wind.direction.cardinal", "", func(r *Reading, v string) { r.Wind.Direction = v }},
}
