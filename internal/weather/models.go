package weather

import (
	"time"
)

// DefaultQuantityUnit is the unit reported for precipitation amounts when
// upstream omits one.
const DefaultQuantityUnit = "MILLIMETERS"

// Location is the fixed coordinate the monitor polls.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}

// Reading is one fully populated snapshot of environmental conditions.
// Every field always carries a concrete value; absent upstream data is
// replaced with the documented default before a Reading leaves the Normalizer.
type Reading struct {
	Temperature          float64   `json:"temperature" bson:"temperature"`
	Humidity             float64   `json:"humidity" bson:"humidity"`
	AirQuality           float64   `json:"airQuality" bson:"airQuality"`
	WeatherCondition     string    `json:"weatherCondition" bson:"weatherCondition"`
	Timestamp            time.Time `json:"timestamp" bson:"timestamp"`
	FeelsLikeTemperature float64   `json:"feelsLikeTemperature" bson:"feelsLikeTemperature"`
	DewPoint             float64   `json:"dewPoint" bson:"dewPoint"`
	HeatIndex            float64   `json:"heatIndex" bson:"heatIndex"`
	WindChill            float64   `json:"windChill" bson:"windChill"`
	UVIndex              float64   `json:"uvIndex" bson:"uvIndex"`

	Precipitation Precipitation `json:"precipitation" bson:"precipitation"`

	ThunderstormProbability float64 `json:"thunderstormProbability" bson:"thunderstormProbability"`
	AirPressure             float64 `json:"airPressure" bson:"airPressure"` // mean sea level, millibars

	Wind Wind `json:"wind" bson:"wind"`

	Visibility float64 `json:"visibility" bson:"visibility"`
	CloudCover float64 `json:"cloudCover" bson:"cloudCover"`

	// CurrentConditionsHistory holds same-day extrema as reported upstream.
	CurrentConditionsHistory ConditionsHistory `json:"currentConditionsHistory" bson:"currentConditionsHistory"`
}

type Precipitation struct {
	Probability PrecipitationProbability `json:"probability" bson:"probability"`
	Type        string                   `json:"type" bson:"type"`
	SnowQpf     Quantity                 `json:"snowQpf" bson:"snowQpf"`
	Qpf         Quantity                 `json:"qpf" bson:"qpf"`
}

type PrecipitationProbability struct {
	Percent float64 `json:"percent" bson:"percent"`
	Type    string  `json:"type" bson:"type"`
}

// Quantity is an amount with its unit, e.g. quantitative precipitation forecast.
type Quantity struct {
	Quantity float64 `json:"quantity" bson:"quantity"`
	Unit     string  `json:"unit" bson:"unit"`
}

type Wind struct {
	Direction string  `json:"direction" bson:"direction"` // cardinal, e.g. "NORTH_WEST"
	Speed     float64 `json:"speed" bson:"speed"`
	Gust      float64 `json:"gust" bson:"gust"`
}

type ConditionsHistory struct {
	TemperatureChange float64 `json:"temperatureChange" bson:"temperatureChange"`
	MaxTemperature    float64 `json:"maxTemperature" bson:"maxTemperature"`
	MinTemperature    float64 `json:"minTemperature" bson:"minTemperature"`
}

// Record is a Reading as persisted by a HistoryStore.
type Record struct {
	ID      string `json:"_id" bson:"_id,omitempty"`
	Reading `bson:",inline"`

	// CreatedAt is when the store accepted the append.
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// DefaultReading returns the all-default Reading stamped with ts.
func DefaultReading(ts time.Time) Reading {
	return Reading{
		Timestamp: ts,
		Precipitation: Precipitation{
			SnowQpf: Quantity{Unit: DefaultQuantityUnit},
			Qpf:     Quantity{Unit: DefaultQuantityUnit},
		},
	}
}
