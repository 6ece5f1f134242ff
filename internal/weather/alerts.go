package weather

import (
	"fmt"

	"github.com/i474232898/env-monitor/internal/common"
)

// AlertKind identifies the condition that raised an Alert.
type AlertKind string

const (
	AlertHighTemperature AlertKind = "high_temperature"
	AlertLowHumidity     AlertKind = "low_humidity"
	AlertPoorAirQuality  AlertKind = "poor_air_quality"
	AlertStorm           AlertKind = "storm"
)

// stormKeywords mark a weather condition description as stormy.
var stormKeywords = []string{"thunder", "storm"}

// Thresholds configures when Evaluate raises alerts.
type Thresholds struct {
	MaxTemperature float64
	MinHumidity    float64
	MaxAirQuality  float64
}

// DefaultThresholds are the dashboard's historical alert limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxTemperature: 35,
		MinHumidity:    20,
		MaxAirQuality:  100,
	}
}

type Alert struct {
	Kind      AlertKind `json:"kind"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
}

// Evaluate returns the alerts raised by r. The result is never nil.
func Evaluate(r Reading, th Thresholds) []Alert {
	alerts := []Alert{}

	if r.Temperature > th.MaxTemperature {
		alerts = append(alerts, Alert{
			Kind:      AlertHighTemperature,
			Message:   fmt.Sprintf("High temperature: %.1f°C", r.Temperature),
			Value:     r.Temperature,
			Threshold: th.MaxTemperature,
		})
	}
	if r.Humidity < th.MinHumidity {
		alerts = append(alerts, Alert{
			Kind:      AlertLowHumidity,
			Message:   fmt.Sprintf("Low humidity: %.0f%%", r.Humidity),
			Value:     r.Humidity,
			Threshold: th.MinHumidity,
		})
	}
	if r.AirQuality > th.MaxAirQuality {
		alerts = append(alerts, Alert{
			Kind:      AlertPoorAirQuality,
			Message:   fmt.Sprintf("Poor air quality: index %.0f", r.AirQuality),
			Value:     r.AirQuality,
			Threshold: th.MaxAirQuality,
		})
	}
	if common.HasAnyFold(r.WeatherCondition, stormKeywords...) {
		alerts = append(alerts, Alert{
			Kind:      AlertStorm,
			Message:   "Storm conditions: " + r.WeatherCondition,
			Value:     r.ThunderstormProbability,
			Threshold: 0,
		})
	}

	return alerts
}
