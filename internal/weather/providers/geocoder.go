package providers

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/env-monitor/internal/weather"
)

var errNoGeocoderKey = errors.New("geocoder api key is not configured")

// geocoder keeps its API key in a package variable.
var geocoderKeyMu sync.Mutex

// reverseGeocodeFunc is swapped in tests.
var reverseGeocodeFunc = geocoder.GeocodingReverse

// ResolvePlaceName reverse-geocodes loc with the Google Geocoding API and
// returns the first formatted address.
func ResolvePlaceName(apiKey string, loc weather.Location) (string, error) {
	if apiKey == "" {
		return "", errNoGeocoderKey
	}

	geocoderKeyMu.Lock()
	defer geocoderKeyMu.Unlock()

	geocoder.ApiKey = apiKey
	addresses, err := reverseGeocodeFunc(geocoder.Location{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode %.4f,%.4f: %w", loc.Latitude, loc.Longitude, err)
	}
	if len(addresses) == 0 {
		return "", nil
	}

	if addresses[0].FormattedAddress != "" {
		return addresses[0].FormattedAddress, nil
	}
	return addresses[0].FormatAddress(), nil
}
