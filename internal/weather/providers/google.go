package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tidwall/gjson"

	"github.com/i474232898/env-monitor/internal/weather"
)

// DefaultGoogleWeatherURL is the current-conditions lookup endpoint.
const DefaultGoogleWeatherURL = "https://weather.googleapis.com/v1/currentConditions:lookup"

// GoogleWeatherProvider implements weather.Fetcher for the Google Weather API.
type GoogleWeatherProvider struct {
	name     string
	apiKey   string
	baseURL  string
	location weather.Location
	httpCfg  HTTPClientConfig
	circuit  *gobreaker.CircuitBreaker
}

// NewGoogleWeatherProvider creates a provider for a fixed coordinate. An empty
// baseURL selects DefaultGoogleWeatherURL.
func NewGoogleWeatherProvider(cfg HTTPClientConfig, baseURL, apiKey string, loc weather.Location) *GoogleWeatherProvider {
	if baseURL == "" {
		baseURL = DefaultGoogleWeatherURL
	}
	if cfg.Backoff.InitialInterval <= 0 {
		cfg.Backoff.InitialInterval = 500 * time.Millisecond
	}
	if cfg.Backoff.MaxInterval <= 0 {
		cfg.Backoff.MaxInterval = 5 * time.Second
	}

	return &GoogleWeatherProvider{
		name:     "google-weather",
		apiKey:   apiKey,
		baseURL:  baseURL,
		location: loc,
		httpCfg:  cfg,
		circuit:  newBreaker("google-weather"),
	}
}

func (p *GoogleWeatherProvider) Name() string {
	return p.name
}

// FetchCurrent performs one current-conditions lookup and returns the body
// unmodified. Every failure wraps weather.ErrUpstreamFailure.
func (p *GoogleWeatherProvider) FetchCurrent(ctx context.Context) ([]byte, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: google weather api key is not configured", weather.ErrUpstreamFailure)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("location.latitude", strconv.FormatFloat(p.location.Latitude, 'f', -1, 64))
		values.Set("location.longitude", strconv.FormatFloat(p.location.Longitude, 'f', -1, 64))

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		// The key travels as a header so transport errors never echo it into logs.
		req.Header.Set("X-Goog-Api-Key", p.apiKey)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	body, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", weather.ErrUpstreamFailure, p.name, err)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s: response body is not valid JSON", weather.ErrUpstreamFailure, p.name)
	}

	return body, nil
}
