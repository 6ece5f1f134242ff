package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/i474232898/env-monitor/internal/weather"
)

var testLocation = weather.Location{Latitude: 30.33, Longitude: 78.0}

func newTestProvider(t *testing.T, h http.HandlerFunc, cfg HTTPClientConfig) *GoogleWeatherProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	if cfg.Client == nil {
		cfg.Client = srv.Client()
	}
	cfg.Backoff.InitialInterval = time.Millisecond
	cfg.Backoff.MaxInterval = 5 * time.Millisecond
	return NewGoogleWeatherProvider(cfg, srv.URL+"/v1/currentConditions:lookup", "test-key", testLocation)
}

func TestFetchCurrentSendsLocationAndKey(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/currentConditions:lookup", r.URL.Path)
		assert.Equal(t, "30.33", r.URL.Query().Get("location.latitude"))
		assert.Equal(t, "78", r.URL.Query().Get("location.longitude"))
		assert.Empty(t, r.URL.Query().Get("key"))
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"temperature": {"degrees": 21.5}}`))
	}, HTTPClientConfig{})

	body, err := p.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"temperature": {"degrees": 21.5}}`, string(body))
	assert.Equal(t, "google-weather", p.Name())
}

func TestFetchCurrentFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusBadGateway, `{"error": "bad gateway"}`},
		{"forbidden", http.StatusForbidden, `{"error": {"status": "PERMISSION_DENIED"}}`},
		{"too many requests", http.StatusTooManyRequests, ``},
		{"non json body", http.StatusOK, `<html>maintenance</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}, HTTPClientConfig{})

			body, err := p.FetchCurrent(context.Background())
			assert.Nil(t, body)
			assert.ErrorIs(t, err, weather.ErrUpstreamFailure)
		})
	}
}

func TestFetchCurrentSingleAttemptByDefault(t *testing.T) {
	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, HTTPClientConfig{})

	_, err := p.FetchCurrent(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchCurrentRetriesWhenConfigured(t *testing.T) {
	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}, HTTPClientConfig{Backoff: BackoffConfig{MaxRetries: 2}})

	_, err := p.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchCurrentRetriesShareOneQuotaToken(t *testing.T) {
	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}, HTTPClientConfig{
		Backoff: BackoffConfig{MaxRetries: 2},
		Limiter: rate.NewLimiter(rate.Limit(6.0/60), 1),
	})

	_, err := p.FetchCurrent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), hits.Load())

	_, err = p.FetchCurrent(context.Background())
	assert.ErrorContains(t, err, errQuotaGuard.Error())
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchCurrentBreakerOpens(t *testing.T) {
	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, HTTPClientConfig{})

	for i := 0; i < 3; i++ {
		_, err := p.FetchCurrent(context.Background())
		require.Error(t, err)
	}

	_, err := p.FetchCurrent(context.Background())
	require.ErrorIs(t, err, weather.ErrUpstreamFailure)
	assert.ErrorContains(t, err, errCircuitOpen.Error())
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetchCurrentQuotaGuard(t *testing.T) {
	var hits atomic.Int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}, HTTPClientConfig{Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)})

	_, err := p.FetchCurrent(context.Background())
	require.NoError(t, err)

	_, err = p.FetchCurrent(context.Background())
	require.ErrorIs(t, err, weather.ErrUpstreamFailure)
	assert.ErrorContains(t, err, errQuotaGuard.Error())
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchCurrentMissingKey(t *testing.T) {
	p := NewGoogleWeatherProvider(HTTPClientConfig{Client: http.DefaultClient}, "", "", testLocation)

	_, err := p.FetchCurrent(context.Background())
	assert.ErrorIs(t, err, weather.ErrUpstreamFailure)
}

func TestFetchCurrentTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewGoogleWeatherProvider(HTTPClientConfig{Client: &http.Client{Timeout: time.Second}}, url, "test-key", testLocation)
	_, err := p.FetchCurrent(context.Background())
	assert.ErrorIs(t, err, weather.ErrUpstreamFailure)
}
