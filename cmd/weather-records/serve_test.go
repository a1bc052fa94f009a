package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-records/internal/config"
	"github.com/i474232898/weather-records/internal/store"
	"github.com/i474232898/weather-records/internal/weather"
)

func testConfig(provider, baseURL string) *config.AppConfig {
	return &config.AppConfig{
		Provider:                provider,
		WeatherstackAPIKey:      "ws-key",
		WeatherstackBaseURL:     baseURL,
		WeatherAPIKey:           "wa-key",
		WeatherAPIBaseURL:       baseURL,
		ProviderTimeout:         2 * time.Second,
		BreakerMaxFailures:      5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenRequests: 10,
		AllowedOrigins:          []string{"http://localhost:3000"},
		Port:                    "0",
	}
}

func TestNewProvider(t *testing.T) {
	p, err := newProvider(testConfig(config.ProviderWeatherstack, ""))
	require.NoError(t, err)
	assert.Equal(t, "weatherstack", p.Name())

	p, err = newProvider(testConfig(config.ProviderWeatherAPI, ""))
	require.NoError(t, err)
	assert.Equal(t, "weatherapi", p.Name())

	_, err = newProvider(testConfig("darksky", ""))
	assert.Error(t, err)
}

// TestAppEndToEnd drives the assembled app against a fake Weatherstack server.
func TestAppEndToEnd(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ws-key", r.URL.Query().Get("access_key"))
		if r.URL.Query().Get("query") == "Atlantis" {
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":615,"type":"request_failed","info":"Unknown location"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"current":{"temperature":12,"weather_descriptions":["Partly cloudy"]}}`))
	}))
	defer upstream.Close()

	cfg := testConfig(config.ProviderWeatherstack, upstream.URL)
	provider, err := newProvider(cfg)
	require.NoError(t, err)

	svc := weather.NewService(store.NewMemoryStore(), provider)
	app := newApp(cfg, svc)

	today := time.Now().UTC().Format(weather.DateLayout)
	req := httptest.NewRequest(http.MethodPost, "/weather",
		strings.NewReader(`{"date":"`+today+`","location":"Paris","notes":"walk"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/weather/"+created.ID, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"date":"`+today+`",
		"location":"Paris",
		"notes":"walk",
		"weather_data":{"current":{"temperature":12,"weather_descriptions":["Partly cloudy"]}}
	}`, buf.String())

	req = httptest.NewRequest(http.MethodPost, "/weather",
		strings.NewReader(`{"date":"`+today+`","location":"Atlantis"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, svc.Stats().Records, "rejected submission must not be stored")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "weather-records dev\n", out.String())
}
