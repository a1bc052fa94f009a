package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-records/internal/weather"
)

// DefaultWeatherAPIURL is the WeatherAPI.com current-conditions endpoint.
const DefaultWeatherAPIURL = "https://api.weatherapi.com/v1/current.json"

// WeatherAPIProvider implements the weather.Provider interface for WeatherAPI.com.
type WeatherAPIProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAPIProvider(client *http.Client, apiKey, baseURL string, breaker BreakerConfig) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherAPIURL
	}
	return &WeatherAPIProvider{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker("weatherapi", breaker),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) BreakerState() string {
	return p.circuit.State().String()
}

// WeatherAPI reports application errors as a 4xx status with this "error" member.
type weatherAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func weatherAPIErrorMessage(raw json.RawMessage) string {
	var e weatherAPIError
	if err := json.Unmarshal(raw, &e); err != nil {
		var text string
		if json.Unmarshal(raw, &text) == nil {
			return text
		}
		return ""
	}
	if e.Message == "" && e.Code != 0 {
		return fmt.Sprintf("provider error code %d", e.Code)
	}
	return e.Message
}

func (p *WeatherAPIProvider) Current(ctx context.Context, location string) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, weather.Unavailable(p.name, "weather provider access key is not configured", nil)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		// WeatherAPI uses "q" for location; it accepts free text such as "Paris" or "Paris, France".
		values.Set("q", location)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, weather.Unavailable(p.name, "failed to fetch weather data", err)
	}

	obj, decodeErr := decodeObject(resp.Body)

	if !isSuccess(resp.StatusCode) {
		if decodeErr == nil && present(obj, "error") && resp.StatusCode < 500 {
			if msg := weatherAPIErrorMessage(obj["error"]); msg != "" {
				return nil, weather.Rejected(p.name, msg)
			}
		}
		return nil, weather.Unavailable(p.name, "failed to fetch weather data",
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	if decodeErr != nil {
		return nil, weather.Unavailable(p.name, "weather provider returned a malformed response", decodeErr)
	}
	if present(obj, "error") {
		msg := weatherAPIErrorMessage(obj["error"])
		if msg == "" {
			msg = "weather provider reported an error"
		}
		return nil, weather.Rejected(p.name, msg)
	}

	return json.RawMessage(resp.Body), nil
}
