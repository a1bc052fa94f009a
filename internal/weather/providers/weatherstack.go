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

// DefaultWeatherstackURL is the current-conditions endpoint of the Weatherstack free tier.
const DefaultWeatherstackURL = "http://api.weatherstack.com/current"

// WeatherstackProvider implements weather.Provider for weatherstack.com.
type WeatherstackProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherstackProvider(client *http.Client, apiKey, baseURL string, breaker BreakerConfig) *WeatherstackProvider {
	if baseURL == "" {
		baseURL = DefaultWeatherstackURL
	}
	return &WeatherstackProvider{
		name:    "weatherstack",
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker("weatherstack", breaker),
	}
}

func (p *WeatherstackProvider) Name() string {
	return p.name
}

// BreakerState reports the circuit breaker state ("closed", "half-open", "open").
func (p *WeatherstackProvider) BreakerState() string {
	return p.circuit.State().String()
}

// weatherstackError is the shape of the "error" member Weatherstack uses to
// report failures inside an otherwise successful HTTP response.
type weatherstackError struct {
	Code int    `json:"code"`
	Type string `json:"type"`
	Info string `json:"info"`
}

// weatherstackErrorMessage extracts a client-facing message from any "error" value.
func weatherstackErrorMessage(raw json.RawMessage) string {
	var e weatherstackError
	if err := json.Unmarshal(raw, &e); err == nil {
		switch {
		case e.Info != "":
			return e.Info
		case e.Type != "":
			return e.Type
		case e.Code != 0:
			return fmt.Sprintf("provider error code %d", e.Code)
		}
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil && text != "" {
		return text
	}
	return "weather provider reported an error"
}

func (p *WeatherstackProvider) Current(ctx context.Context, location string) (json.RawMessage, error) {
	if p.apiKey == "" {
		return nil, weather.Unavailable(p.name, "weather provider access key is not configured", nil)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		values.Set("access_key", p.apiKey)
		values.Set("query", location)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, weather.Unavailable(p.name, "failed to fetch weather data", err)
	}
	if !isSuccess(resp.StatusCode) {
		return nil, weather.Unavailable(p.name, "failed to fetch weather data",
			fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	obj, err := decodeObject(resp.Body)
	if err != nil {
		return nil, weather.Unavailable(p.name, "weather provider returned a malformed response", err)
	}

	if present(obj, "error") {
		return nil, weather.Rejected(p.name, weatherstackErrorMessage(obj["error"]))
	}
	var success bool
	if present(obj, "success") && json.Unmarshal(obj["success"], &success) == nil && !success {
		return nil, weather.Rejected(p.name, "weather provider reported an unsuccessful request")
	}

	return json.RawMessage(resp.Body), nil
}
