package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-records/internal/store"
	"github.com/i474232898/weather-records/internal/weather"
)

type fakeProvider struct {
	calls   int
	payload json.RawMessage
	err     error
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Current(ctx context.Context, location string) (json.RawMessage, error) {
	p.calls++
	return p.payload, p.err
}

func newTestApp(t *testing.T, p *fakeProvider) (*fiber.App, *store.MemoryStore) {
	t.Helper()

	memStore := store.NewMemoryStore()
	svc := weather.NewService(memStore, p, weather.WithClock(func() time.Time {
		return time.Date(2024, 6, 15, 8, 0, 0, 0, time.UTC)
	}))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(CORS([]string{"http://localhost:3000"}))
	RegisterRoutes(app, svc)
	return app, memStore
}

func postWeather(t *testing.T, app *fiber.App, body string) (*http.Response, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/weather", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	return out
}

func TestCreateAndRetrieve(t *testing.T) {
	provider := &fakeProvider{payload: json.RawMessage(`{"current": {"temperature": 10}}`)}
	app, _ := newTestApp(t, provider)

	resp, body := postWeather(t, app, `{"date": "2024-01-01", "location": "Paris", "notes": "trip"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	id, ok := body["id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, id)

	req := httptest.NewRequest(http.MethodGet, "/weather/"+id, nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"date": "2024-01-01",
		"location": "Paris",
		"notes": "trip",
		"weather_data": {"current": {"temperature": 10}}
	}`, string(raw))
}

func TestCreateNotesOptional(t *testing.T) {
	app, memStore := newTestApp(t, &fakeProvider{payload: json.RawMessage(`{}`)})

	resp, body := postWeather(t, app, `{"date": "2024-06-15", "location": "Berlin"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	record, err := memStore.Lookup(body["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "", record.Notes)
}

func TestCreateValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind string
	}{
		{name: "digits in location", body: `{"date": "2024-01-01", "location": "Paris123"}`, wantKind: "InvalidLocation"},
		{name: "empty location", body: `{"date": "2024-01-01", "location": "  "}`, wantKind: "InvalidLocation"},
		{name: "tomorrow", body: `{"date": "2024-06-16", "location": "Paris"}`, wantKind: "InvalidDate"},
		{name: "bad date", body: `{"date": "yesterday", "location": "Paris"}`, wantKind: "InvalidDate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{payload: json.RawMessage(`{}`)}
			app, memStore := newTestApp(t, provider)

			resp, body := postWeather(t, app, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.Equal(t, true, body["error"])
			assert.NotEmpty(t, body["message"])
			assert.Zero(t, provider.calls)
			assert.Zero(t, memStore.Len())
		})
	}
}

func TestCreateMalformedBody(t *testing.T) {
	app, _ := newTestApp(t, &fakeProvider{})

	resp, body := postWeather(t, app, `{"date": `)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, true, body["error"])
}

func TestCreateProviderErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantKind    string
		wantMessage string
	}{
		{
			name:        "rejected",
			err:         weather.Rejected("fake", "Your API request failed. Please try again or contact support."),
			wantStatus:  http.StatusBadRequest,
			wantKind:    "ProviderRejected",
			wantMessage: "Your API request failed. Please try again or contact support.",
		},
		{
			name:        "unavailable",
			err:         weather.Unavailable("fake", "failed to fetch weather data", io.ErrUnexpectedEOF),
			wantStatus:  http.StatusBadGateway,
			wantKind:    "ProviderUnavailable",
			wantMessage: "failed to fetch weather data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, memStore := newTestApp(t, &fakeProvider{err: tt.err})

			resp, body := postWeather(t, app, `{"date": "2024-01-01", "location": "Paris"}`)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantKind, body["kind"])
			assert.Equal(t, tt.wantMessage, body["message"])
			assert.Zero(t, memStore.Len())
		})
	}
}

func TestRetrieveUnknown(t *testing.T) {
	app, _ := newTestApp(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodGet, "/weather/3b241101-e2bb-4255-8caf-4136c566a962", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "NotFound", body["kind"])
	assert.Equal(t, "Weather data not found", body["message"])
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, &fakeProvider{payload: json.RawMessage(`{}`)})
	postWeather(t, app, `{"date": "2024-01-01", "location": "Paris"}`)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "fake", body["provider"])
	assert.Equal(t, float64(1), body["records"])
}

func TestCORS(t *testing.T) {
	app, _ := newTestApp(t, &fakeProvider{})

	req := httptest.NewRequest(http.MethodOptions, "/weather", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/weather", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}
