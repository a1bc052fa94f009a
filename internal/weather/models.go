package weather

import (
	"encoding/json"
	"time"
)

// DateLayout is the calendar date format accepted from clients and stored on records.
const DateLayout = "2006-01-02"

// WeatherQuery is the raw client submission.
// Notes is optional and defaults to the empty string.
type WeatherQuery struct {
	Date     string `json:"date"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

// ValidQuery is a WeatherQuery that passed validation.
// Location is trimmed; Date is midnight UTC of the requested day.
type ValidQuery struct {
	Date     time.Time
	Location string
	Notes    string
}

// WeatherRecord is the stored result of one successful enrichment.
type WeatherRecord struct {
	ID       string `json:"-"`
	Date     string `json:"date"`
	Location string `json:"location"`
	Notes    string `json:"notes"`

	// WeatherData is the provider response body, kept verbatim.
	WeatherData json.RawMessage `json:"weather_data"`
}

// Stats is a point-in-time view of the service used by health checks and the stats reporter.
type Stats struct {
	Records  int    `json:"records"`
	Provider string `json:"provider"`
	Breaker  string `json:"breaker,omitempty"`
}
