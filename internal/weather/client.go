package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Divas-Gupta30/agentic-assistant/internal/metrics"
)

const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

var (
	ErrNoAPIKey     = errors.New("weather: OpenWeatherMap API key not configured")
	ErrEmptyCity    = errors.New("weather: city is required")
	ErrCityNotFound = errors.New("weather: city not found")
)

// StatusError is returned for non-success responses other than 404.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather: API request failed with status %d: %s", e.StatusCode, e.Body)
}

// OpenWeatherMap API response structure
type openWeatherResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Main *struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Pressure  int     `json:"pressure"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   int     `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All int `json:"all"`
	} `json:"clouds"`
	Visibility int   `json:"visibility"`
	Timezone   int   `json:"timezone"`
	Dt         int64 `json:"dt"`
}

// Client talks to the OpenWeatherMap current-weather endpoint. It never
// retries.
type Client struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		APIKey:  apiKey,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Fetch returns the current weather for a "City" or "City, CC" query.
func (c *Client) Fetch(ctx context.Context, city string) (*Report, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrEmptyCity
	}
	if c.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.APIKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: create request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("openweathermap", "error").Inc()
		return nil, fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ExternalAPICallsTotal.WithLabelValues("openweathermap", "error").Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %q", ErrCityNotFound, city)
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var owm openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&owm); err != nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("openweathermap", "error").Inc()
		return nil, fmt.Errorf("weather: malformed response: %w", err)
	}
	if owm.Main == nil {
		metrics.ExternalAPICallsTotal.WithLabelValues("openweathermap", "error").Inc()
		return nil, errors.New("weather: malformed response: missing main section")
	}

	metrics.ExternalAPICallsTotal.WithLabelValues("openweathermap", "success").Inc()
	return owm.toReport(), nil
}

func (o *openWeatherResponse) toReport() *Report {
	r := &Report{
		City:           o.Name,
		Country:        o.Sys.Country,
		Temperature:    o.Main.Temp,
		FeelsLike:      o.Main.FeelsLike,
		TempMin:        o.Main.TempMin,
		TempMax:        o.Main.TempMax,
		Humidity:       o.Main.Humidity,
		Pressure:       o.Main.Pressure,
		Visibility:     o.Visibility,
		WindSpeed:      o.Wind.Speed,
		WindDeg:        o.Wind.Deg,
		Cloudiness:     o.Clouds.All,
		TimezoneOffset: o.Timezone,
		Timestamp:      o.Dt,
		Source:         "api",
	}
	if len(o.Weather) > 0 {
		r.Condition = o.Weather[0].Main
		r.Description = o.Weather[0].Description
	}
	if o.Sys.Sunrise > 0 {
		r.Sunrise = time.Unix(o.Sys.Sunrise, 0).UTC()
	}
	if o.Sys.Sunset > 0 {
		r.Sunset = time.Unix(o.Sys.Sunset, 0).UTC()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().Unix()
	}
	return r
}
