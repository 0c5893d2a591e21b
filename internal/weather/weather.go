// Package weather fetches current conditions from Open-Meteo so sales can be
// stored with the weather they happened in.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"snaptrack/internal/config"
)

// Snapshot is the stored weather at the time of a sale.
type Snapshot struct {
	Temp        int      `json:"temp"`
	Condition   string   `json:"condition"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	WindSpeed   float64  `json:"wind_speed"`
	Humidity    *float64 `json:"humidity,omitempty"`
}

// JSON encodes the snapshot for storage.
func (s Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// Fallback is returned when the weather service cannot be reached.
func Fallback() Snapshot {
	return Snapshot{Temp: 20, Condition: "Clear", Description: "Not available", Icon: "01d", WindSpeed: 0}
}

// Provider returns the current weather at a coordinate.
type Provider interface {
	Current(ctx context.Context, latitude, longitude float64) (Snapshot, error)
}

// Client is a resty-backed Open-Meteo Provider.
type Client struct {
	httpClient *resty.Client
}

// NewClient builds an Open-Meteo client. No API key is needed.
func NewClient(cfg config.WeatherConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &Client{httpClient: restyClient}
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WeatherCode int     `json:"weather_code"`
		WindSpeed   float64 `json:"wind_speed_10m"`
	} `json:"current"`
}

type apiError struct {
	Reason string `json:"reason"`
}

// Current fetches the current weather. On any failure it returns Fallback()
// together with the error, so callers that only want a best-effort snapshot
// can ignore the error.
func (c *Client) Current(ctx context.Context, latitude, longitude float64) (Snapshot, error) {
	result := new(forecastResponse)
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  strconv.FormatFloat(latitude, 'f', -1, 64),
			"longitude": strconv.FormatFloat(longitude, 'f', -1, 64),
			"current":   "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m",
		}).
		SetResult(result).
		SetError(apiErr).
		Get("/v1/forecast")
	if err != nil {
		return Fallback(), fmt.Errorf("fetch weather: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return Fallback(), fmt.Errorf("weather api error: status=%d, reason=%s", resp.StatusCode(), apiErr.Reason)
	}

	condition, description, icon := Describe(result.Current.WeatherCode)
	humidity := result.Current.Humidity
	return Snapshot{
		Temp:        int(math.Round(result.Current.Temperature)),
		Condition:   condition,
		Description: description,
		Icon:        icon,
		WindSpeed:   result.Current.WindSpeed,
		Humidity:    &humidity,
	}, nil
}

// Describe maps a WMO weather interpretation code to a condition, a short
// description and an icon code.
func Describe(code int) (condition, description, icon string) {
	switch {
	case code == 0:
		return "Clear", "Clear sky", "01d"
	case code == 1:
		return "Clouds", "Mainly clear", "02d"
	case code == 2:
		return "Clouds", "Partly cloudy", "03d"
	case code == 3:
		return "Clouds", "Overcast", "04d"
	case code == 45 || code == 48:
		return "Fog", "Fog", "50d"
	case code >= 51 && code <= 57:
		return "Drizzle", "Drizzle", "09d"
	case code >= 61 && code <= 67:
		return "Rain", "Rain", "10d"
	case code >= 80 && code <= 82:
		return "Rain", "Rain showers", "09d"
	case code >= 71 && code <= 77:
		return "Snow", "Snow", "13d"
	case code >= 85 && code <= 86:
		return "Snow", "Snow showers", "13d"
	case code >= 95 && code <= 99:
		return "Thunderstorm", "Thunderstorm", "11d"
	default:
		return "Unknown", "Unknown", "50d"
	}
}
