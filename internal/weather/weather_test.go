package weather

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"snaptrack/internal/config"
)

func TestDescribe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code      int
		condition string
		icon      string
	}{
		{0, "Clear", "01d"},
		{2, "Clouds", "03d"},
		{48, "Fog", "50d"},
		{55, "Drizzle", "09d"},
		{63, "Rain", "10d"},
		{81, "Rain", "09d"},
		{75, "Snow", "13d"},
		{86, "Snow", "13d"},
		{96, "Thunderstorm", "11d"},
		{42, "Unknown", "50d"},
	}

	for _, tt := range tests {
		condition, _, icon := Describe(tt.code)
		if condition != tt.condition || icon != tt.icon {
			t.Fatalf("Describe(%d) = %s/%s, want %s/%s", tt.code, condition, icon, tt.condition, tt.icon)
		}
	}
}

func TestCurrentParsesOpenMeteoResponse(t *testing.T) {
	t.Parallel()

	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forecast" {
			http.NotFound(w, r)
			return
		}
		query = map[string]string{
			"latitude":  r.URL.Query().Get("latitude"),
			"longitude": r.URL.Query().Get("longitude"),
			"current":   r.URL.Query().Get("current"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"current": map[string]any{
				"temperature_2m":       17.6,
				"relative_humidity_2m": 71,
				"weather_code":         61,
				"wind_speed_10m":       12.4,
			},
		})
	}))
	defer srv.Close()

	client := NewClient(config.WeatherConfig{BaseURL: srv.URL + "/", Timeout: time.Second})
	snapshot, err := client.Current(context.Background(), 52.52, 13.405)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	if query["latitude"] != "52.52" || query["longitude"] != "13.405" {
		t.Fatalf("unexpected coordinates %v", query)
	}
	if query["current"] != "temperature_2m,relative_humidity_2m,weather_code,wind_speed_10m" {
		t.Fatalf("unexpected current fields %q", query["current"])
	}
	if snapshot.Temp != 18 || snapshot.Condition != "Rain" || snapshot.Icon != "10d" || snapshot.WindSpeed != 12.4 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	if snapshot.Humidity == nil || *snapshot.Humidity != 71 {
		t.Fatalf("unexpected humidity %v", snapshot.Humidity)
	}
}

func TestCurrentFallsBackOnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":true,"reason":"Latitude must be in range of -90 to 90°."}`))
	}))
	defer srv.Close()

	client := NewClient(config.WeatherConfig{BaseURL: srv.URL, Timeout: time.Second})
	snapshot, err := client.Current(context.Background(), 200, 0)
	if err == nil {
		t.Fatal("expected error for bad request")
	}
	if snapshot != Fallback() {
		t.Fatalf("expected fallback snapshot, got %+v", snapshot)
	}
}
