package weather

import (
	"fmt"
	"strings"
	"time"
)

// Report is the structured weather record for one location.
type Report struct {
	City           string    `json:"city"`
	Country        string    `json:"country"`
	Condition      string    `json:"condition"`
	Description    string    `json:"description"`
	Temperature    float64   `json:"temperature"`
	FeelsLike      float64   `json:"feels_like"`
	TempMin        float64   `json:"temp_min"`
	TempMax        float64   `json:"temp_max"`
	Humidity       int       `json:"humidity"`
	Pressure       int       `json:"pressure"`
	Visibility     int       `json:"visibility"` // meters
	WindSpeed      float64   `json:"wind_speed"` // m/s
	WindDeg        int       `json:"wind_deg"`
	Cloudiness     int       `json:"cloudiness"`
	Sunrise        time.Time `json:"sunrise"`
	Sunset         time.Time `json:"sunset"`
	TimezoneOffset int       `json:"timezone_offset"` // seconds east of UTC
	Timestamp      int64     `json:"timestamp"`
	Source         string    `json:"source"` // "api" or "cache"
}

// Summary renders the report as plain labelled lines suitable for a prompt.
func (r *Report) Summary() string {
	loc := time.FixedZone("local", r.TimezoneOffset)

	var b strings.Builder
	place := r.City
	if r.Country != "" {
		place = fmt.Sprintf("%s, %s", r.City, r.Country)
	}
	fmt.Fprintf(&b, "Location: %s\n", place)

	conditions := r.Condition
	if r.Description != "" && !strings.EqualFold(r.Description, r.Condition) {
		conditions = fmt.Sprintf("%s (%s)", r.Condition, r.Description)
	}
	fmt.Fprintf(&b, "Conditions: %s\n", conditions)
	fmt.Fprintf(&b, "Temperature: %.1f°C (feels like %.1f°C, min %.1f°C, max %.1f°C)\n",
		r.Temperature, r.FeelsLike, r.TempMin, r.TempMax)
	fmt.Fprintf(&b, "Wind: %.1f m/s (%.0f km/h) from %d°\n", r.WindSpeed, r.WindSpeed*3.6, r.WindDeg)
	fmt.Fprintf(&b, "Humidity: %d%%\n", r.Humidity)
	fmt.Fprintf(&b, "Pressure: %d hPa\n", r.Pressure)
	fmt.Fprintf(&b, "Visibility: %.1f km\n", float64(r.Visibility)/1000)
	fmt.Fprintf(&b, "Cloudiness: %d%%\n", r.Cloudiness)
	if !r.Sunrise.IsZero() {
		fmt.Fprintf(&b, "Sunrise: %s local time\n", r.Sunrise.In(loc).Format("3:04 PM"))
	}
	if !r.Sunset.IsZero() {
		fmt.Fprintf(&b, "Sunset: %s local time\n", r.Sunset.In(loc).Format("3:04 PM"))
	}
	return strings.TrimRight(b.String(), "\n")
}
