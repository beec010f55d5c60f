package weather

import (
	"strconv"
	"strings"

	"weathermcp/internal/nws"
)

// Placeholders rendered for absent fields.
const (
	placeholderUnknown     = "Unknown"
	placeholderHeadline    = "No headline"
	placeholderForecast    = "No forecast available"
	defaultTemperatureUnit = "F"

	blockSeparator = "---"
)

// present returns the field value, or placeholder when the field is absent or
// empty.
func present(field *string, placeholder string) string {
	if field == nil || *field == "" {
		return placeholder
	}
	return *field
}

// FormatAlert renders one alert as a fixed five-line block followed by the
// separator line.
func FormatAlert(f nws.AlertFeature) string {
	p := f.Properties

	var b strings.Builder
	b.WriteString("Event: " + present(p.Event, placeholderUnknown) + "\n")
	b.WriteString("Area: " + present(p.AreaDesc, placeholderUnknown) + "\n")
	b.WriteString("Severity: " + present(p.Severity, placeholderUnknown) + "\n")
	b.WriteString("Status: " + present(p.Status, placeholderUnknown) + "\n")
	b.WriteString("Headline: " + present(p.Headline, placeholderHeadline) + "\n")
	b.WriteString(blockSeparator)
	return b.String()
}

// FormatPeriod renders one forecast period. A missing wind direction leaves
// the wind line ending in a single space.
func FormatPeriod(p nws.ForecastPeriod) string {
	temperature := placeholderUnknown
	if p.Temperature != nil {
		temperature = strconv.FormatFloat(*p.Temperature, 'f', -1, 64)
	}

	var b strings.Builder
	b.WriteString(present(p.Name, placeholderUnknown) + ":\n")
	b.WriteString("Temperature: " + temperature + "°" + present(p.TemperatureUnit, defaultTemperatureUnit) + "\n")
	b.WriteString("Wind: " + present(p.WindSpeed, placeholderUnknown) + " " + present(p.WindDirection, "") + "\n")
	b.WriteString(present(p.ShortForecast, placeholderForecast) + "\n")
	b.WriteString(blockSeparator)
	return b.String()
}

func formatAlerts(features []nws.AlertFeature) string {
	blocks := make([]string, 0, len(features))
	for _, f := range features {
		blocks = append(blocks, FormatAlert(f))
	}
	return strings.Join(blocks, "\n")
}

func formatPeriods(periods []nws.ForecastPeriod) string {
	blocks := make([]string, 0, len(periods))
	for _, p := range periods {
		blocks = append(blocks, FormatPeriod(p))
	}
	return strings.Join(blocks, "\n")
}

// formatCoordinate renders a coordinate with the shortest exact representation.
func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
