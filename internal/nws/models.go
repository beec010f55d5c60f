package nws

// Wire types for the api.weather.gov GeoJSON responses. Every optional field
// is a pointer so "absent" and "empty" stay distinguishable; formatters turn
// nil into a placeholder.

// AlertsResponse is the body of GET /alerts?area=XX.
type AlertsResponse struct {
	Features []AlertFeature `json:"features"`
}

// AlertFeature is one GeoJSON feature from the alerts collection.
type AlertFeature struct {
	Properties AlertProperties `json:"properties"`
}

// AlertProperties holds the alert fields rendered to the caller.
type AlertProperties struct {
	Event    *string `json:"event,omitempty"`
	AreaDesc *string `json:"areaDesc,omitempty"`
	Severity *string `json:"severity,omitempty"`
	Status   *string `json:"status,omitempty"`
	Headline *string `json:"headline,omitempty"`
}

// PointsResponse is the body of GET /points/{lat},{lon}.
type PointsResponse struct {
	Properties PointsProperties `json:"properties"`
}

// PointsProperties carries the link to the forecast resource for a grid point.
type PointsProperties struct {
	Forecast *string `json:"forecast,omitempty"`
}

// ForecastResponse is the body of the forecast URL returned by a points lookup.
type ForecastResponse struct {
	Properties ForecastProperties `json:"properties"`
}

// ForecastProperties wraps the ordered forecast periods.
type ForecastProperties struct {
	Periods []ForecastPeriod `json:"periods"`
}

// ForecastPeriod is one named forecast window ("Tonight", "Friday", ...).
type ForecastPeriod struct {
	Name            *string  `json:"name,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
	TemperatureUnit *string  `json:"temperatureUnit,omitempty"`
	WindSpeed       *string  `json:"windSpeed,omitempty"`
	WindDirection   *string  `json:"windDirection,omitempty"`
	ShortForecast   *string  `json:"shortForecast,omitempty"`
}
