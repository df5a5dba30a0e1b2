// Package openmeteo implements the provider.Source interface against the
// Open-Meteo forecast and geocoding APIs. Requests are wrapped in retries
// with exponential backoff and a shared circuit breaker.
package openmeteo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/enviweather/envi-advisor/internal/provider"
	"github.com/enviweather/envi-advisor/internal/weather"
	"github.com/enviweather/envi-advisor/pkg/logger"
	"github.com/enviweather/envi-advisor/pkg/utils"
)

const (
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"

	defaultGeocodeLimit = 3
	maxGeocodeLimit     = 10

	// currentParams lists the readings consumed downstream. Open-Meteo
	// returns them under the "current" key.
	currentParams = "temperature_2m,relative_humidity_2m,wind_speed_10m,precipitation"

	// observationTimeLayout is Open-Meteo's ISO8601 minute resolution.
	// With timezone=UTC the parsed value is already UTC.
	observationTimeLayout = "2006-01-02T15:04"
)

// Config configures the Open-Meteo client.
type Config struct {
	// Logger is required.
	Logger logger.Logger

	// HTTPClient is optional; a client with a 10 second timeout is used
	// when nil.
	HTTPClient *http.Client

	// ForecastURL and GeocodingURL override the public endpoints,
	// primarily for tests.
	ForecastURL  string
	GeocodingURL string

	// Backoff is optional; sensible retry defaults apply when zero.
	Backoff BackoffConfig

	// OnBreakerChange is called whenever the circuit breaker changes
	// state. Optional; used to feed metrics.
	OnBreakerChange func(name string, from, to gobreaker.State)
}

// Client talks to Open-Meteo. Safe for concurrent use.
type Client struct {
	config  Config
	circuit *gobreaker.CircuitBreaker
}

// New validates the configuration and creates a client.
func New(config Config) (*Client, error) {
	if config.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if config.ForecastURL == "" {
		config.ForecastURL = defaultForecastURL
	}
	if config.GeocodingURL == "" {
		config.GeocodingURL = defaultGeocodingURL
	}
	if config.Backoff.InitialInterval <= 0 {
		config.Backoff = BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		}
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:          "openmeteo",
		MaxRequests:   5,
		Interval:      1 * time.Minute,
		Timeout:       2 * time.Minute,
		OnStateChange: config.OnBreakerChange,
	})

	return &Client{config: config, circuit: cb}, nil
}

// Geocode resolves a free-text place query to candidate places, best
// match first. An unknown place returns an empty slice.
func (c *Client) Geocode(ctx context.Context, query string, limit int) ([]provider.Place, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("geocode query is required")
	}
	if limit <= 0 {
		limit = defaultGeocodeLimit
	}
	if limit > maxGeocodeLimit {
		limit = maxGeocodeLimit
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", query)
		values.Set("count", strconv.Itoa(limit))
		values.Set("language", "en")
		values.Set("format", "json")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.config.GeocodingURL, values.Encode()), nil)
	}

	resp, err := doResilientRequest(ctx, c.config.HTTPClient, c.config.Backoff, c.circuit, buildRequest)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", query, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			ID        int64   `json:"id"`
			Name      string  `json:"name"`
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Country   string  `json:"country"`
			Admin1    string  `json:"admin1"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, markUnavailable(fmt.Errorf("decode geocoding response for %q: %w", query, err))
	}

	places := make([]provider.Place, 0, len(payload.Results))
	for _, result := range payload.Results {
		place := provider.Place{
			Name:      result.Name,
			Region:    result.Admin1,
			Country:   result.Country,
			Latitude:  result.Latitude,
			Longitude: result.Longitude,
		}
		if result.ID != 0 {
			place.LocationID = strconv.FormatInt(result.ID, 10)
		}
		places = append(places, place)
	}

	c.config.Logger.Debug("Geocoded place query",
		logger.StringField("query", query),
		logger.IntField("results", len(places)))

	return places, nil
}

// Current fetches the latest observation for the place. The reading is
// returned raw; validation happens in the weather package.
func (c *Client) Current(ctx context.Context, place provider.Place) (weather.Observation, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(place.Latitude, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(place.Longitude, 'f', -1, 64))
		values.Set("current", currentParams)
		values.Set("timezone", "UTC")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.config.ForecastURL, values.Encode()), nil)
	}

	resp, err := doResilientRequest(ctx, c.config.HTTPClient, c.config.Backoff, c.circuit, buildRequest)
	if err != nil {
		return weather.Observation{}, fmt.Errorf("fetch conditions for %q: %w", place.Name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			Time               string   `json:"time"`
			Temperature2M      *float64 `json:"temperature_2m"`
			RelativeHumidity2M *float64 `json:"relative_humidity_2m"`
			WindSpeed10M       *float64 `json:"wind_speed_10m"`
			Precipitation      *float64 `json:"precipitation"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Observation{}, markUnavailable(fmt.Errorf("decode forecast response for %q: %w", place.Name, err))
	}

	obs := weather.Observation{
		LocationID:      place.LocationID,
		Name:            place.Name,
		Region:          place.Region,
		Country:         place.Country,
		Latitude:        utils.ToPtr(place.Latitude),
		Longitude:       utils.ToPtr(place.Longitude),
		TemperatureC:    payload.Current.Temperature2M,
		HumidityPct:     payload.Current.RelativeHumidity2M,
		PrecipitationMM: payload.Current.Precipitation,
	}
	if payload.Current.WindSpeed10M != nil {
		// Open-Meteo reports wind speed in km/h.
		obs.WindSpeedMS = utils.ToPtr(*payload.Current.WindSpeed10M / 3.6)
	}
	if ts, err := time.Parse(observationTimeLayout, payload.Current.Time); err == nil {
		obs.ObservedAt = utils.ToPtr(ts.UTC())
	}

	c.config.Logger.Debug("Fetched current conditions",
		logger.StringField("place", place.Name),
		logger.Field("latitude", place.Latitude),
		logger.Field("longitude", place.Longitude))

	return obs, nil
}
