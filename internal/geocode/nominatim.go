// Package geocode resolves free-text addresses to coordinates through the
// OpenStreetMap Nominatim search API.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"hailo/internal/config"
	"hailo/internal/domain"
)

const resultLimit = 5

// Result is one geocoder candidate for a search string.
type Result struct {
	DisplayName string
	Lat         float64
	Lng         float64
}

// Point converts a result into a domain location.
func (r Result) Point() domain.GeoPoint {
	return domain.GeoPoint{Lat: r.Lat, Lng: r.Lng, Address: r.DisplayName}
}

// Client queries Nominatim. Nominatim's usage policy requires an
// identifying User-Agent, and results are biased to the configured
// country set.
type Client struct {
	baseURL      string
	userAgent    string
	countryCodes string
	httpClient   *http.Client
}

// NewClient builds a geocoder client from config.
func NewClient(cfg config.GeocoderConfig) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		userAgent:    cfg.UserAgent,
		countryCodes: cfg.CountryCodes,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
}

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search returns up to five candidates for the query string.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(resultLimit))
	if c.countryCodes != "" {
		params.Set("countrycodes", c.countryCodes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request: unexpected status %d", resp.StatusCode)
	}

	var raw []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	results := make([]Result, 0, len(raw))
	for _, r := range raw {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lng, lngErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lngErr != nil {
			continue
		}
		results = append(results, Result{DisplayName: r.DisplayName, Lat: lat, Lng: lng})
	}
	return results, nil
}
