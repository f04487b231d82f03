package estimate

import (
	"math"
	"testing"

	"hailo/internal/config"
	"hailo/internal/domain"
)

var testPricing = config.PricingConfig{
	BaseFare:     2.0,
	PerKmRate:    1.5,
	MinutesPerKm: 3.0,
}

func TestHaversine_ZeroForIdenticalPoints(t *testing.T) {
	if d := HaversineKm(12.9716, 77.5946, 12.9716, 77.5946); d != 0 {
		t.Errorf("expected 0, got %f", d)
	}
}

func TestQuote_IdenticalPointsChargeBaseFareOnly(t *testing.T) {
	p := domain.GeoPoint{Lat: 12.9716, Lng: 77.5946}
	q := NewQuote(p, p, testPricing)

	if q.DistanceKm != 0 {
		t.Errorf("expected 0 distance, got %f", q.DistanceKm)
	}
	if q.Fare != testPricing.BaseFare {
		t.Errorf("expected base fare %f, got %f", testPricing.BaseFare, q.Fare)
	}
	if q.DurationMin != 0 {
		t.Errorf("expected 0 duration, got %d", q.DurationMin)
	}
}

// Golden values for a 0.01-degree latitude hop, pinned so any drift in the
// formula is caught.
func TestQuote_GoldenValues(t *testing.T) {
	pickup := domain.GeoPoint{Lat: 40.0000, Lng: -74.0000}
	dropoff := domain.GeoPoint{Lat: 40.0100, Lng: -74.0000}

	raw := HaversineKm(pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng)
	if math.Abs(raw-1.11195) > 0.0001 {
		t.Errorf("unexpected raw distance: got %f, want ~1.11195", raw)
	}

	q := NewQuote(pickup, dropoff, testPricing)
	if q.DistanceKm != 1.1 {
		t.Errorf("expected 1.1 km, got %f", q.DistanceKm)
	}
	if q.Fare != 4 {
		// round(2 + 1.5*1.1) = round(3.65) = 4
		t.Errorf("expected fare 4, got %f", q.Fare)
	}
	if q.DurationMin != 3 {
		// round(3*1.1) = 3
		t.Errorf("expected 3 min, got %d", q.DurationMin)
	}
}

func TestQuote_DistanceRoundedToTenth(t *testing.T) {
	pickup := domain.GeoPoint{Lat: 40.0, Lng: -74.0}
	dropoff := domain.GeoPoint{Lat: 40.1, Lng: -74.1}

	q := NewQuote(pickup, dropoff, testPricing)
	scaled := q.DistanceKm * 10
	if scaled != math.Trunc(scaled) {
		t.Errorf("distance not rounded to a tenth: %f", q.DistanceKm)
	}
}
