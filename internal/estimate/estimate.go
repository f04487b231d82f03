// Package estimate computes the pre-ride fare, duration, and distance
// figures shown to the rider. The formula is fixed and deterministic so the
// quote a rider sees always matches what gets stored with the ride.
package estimate

import (
	"math"

	"hailo/internal/config"
	"hailo/internal/domain"
)

const earthRadiusM = 6371e3

// HaversineKm returns the great-circle distance between two points in
// kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c / 1000
}

// Quote is the displayed estimate for a prospective ride.
type Quote struct {
	DistanceKm  float64
	Fare        float64
	DurationMin int
}

// NewQuote computes the estimate for a pickup/dropoff pair. Distance is
// rounded to a tenth of a kilometer before the fare and duration are
// derived, matching the displayed figures exactly.
func NewQuote(pickup, dropoff domain.GeoPoint, pricing config.PricingConfig) Quote {
	d := math.Round(HaversineKm(pickup.Lat, pickup.Lng, dropoff.Lat, dropoff.Lng)*10) / 10

	return Quote{
		DistanceKm:  d,
		Fare:        math.Round(pricing.BaseFare + pricing.PerKmRate*d),
		DurationMin: int(math.Round(pricing.MinutesPerKm * d)),
	}
}
