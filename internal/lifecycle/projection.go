package lifecycle

import "hailo/internal/domain"

// MarkerKind identifies what a map marker represents.
type MarkerKind string

const (
	MarkerPickup  MarkerKind = "pickup"
	MarkerDropoff MarkerKind = "dropoff"
	MarkerDriver  MarkerKind = "driver"
)

// RouteKind identifies which leg a polyline covers.
type RouteKind string

const (
	RouteToPickup  RouteKind = "to_pickup"
	RouteToDropoff RouteKind = "to_dropoff"
)

// Marker is an annotated point for the map layer.
type Marker struct {
	ID   string
	Kind MarkerKind
	Lat  float64
	Lng  float64
}

// Route is a polyline for the map layer. Points are straight-line
// interpolations between the endpoints, a visual placeholder rather than
// road-network routing.
type Route struct {
	Kind   RouteKind
	Points [][2]float64 // lat, lng pairs
}

// Projection is the derived map annotation set for a ride view.
type Projection struct {
	Markers []Marker
	Routes  []Route
}

// driverOffset approximates the counterpart's position relative to pickup
// while no live location feed exists.
const driverOffset = 0.01

// Project computes the map annotations for the current view: pickup and
// dropoff markers, an approximate counterpart position, the leg to pickup
// while the driver is heading over, and the pickup-to-dropoff leg once the
// ride is in progress.
func Project(v View) Projection {
	ride := v.Ride
	p := Projection{
		Markers: []Marker{
			{ID: "pickup", Kind: MarkerPickup, Lat: ride.Pickup.Lat, Lng: ride.Pickup.Lng},
			{ID: "dropoff", Kind: MarkerDropoff, Lat: ride.Dropoff.Lat, Lng: ride.Dropoff.Lng},
		},
	}

	driverLat := ride.Pickup.Lat - driverOffset
	driverLng := ride.Pickup.Lng - driverOffset

	switch ride.Status {
	case domain.RideStatusDriverAssigned, domain.RideStatusEnRoute, domain.RideStatusArrived:
		p.Markers = append(p.Markers, Marker{ID: "driver", Kind: MarkerDriver, Lat: driverLat, Lng: driverLng})
		p.Routes = append(p.Routes, Route{
			Kind:   RouteToPickup,
			Points: interpolate(driverLat, driverLng, ride.Pickup.Lat, ride.Pickup.Lng),
		})
	case domain.RideStatusInProgress:
		p.Markers = append(p.Markers, Marker{ID: "driver", Kind: MarkerDriver, Lat: ride.Pickup.Lat, Lng: ride.Pickup.Lng})
		p.Routes = append(p.Routes, Route{
			Kind:   RouteToDropoff,
			Points: interpolate(ride.Pickup.Lat, ride.Pickup.Lng, ride.Dropoff.Lat, ride.Dropoff.Lng),
		})
	}

	return p
}

// interpolate returns start, midpoint, end as a three-point polyline.
func interpolate(lat1, lng1, lat2, lng2 float64) [][2]float64 {
	return [][2]float64{
		{lat1, lng1},
		{(lat1 + lat2) / 2, (lng1 + lng2) / 2},
		{lat2, lng2},
	}
}
