package domain

import "time"

// VehicleInfo describes the vehicle a driver operates.
type VehicleInfo struct {
	Make         string
	Model        string
	Color        string
	LicensePlate string
}

// Profile holds display attributes for a user. For drivers it is fetched
// once per assignment and not kept consistent afterwards.
type Profile struct {
	ID          string
	FullName    string
	AvatarURL   string
	PhoneNumber string
	Rating      float64
	TotalRides  int
	IsDriver    bool
	Vehicle     VehicleInfo
	CreatedAt   time.Time
}

// Rating is a rider's post-completion score for a driver.
type Rating struct {
	RideID   string
	DriverID string
	RiderID  string
	Stars    int // 1..5
}
