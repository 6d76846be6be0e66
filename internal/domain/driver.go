package domain

import "time"

// Driver is the driver profile of a user.
type Driver struct {
	ID        string
	UserID    string
	Rating    float64 // 0.0 - 5.0
	Available bool
	Location  Point
	VehicleID string
	UpdatedAt time.Time
}
