package domain

import "time"

// Rating is a score one party of an ended ride gives the other.
type Rating struct {
	ID        string
	RideID    string
	RaterRole Role
	RateeID   string // driver or rider profile ID
	Score     int
	CreatedAt time.Time
}
