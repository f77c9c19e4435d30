package domain

import "time"

type RideStatus string

const (
	RideStatusPending   RideStatus = "PENDING"
	RideStatusConfirmed RideStatus = "CONFIRMED"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

// Known reports whether s is one of the statuses the remote service emits.
func (s RideStatus) Known() bool {
	switch s {
	case RideStatusPending, RideStatusConfirmed, RideStatusCompleted, RideStatusCancelled:
		return true
	}
	return false
}

// BookingRequest carries the free-text locations of a booking.
// The remote service does its own resolution, so coordinates are not sent.
type BookingRequest struct {
	PickupText  string
	DropoffText string
}

// Ride is a booking record owned by the remote service. This module only reads it.
type Ride struct {
	ID             RideID
	PickupLocation string
	DropLocation   string
	DateTime       time.Time
	Status         RideStatus
}
