package domain

// SubjectID is the authenticated subject extracted from token claims.
// We model it as an opaque identifier: its format is controlled by the issuing service.
type SubjectID string

// UserID identifies a user record on the remote service.
type UserID string

// RideID identifies a ride record on the remote service.
type RideID string
