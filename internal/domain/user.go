package domain

import "time"

// User is the account record returned by signup and login.
type User struct {
	ID    UserID
	Name  string
	Email string
}

// Credential is the decoded identity and expiry derived from a session token.
//
// The fields are a display hint only; the remote service remains the authority
// on whether the token is acceptable.
type Credential struct {
	SubjectID   SubjectID
	DisplayName string
	Email       string
	ExpiresAt   time.Time
}

// Valid reports whether the credential is still usable at now.
// An expired credential is equivalent to no credential.
func (c Credential) Valid(now time.Time) bool {
	return now.Before(c.ExpiresAt)
}
