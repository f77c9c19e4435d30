package httpapi

import (
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Overland-East-Bay/ridebook/internal/domain"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDTO struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Email openapi_types.Email `json:"email"`
}

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

type bookRideRequest struct {
	PickupLocation string `json:"pickupLocation"`
	DropLocation   string `json:"dropLocation"`
}

type rideDTO struct {
	ID             string    `json:"id"`
	PickupLocation string    `json:"pickupLocation"`
	DropLocation   string    `json:"dropLocation"`
	DateTime       time.Time `json:"dateTime"`
	Status         string    `json:"status"`
}

func userFromDomain(u domain.User) userDTO {
	return userDTO{
		ID:    string(u.ID),
		Name:  u.Name,
		Email: openapi_types.Email(u.Email),
	}
}

func rideFromDomain(r domain.Ride) rideDTO {
	return rideDTO{
		ID:             string(r.ID),
		PickupLocation: r.PickupLocation,
		DropLocation:   r.DropLocation,
		DateTime:       r.DateTime.UTC(),
		Status:         string(r.Status),
	}
}
