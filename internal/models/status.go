package models

import (
	"errors"
	"fmt"
	"strings"
)

// BookingStatus is the persisted lifecycle status of a booking.
type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
	StatusCanceled BookingStatus = "CANCELED"
)

// BookingState is a query-time classifier over a user's bookings, evaluated
// against "now". WAITING and REJECTED match status, the rest match time.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

var ErrUnknownState = errors.New("unknown state")

// ParseBookingState matches raw case-insensitively against the closed state
// set. An empty value means ALL. Raw strings never travel past this point.
func ParseBookingState(raw string) (BookingState, error) {
	switch BookingState(strings.ToUpper(strings.TrimSpace(raw))) {
	case "", StateAll:
		return StateAll, nil
	case StateCurrent:
		return StateCurrent, nil
	case StatePast:
		return StatePast, nil
	case StateFuture:
		return StateFuture, nil
	case StateWaiting:
		return StateWaiting, nil
	case StateRejected:
		return StateRejected, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownState, raw)
	}
}
