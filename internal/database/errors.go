package database

import "errors"

// Sentinel errors shared by the storage layer and the booking engine.
// Callers match with errors.Is; wrapping carries the offending identifiers.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrBookingNotFound = errors.New("booking not found")

	// ErrItemNotAvailable means the owner has withdrawn the item from loan.
	ErrItemNotAvailable = errors.New("item not available")

	// ErrOwnBooking means the actor tried to book their own item.
	ErrOwnBooking = errors.New("cannot book own item")

	// ErrTimeConflict means an approved booking already holds an
	// overlapping interval on the item.
	ErrTimeConflict = errors.New("booking dates conflict with an approved booking")

	ErrStartInPast    = errors.New("start date is not in the future")
	ErrEndInPast      = errors.New("end date is not in the future")
	ErrEndBeforeStart = errors.New("end date is not after start date")

	// ErrNotWaiting means a decision was attempted on a booking that has
	// already left WAITING.
	ErrNotWaiting = errors.New("booking is not waiting for a decision")

	ErrNotAuthorized = errors.New("not authorized")

	ErrInvalidFrom = errors.New("from must not be negative")
	ErrInvalidSize = errors.New("size must be positive")
)
