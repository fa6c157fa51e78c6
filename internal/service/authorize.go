package service

import (
	"fmt"

	"lendit/internal/database"
	"lendit/internal/models"
)

type bookingRole int

const (
	roleNone bookingRole = iota
	roleBooker
	roleOwner
)

func resolveRole(actorID int64, booking *models.Booking, item *models.Item) bookingRole {
	switch {
	case actorID == booking.BookerID:
		return roleBooker
	case actorID == item.OwnerID:
		return roleOwner
	default:
		return roleNone
	}
}

// authorizeRead permits the booker and the item owner to see a booking.
func authorizeRead(actorID int64, booking *models.Booking, item *models.Item) error {
	if resolveRole(actorID, booking, item) == roleNone {
		return fmt.Errorf("user %d on booking %d: %w", actorID, booking.ID, database.ErrNotAuthorized)
	}
	return nil
}

// authorizeDecide permits only the item owner to approve or reject. The
// denial names the item so the caller can tell which ownership check failed.
func authorizeDecide(actorID int64, booking *models.Booking, item *models.Item) error {
	if resolveRole(actorID, booking, item) != roleOwner {
		return fmt.Errorf("user %d does not own item %d of booking %d: %w", actorID, item.ID, booking.ID, database.ErrNotAuthorized)
	}
	return nil
}
