package models

type Item struct {
	ID          int64  `json:"id" yaml:"id"`
	OwnerID     int64  `json:"owner_id" yaml:"owner_id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Available   bool   `json:"available" yaml:"available"`
}

// ItemDetails is the item-detail view: the item plus the closest bookings
// around "now", hiding the viewer's own bookings.
type ItemDetails struct {
	Item        Item     `json:"item"`
	LastBooking *Booking `json:"last_booking,omitempty"`
	NextBooking *Booking `json:"next_booking,omitempty"`
}
