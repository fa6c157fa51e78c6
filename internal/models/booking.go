package models

import "time"

type Booking struct {
	ID        int64         `json:"id"`
	ItemID    int64         `json:"item_id"`
	BookerID  int64         `json:"booker_id"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Status    BookingStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Version   int64         `json:"version"`
}

// BookingDetails joins a booking with its booker and item for presentation.
type BookingDetails struct {
	Booking Booking `json:"booking"`
	Booker  User    `json:"booker"`
	Item    Item    `json:"item"`
}

// Overlaps reports whether the two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Overlaps reports whether the booking intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return Overlaps(b.Start, b.End, start, end)
}

// IsPast reports whether the booking ended before now.
func (b *Booking) IsPast(now time.Time) bool {
	return b.End.Before(now)
}

// IsFuture reports whether the booking starts after now.
func (b *Booking) IsFuture(now time.Time) bool {
	return b.Start.After(now)
}

// IsCurrent reports whether now falls inside [start, end).
func (b *Booking) IsCurrent(now time.Time) bool {
	return !b.Start.After(now) && now.Before(b.End)
}
