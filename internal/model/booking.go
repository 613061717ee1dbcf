package model

import "time"

// Booking is one reservation of one facility slot by one identity.  A slot
// is identified by the pair (Facility, Slot) and Slot is stored in UTC at
// second precision, so equality between book, count and cancel is exact.
type Booking struct {
	ID        string    `json:"_id"`
	Email     string    `json:"email"`
	Facility  string    `json:"facility"`
	Slot      time.Time `json:"date"`
	CreatedAt time.Time `json:"-"`
}

// SlotCount is one row of the slot occupancy query.
type SlotCount struct {
	Slot  time.Time `json:"_id"`
	Count int       `json:"count"`
}
