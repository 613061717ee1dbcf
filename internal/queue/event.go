// Package queue defines the events exchanged over the message broker and
// the publisher and consumer that move them.
package queue

// Routing keys.  Each key is also the name of a durable queue bound to the
// default exchange.
const (
	BookingCreated   = "booking.created"
	BookingCancelled = "booking.cancelled"
	ChatLinked       = "chat.linked"
)

// BookingEvent is published after a slot was booked or a booking was
// cancelled.  Slot and OccurredAt are RFC 3339 in UTC.
type BookingEvent struct {
	Email      string `json:"email"`
	Facility   string `json:"facility"`
	Slot       string `json:"slot"`
	Via        string `json:"via"` // session | chat
	OccurredAt string `json:"occurred_at"`
}

// ChatLinkedEvent is published after a chat was attached to an account.
// The consumer answers it with the bot's welcome message.
type ChatLinkedEvent struct {
	Email    string `json:"email"`
	ChatID   int64  `json:"chat_id"`
	Name     string `json:"name"`
	LinkedAt string `json:"linked_at"`
}
