package domain

import "time"

const (
	EventReservationCreated      = "reservation.created"
	EventReservationTransitioned = "reservation.transitioned"
)

// ReservationEvent is the fire-and-forget payload handed to the
// notification publisher on every state change.
type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	BookID        string    `json:"book_id"`
	UserID        string    `json:"user_id"`
	ToStatus      Status    `json:"to_status"`
	Timestamp     time.Time `json:"timestamp"`
}
